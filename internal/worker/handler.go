package worker

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"sharebnb/internal/model"
	"sharebnb/internal/queue"
)

// ObjectDeleter removes objects from object storage.
// service.MediaService satisfies it.
type ObjectDeleter interface {
	DeleteObject(ctx context.Context, key string) error
}

// managedPrefixes are the folders uploads are written to. Keys outside them
// (shared defaults, hand-placed assets) are never deleted.
var managedPrefixes = []string{
	model.AvatarFolder + "/",
	model.PhotoFolder + "/",
}

// Handler processes media events from the queue.
type Handler struct {
	deleter ObjectDeleter
}

// NewHandler creates a new event handler.
func NewHandler(deleter ObjectDeleter) *Handler {
	return &Handler{deleter: deleter}
}

// HandleEvent routes an event to the matching handler.
func (h *Handler) HandleEvent(ctx context.Context, event queue.MediaEvent) error {
	switch event.Type {
	case queue.EventMediaOrphaned:
		return h.handleMediaOrphaned(ctx, event)
	default:
		log.Printf("[Handler] Unknown event type: %q", event.Type)
		return nil
	}
}

// handleMediaOrphaned deletes every managed key in the event. It keeps going
// after a failure and reports how many keys could not be deleted.
func (h *Handler) handleMediaOrphaned(ctx context.Context, event queue.MediaEvent) error {
	startTime := time.Now()
	var deleted, skipped, failed int

	for _, key := range event.Keys {
		if !isManagedKey(key) {
			skipped++
			continue
		}
		if err := h.deleter.DeleteObject(ctx, key); err != nil {
			log.Printf("[Handler] MediaOrphaned: delete key=%s FAILED: %v", key, err)
			failed++
			continue
		}
		deleted++
	}

	log.Printf("[Handler] MediaOrphaned: reason=%s deleted=%d skipped=%d failed=%d duration=%v",
		event.Reason, deleted, skipped, failed, time.Since(startTime))

	if failed > 0 {
		return fmt.Errorf("failed to delete %d of %d objects", failed, len(event.Keys))
	}
	return nil
}

func isManagedKey(key string) bool {
	if key == "" {
		return false
	}
	for _, prefix := range managedPrefixes {
		if strings.HasPrefix(key, prefix) && len(key) > len(prefix) {
			return true
		}
	}
	return false
}
