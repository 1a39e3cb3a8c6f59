package service

import (
	"context"
	"log"

	"sharebnb/internal/queue"
)

// publishOrphans queues object-storage keys that no row references anymore.
// The database write has already committed, so a publish failure is logged
// and the objects are left behind rather than failing the request.
func publishOrphans(ctx context.Context, publisher queue.Publisher, reason string, keys []string) {
	if publisher == nil {
		return
	}
	var nonEmpty []string
	for _, k := range keys {
		if k != "" {
			nonEmpty = append(nonEmpty, k)
		}
	}
	if len(nonEmpty) == 0 {
		return
	}

	msgID, err := publisher.Publish(ctx, queue.StreamMedia, queue.NewMediaOrphanedEvent(reason, nonEmpty))
	if err != nil {
		log.Printf("[MediaCleanup] Failed to publish %s event: keys=%v err=%v", reason, nonEmpty, err)
		return
	}
	log.Printf("[MediaCleanup] Published %s: keys=%d msgID=%s", reason, len(nonEmpty), msgID)
}
