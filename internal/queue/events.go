package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event types for the media stream
const (
	EventMediaOrphaned = "media_orphaned"
)

// Stream names
const (
	StreamMedia = "stream:media"
)

// Consumer group name for media cleanup workers
const (
	ConsumerGroupMedia = "media_workers"
)

// Reasons attached to media_orphaned events
const (
	ReasonUserDeleted    = "user_deleted"
	ReasonListingDeleted = "listing_deleted"
	ReasonAvatarReplaced = "avatar_replaced"
	ReasonPhotoReplaced  = "photo_replaced"
)

// MediaEvent is published whenever object-storage keys stop being referenced
// by any row.
type MediaEvent struct {
	Type      string   `json:"type"`
	Timestamp int64    `json:"timestamp"` // Unix timestamp when event occurred
	Reason    string   `json:"reason"`
	Keys      []string `json:"keys"`
}

// NewMediaOrphanedEvent creates an event asking workers to delete keys.
func NewMediaOrphanedEvent(reason string, keys []string) MediaEvent {
	return MediaEvent{
		Type:      EventMediaOrphaned,
		Timestamp: time.Now().Unix(),
		Reason:    reason,
		Keys:      keys,
	}
}

// ToMap converts the event to a map for Redis XADD.
// Redis Streams store field-value pairs, so we serialize to JSON in a "data" field.
func (e MediaEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseMediaEvent parses a MediaEvent from Redis stream message values.
func ParseMediaEvent(values map[string]interface{}) (MediaEvent, error) {
	data, ok := values["data"].(string)
	if !ok {
		return MediaEvent{}, fmt.Errorf("missing or invalid 'data' field")
	}

	var event MediaEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return MediaEvent{}, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, nil
}
