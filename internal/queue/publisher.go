package queue

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// maxStreamLen caps the media stream (approximate trim on every XADD).
// Acked entries are never read again, so old history is safe to drop.
const maxStreamLen = 10000

// Publisher appends events to a stream.
type Publisher interface {
	// Publish returns the entry ID assigned by Redis.
	Publish(ctx context.Context, stream string, event MediaEvent) (messageID string, err error)
}

type RedisPublisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) Publisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, stream string, event MediaEvent) (string, error) {
	values, err := event.ToMap()
	if err != nil {
		return "", fmt.Errorf("encode %s event: %w", event.Type, err)
	}

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: maxStreamLen,
		Approx: true,
		Values: values,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", stream, err)
	}

	log.Printf("[Publisher] stream=%s type=%s reason=%s keys=%d msgID=%s",
		stream, event.Type, event.Reason, len(event.Keys), id)
	return id, nil
}
