package queue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Message is one stream entry. Event is zero when the entry could not be
// parsed; such entries are still delivered so they can be acknowledged.
type Message struct {
	ID    string
	Event MediaEvent
}

// Consumer reads a stream as a member of a consumer group.
type Consumer interface {
	// EnsureGroup creates the group (and the stream) if missing.
	EnsureGroup(ctx context.Context, stream, group string) error

	// Read returns entries never delivered to any consumer, waiting up to block.
	Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error)

	// ReadPending returns entries delivered to consumer but not yet acknowledged.
	ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error)

	Ack(ctx context.Context, stream, group string, messageIDs ...string) error
}

// Stream cursors for XREADGROUP
const (
	cursorNew     = ">"
	cursorPending = "0"
)

// RedisConsumer implements Consumer with XREADGROUP / XACK.
type RedisConsumer struct {
	client *redis.Client
}

func NewConsumer(client *redis.Client) Consumer {
	return &RedisConsumer{client: client}
}

// EnsureGroup starts a new group at the beginning of the stream so events
// published before the first worker came up are not skipped.
func (c *RedisConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	err := c.client.XGroupCreateMkStream(ctx, stream, group, "0").Err()
	switch {
	case err == nil:
		log.Printf("[Consumer] Created group=%s on stream=%s", group, stream)
		return nil
	case strings.HasPrefix(err.Error(), "BUSYGROUP"):
		return nil
	default:
		return fmt.Errorf("create consumer group %s: %w", group, err)
	}
}

func (c *RedisConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]Message, error) {
	return c.readGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, cursorNew},
		Count:    count,
		Block:    block,
	})
}

func (c *RedisConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]Message, error) {
	// Block is ignored for the pending cursor; -1 omits the BLOCK argument.
	return c.readGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{stream, cursorPending},
		Count:    count,
		Block:    -1,
	})
}

func (c *RedisConsumer) readGroup(ctx context.Context, args *redis.XReadGroupArgs) ([]Message, error) {
	streams, err := c.client.XReadGroup(ctx, args).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("xreadgroup %s %s: %w", args.Streams[0], args.Streams[1], err)
	}

	var messages []Message
	for _, s := range streams {
		for _, entry := range s.Messages {
			event, err := ParseMediaEvent(entry.Values)
			if err != nil {
				log.Printf("[Consumer] Malformed entry msgID=%s: %v", entry.ID, err)
			}
			messages = append(messages, Message{ID: entry.ID, Event: event})
		}
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := c.client.XAck(ctx, stream, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("xack %v: %w", messageIDs, err)
	}
	return nil
}
