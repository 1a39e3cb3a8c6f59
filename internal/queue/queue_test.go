package queue

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaEvent_MapRoundTrip(t *testing.T) {
	event := NewMediaOrphanedEvent(ReasonUserDeleted, []string{"avatars/a.jpg", "listings/b.jpg"})

	values, err := event.ToMap()
	require.NoError(t, err)
	assert.Equal(t, EventMediaOrphaned, values["type"])

	parsed, err := ParseMediaEvent(values)
	require.NoError(t, err)
	assert.Equal(t, event, parsed)
}

func TestParseMediaEvent_Malformed(t *testing.T) {
	_, err := ParseMediaEvent(map[string]interface{}{"type": EventMediaOrphaned})
	assert.Error(t, err)

	_, err = ParseMediaEvent(map[string]interface{}{"data": "{not json"})
	assert.Error(t, err)
}

func TestRedisStream_PublishReadAck(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	stream := fmt.Sprintf("test:stream:media:%d", time.Now().UnixNano())
	group := "test_group"
	defer client.Del(ctx, stream)

	consumer := NewConsumer(client)
	require.NoError(t, consumer.EnsureGroup(ctx, stream, group))
	require.NoError(t, consumer.EnsureGroup(ctx, stream, group), "second call must tolerate BUSYGROUP")

	publisher := NewPublisher(client)
	_, err = publisher.Publish(ctx, stream, NewMediaOrphanedEvent(ReasonListingDeleted, []string{"listings/x.jpg"}))
	require.NoError(t, err)

	msgs, err := consumer.Read(ctx, stream, group, "c1", 10, 100*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"listings/x.jpg"}, msgs[0].Event.Keys)

	pending, err := consumer.ReadPending(ctx, stream, group, "c1", 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, consumer.Ack(ctx, stream, group, msgs[0].ID))

	pending, err = consumer.ReadPending(ctx, stream, group, "c1", 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
