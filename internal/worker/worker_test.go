package worker_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharebnb/internal/queue"
	"sharebnb/internal/worker"
)

// =============================================================================
// Mock Implementations
// =============================================================================

// MockDeleter records deleted keys and fails for keys listed in failOn.
type MockDeleter struct {
	mu      sync.Mutex
	deleted []string
	failOn  map[string]bool
}

func NewMockDeleter(failOn ...string) *MockDeleter {
	m := &MockDeleter{failOn: make(map[string]bool)}
	for _, k := range failOn {
		m.failOn[k] = true
	}
	return m
}

func (m *MockDeleter) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[key] {
		return errors.New("r2 unavailable")
	}
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *MockDeleter) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// FakeConsumer serves pending and new messages from memory.
type FakeConsumer struct {
	mu       sync.Mutex
	pending  []queue.Message
	incoming []queue.Message
	acked    []string
	groups   []string
}

func (f *FakeConsumer) EnsureGroup(ctx context.Context, stream, group string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, stream+"/"+group)
	return nil
}

func (f *FakeConsumer) Read(ctx context.Context, stream, group, consumer string, count int64, block time.Duration) ([]queue.Message, error) {
	f.mu.Lock()
	if len(f.incoming) > 0 {
		n := int(count)
		if n > len(f.incoming) {
			n = len(f.incoming)
		}
		batch := f.incoming[:n]
		f.incoming = f.incoming[n:]
		f.mu.Unlock()
		return batch, nil
	}
	f.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Millisecond):
		return nil, nil
	}
}

func (f *FakeConsumer) ReadPending(ctx context.Context, stream, group, consumer string, count int64) ([]queue.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := f.pending
	f.pending = nil
	return batch, nil
}

func (f *FakeConsumer) Ack(ctx context.Context, stream, group string, messageIDs ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, messageIDs...)
	return nil
}

func (f *FakeConsumer) Acked() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandler_MediaOrphaned_DeletesManagedKeysOnly(t *testing.T) {
	deleter := NewMockDeleter()
	h := worker.NewHandler(deleter)

	event := queue.NewMediaOrphanedEvent(queue.ReasonUserDeleted, []string{
		"avatars/a.jpg",
		"",
		"static/default-pic.png",
		"listings/",
		"listings/b.jpg",
	})
	require.NoError(t, h.HandleEvent(context.Background(), event))

	assert.Equal(t, []string{"avatars/a.jpg", "listings/b.jpg"}, deleter.Deleted())
}

func TestHandler_MediaOrphaned_ContinuesAfterFailure(t *testing.T) {
	deleter := NewMockDeleter("avatars/bad.jpg")
	h := worker.NewHandler(deleter)

	event := queue.NewMediaOrphanedEvent(queue.ReasonListingDeleted, []string{"avatars/bad.jpg", "listings/ok.jpg"})
	err := h.HandleEvent(context.Background(), event)

	assert.Error(t, err)
	assert.Equal(t, []string{"listings/ok.jpg"}, deleter.Deleted())
}

func TestHandler_UnknownEventIsIgnored(t *testing.T) {
	deleter := NewMockDeleter()
	h := worker.NewHandler(deleter)

	err := h.HandleEvent(context.Background(), queue.MediaEvent{Type: "something_else", Keys: []string{"avatars/a.jpg"}})
	assert.NoError(t, err)
	assert.Empty(t, deleter.Deleted())
}

// =============================================================================
// Manager Tests
// =============================================================================

func TestManager_ProcessesPendingThenNewAndAcksEverything(t *testing.T) {
	consumer := &FakeConsumer{
		pending: []queue.Message{
			{ID: "1-0", Event: queue.NewMediaOrphanedEvent(queue.ReasonUserDeleted, []string{"avatars/p.jpg"})},
		},
		incoming: []queue.Message{
			{ID: "2-0", Event: queue.NewMediaOrphanedEvent(queue.ReasonListingDeleted, []string{"listings/fail.jpg"})},
			{ID: "3-0", Event: queue.MediaEvent{}}, // malformed entry
			{ID: "4-0", Event: queue.NewMediaOrphanedEvent(queue.ReasonPhotoReplaced, []string{"listings/n.jpg"})},
		},
	}
	deleter := NewMockDeleter("listings/fail.jpg")

	m := worker.NewManager(consumer, worker.NewHandler(deleter), worker.ManagerConfig{
		WorkerCount:  1,
		BatchSize:    2,
		BlockTimeout: 10 * time.Millisecond,
	})
	require.NoError(t, m.Start(context.Background()))

	require.Eventually(t, func() bool { return len(consumer.Acked()) == 4 }, 2*time.Second, 10*time.Millisecond)
	m.Stop()

	assert.Equal(t, []string{"1-0", "2-0", "3-0", "4-0"}, consumer.Acked())
	assert.Equal(t, []string{"avatars/p.jpg", "listings/n.jpg"}, deleter.Deleted())
	assert.Equal(t, []string{queue.StreamMedia + "/" + queue.ConsumerGroupMedia}, consumer.groups)
	assert.Equal(t, worker.Stats{Processed: 3, Failed: 1}, m.Stats())
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := worker.NewManager(&FakeConsumer{}, worker.NewHandler(NewMockDeleter()), worker.ManagerConfig{})
	m.Stop()
	assert.Equal(t, worker.Stats{}, m.Stats())
}

// =============================================================================
// Redis Integration Test
// =============================================================================

func TestManager_WithRedis(t *testing.T) {
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
	client.Del(ctx, queue.StreamMedia)
	defer client.Del(ctx, queue.StreamMedia)

	deleter := NewMockDeleter()
	m := worker.NewManager(queue.NewConsumer(client), worker.NewHandler(deleter), worker.ManagerConfig{
		WorkerCount:  2,
		BlockTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, m.Start(ctx))
	defer m.Stop()

	pub := queue.NewPublisher(client)
	for i := 0; i < 3; i++ {
		_, err := pub.Publish(ctx, queue.StreamMedia,
			queue.NewMediaOrphanedEvent(queue.ReasonUserDeleted, []string{fmt.Sprintf("avatars/%d.jpg", i)}))
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool { return len(deleter.Deleted()) == 3 }, 5*time.Second, 20*time.Millisecond)
	assert.ElementsMatch(t, []string{"avatars/0.jpg", "avatars/1.jpg", "avatars/2.jpg"}, deleter.Deleted())
}
