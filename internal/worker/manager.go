package worker

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"sharebnb/internal/queue"
)

const (
	DefaultWorkerCount  = 2
	DefaultBatchSize    = 10
	DefaultBlockTimeout = 5 * time.Second

	// read errors back off from minBackoff, doubling up to maxBackoff
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

func (c ManagerConfig) withDefaults() ManagerConfig {
	if c.WorkerCount <= 0 {
		c.WorkerCount = DefaultWorkerCount
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BlockTimeout <= 0 {
		c.BlockTimeout = DefaultBlockTimeout
	}
	return c
}

// Stats counts messages handled since Start.
type Stats struct {
	Processed int64
	Failed    int64
}

// Manager runs a pool of consumers in the media_workers group. Every message
// is acknowledged after one attempt, whether or not the handler succeeded.
type Manager struct {
	consumer queue.Consumer
	handler  *Handler
	cfg      ManagerConfig

	processed atomic.Int64
	failed    atomic.Int64

	cancel context.CancelFunc
	group  *errgroup.Group
}

func NewManager(consumer queue.Consumer, handler *Handler, cfg ManagerConfig) *Manager {
	return &Manager{
		consumer: consumer,
		handler:  handler,
		cfg:      cfg.withDefaults(),
	}
}

// Start creates the consumer group if needed and launches the workers. They
// run until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.consumer.EnsureGroup(ctx, queue.StreamMedia, queue.ConsumerGroupMedia); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.group, ctx = errgroup.WithContext(ctx)

	log.Printf("[Manager] Starting %d workers for stream=%s group=%s",
		m.cfg.WorkerCount, queue.StreamMedia, queue.ConsumerGroupMedia)

	for i := 1; i <= m.cfg.WorkerCount; i++ {
		w := &mediaWorker{id: i, name: fmt.Sprintf("worker-%d", i), m: m}
		m.group.Go(func() error {
			w.run(ctx)
			return nil
		})
	}
	return nil
}

// Stop cancels the workers and waits for them to return.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	log.Printf("[Manager] Stopping workers...")
	m.cancel()
	_ = m.group.Wait()
	s := m.Stats()
	log.Printf("[Manager] All workers stopped (processed=%d failed=%d)", s.Processed, s.Failed)
}

func (m *Manager) Stats() Stats {
	return Stats{Processed: m.processed.Load(), Failed: m.failed.Load()}
}

// mediaWorker is one consumer in the group. Its name is stable across
// restarts so entries it left pending are replayed on the next start.
type mediaWorker struct {
	id      int
	name    string
	m       *Manager
	backoff time.Duration
}

func (w *mediaWorker) run(ctx context.Context) {
	log.Printf("[Worker-%d] Started (consumer=%s)", w.id, w.name)
	w.drainPending(ctx)

	for ctx.Err() == nil {
		batch, err := w.m.consumer.Read(ctx, queue.StreamMedia, queue.ConsumerGroupMedia, w.name, w.m.cfg.BatchSize, w.m.cfg.BlockTimeout)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[Worker-%d] Error reading: %v", w.id, err)
				w.sleep(ctx)
			}
			continue
		}
		w.backoff = 0
		w.process(ctx, batch)
	}
	log.Printf("[Worker-%d] Shutting down", w.id)
}

// drainPending replays entries delivered to this consumer but never acked.
func (w *mediaWorker) drainPending(ctx context.Context) {
	for ctx.Err() == nil {
		batch, err := w.m.consumer.ReadPending(ctx, queue.StreamMedia, queue.ConsumerGroupMedia, w.name, w.m.cfg.BatchSize)
		if err != nil {
			log.Printf("[Worker-%d] Error reading pending: %v", w.id, err)
			return
		}
		if len(batch) == 0 {
			return
		}
		log.Printf("[Worker-%d] Replaying %d pending messages", w.id, len(batch))
		w.process(ctx, batch)
	}
}

func (w *mediaWorker) process(ctx context.Context, batch []queue.Message) {
	for _, msg := range batch {
		if err := w.m.handler.HandleEvent(ctx, msg.Event); err != nil {
			w.m.failed.Add(1)
			log.Printf("[Worker-%d] Handler error msgID=%s: %v", w.id, msg.ID, err)
		} else {
			w.m.processed.Add(1)
		}

		if err := w.m.consumer.Ack(ctx, queue.StreamMedia, queue.ConsumerGroupMedia, msg.ID); err != nil {
			log.Printf("[Worker-%d] ACK error msgID=%s: %v", w.id, msg.ID, err)
		}
	}
}

func (w *mediaWorker) sleep(ctx context.Context) {
	w.backoff = min(max(w.backoff*2, minBackoff), maxBackoff)
	t := time.NewTimer(w.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
