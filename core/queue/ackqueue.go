package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds the deliverable sequence when no capacity is configured.
const DefaultCapacity = 1000

// DefaultAckTimeout is how long a dequeued message may stay unacknowledged
// before it becomes eligible for redelivery.
const DefaultAckTimeout = 30 * time.Second

// pendingEntry tracks a delivered-but-unacknowledged envelope together with
// the time it left the deliverable sequence.
type pendingEntry struct {
	env        *Envelope
	dequeuedAt time.Time
}

// AckQueueStats provides observability metrics for monitoring and debugging.
type AckQueueStats struct {
	Deliverable  int   // Messages currently waiting to be dequeued
	Pending      int   // Messages dequeued but not yet acknowledged
	Capacity     int   // Configured bound of the deliverable sequence
	Enqueued     int64 // Total accepted enqueues
	Rejected     int64 // Total enqueues rejected at capacity
	Acknowledged int64 // Total successful acknowledgements
	Requeued     int64 // Total timeout-driven redeliveries
}

// AckQueue is a bounded FIFO queue with at-least-once delivery semantics.
// Dequeued messages are held in a pending-acknowledgement index until
// Acknowledge is called; RequeueUnacknowledged (normally driven by a Reaper)
// returns expired entries to the tail of the deliverable sequence.
//
// A message is always in exactly one of three states: deliverable, pending
// acknowledgement, or acknowledged. Redelivered messages lose their original
// position, so ordering is FIFO except for redeliveries.
//
// There is no redelivery cap: a message that is dequeued but never
// acknowledged cycles through redelivery indefinitely. Detecting repeat
// delivery of poison messages is the consumer's responsibility.
type AckQueue struct {
	deliverable chan *Envelope

	mu      sync.Mutex
	pending map[uuid.UUID]pendingEntry

	ackTimeout time.Duration
	logger     *slog.Logger

	// Observability metrics
	enqueued     atomic.Int64
	rejected     atomic.Int64
	acknowledged atomic.Int64
	requeued     atomic.Int64
}

// AckQueueOption configures an AckQueue.
type AckQueueOption func(*ackQueueOptions)

type ackQueueOptions struct {
	capacity   int
	ackTimeout time.Duration
	logger     *slog.Logger
}

// WithCapacity bounds the deliverable sequence. Default is DefaultCapacity.
func WithCapacity(capacity int) AckQueueOption {
	return func(o *ackQueueOptions) {
		if capacity > 0 {
			o.capacity = capacity
		}
	}
}

// WithAckTimeout sets how long a dequeued message may remain unacknowledged
// before RequeueUnacknowledged considers it expired. Default is DefaultAckTimeout.
func WithAckTimeout(timeout time.Duration) AckQueueOption {
	return func(o *ackQueueOptions) {
		if timeout > 0 {
			o.ackTimeout = timeout
		}
	}
}

// WithAckQueueLogger sets the logger for internal operations.
func WithAckQueueLogger(logger *slog.Logger) AckQueueOption {
	return func(o *ackQueueOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewAckQueue creates a new acknowledged queue. The queue has no background
// machinery of its own; pair it with a Reaper to drive redelivery.
func NewAckQueue(opts ...AckQueueOption) *AckQueue {
	options := &ackQueueOptions{
		capacity:   DefaultCapacity,
		ackTimeout: DefaultAckTimeout,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(options)
	}

	return &AckQueue{
		deliverable: make(chan *Envelope, options.capacity),
		pending:     make(map[uuid.UUID]pendingEntry),
		ackTimeout:  options.ackTimeout,
		logger:      options.logger,
	}
}

// NewAckQueueFromConfig creates an AckQueue from configuration.
// Additional options override config values.
func NewAckQueueFromConfig(cfg Config, opts ...AckQueueOption) *AckQueue {
	allOpts := append([]AckQueueOption{
		WithCapacity(cfg.Capacity),
		WithAckTimeout(cfg.AckTimeout),
	}, opts...)

	return NewAckQueue(allOpts...)
}

// Enqueue appends a message to the tail of the deliverable sequence.
// The call never blocks: if the sequence is at capacity it returns
// ErrQueueFull and the message is not retained.
func (q *AckQueue) Enqueue(ctx context.Context, payload []byte, priority int) (*Envelope, error) {
	env := newEnvelope(payload, priority)

	select {
	case q.deliverable <- env:
		q.enqueued.Add(1)
		q.logger.DebugContext(ctx, "message enqueued",
			slog.String("message_id", env.ID.String()),
			slog.Int("priority", priority))
		return env, nil
	default:
		q.rejected.Add(1)
		q.logger.WarnContext(ctx, "queue at capacity, message rejected",
			slog.Int("capacity", cap(q.deliverable)))
		return nil, ErrQueueFull
	}
}

// Dequeue removes and returns the head of the deliverable sequence, moving it
// into the pending-acknowledgement index stamped with the current time. It
// blocks up to wait for a message to become available and returns (nil, nil)
// when none arrived in that window; an empty queue is a normal steady-state
// outcome, not an error. A non-positive wait polls without blocking.
func (q *AckQueue) Dequeue(ctx context.Context, wait time.Duration) (*Envelope, error) {
	var env *Envelope

	if wait <= 0 {
		select {
		case env = <-q.deliverable:
		default:
			return nil, nil
		}
	} else {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case env = <-q.deliverable:
		case <-timer.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	q.mu.Lock()
	q.pending[env.ID] = pendingEntry{env: env, dequeuedAt: time.Now()}
	q.mu.Unlock()

	q.logger.DebugContext(ctx, "message dequeued",
		slog.String("message_id", env.ID.String()))

	return env, nil
}

// Acknowledge removes the message from the pending-acknowledgement index and
// marks it acknowledged. It returns false when the id is not pending —
// already acknowledged, already requeued, or unknown — which is a normal
// outcome under redelivery, not a failure.
func (q *AckQueue) Acknowledge(id uuid.UUID) bool {
	q.mu.Lock()
	entry, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}
	q.mu.Unlock()

	if !ok {
		q.logger.Debug("acknowledgement for unknown message",
			slog.String("message_id", id.String()))
		return false
	}

	entry.env.acknowledge()
	q.acknowledged.Add(1)
	q.logger.Debug("message acknowledged",
		slog.String("message_id", id.String()))

	return true
}

// RequeueUnacknowledged scans the pending index and moves every entry whose
// acknowledgement window has expired back to the tail of the deliverable
// sequence. Removal from pending and reinsertion happen under the queue lock,
// so a message is never observable in both structures. An expired entry that
// cannot be reinserted because the deliverable sequence is at capacity stays
// pending and is retried on the next scan.
//
// Returns the number of messages requeued.
func (q *AckQueue) RequeueUnacknowledged() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	requeued := 0

	for id, entry := range q.pending {
		if now.Sub(entry.dequeuedAt) <= q.ackTimeout {
			continue
		}

		select {
		case q.deliverable <- entry.env:
			delete(q.pending, id)
			requeued++
			q.logger.Debug("unacknowledged message requeued",
				slog.String("message_id", id.String()),
				slog.Time("dequeued_at", entry.dequeuedAt))
		default:
			// Deliverable sequence is full; keep the entry pending so the
			// message is not lost.
		}
	}

	if requeued > 0 {
		q.requeued.Add(int64(requeued))
	}

	return requeued
}

// Len returns the number of messages currently deliverable.
func (q *AckQueue) Len() int {
	return len(q.deliverable)
}

// PendingLen returns the number of messages awaiting acknowledgement.
func (q *AckQueue) PendingLen() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Cap returns the configured bound of the deliverable sequence.
func (q *AckQueue) Cap() int {
	return cap(q.deliverable)
}

// AckTimeout returns the configured acknowledgement timeout.
func (q *AckQueue) AckTimeout() time.Duration {
	return q.ackTimeout
}

// Stats returns current queue statistics for observability and monitoring.
// This method is thread-safe and can be called at any time.
func (q *AckQueue) Stats() AckQueueStats {
	q.mu.Lock()
	pending := len(q.pending)
	q.mu.Unlock()

	return AckQueueStats{
		Deliverable:  len(q.deliverable),
		Pending:      pending,
		Capacity:     cap(q.deliverable),
		Enqueued:     q.enqueued.Load(),
		Rejected:     q.rejected.Load(),
		Acknowledged: q.acknowledged.Load(),
		Requeued:     q.requeued.Load(),
	}
}

// Healthcheck validates that the queue is accepting messages.
// Returns nil if healthy, or an error describing the health issue.
// This method is thread-safe and suitable for use in health check endpoints.
func (q *AckQueue) Healthcheck(ctx context.Context) error {
	if len(q.deliverable) == cap(q.deliverable) {
		return errors.Join(ErrHealthcheckFailed, ErrQueueFull)
	}
	return nil
}
