package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultReapInterval is how often the reaper scans for expired
// acknowledgements when no interval is configured.
const DefaultReapInterval = 10 * time.Second

// ReaperStats provides observability metrics for monitoring and debugging.
type ReaperStats struct {
	Cycles    int64 // Total completed scan cycles
	Requeued  int64 // Total messages returned to the deliverable sequence
	IsRunning bool  // Whether the reaper is currently running
}

// Reaper periodically invokes RequeueUnacknowledged on an AckQueue, returning
// expired pending messages to the tail of the deliverable sequence. It is the
// sole redelivery trigger; there is no negative-acknowledge API.
//
// The reaper is never started as a side effect of construction. Call Start
// (or Run with an errgroup) from the owning service.
type Reaper struct {
	queue *AckQueue

	// Configuration
	interval        time.Duration
	shutdownTimeout time.Duration
	logger          *slog.Logger

	// State management
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Observability metrics
	cycles   atomic.Int64
	requeued atomic.Int64
	running  atomic.Bool
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithReapInterval sets the period between scans. Default is DefaultReapInterval.
func WithReapInterval(interval time.Duration) ReaperOption {
	return func(r *Reaper) {
		if interval > 0 {
			r.interval = interval
		}
	}
}

// WithReaperShutdownTimeout sets the graceful shutdown timeout.
func WithReaperShutdownTimeout(timeout time.Duration) ReaperOption {
	return func(r *Reaper) {
		if timeout > 0 {
			r.shutdownTimeout = timeout
		}
	}
}

// WithReaperLogger sets the logger for internal operations.
func WithReaperLogger(logger *slog.Logger) ReaperOption {
	return func(r *Reaper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewReaper creates a reaper for the given queue.
// Call Start() to begin scanning.
func NewReaper(queue *AckQueue, opts ...ReaperOption) (*Reaper, error) {
	if queue == nil {
		return nil, ErrQueueNil
	}

	r := &Reaper{
		queue:           queue,
		interval:        DefaultReapInterval,
		shutdownTimeout: 30 * time.Second,
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// NewReaperFromConfig creates a Reaper from configuration.
// Additional options override config values.
func NewReaperFromConfig(cfg Config, queue *AckQueue, opts ...ReaperOption) (*Reaper, error) {
	allOpts := append([]ReaperOption{
		WithReapInterval(cfg.ReapInterval),
		WithReaperShutdownTimeout(cfg.ShutdownTimeout),
	}, opts...)

	return NewReaper(queue, allOpts...)
}

// Start begins the redelivery scan loop. This is a blocking operation that
// runs until the context is cancelled. Use Run() for errgroup pattern or call
// this in a goroutine.
func (r *Reaper) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return fmt.Errorf("reaper: %w", ErrAlreadyStarted)
	}

	r.ctx, r.cancel = context.WithCancel(ctx)
	r.mu.Unlock()

	r.running.Store(true)
	defer r.running.Store(false)

	r.logger.InfoContext(r.ctx, "reaper started",
		slog.Duration("interval", r.interval),
		slog.Duration("ack_timeout", r.queue.AckTimeout()))

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.InfoContext(context.Background(), "reaper stopping")
			return r.ctx.Err()
		case <-ticker.C:
			select {
			case <-r.ctx.Done():
				return r.ctx.Err()
			default:
				r.reapWithWait()
			}
		}
	}
}

// Stop gracefully shuts down the reaper with a timeout.
// Returns an error if the shutdown timeout is exceeded.
func (r *Reaper) Stop() error {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return fmt.Errorf("reaper: %w", ErrNotStarted)
	}

	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	cancel()

	ctx, ctxCancel := context.WithTimeout(context.Background(), r.shutdownTimeout)
	defer ctxCancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.InfoContext(context.Background(), "reaper stopped cleanly")
		return nil
	case <-ctx.Done():
		r.logger.WarnContext(context.Background(), "reaper shutdown timeout exceeded",
			slog.Duration("timeout", r.shutdownTimeout))
		return fmt.Errorf("shutdown timeout exceeded after %s", r.shutdownTimeout)
	}
}

// Run provides errgroup compatibility for coordinated lifecycle management.
// Returns a function that starts the reaper, monitors context cancellation,
// and performs graceful shutdown when the context is cancelled.
func (r *Reaper) Run(ctx context.Context) func() error {
	return func() error {
		errCh := make(chan error, 1)
		go func() {
			errCh <- r.Start(ctx)
		}()

		select {
		case <-ctx.Done():
			_ = r.Stop() // Ignore stop error in normal shutdown
			<-errCh      // Wait for Start() to exit
			return nil
		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

// reapWithWait wraps one scan with WaitGroup tracking for graceful shutdown.
func (r *Reaper) reapWithWait() {
	r.mu.Lock()
	if r.cancel == nil {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	defer r.wg.Done()

	requeued := r.queue.RequeueUnacknowledged()
	r.cycles.Add(1)
	if requeued > 0 {
		r.requeued.Add(int64(requeued))
		r.logger.Info("requeued unacknowledged messages",
			slog.Int("count", requeued))
	}
}

// Stats returns current reaper statistics for observability and monitoring.
// This method is thread-safe and can be called at any time.
func (r *Reaper) Stats() ReaperStats {
	r.mu.Lock()
	isRunning := r.cancel != nil
	r.mu.Unlock()

	return ReaperStats{
		Cycles:    r.cycles.Load(),
		Requeued:  r.requeued.Load(),
		IsRunning: isRunning,
	}
}

// Healthcheck validates that the reaper is running, since without it
// unacknowledged messages are never redelivered.
// This method is thread-safe and suitable for use in health check endpoints.
func (r *Reaper) Healthcheck(ctx context.Context) error {
	if !r.Stats().IsRunning {
		return errors.Join(ErrHealthcheckFailed, ErrReaperNotRunning)
	}
	return nil
}
