package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Service bundles an AckQueue with the Reaper that drives its redelivery and
// manages their lifecycle as one unit. It is the wiring point for
// applications that want reliable queueing without assembling the parts
// themselves.
//
// Example usage:
//
//	svc, err := queue.NewServiceFromConfig(queue.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx, cancel := context.WithCancel(context.Background())
//	defer cancel()
//
//	go func() {
//	    if err := svc.Run(ctx); err != nil {
//	        log.Printf("queue service error: %v", err)
//	    }
//	}()
//
//	env, err := svc.Enqueue(ctx, []byte("hello"), 0)
//	if errors.Is(err, queue.ErrQueueFull) {
//	    // caller applies its own retry or drop policy
//	}
//
//	msg, err := svc.Dequeue(ctx, time.Second)
//	if msg != nil {
//	    // process, then confirm
//	    svc.Acknowledge(msg.ID)
//	}
type Service struct {
	queue  *AckQueue
	reaper *Reaper
	logger *slog.Logger
}

// ServiceStats aggregates queue and reaper metrics.
type ServiceStats struct {
	Queue  AckQueueStats
	Reaper ReaperStats
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	logger        *slog.Logger
	queueOptions  []AckQueueOption
	reaperOptions []ReaperOption
}

// WithServiceLogger sets the logger for the service and its components.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithQueueOptions forwards options to the underlying AckQueue.
func WithQueueOptions(opts ...AckQueueOption) ServiceOption {
	return func(o *serviceOptions) {
		o.queueOptions = append(o.queueOptions, opts...)
	}
}

// WithReaperOptions forwards options to the underlying Reaper.
func WithReaperOptions(opts ...ReaperOption) ServiceOption {
	return func(o *serviceOptions) {
		o.reaperOptions = append(o.reaperOptions, opts...)
	}
}

// NewService creates a queue service with default configuration.
func NewService(opts ...ServiceOption) (*Service, error) {
	return NewServiceFromConfig(DefaultConfig(), opts...)
}

// NewServiceFromConfig creates a queue service from configuration.
// Additional options override config values.
func NewServiceFromConfig(cfg Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(options)
	}

	queueOpts := append([]AckQueueOption{
		WithAckQueueLogger(options.logger),
	}, options.queueOptions...)
	q := NewAckQueueFromConfig(cfg, queueOpts...)

	reaperOpts := append([]ReaperOption{
		WithReaperLogger(options.logger),
	}, options.reaperOptions...)
	r, err := NewReaperFromConfig(cfg, q, reaperOpts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		queue:  q,
		reaper: r,
		logger: options.logger,
	}, nil
}

// Queue returns the underlying acknowledged queue.
func (s *Service) Queue() *AckQueue {
	return s.queue
}

// Reaper returns the underlying reaper.
func (s *Service) Reaper() *Reaper {
	return s.reaper
}

// Enqueue appends a message; see AckQueue.Enqueue.
func (s *Service) Enqueue(ctx context.Context, payload []byte, priority int) (*Envelope, error) {
	return s.queue.Enqueue(ctx, payload, priority)
}

// Dequeue pulls the next message; see AckQueue.Dequeue.
func (s *Service) Dequeue(ctx context.Context, wait time.Duration) (*Envelope, error) {
	return s.queue.Dequeue(ctx, wait)
}

// Acknowledge confirms processing; see AckQueue.Acknowledge.
func (s *Service) Acknowledge(id uuid.UUID) bool {
	return s.queue.Acknowledge(id)
}

// Run starts the reaper and blocks until the context is cancelled.
// Shutdown is graceful: in-flight scans complete before Run returns.
func (s *Service) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(s.reaper.Run(ctx))

	s.logger.InfoContext(ctx, "queue service started",
		slog.Int("capacity", s.queue.Cap()),
		slog.Duration("ack_timeout", s.queue.AckTimeout()))

	return g.Wait()
}

// Stats returns aggregated queue and reaper statistics.
// This method is thread-safe and can be called at any time.
func (s *Service) Stats() ServiceStats {
	return ServiceStats{
		Queue:  s.queue.Stats(),
		Reaper: s.reaper.Stats(),
	}
}

// Healthcheck validates the queue and its reaper.
// This method is thread-safe and suitable for use in health check endpoints.
func (s *Service) Healthcheck(ctx context.Context) error {
	return errors.Join(
		s.queue.Healthcheck(ctx),
		s.reaper.Healthcheck(ctx),
	)
}
