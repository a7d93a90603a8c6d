package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Publisher is a producer-side helper bound to one AckQueue. It applies a
// default priority and leaves retry/backoff on ErrQueueFull to the caller.
type Publisher struct {
	queue           *AckQueue
	defaultPriority int
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithDefaultPriority sets the priority used by Publish.
func WithDefaultPriority(priority int) PublisherOption {
	return func(p *Publisher) {
		p.defaultPriority = priority
	}
}

// NewPublisher creates a publisher for the given queue.
func NewPublisher(queue *AckQueue, opts ...PublisherOption) (*Publisher, error) {
	if queue == nil {
		return nil, ErrQueueNil
	}

	p := &Publisher{queue: queue}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Publish enqueues a message with the publisher's default priority.
func (p *Publisher) Publish(ctx context.Context, payload []byte) (*Envelope, error) {
	return p.queue.Enqueue(ctx, payload, p.defaultPriority)
}

// PublishWithPriority enqueues a message with an explicit priority.
func (p *Publisher) PublishWithPriority(ctx context.Context, payload []byte, priority int) (*Envelope, error) {
	return p.queue.Enqueue(ctx, payload, priority)
}

// Subscriber is a consumer-side helper bound to one AckQueue. Every received
// message must be acknowledged, or the reaper will redeliver it after the
// queue's acknowledgement timeout.
type Subscriber struct {
	queue *AckQueue
	wait  time.Duration
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithReceiveWait sets how long Receive blocks waiting for a message.
func WithReceiveWait(wait time.Duration) SubscriberOption {
	return func(s *Subscriber) {
		if wait > 0 {
			s.wait = wait
		}
	}
}

// NewSubscriber creates a subscriber for the given queue.
func NewSubscriber(queue *AckQueue, opts ...SubscriberOption) (*Subscriber, error) {
	if queue == nil {
		return nil, ErrQueueNil
	}

	s := &Subscriber{
		queue: queue,
		wait:  time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Receive waits up to the configured window for a message.
// It returns (nil, nil) when the queue stayed empty.
func (s *Subscriber) Receive(ctx context.Context) (*Envelope, error) {
	return s.queue.Dequeue(ctx, s.wait)
}

// Acknowledge confirms processing of a received message. It returns false for
// ids that are no longer pending, which is expected under redelivery.
func (s *Subscriber) Acknowledge(id uuid.UUID) bool {
	return s.queue.Acknowledge(id)
}
