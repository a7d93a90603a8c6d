package queue

import "errors"

var (
	// ErrQueueFull is returned by Enqueue when the deliverable sequence is at
	// capacity. The message is not retained; callers own their retry policy.
	ErrQueueFull = errors.New("queue is full")

	// ErrEmptyQueue is returned by PriorityQueue.Dequeue when the queue holds
	// no elements. Callers should check IsEmpty or use Peek to avoid it.
	ErrEmptyQueue = errors.New("priority queue is empty")

	// ErrQueueNil is returned by constructors when the required queue
	// dependency is missing.
	ErrQueueNil = errors.New("queue cannot be nil")

	// ErrInvalidCapacity is returned when a queue is constructed with a
	// non-positive capacity.
	ErrInvalidCapacity = errors.New("queue capacity must be positive")

	// ErrAlreadyStarted is returned when starting a background component that
	// is already running.
	ErrAlreadyStarted = errors.New("already started")

	// ErrNotStarted is returned when stopping a background component that is
	// not running.
	ErrNotStarted = errors.New("not started")

	// ErrHealthcheckFailed wraps health check failures for errors.Is matching.
	ErrHealthcheckFailed = errors.New("healthcheck failed")

	// ErrReaperNotRunning indicates the redelivery reaper is not running, so
	// unacknowledged messages would never be requeued.
	ErrReaperNotRunning = errors.New("reaper is not running")
)
