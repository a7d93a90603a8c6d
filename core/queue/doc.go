// Package queue provides in-memory message queues for a single-process
// broker: a bounded FIFO queue with acknowledgement tracking and
// timeout-based redelivery, and an unbounded priority queue for in-process
// scheduling.
//
// Delivery is best-effort and at-least-once for the acknowledged queue;
// nothing is persisted across restarts and there is no cross-node
// replication.
//
// # Acknowledged Queue
//
// AckQueue holds messages in a bounded deliverable sequence. Dequeued
// messages move into a pending-acknowledgement index until the consumer
// confirms them; a Reaper periodically returns expired entries to the tail:
//
//	q := queue.NewAckQueue(
//	    queue.WithCapacity(1000),
//	    queue.WithAckTimeout(30*time.Second),
//	)
//
//	reaper, err := queue.NewReaper(q, queue.WithReapInterval(10*time.Second))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go reaper.Start(ctx)
//	defer reaper.Stop()
//
//	env, err := q.Enqueue(ctx, []byte("hello"), 0)
//	if errors.Is(err, queue.ErrQueueFull) {
//	    // bounded reject; retry or drop is the producer's call
//	}
//
//	msg, err := q.Dequeue(ctx, time.Second)
//	if msg == nil {
//	    // empty within the wait window, a normal outcome
//	}
//	q.Acknowledge(msg.ID)
//
// A message that is never acknowledged is redelivered after the ack timeout,
// to any consumer, any number of times. There is no redelivery cap; consumers
// that care about poison messages must detect repeat delivery themselves.
//
// Service bundles an AckQueue with its Reaper for errgroup-style lifecycle
// management; Publisher and Subscriber are thin role-specific helpers.
//
// # Priority Queue
//
// PriorityQueue delivers the lowest priority value first with FIFO ordering
// among equal priorities, guaranteed by an insertion sequence incremented
// under the queue lock:
//
//	pq := queue.NewPriorityQueue()
//	pq.Enqueue(5, []byte("later"))
//	pq.Enqueue(1, []byte("first"))
//
//	env, err := pq.Dequeue() // "first"
//	if errors.Is(err, queue.ErrEmptyQueue) {
//	    // dequeue on an empty queue is a caller error; check IsEmpty first
//	}
//
// Unlike AckQueue, the priority queue has no acknowledgement or redelivery: a
// dequeued message that the consumer loses is gone.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Each queue instance
// serializes its own state behind a single lock; no operation holds more than
// one lock at a time.
package queue
