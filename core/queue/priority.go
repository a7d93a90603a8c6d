package queue

import (
	"container/heap"
	"sync"
)

// PriorityQueue is an unbounded queue that delivers the lowest priority value
// first, FIFO among equal priorities. It models in-process priority
// scheduling, not reliable messaging: there is no acknowledgement or
// redelivery, and a dequeued message that is lost is gone.
type PriorityQueue struct {
	mu    sync.Mutex
	items priorityHeap
	seq   uint64
}

// priorityItem keys an envelope by (priority, insertion sequence). The
// sequence provides a stable FIFO tie-break among equal priorities.
type priorityItem struct {
	seq uint64
	env *Envelope
}

type priorityHeap []priorityItem

func (h priorityHeap) Len() int { return len(h) }

func (h priorityHeap) Less(i, j int) bool {
	if h[i].env.Priority != h[j].env.Priority {
		return h[i].env.Priority < h[j].env.Priority
	}
	return h[i].seq < h[j].seq
}

func (h priorityHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *priorityHeap) Push(x any) {
	*h = append(*h, x.(priorityItem))
}

func (h *priorityHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = priorityItem{}
	*h = old[:n-1]
	return item
}

// NewPriorityQueue creates an empty priority queue.
func NewPriorityQueue() *PriorityQueue {
	return &PriorityQueue{}
}

// Enqueue inserts a message keyed by (priority, insertion sequence) and
// returns its envelope. The sequence increment and heap insertion happen
// under the queue lock, so concurrent producers cannot race to the same
// sequence number. Lower priority values are dequeued first.
func (q *PriorityQueue) Enqueue(priority int, payload []byte) *Envelope {
	env := newEnvelope(payload, priority)

	q.mu.Lock()
	heap.Push(&q.items, priorityItem{seq: q.seq, env: env})
	q.seq++
	q.mu.Unlock()

	return env
}

// Dequeue removes and returns the envelope with the smallest
// (priority, sequence) key. Calling Dequeue on an empty queue is a caller
// error and returns ErrEmptyQueue; use IsEmpty or Peek to avoid it.
func (q *PriorityQueue) Dequeue() (*Envelope, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, ErrEmptyQueue
	}

	item := heap.Pop(&q.items).(priorityItem)
	return item.env, nil
}

// Peek returns the envelope that Dequeue would return next without removing
// it. The second return value is false when the queue is empty.
func (q *PriorityQueue) Peek() (*Envelope, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil, false
	}
	return q.items[0].env, true
}

// Len returns the number of queued messages.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// IsEmpty reports whether the queue holds no messages.
func (q *PriorityQueue) IsEmpty() bool {
	return q.Len() == 0
}

// Clear removes all messages and resets the sequence counter, so sequence
// numbers are only unique within one epoch between clears.
func (q *PriorityQueue) Clear() {
	q.mu.Lock()
	q.items = nil
	q.seq = 0
	q.mu.Unlock()
}
