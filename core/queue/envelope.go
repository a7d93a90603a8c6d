package queue

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Envelope is the unit of data moving through a queue. The identity, payload,
// and enqueue time are assigned at creation and never change; only the
// acknowledged flag transitions, exactly once, via AckQueue.Acknowledge.
type Envelope struct {
	ID         uuid.UUID `json:"id"`
	Payload    []byte    `json:"payload,omitempty"`
	Priority   int       `json:"priority"`
	EnqueuedAt time.Time `json:"enqueued_at"`

	acknowledged atomic.Bool
}

// newEnvelope constructs an envelope with a fresh identity and the current time.
func newEnvelope(payload []byte, priority int) *Envelope {
	return &Envelope{
		ID:         uuid.New(),
		Payload:    payload,
		Priority:   priority,
		EnqueuedAt: time.Now(),
	}
}

// Acknowledged reports whether the envelope has been acknowledged.
// This method is thread-safe and can be called at any time.
func (e *Envelope) Acknowledged() bool {
	return e.acknowledged.Load()
}

// acknowledge marks the envelope as acknowledged. Called only by the queue
// while holding its lock, so the flag flips at most once.
func (e *Envelope) acknowledge() {
	e.acknowledged.Store(true)
}
