package queue_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broker/core/queue"
)

func TestPriorityQueue_OrderingWithFIFOTieBreak(t *testing.T) {
	t.Parallel()

	pq := queue.NewPriorityQueue()
	pq.Enqueue(5, []byte("a"))
	pq.Enqueue(1, []byte("b"))
	pq.Enqueue(5, []byte("c"))

	var got []string
	for !pq.IsEmpty() {
		env, err := pq.Dequeue()
		require.NoError(t, err)
		got = append(got, string(env.Payload))
	}

	assert.Equal(t, []string{"b", "a", "c"}, got)
}

func TestPriorityQueue_DequeueEmpty(t *testing.T) {
	t.Parallel()

	pq := queue.NewPriorityQueue()

	env, err := pq.Dequeue()
	assert.ErrorIs(t, err, queue.ErrEmptyQueue)
	assert.Nil(t, env)
}

func TestPriorityQueue_Peek(t *testing.T) {
	t.Parallel()

	pq := queue.NewPriorityQueue()

	t.Run("empty queue", func(t *testing.T) {
		env, ok := pq.Peek()
		assert.False(t, ok)
		assert.Nil(t, env)
	})

	t.Run("repeated peeks do not mutate", func(t *testing.T) {
		pq.Enqueue(2, []byte("second"))
		pq.Enqueue(1, []byte("first"))

		for n := 0; n < 3; n++ {
			env, ok := pq.Peek()
			require.True(t, ok)
			assert.Equal(t, []byte("first"), env.Payload)
			assert.Equal(t, 2, pq.Len())
		}

		env, err := pq.Dequeue()
		require.NoError(t, err)
		assert.Equal(t, []byte("first"), env.Payload)

		env, ok := pq.Peek()
		require.True(t, ok)
		assert.Equal(t, []byte("second"), env.Payload)
	})
}

func TestPriorityQueue_Clear(t *testing.T) {
	t.Parallel()

	pq := queue.NewPriorityQueue()
	pq.Enqueue(1, []byte("a"))
	pq.Enqueue(2, []byte("b"))

	pq.Clear()
	assert.True(t, pq.IsEmpty())
	assert.Equal(t, 0, pq.Len())

	// FIFO ordering among equal priorities starts a fresh epoch after Clear.
	pq.Enqueue(7, []byte("x"))
	pq.Enqueue(7, []byte("y"))

	env, err := pq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), env.Payload)

	env, err = pq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), env.Payload)
}

func TestPriorityQueue_ConcurrentProducers(t *testing.T) {
	t.Parallel()

	const (
		producers   = 4
		perProducer = 100
	)

	pq := queue.NewPriorityQueue()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				pq.Enqueue(p, []byte{byte(i)})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, producers*perProducer, pq.Len())

	// Strict priority order regardless of interleaved producers.
	prev := -1
	for !pq.IsEmpty() {
		env, err := pq.Dequeue()
		require.NoError(t, err)
		require.GreaterOrEqual(t, env.Priority, prev)
		prev = env.Priority
	}
}
