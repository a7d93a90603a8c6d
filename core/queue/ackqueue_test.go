package queue_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broker/core/queue"
)

func TestAckQueue_EnqueueDequeueAcknowledge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := queue.NewAckQueue(queue.WithCapacity(10))

	env, err := q.Enqueue(ctx, []byte("hello"), 0)
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.NotEqual(t, uuid.Nil, env.ID)
	assert.Equal(t, []byte("hello"), env.Payload)
	assert.False(t, env.Acknowledged())
	assert.Equal(t, 1, q.Len())
	assert.Equal(t, 0, q.PendingLen())

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 1, q.PendingLen())

	assert.True(t, q.Acknowledge(got.ID))
	assert.True(t, got.Acknowledged())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.PendingLen())
}

func TestAckQueue_FIFOOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := queue.NewAckQueue(queue.WithCapacity(10))

	first, err := q.Enqueue(ctx, []byte("first"), 0)
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, []byte("second"), 0)
	require.NoError(t, err)

	got, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	got, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestAckQueue_CapacityReject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := queue.NewAckQueue(queue.WithCapacity(2))

	_, err := q.Enqueue(ctx, []byte("a"), 0)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, []byte("b"), 0)
	require.NoError(t, err)

	env, err := q.Enqueue(ctx, []byte("c"), 0)
	assert.ErrorIs(t, err, queue.ErrQueueFull)
	assert.Nil(t, env)
	assert.Equal(t, 2, q.Len())

	// Draining one slot makes enqueue succeed again.
	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	_, err = q.Enqueue(ctx, []byte("c"), 0)
	require.NoError(t, err)
}

func TestAckQueue_DequeueEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := queue.NewAckQueue()

	t.Run("wait timeout returns nil without error", func(t *testing.T) {
		t.Parallel()

		start := time.Now()
		env, err := q.Dequeue(ctx, 50*time.Millisecond)
		require.NoError(t, err)
		assert.Nil(t, env)
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	})

	t.Run("non-positive wait polls", func(t *testing.T) {
		t.Parallel()

		env, err := q.Dequeue(ctx, 0)
		require.NoError(t, err)
		assert.Nil(t, env)
	})

	t.Run("context cancellation interrupts wait", func(t *testing.T) {
		t.Parallel()

		cancelCtx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		env, err := q.Dequeue(cancelCtx, time.Minute)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, env)
	})
}

func TestAckQueue_DequeueWaitsForEnqueue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := queue.NewAckQueue()

	go func() {
		time.Sleep(30 * time.Millisecond)
		_, _ = q.Enqueue(ctx, []byte("late"), 0)
	}()

	env, err := q.Dequeue(ctx, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.Equal(t, []byte("late"), env.Payload)
}

func TestAckQueue_AcknowledgeTwice(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := queue.NewAckQueue()

	env, err := q.Enqueue(ctx, []byte("once"), 0)
	require.NoError(t, err)

	_, err = q.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	assert.True(t, q.Acknowledge(env.ID))
	assert.False(t, q.Acknowledge(env.ID))
}

func TestAckQueue_AcknowledgeUnknown(t *testing.T) {
	t.Parallel()

	q := queue.NewAckQueue()
	assert.False(t, q.Acknowledge(uuid.New()))
}

func TestAckQueue_RequeueUnacknowledged(t *testing.T) {
	t.Parallel()

	t.Run("expired entry returns to the tail", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		q := queue.NewAckQueue(queue.WithAckTimeout(10 * time.Millisecond))

		stale, err := q.Enqueue(ctx, []byte("stale"), 0)
		require.NoError(t, err)
		_, err = q.Dequeue(ctx, time.Second)
		require.NoError(t, err)

		fresh, err := q.Enqueue(ctx, []byte("fresh"), 0)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 1, q.RequeueUnacknowledged())
		assert.Equal(t, 0, q.PendingLen())
		assert.Equal(t, 2, q.Len())

		// The redelivered message lost its original position.
		got, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, fresh.ID, got.ID)

		got, err = q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, stale.ID, got.ID)
		assert.False(t, got.Acknowledged())
	})

	t.Run("unexpired entry stays pending", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		q := queue.NewAckQueue(queue.WithAckTimeout(time.Hour))

		_, err := q.Enqueue(ctx, []byte("held"), 0)
		require.NoError(t, err)
		_, err = q.Dequeue(ctx, time.Second)
		require.NoError(t, err)

		assert.Equal(t, 0, q.RequeueUnacknowledged())
		assert.Equal(t, 1, q.PendingLen())
	})

	t.Run("full deliverable sequence keeps entry pending", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		q := queue.NewAckQueue(
			queue.WithCapacity(1),
			queue.WithAckTimeout(10*time.Millisecond),
		)

		expired, err := q.Enqueue(ctx, []byte("expired"), 0)
		require.NoError(t, err)
		_, err = q.Dequeue(ctx, time.Second)
		require.NoError(t, err)

		_, err = q.Enqueue(ctx, []byte("blocking"), 0)
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 0, q.RequeueUnacknowledged())
		assert.Equal(t, 1, q.PendingLen())

		// Once a slot frees up the next scan succeeds.
		_, err = q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, 1, q.RequeueUnacknowledged())

		got, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		assert.Equal(t, expired.ID, got.ID)
	})
}

func TestAckQueue_ConcurrentProducersNoLossNoDuplicates(t *testing.T) {
	t.Parallel()

	const (
		producers        = 4
		perProducer      = 250
		expectedMessages = producers * perProducer
	)

	ctx := context.Background()
	q := queue.NewAckQueue(queue.WithCapacity(expectedMessages))

	var wg sync.WaitGroup
	for n := 0; n < producers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_, err := q.Enqueue(ctx, []byte{byte(i)}, 0)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, expectedMessages, q.Len())

	seen := make(map[uuid.UUID]struct{}, expectedMessages)
	for n := 0; n < expectedMessages; n++ {
		env, err := q.Dequeue(ctx, time.Second)
		require.NoError(t, err)
		require.NotNil(t, env)

		_, dup := seen[env.ID]
		require.False(t, dup, "duplicate delivery of %s", env.ID)
		seen[env.ID] = struct{}{}

		require.True(t, q.Acknowledge(env.ID))
	}

	assert.Len(t, seen, expectedMessages)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.PendingLen())

	stats := q.Stats()
	assert.Equal(t, int64(expectedMessages), stats.Enqueued)
	assert.Equal(t, int64(expectedMessages), stats.Acknowledged)
	assert.Equal(t, int64(0), stats.Rejected)
}

func TestAckQueue_Stats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := queue.NewAckQueue(queue.WithCapacity(1))

	_, err := q.Enqueue(ctx, []byte("a"), 0)
	require.NoError(t, err)
	_, err = q.Enqueue(ctx, []byte("b"), 0)
	require.ErrorIs(t, err, queue.ErrQueueFull)

	stats := q.Stats()
	assert.Equal(t, 1, stats.Deliverable)
	assert.Equal(t, 1, stats.Capacity)
	assert.Equal(t, int64(1), stats.Enqueued)
	assert.Equal(t, int64(1), stats.Rejected)
}

func TestAckQueue_Healthcheck(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	q := queue.NewAckQueue(queue.WithCapacity(1))

	require.NoError(t, q.Healthcheck(ctx))

	_, err := q.Enqueue(ctx, []byte("fill"), 0)
	require.NoError(t, err)

	err = q.Healthcheck(ctx)
	assert.ErrorIs(t, err, queue.ErrHealthcheckFailed)
	assert.ErrorIs(t, err, queue.ErrQueueFull)
}

func TestAckQueue_FromConfig(t *testing.T) {
	t.Parallel()

	cfg := queue.Config{
		Capacity:   3,
		AckTimeout: time.Minute,
	}

	q := queue.NewAckQueueFromConfig(cfg)
	assert.Equal(t, 3, q.Cap())
	assert.Equal(t, time.Minute, q.AckTimeout())
}
