package queue_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/broker/core/queue"
)

func TestService_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	svc, err := queue.NewService(queue.WithQueueOptions(queue.WithCapacity(5)))
	require.NoError(t, err)

	env, err := svc.Enqueue(ctx, []byte("payload"), 0)
	require.NoError(t, err)

	got, err := svc.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, env.ID, got.ID)

	assert.True(t, svc.Acknowledge(got.ID))

	stats := svc.Stats()
	assert.Equal(t, int64(1), stats.Queue.Enqueued)
	assert.Equal(t, int64(1), stats.Queue.Acknowledged)
}

func TestService_RunRedelivery(t *testing.T) {
	t.Parallel()

	svc, err := queue.NewServiceFromConfig(queue.Config{
		Capacity:        10,
		AckTimeout:      10 * time.Millisecond,
		ReapInterval:    20 * time.Millisecond,
		ShutdownTimeout: time.Second,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	_, err = svc.Enqueue(ctx, []byte("redeliver me"), 0)
	require.NoError(t, err)
	_, err = svc.Dequeue(ctx, time.Second)
	require.NoError(t, err)

	// Never acknowledged, so the reaper brings it back.
	env, err := svc.Dequeue(ctx, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, env)
	assert.Equal(t, []byte("redeliver me"), env.Payload)
	assert.True(t, svc.Acknowledge(env.ID))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not exit after context cancellation")
	}
}

func TestService_Healthcheck(t *testing.T) {
	t.Parallel()

	svc, err := queue.NewService()
	require.NoError(t, err)

	// Reaper not running yet.
	err = svc.Healthcheck(context.Background())
	assert.ErrorIs(t, err, queue.ErrReaperNotRunning)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = svc.Run(ctx) }()

	assert.Eventually(t, func() bool {
		return svc.Healthcheck(context.Background()) == nil
	}, time.Second, 5*time.Millisecond)
}
