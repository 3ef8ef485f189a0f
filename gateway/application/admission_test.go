package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"inference-gateway/gateway/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithSlot_NoPoolRunsDirectly(t *testing.T) {
	got, err := WithSlot(context.Background(), nil, func(context.Context) int { return 7 })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestWithSlot_ReleasesAfterReturn(t *testing.T) {
	pool := infra.NewChanPool(1)

	got, err := WithSlot(context.Background(), pool, func(context.Context) string {
		assert.Equal(t, 1, pool.InUse())
		return "done"
	})
	require.NoError(t, err)
	assert.Equal(t, "done", got)
	assert.Equal(t, 0, pool.InUse())
}

func TestWithSlot_ReleasesOnPanic(t *testing.T) {
	pool := infra.NewChanPool(1)

	assert.Panics(t, func() {
		_, _ = WithSlot(context.Background(), pool, func(context.Context) int { panic("boom") })
	})
	assert.Equal(t, 0, pool.InUse())
}

func TestWithSlot_ReleasesWhenContextCanceledMidCall(t *testing.T) {
	pool := infra.NewChanPool(1)
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = WithSlot(ctx, pool, func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		})
	}()

	<-started
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("WithSlot did not return after cancellation")
	}
	assert.Equal(t, 0, pool.InUse())
}

func TestWithSlot_CanceledWhileWaiting(t *testing.T) {
	pool := infra.NewChanPool(1)
	hold, ok := pool.Acquire(context.Background())
	require.True(t, ok)
	defer hold()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	called := false
	_, err := WithSlot(ctx, pool, func(context.Context) int { called = true; return 1 })
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, called)
	assert.Equal(t, 1, pool.InUse())
}
