package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPools(t *testing.T) {
	pools, err := NewPools(context.Background(), DefaultPoolConfig())
	require.NoError(t, err)
	defer pools.Shutdown()

	assert.NotNil(t, pools.Import)
	assert.NotNil(t, pools.Background)
	assert.Contains(t, pools.Metrics(), "import")
	assert.Contains(t, pools.Metrics(), "background")
}

func TestPool_Submit(t *testing.T) {
	pools, err := NewPools(context.Background(), PoolConfig{ImportPoolSize: 4, BackgroundPoolSize: 2})
	require.NoError(t, err)
	defer pools.Shutdown()

	var executed atomic.Bool
	var wg sync.WaitGroup
	wg.Add(1)

	err = pools.Import.Submit(context.Background(), func(ctx context.Context) {
		executed.Store(true)
		wg.Done()
	})
	require.NoError(t, err)

	wg.Wait()
	assert.True(t, executed.Load())
}

func TestPool_Submit_CancelledContext(t *testing.T) {
	pools, err := NewPools(context.Background(), DefaultPoolConfig())
	require.NoError(t, err)
	defer pools.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = pools.Import.Submit(ctx, func(ctx context.Context) {
		t.Error("Task should not execute with cancelled context")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_ForEach_CollectsPerIndexErrors(t *testing.T) {
	pool, err := NewPool("test", 3)
	require.NoError(t, err)
	defer pool.Release()

	boom := errors.New("boom")
	var calls atomic.Int32
	errs := pool.ForEach(context.Background(), 10, func(ctx context.Context, i int) error {
		calls.Add(1)
		if i%3 == 0 {
			return boom
		}
		return nil
	})

	require.Len(t, errs, 10)
	assert.EqualValues(t, 10, calls.Load())
	for i, err := range errs {
		if i%3 == 0 {
			assert.ErrorIs(t, err, boom, "index %d", i)
		} else {
			assert.NoError(t, err, "index %d", i)
		}
	}
}

func TestPool_ForEach_PanicMarksSlotFailed(t *testing.T) {
	pool, err := NewPool("test", 2)
	require.NoError(t, err)
	defer pool.Release()

	errs := pool.ForEach(context.Background(), 3, func(ctx context.Context, i int) error {
		if i == 1 {
			panic("boom")
		}
		return nil
	})

	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], ErrTaskPanicked)
	assert.ErrorContains(t, errs[1], "boom")
	assert.NoError(t, errs[2])
}

func TestPool_ForEach_CancelledContext(t *testing.T) {
	pool, err := NewPool("test", 2)
	require.NoError(t, err)
	defer pool.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	errs := pool.ForEach(ctx, 3, func(ctx context.Context, i int) error {
		t.Error("fn should not run")
		return nil
	})
	for _, err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestPools_SubmitDetached_SkippedAfterShutdown(t *testing.T) {
	pools, err := NewPools(context.Background(), DefaultPoolConfig())
	require.NoError(t, err)
	pools.Shutdown()

	err = pools.SubmitDetached(func(ctx context.Context) {
		t.Error("detached task should not run after shutdown")
	})
	assert.Error(t, err)
}
