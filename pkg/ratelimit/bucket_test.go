package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireConsumesTokens(t *testing.T) {
	b := New(Config{MaxTokens: 5, Window: time.Hour})
	defer b.Destroy()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Acquire(ctx, "", 0))
	}
	assert.Equal(t, float64(0), b.AvailableTokens())
}

func TestTryAcquireFailsWhenExhausted(t *testing.T) {
	b := New(Config{MaxTokens: 1, Window: time.Hour})
	defer b.Destroy()

	assert.True(t, b.TryAcquire("", 0))
	assert.False(t, b.TryAcquire("", 0))
}

func TestWeightsAppliedPerEndpoint(t *testing.T) {
	b := New(Config{MaxTokens: 10, Window: time.Hour, Weights: map[string]float64{"createOrder": 5}})
	defer b.Destroy()

	assert.True(t, b.TryAcquire("createOrder", 0))
	assert.Equal(t, float64(5), b.AvailableTokens())
	assert.True(t, b.TryAcquire("createOrder", 0))
	assert.False(t, b.TryAcquire("createOrder", 0))
}

func TestAcquireBlocksUntilRefill(t *testing.T) {
	b := New(Config{MaxTokens: 1, Window: 50 * time.Millisecond, RefillRate: 1})
	defer b.Destroy()

	ctx := context.Background()
	require.NoError(t, b.Acquire(ctx, "", 0))

	start := time.Now()
	require.NoError(t, b.Acquire(ctx, "", 0))
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestAcquireRespectsContextCancellation(t *testing.T) {
	b := New(Config{MaxTokens: 1, Window: time.Hour})
	defer b.Destroy()

	ctx := context.Background()
	require.NoError(t, b.Acquire(ctx, "", 0))

	cctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Acquire(cctx, "", 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDestroyReleasesQueuedWaitersWithError(t *testing.T) {
	b := New(Config{MaxTokens: 1, Window: time.Hour})

	require.NoError(t, b.Acquire(context.Background(), "", 0))

	var wg sync.WaitGroup
	var gotErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		gotErr = b.Acquire(context.Background(), "", 0)
	}()

	time.Sleep(20 * time.Millisecond)
	b.Destroy()
	wg.Wait()
	assert.ErrorIs(t, gotErr, ErrClosed)
}

func TestFIFOHeadBlocksLaterCheaperWaiter(t *testing.T) {
	b := New(Config{MaxTokens: 5, Window: 50 * time.Millisecond})
	defer b.Destroy()
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx, "", 5)) // drain the bucket

	order := make(chan int, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		require.NoError(t, b.Acquire(ctx, "", 5)) // expensive, queued first
		order <- 1
	}()
	time.Sleep(10 * time.Millisecond)
	go func() {
		defer wg.Done()
		require.NoError(t, b.Acquire(ctx, "", 1)) // cheap, queued second
		order <- 2
	}()

	wg.Wait()
	close(order)
	var seq []int
	for v := range order {
		seq = append(seq, v)
	}
	require.Len(t, seq, 2)
	assert.Equal(t, 1, seq[0], "head waiter must be released before the cheaper waiter behind it")
}

func TestResetRestoresCapacity(t *testing.T) {
	b := New(Config{MaxTokens: 3, Window: time.Hour})
	defer b.Destroy()

	require.True(t, b.TryAcquire("", 3))
	assert.Equal(t, float64(0), b.AvailableTokens())
	b.Reset()
	assert.Equal(t, float64(3), b.AvailableTokens())
}
