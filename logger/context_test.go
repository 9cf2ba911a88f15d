package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCallTracking(t *testing.T) {
	t.Run("counts calls and elapsed time", func(t *testing.T) {
		ctx := WithCallTracking(context.Background())

		IncrementCallCount(ctx)
		IncrementCallCount(ctx)
		AddCallElapsed(ctx, 150*time.Millisecond)
		AddCallElapsed(ctx, 50*time.Millisecond)

		assert.Equal(t, int64(2), GetCallCount(ctx))
		assert.Equal(t, 200*time.Millisecond, GetCallElapsed(ctx))
	})

	t.Run("untracked context reads as zero", func(t *testing.T) {
		ctx := context.Background()

		IncrementCallCount(ctx)
		AddCallElapsed(ctx, time.Second)

		assert.Equal(t, int64(0), GetCallCount(ctx))
		assert.Equal(t, time.Duration(0), GetCallElapsed(ctx))
	})

	t.Run("tracking is visible through derived contexts", func(t *testing.T) {
		ctx := WithCallTracking(context.Background())
		child, cancel := context.WithCancel(ctx)
		defer cancel()

		IncrementCallCount(child)
		AddCallElapsed(child, time.Millisecond)

		assert.Equal(t, int64(1), GetCallCount(ctx))
		assert.Equal(t, time.Millisecond, GetCallElapsed(ctx))
	})

	t.Run("concurrent increments are not lost", func(t *testing.T) {
		ctx := WithCallTracking(context.Background())

		const workers = 32
		var wg sync.WaitGroup
		wg.Add(workers)
		for range workers {
			go func() {
				defer wg.Done()
				IncrementCallCount(ctx)
				AddCallElapsed(ctx, time.Microsecond)
			}()
		}
		wg.Wait()

		assert.Equal(t, int64(workers), GetCallCount(ctx))
		assert.Equal(t, workers*time.Microsecond, GetCallElapsed(ctx))
	})

	t.Run("independent trackers are isolated", func(t *testing.T) {
		first := WithCallTracking(context.Background())
		second := WithCallTracking(context.Background())

		IncrementCallCount(first)

		assert.Equal(t, int64(1), GetCallCount(first))
		assert.Equal(t, int64(0), GetCallCount(second))
	})
}
