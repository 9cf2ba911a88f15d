package logger

import (
	"context"
	"sync/atomic"
	"time"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	// callCounterKey is the context key for counting outbound HTTP calls per operation
	callCounterKey contextKey = "http_call_counter"
	// callElapsedKey is the context key for accumulating outbound HTTP elapsed time per operation
	callElapsedKey contextKey = "http_call_elapsed_nanos"
)

// WithCallTracking creates a new context that counts outbound HTTP calls and
// accumulates their elapsed time. Attach it once per logical operation; every
// request the client dispatches under that context increments the counters,
// so a single log line can report how much outbound traffic the operation cost.
func WithCallTracking(ctx context.Context) context.Context {
	counter := int64(0)
	elapsed := int64(0)
	ctx = context.WithValue(ctx, callCounterKey, &counter)
	ctx = context.WithValue(ctx, callElapsedKey, &elapsed)
	return ctx
}

// IncrementCallCount increments the outbound call counter in the context
func IncrementCallCount(ctx context.Context) {
	if counter, ok := ctx.Value(callCounterKey).(*int64); ok && counter != nil {
		atomic.AddInt64(counter, 1)
	}
}

// GetCallCount returns the current outbound call count from the context
func GetCallCount(ctx context.Context) int64 {
	if counter, ok := ctx.Value(callCounterKey).(*int64); ok && counter != nil {
		return atomic.LoadInt64(counter)
	}
	return 0
}

// AddCallElapsed adds elapsed time to the outbound call tracker in the context
func AddCallElapsed(ctx context.Context, d time.Duration) {
	if elapsed, ok := ctx.Value(callElapsedKey).(*int64); ok && elapsed != nil {
		atomic.AddInt64(elapsed, int64(d))
	}
}

// GetCallElapsed returns the accumulated outbound call time from the context
func GetCallElapsed(ctx context.Context) time.Duration {
	if elapsed, ok := ctx.Value(callElapsedKey).(*int64); ok && elapsed != nil {
		return time.Duration(atomic.LoadInt64(elapsed))
	}
	return 0
}
