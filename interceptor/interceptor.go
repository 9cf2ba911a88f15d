// Package interceptor implements the ordered, ejectable handler chains
// the client folds requests and responses through. Registrations keep
// stable integer IDs: ejecting a slot leaves a tombstone in place, so
// previously issued IDs never shift or get reused.
package interceptor

import (
	"context"
	"sync"

	"github.com/gaborage/go-fetch/httperr"
)

// Func transforms a value in flight. It returns the value to hand to
// the next registration, or an error to divert into the registration's
// recovery handler (when present) or abort the fold.
type Func[T any] func(ctx context.Context, v T) (T, error)

// ErrFunc handles a failure raised by its paired Func. Returning a nil
// error substitutes the returned value — visibly, to later
// registrations and to the caller. Returning an error propagates it
// and short-circuits the rest of the chain. There is no way to swallow
// a failure silently.
type ErrFunc[T any] func(ctx context.Context, err error) (T, error)

// ID identifies one registration within its chain.
type ID int

// registration is one slot. Ejected slots stay in place as nil
// tombstones.
type registration[T any] struct {
	fulfilled Func[T]
	rejected  ErrFunc[T]
}

// Chain is an ordered list of registrations folding values of type T.
// Safe for concurrent use; Run snapshots the slots, so concurrent
// Use/Eject calls never perturb an in-flight fold.
type Chain[T any] struct {
	mu    sync.RWMutex
	slots []*registration[T]
	stage string
}

// NewChain builds an empty chain. stage names the chain in wrapped
// errors (conventionally "request" or "response").
func NewChain[T any](stage string) *Chain[T] {
	return &Chain[T]{stage: stage}
}

// Use appends a registration and returns its stable ID.
func (c *Chain[T]) Use(fulfilled Func[T]) ID {
	return c.UseWithRecovery(fulfilled, nil)
}

// UseWithRecovery appends a registration with a recovery handler that
// runs if fulfilled fails.
func (c *Chain[T]) UseWithRecovery(fulfilled Func[T], rejected ErrFunc[T]) ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots = append(c.slots, &registration[T]{fulfilled: fulfilled, rejected: rejected})
	return ID(len(c.slots) - 1)
}

// Eject tombstones the registration with the given ID. Other IDs stay
// valid. It reports whether a live registration was removed.
func (c *Chain[T]) Eject(id ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || int(id) >= len(c.slots) || c.slots[id] == nil {
		return false
	}
	c.slots[id] = nil
	return true
}

// Len reports the number of live registrations.
func (c *Chain[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, slot := range c.slots {
		if slot != nil {
			n++
		}
	}
	return n
}

// Run folds v through the live registrations in registration order.
// When a fulfilled handler fails, control transfers to that same
// registration's recovery handler if present; its substitute value
// continues the fold. Errors escaping the chain are wrapped as
// interceptor-kind errors carrying the stage name.
func (c *Chain[T]) Run(ctx context.Context, v T) (T, error) {
	c.mu.RLock()
	slots := make([]*registration[T], len(c.slots))
	copy(slots, c.slots)
	c.mu.RUnlock()

	for _, slot := range slots {
		if slot == nil || slot.fulfilled == nil {
			continue
		}
		next, err := slot.fulfilled(ctx, v)
		if err != nil {
			if slot.rejected == nil {
				var zero T
				return zero, httperr.NewInterceptorError(c.stage+" interceptor failed", c.stage, err)
			}
			next, err = slot.rejected(ctx, err)
			if err != nil {
				var zero T
				return zero, httperr.NewInterceptorError(c.stage+" interceptor failed", c.stage, err)
			}
		}
		v = next
	}
	return v, nil
}
