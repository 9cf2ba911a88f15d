// Package retry executes an operation with bounded, conditional
// re-attempts and fixed or exponential backoff. The loop is pure
// policy: it knows nothing about transports beyond the error kinds the
// default condition inspects, so it wraps any dispatch uniformly.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/gaborage/go-fetch/httperr"
)

// DefaultDelay spaces attempts when the policy leaves Delay unset.
const DefaultDelay = time.Second

// maxShift bounds the backoff exponent so the delay math cannot
// overflow a Duration.
const maxShift = 20

// Condition reports whether a failed attempt should be retried.
type Condition func(error) bool

// Policy configures the loop. The zero value runs a single attempt.
type Policy struct {
	// Retries is the number of re-attempts after the first try; total
	// attempts = Retries+1.
	Retries int
	// Delay is the base sleep between attempts. Non-positive falls
	// back to DefaultDelay.
	Delay time.Duration
	// Condition gates each retry. Nil falls back to DefaultCondition.
	Condition Condition
	// ExponentialBackoff grows the sleep as Delay·2^k for attempt
	// index k. Off, the sleep stays fixed at Delay.
	ExponentialBackoff bool
}

// Do runs fn up to p.Retries+1 times. After a failed attempt it
// returns immediately — no sleep — when the attempt budget is spent or
// the condition rejects the error; otherwise it sleeps the backoff
// delay and goes again. The error from the final attempt is returned
// verbatim, never wrapped, so the caller sees the original cause.
// Cancelling ctx during a backoff sleep ends the loop with the
// classified cancellation error.
func Do(ctx context.Context, p Policy, fn func(ctx context.Context) error) error {
	condition := p.Condition
	if condition == nil {
		condition = DefaultCondition
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= p.Retries || !condition(err) {
			return err
		}
		if sleepErr := sleep(ctx, p.backoff(attempt)); sleepErr != nil {
			return sleepErr
		}
	}
}

// backoff computes the sleep that follows attempt index k.
func (p Policy) backoff(attempt int) time.Duration {
	delay := p.Delay
	if delay <= 0 {
		delay = DefaultDelay
	}
	if !p.ExponentialBackoff {
		return delay
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	return delay << attempt
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return httperr.Classify(ctx.Err(), 0)
	}
}

// DefaultCondition retries transport-kind failures and HTTP-kind
// errors carrying a 5xx status. Caller aborts, validation failures,
// interceptor failures, and sub-500 statuses never retry. An error
// with no recognized kind counts as transport-kind and retries; the
// outermost kind decides, so an interceptor error wrapping a 502 does
// not retry.
func DefaultCondition(err error) bool {
	if err == nil {
		return false
	}
	var clientErr httperr.ClientError
	if errors.As(err, &clientErr) {
		switch clientErr.Type() {
		case httperr.HTTPError:
			status, _ := httperr.HTTPStatus(clientErr)
			return status >= 500
		case httperr.AbortError, httperr.ValidationError, httperr.InterceptorError:
			return false
		}
	}
	return true
}
