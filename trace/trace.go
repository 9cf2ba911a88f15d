// Package trace propagates request correlation identifiers. It carries an
// application-level request ID plus the W3C Trace Context pair (traceparent,
// tracestate) through context and injects them into outbound headers.
package trace

import (
	"context"

	"github.com/google/uuid"
)

const (
	// HeaderXRequestID carries the application-level request ID.
	HeaderXRequestID = "X-Request-ID"
	// HeaderTraceParent is the W3C Trace Context parent header.
	HeaderTraceParent = "traceparent"
	// HeaderTraceState is the W3C Trace Context state header.
	HeaderTraceState = "tracestate"
)

// Unexported struct keys keep the three values from colliding with
// foreign context entries.
type (
	idKey     struct{}
	parentKey struct{}
	stateKey  struct{}
)

// WithTraceID returns a context carrying the request ID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, idKey{}, traceID)
}

// IDFromContext reports the request ID carried by ctx, if any.
func IDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, idKey{})
}

// EnsureTraceID returns the context's request ID, minting a fresh uuid
// when the context carries none.
func EnsureTraceID(ctx context.Context) string {
	if traceID, ok := IDFromContext(ctx); ok {
		return traceID
	}
	return uuid.New().String()
}

// WithTraceParent returns a context carrying a W3C traceparent value.
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return context.WithValue(ctx, parentKey{}, traceParent)
}

// ParentFromContext reports the traceparent carried by ctx, if any.
func ParentFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, parentKey{})
}

// WithTraceState returns a context carrying a W3C tracestate value.
func WithTraceState(ctx context.Context, traceState string) context.Context {
	return context.WithValue(ctx, stateKey{}, traceState)
}

// StateFromContext reports the tracestate carried by ctx, if any.
func StateFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stateKey{})
}

// stringValue treats an absent and an empty entry the same; callers
// never observe "".
func stringValue(ctx context.Context, key any) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
