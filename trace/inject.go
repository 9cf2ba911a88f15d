package trace

import (
	"context"
	crand "crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// InjectMode controls how injection treats header values that are already set.
type InjectMode int

const (
	// InjectPreserve keeps existing header values and only fills the missing ones.
	InjectPreserve InjectMode = iota
	// InjectOverwrite replaces header values with the context's values.
	InjectOverwrite
)

// InjectOptions tunes header injection.
type InjectOptions struct {
	// Mode selects preserve or overwrite behavior. Default is preserve.
	Mode InjectMode
	// RequestIDHeader overrides the header used for the request ID.
	// Empty means HeaderXRequestID.
	RequestIDHeader string
	// GenerateParent mints a new traceparent when neither the headers nor the
	// context carry one. Off by default so callers without W3C tracing do not
	// emit synthetic trace context.
	GenerateParent bool
}

// InjectIntoHeaders fills h with correlation headers from ctx, preserving any
// values the caller already set. The request ID header is always populated:
// from the context, from the traceparent's trace-id, or freshly generated.
func InjectIntoHeaders(ctx context.Context, h http.Header) {
	InjectIntoHeadersWithOptions(ctx, h, InjectOptions{})
}

// InjectIntoHeadersWithOptions fills h with correlation headers from ctx
// according to opts.
func InjectIntoHeadersWithOptions(ctx context.Context, h http.Header, opts InjectOptions) {
	if h == nil {
		return
	}

	requestIDHeader := opts.RequestIDHeader
	if requestIDHeader == "" {
		requestIDHeader = HeaderXRequestID
	}
	overwrite := opts.Mode == InjectOverwrite

	traceParent := resolveValue(h.Get(HeaderTraceParent), contextParent(ctx), overwrite)
	if traceParent == "" && opts.GenerateParent {
		traceParent = GenerateTraceParent()
	}
	if traceParent != "" {
		h.Set(HeaderTraceParent, traceParent)
	}

	if traceState := resolveValue(h.Get(HeaderTraceState), contextState(ctx), overwrite); traceState != "" {
		h.Set(HeaderTraceState, traceState)
	}

	requestID := resolveValue(h.Get(requestIDHeader), contextID(ctx), overwrite)
	if requestID == "" {
		requestID = IDFromParent(traceParent)
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}
	h.Set(requestIDHeader, requestID)
}

// resolveValue picks between a value the caller already set on the headers and
// the one carried by the context.
func resolveValue(existing, fromCtx string, overwrite bool) string {
	if overwrite && fromCtx != "" {
		return fromCtx
	}
	if existing != "" {
		return existing
	}
	return fromCtx
}

func contextID(ctx context.Context) string {
	id, _ := IDFromContext(ctx)
	return id
}

func contextParent(ctx context.Context) string {
	tp, _ := ParentFromContext(ctx)
	return tp
}

func contextState(ctx context.Context) string {
	ts, _ := StateFromContext(ctx)
	return ts
}

// GenerateTraceParent mints a minimal sampled traceparent value:
// version 00, random trace and span ids, flags 01.
func GenerateTraceParent() string {
	var traceID [16]byte
	var spanID [8]byte
	fillID(traceID[:])
	fillID(spanID[:])
	return "00-" + hex.EncodeToString(traceID[:]) + "-" + hex.EncodeToString(spanID[:]) + "-01"
}

// IDFromParent extracts the 32-hex trace-id field from a traceparent value.
// Returns "" when the value does not look like a W3C traceparent.
func IDFromParent(traceParent string) string {
	parts := strings.Split(traceParent, "-")
	if len(parts) != 4 || len(parts[1]) != 32 {
		return ""
	}
	if _, err := hex.DecodeString(parts[1]); err != nil {
		return ""
	}
	return parts[1]
}

// fillID fills b with random bytes. W3C trace context reserves all-zero
// ids as invalid, so the last byte is forced when randomness fails or
// lands on zero.
func fillID(b []byte) {
	if _, err := crand.Read(b); err != nil {
		for i := range b {
			b[i] = 0
		}
	}
	for _, v := range b {
		if v != 0 {
			return
		}
	}
	b[len(b)-1] = 0x01
}
