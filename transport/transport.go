// Package transport implements the two interchangeable dispatchers the
// client rides on, normalized to one response shape. The stream
// dispatcher hands back the live body for incremental consumption; the
// buffered dispatcher instruments both directions with byte-level
// progress accounting and materializes the payload. A Policy picks
// between them per request; the policy is injected once at client
// construction, so tests can pin or fake a dispatcher outright.
package transport

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gaborage/go-fetch/progress"
)

// Kind identifies a dispatcher style.
type Kind string

const (
	// KindStream is the dispatcher that returns the live response body.
	KindStream Kind = "stream"
	// KindBuffered is the dispatcher that counts bytes and
	// materializes the payload.
	KindBuffered Kind = "buffered"
)

// Request is the wire-level request handed to a dispatcher. The body
// is held as bytes, not a reader, so every retry attempt can rebuild a
// fresh reader over the same payload.
type Request struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
	// Upload and Download carry the caller's progress registries; nil
	// means no hooks were registered for that direction.
	Upload   *progress.Emitter
	Download *progress.Emitter
	// Timeout is the bound already armed on the dispatch context,
	// recorded on timeout-kind errors for diagnostics. Zero when
	// unbounded.
	Timeout time.Duration
}

// HasBody reports whether the request carries a payload.
func (r *Request) HasBody() bool {
	return len(r.Body) > 0
}

// WantsProgress reports whether byte-level progress was requested: an
// upload hook on a payload-bearing request, or any download hook.
func (r *Request) WantsProgress() bool {
	return (r.Upload != nil && r.HasBody()) || r.Download != nil
}

// Response is the normalized dispatch result. Both dispatchers produce
// this exact shape, so interceptors and callers stay
// transport-agnostic. Body is always non-nil on a successful dispatch
// and remains streamable; Bytes materializes it on demand.
type Response struct {
	StatusCode    int
	Status        string
	Header        http.Header
	Body          io.ReadCloser
	ContentLength int64

	mu       sync.Mutex
	buffered bool
	buf      []byte
}

// NewBufferedResponse builds a response whose payload is already
// materialized. The body stays readable from the start.
func NewBufferedResponse(statusCode int, status string, header http.Header, payload []byte) *Response {
	return &Response{
		StatusCode:    statusCode,
		Status:        status,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(payload)),
		ContentLength: int64(len(payload)),
		buffered:      true,
		buf:           payload,
	}
}

// Bytes drains the body once and caches the payload; the body is reset
// afterwards so later readers still see the full content. Safe to call
// repeatedly and from response interceptors.
func (r *Response) Bytes() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.buffered {
		return r.buf, nil
	}
	if r.Body == nil {
		r.buffered = true
		return nil, nil
	}
	data, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		return nil, err
	}
	r.buf = data
	r.buffered = true
	r.Body = io.NopCloser(bytes.NewReader(data))
	return data, nil
}

// Buffered reports whether the payload has been materialized.
func (r *Response) Buffered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffered
}

// Close releases the body. Safe on buffered responses.
func (r *Response) Close() error {
	if r.Body == nil {
		return nil
	}
	return r.Body.Close()
}

// Transport is one dispatch mechanism.
type Transport interface {
	// Dispatch sends the request and returns the normalized response.
	// Non-2xx statuses are ordinary responses, not errors; the error
	// return carries classified transport failures only.
	Dispatch(ctx context.Context, req *Request) (*Response, error)
	Kind() Kind
}

// NewHTTPClient builds the shared net/http client both dispatchers
// ride on. Deadlines come from the per-request context, never from
// http.Client.Timeout, so one client serves bounded and unbounded
// calls alike.
func NewHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			MaxIdleConns:          256,
			MaxIdleConnsPerHost:   64,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: time.Second,
			ForceAttemptHTTP2:     true,
		},
	}
}
