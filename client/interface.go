package client

import (
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/url"
	"time"

	"github.com/gaborage/go-fetch/cookiejar"
	"github.com/gaborage/go-fetch/interceptor"
	"github.com/gaborage/go-fetch/progress"
	"github.com/gaborage/go-fetch/retry"
	gofetchtrace "github.com/gaborage/go-fetch/trace"
	"github.com/gaborage/go-fetch/transport"
)

const (
	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = gofetchtrace.HeaderXRequestID
	// HeaderTraceParent is the W3C trace context header name
	HeaderTraceParent = gofetchtrace.HeaderTraceParent
	// HeaderTraceState is the W3C trace context "tracestate" header name
	HeaderTraceState = gofetchtrace.HeaderTraceState
)

// Client defines the request client interface for making HTTP calls
type Client interface {
	Get(ctx context.Context, req *Request) (*Response, error)
	Post(ctx context.Context, req *Request) (*Response, error)
	Put(ctx context.Context, req *Request) (*Response, error)
	Patch(ctx context.Context, req *Request) (*Response, error)
	Delete(ctx context.Context, req *Request) (*Response, error)
	Head(ctx context.Context, req *Request) (*Response, error)
	Options(ctx context.Context, req *Request) (*Response, error)
	Do(ctx context.Context, method string, req *Request) (*Response, error)

	Upload(ctx context.Context, path string, data any, opts *UploadOptions) (*Response, error)
	Download(ctx context.Context, path string, opts *DownloadOptions) (*Response, error)
	DownloadFile(ctx context.Context, path, dest string, opts *DownloadOptions) error
	DownloadBatch(ctx context.Context, specs []DownloadSpec, limit int) error

	// RequestInterceptors transform the prepared request before dispatch.
	RequestInterceptors() *interceptor.Chain[*Request]
	// ResponseInterceptors transform the delivered response before return.
	ResponseInterceptors() *interceptor.Chain[*Response]
	// Cookies exposes the jar backing automatic Cookie/Set-Cookie handling.
	Cookies() *cookiejar.Jar
}

// Request carries the per-call configuration. Every field is optional; zero
// values inherit the client defaults. Interceptors receive the merged form:
// Path resolved to an absolute URL, Headers folded with the defaults, and the
// Cookie header already injected.
type Request struct {
	// Path is joined onto the client base URL; absolute URLs pass through.
	Path string
	// Query is appended to the resolved URL.
	Query url.Values
	// Headers override client defaults key by key, case-insensitively.
	Headers map[string]string
	// Body is the raw request payload.
	Body []byte
	// JSON is marshaled into Body when Body is empty, with
	// Content-Type: application/json unless already set.
	JSON any
	// Auth overrides the client-level credentials for this call.
	Auth *BasicAuth
	// Timeout overrides the client default. Nil inherits; a non-positive
	// value disables the deadline for this call.
	Timeout *time.Duration
	// Retry toggles retrying for this call. Nil inherits the client policy;
	// false forces a single attempt.
	Retry *bool
	// RetryPolicy replaces the client retry policy for this call.
	RetryPolicy *retry.Policy
	// Upload receives progress samples while the request body is sent.
	Upload *progress.Callbacks
	// Download receives progress samples while the response body is read.
	Download *progress.Callbacks
}

// Response represents a delivered HTTP response. Non-2xx statuses are ordinary
// responses, not errors; status policy belongs to response interceptors.
type Response struct {
	StatusCode int
	Status     string
	Headers    nethttp.Header
	Body       []byte
	Stats      Stats
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	return json.Unmarshal(r.Body, v)
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Stats contains request execution statistics
type Stats struct {
	ElapsedTime   time.Duration
	CallCount     int64
	Attempts      int
	BytesSent     int64
	BytesReceived int64
	Transport     transport.Kind
}

// BasicAuth contains basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// CredentialsMode governs automatic cookie handling, mirroring the
// include/omit credential semantics of browser clients.
type CredentialsMode string

const (
	// CredentialsInclude sends jar cookies and absorbs Set-Cookie responses.
	CredentialsInclude CredentialsMode = "include"
	// CredentialsOmit disables automatic cookie handling entirely.
	CredentialsOmit CredentialsMode = "omit"
)

// CacheMode maps to the Cache-Control request headers the client sends.
type CacheMode string

const (
	// CacheDefault sends no cache directives.
	CacheDefault CacheMode = "default"
	// CacheNoStore asks intermediaries not to store the exchange.
	CacheNoStore CacheMode = "no-store"
	// CacheNoCache forces revalidation of cached entries.
	CacheNoCache CacheMode = "no-cache"
)

// RedirectMode controls how the underlying HTTP client treats redirects.
type RedirectMode string

const (
	// RedirectFollow follows redirects up to the net/http limit.
	RedirectFollow RedirectMode = "follow"
	// RedirectError surfaces a NetworkError when a redirect is attempted.
	RedirectError RedirectMode = "error"
	// RedirectManual delivers the 3xx response without following it.
	RedirectManual RedirectMode = "manual"
)

// Config holds the request client configuration
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	Retry          retry.Policy
	BasicAuth      *BasicAuth
	BearerToken    string
	DefaultHeaders map[string]string
	Credentials    CredentialsMode
	Cache          CacheMode
	Redirect       RedirectMode
	// LogPayloads enables trace-level logging of request and response payloads
	LogPayloads bool
	// MaxPayloadLogBytes caps the number of body bytes logged when LogPayloads is enabled
	MaxPayloadLogBytes int
	// TraceIDHeader configures the header name used for trace ID propagation (default: X-Request-ID)
	TraceIDHeader string
	// EnableW3CTrace enables W3C Trace Context (traceparent/tracestate) propagation and generation
	EnableW3CTrace bool
}

// UploadOptions tunes multipart uploads built by Client.Upload.
type UploadOptions struct {
	// FieldName names the multipart field for bare files. Default "file".
	FieldName string
	// FileName names the uploaded file when the data carries no name.
	FileName string
	// Headers are merged into the request like Request.Headers.
	Headers map[string]string
	// Progress receives upload progress samples.
	Progress *progress.Callbacks
}

// DownloadOptions tunes downloads performed by Client.Download.
type DownloadOptions struct {
	// Writer receives the payload instead of Response.Body when set.
	Writer io.Writer
	// Headers are merged into the request like Request.Headers.
	Headers map[string]string
	// Query is appended to the resolved URL.
	Query url.Values
	// Progress receives download progress samples.
	Progress *progress.Callbacks
}

// DownloadSpec names one download in a batch.
type DownloadSpec struct {
	Path    string
	Dest    string
	Options *DownloadOptions
}

// Trace ID utility functions

// WithTraceID adds a trace ID to the context for client propagation
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return gofetchtrace.WithTraceID(ctx, traceID)
}

// TraceIDFromContext returns a trace ID from context if present
func TraceIDFromContext(ctx context.Context) (string, bool) { return gofetchtrace.IDFromContext(ctx) }

// EnsureTraceID returns an existing trace ID from context or generates a new one
func EnsureTraceID(ctx context.Context) string { return gofetchtrace.EnsureTraceID(ctx) }

// WithTraceParent adds a W3C traceparent value to the context
func WithTraceParent(ctx context.Context, traceParent string) context.Context {
	return gofetchtrace.WithTraceParent(ctx, traceParent)
}

// TraceParentFromContext returns a traceparent from context if present
func TraceParentFromContext(ctx context.Context) (string, bool) {
	return gofetchtrace.ParentFromContext(ctx)
}

// WithTraceState adds a W3C tracestate value to the context
func WithTraceState(ctx context.Context, traceState string) context.Context {
	return gofetchtrace.WithTraceState(ctx, traceState)
}

// TraceStateFromContext returns a tracestate from context if present
func TraceStateFromContext(ctx context.Context) (string, bool) {
	return gofetchtrace.StateFromContext(ctx)
}

// GenerateTraceParent creates a minimal W3C traceparent header value.
// Format: version(2)-trace-id(32)-span-id(16)-flags(2), e.g., "00-<32>-<16>-01"
func GenerateTraceParent() string { return gofetchtrace.GenerateTraceParent() }
