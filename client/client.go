// Package client implements the request pipeline that fronts the two
// dispatchers: verb methods, upload and download helpers, URL and
// header merging, cookie bookkeeping, interceptor chains, and uniform
// retry wrapping. One Client instance is safe for concurrent use by
// many goroutines.
package client

import (
	"context"
	"io"
	nethttp "net/http"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-fetch/cookiejar"
	"github.com/gaborage/go-fetch/httperr"
	"github.com/gaborage/go-fetch/interceptor"
	"github.com/gaborage/go-fetch/logger"
	"github.com/gaborage/go-fetch/metrics"
	"github.com/gaborage/go-fetch/retry"
	"github.com/gaborage/go-fetch/telemetry"
	"github.com/gaborage/go-fetch/transport"
)

const (
	// DefaultTimeout is the default request timeout duration
	DefaultTimeout = 30 * time.Second

	// DefaultMaxPayloadLogBytes caps payload log previews when the
	// builder leaves the limit unset.
	DefaultMaxPayloadLogBytes = 1024

	contentTypeHeader = "Content-Type"
	contentTypeJSON   = "application/json"
)

// restClient implements the Client interface
type restClient struct {
	config    *Config
	logger    logger.Logger
	filter    *logger.SensitiveDataFilter
	policy    transport.Policy
	jar       *cookiejar.Jar
	request   *interceptor.Chain[*Request]
	response  *interceptor.Chain[*Response]
	limiter   *rate.Limiter
	collector *metrics.Collector
	tracing   bool
	callCount int64
}

// NewClient creates a request client with default configuration.
func NewClient(log logger.Logger) Client {
	c, _ := NewBuilder(log).Build()
	return c
}

// Get performs a GET request
func (c *restClient) Get(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodGet, req)
}

// Post performs a POST request
func (c *restClient) Post(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPost, req)
}

// Put performs a PUT request
func (c *restClient) Put(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPut, req)
}

// Patch performs a PATCH request
func (c *restClient) Patch(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodPatch, req)
}

// Delete performs a DELETE request
func (c *restClient) Delete(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodDelete, req)
}

// Head performs a HEAD request
func (c *restClient) Head(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodHead, req)
}

// Options performs an OPTIONS request
func (c *restClient) Options(ctx context.Context, req *Request) (*Response, error) {
	return c.Do(ctx, nethttp.MethodOptions, req)
}

// RequestInterceptors returns the chain run over the prepared request
// before dispatch.
func (c *restClient) RequestInterceptors() *interceptor.Chain[*Request] {
	return c.request
}

// ResponseInterceptors returns the chain run over the delivered
// response before it is handed back.
func (c *restClient) ResponseInterceptors() *interceptor.Chain[*Response] {
	return c.response
}

// Cookies returns the jar backing automatic Cookie and Set-Cookie
// handling.
func (c *restClient) Cookies() *cookiejar.Jar {
	return c.jar
}

// Do performs an HTTP request with the specified method. The full
// pipeline runs in order: prepare, request interceptors, rate limiter,
// dispatch under the retry policy, cookie absorption, response
// interceptors. A non-2xx status is an ordinary response, never an
// error.
func (c *restClient) Do(ctx context.Context, method string, req *Request) (*Response, error) {
	tresp, ex, err := c.roundTrip(ctx, method, req)
	if err != nil {
		return nil, err
	}
	// Bytes skips the body on an already-buffered response, so Close is
	// what releases the attempt context on that path.
	defer tresp.Close()

	body, err := tresp.Bytes()
	if err != nil {
		classified := httperr.Classify(err, ex.timeout)
		c.finish(ctx, ex, nil, classified)
		return nil, classified
	}
	ex.received = int64(len(body))

	resp := c.buildResponse(ex, tresp, body)
	return c.deliver(ctx, ex, resp)
}

// exchange carries per-call state across the pipeline stages.
type exchange struct {
	method    string
	url       string
	timeout   time.Duration
	kind      transport.Kind
	start     time.Time
	attempts  int
	sent      int64
	received  int64
	callCount int64
	requestID string
	endSpan   telemetry.EndSpan
}

// roundTrip runs the pipeline up to and including dispatch. The
// returned transport response has not been materialized; Do drains it
// while Download consumes it incrementally.
func (c *restClient) roundTrip(ctx context.Context, method string, req *Request) (*transport.Response, *exchange, error) {
	if req == nil {
		req = &Request{}
	}
	prepared, err := c.prepare(ctx, method, req)
	if err != nil {
		return nil, nil, err
	}

	ex := &exchange{method: method, start: time.Now()}
	logger.IncrementCallCount(ctx)
	instanceCount := atomic.AddInt64(&c.callCount, 1)
	if tracked := logger.GetCallCount(ctx); tracked > 0 {
		ex.callCount = tracked
	} else {
		ex.callCount = instanceCount
	}

	prepared, err = c.request.Run(ctx, prepared)
	if err != nil {
		c.finish(ctx, ex, nil, err)
		return nil, nil, err
	}
	if prepared == nil || !isAbsoluteURL(prepared.Path) {
		err = httperr.NewValidationError("request interceptor produced an invalid request", "url")
		c.finish(ctx, ex, nil, err)
		return nil, nil, err
	}
	ex.url = prepared.Path
	ex.timeout = c.effectiveTimeout(prepared)
	ex.requestID = prepared.Headers[nethttp.CanonicalHeaderKey(c.traceIDHeader())]
	c.logRequest(ctx, method, prepared, ex)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			classified := httperr.Classify(err, 0)
			c.finish(ctx, ex, nil, classified)
			return nil, nil, classified
		}
	}

	if c.tracing {
		ctx, ex.endSpan = telemetry.StartClientSpan(ctx, method, ex.url)
	}

	tresp, err := c.dispatch(ctx, prepared, ex)
	if err != nil {
		c.finish(ctx, ex, nil, err)
		return nil, nil, err
	}

	if c.config.Credentials != CredentialsOmit {
		c.jar.Absorb(tresp.Header)
	}
	return tresp, ex, nil
}

// dispatch selects the transport and runs it under the retry policy.
// The same wrapper applies to both dispatchers; the policy only ever
// sees classified errors, so its condition is transport-agnostic too.
func (c *restClient) dispatch(ctx context.Context, prepared *Request, ex *exchange) (*transport.Response, error) {
	treq := c.buildTransportRequest(prepared, ex)
	if c.tracing {
		telemetry.InjectContext(ctx, treq.Header)
	}
	tr := c.policy.Select(treq)
	ex.kind = tr.Kind()
	ex.sent = int64(len(treq.Body))

	var tresp *transport.Response
	err := retry.Do(ctx, c.effectiveRetry(prepared), func(ctx context.Context) error {
		ex.attempts++
		attemptCtx, cancel := c.attemptContext(ctx, ex.timeout)
		resp, err := tr.Dispatch(attemptCtx, treq)
		if err != nil {
			cancel()
			return err
		}
		// The attempt context must stay alive until the body has been
		// consumed; Close releases it.
		resp.Body = &cancelOnClose{body: resp.Body, cancel: cancel}
		tresp = resp
		return nil
	})
	if err != nil {
		if ex.endSpan != nil {
			ex.endSpan(0, err)
			ex.endSpan = nil
		}
		return nil, err
	}
	if ex.endSpan != nil {
		ex.endSpan(tresp.StatusCode, nil)
		ex.endSpan = nil
	}
	return tresp, nil
}

// buildTransportRequest lowers the prepared request onto the wire
// shape.
func (c *restClient) buildTransportRequest(prepared *Request, ex *exchange) *transport.Request {
	header := make(nethttp.Header, len(prepared.Headers))
	for key, value := range prepared.Headers {
		header.Set(key, value)
	}
	return &transport.Request{
		Method:   ex.method,
		URL:      prepared.Path,
		Header:   header,
		Body:     prepared.Body,
		Upload:   prepared.Upload.Emitter(),
		Download: prepared.Download.Emitter(),
		Timeout:  ex.timeout,
	}
}

// attemptContext bounds one attempt. A non-positive timeout leaves the
// call unbounded; retry backoff restarts the clock for every attempt.
func (c *restClient) attemptContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *restClient) effectiveTimeout(req *Request) time.Duration {
	if req.Timeout != nil {
		return *req.Timeout
	}
	return c.config.Timeout
}

// effectiveRetry resolves the retry policy for one call. A per-call
// policy replaces the client one; Retry=false forces a single attempt
// regardless of any policy.
func (c *restClient) effectiveRetry(req *Request) retry.Policy {
	if req.Retry != nil && !*req.Retry {
		return retry.Policy{}
	}
	if req.RetryPolicy != nil {
		return *req.RetryPolicy
	}
	if req.Retry != nil && *req.Retry && c.config.Retry.Retries == 0 {
		return retry.Policy{Retries: 1, Delay: c.config.Retry.Delay}
	}
	return c.config.Retry
}

func (c *restClient) buildResponse(ex *exchange, tresp *transport.Response, body []byte) *Response {
	return &Response{
		StatusCode: tresp.StatusCode,
		Status:     tresp.Status,
		Headers:    tresp.Header,
		Body:       body,
		Stats: Stats{
			ElapsedTime:   time.Since(ex.start),
			CallCount:     ex.callCount,
			Attempts:      ex.attempts,
			BytesSent:     ex.sent,
			BytesReceived: ex.received,
			Transport:     ex.kind,
		},
	}
}

// deliver runs the response interceptor chain and records the outcome.
func (c *restClient) deliver(ctx context.Context, ex *exchange, resp *Response) (*Response, error) {
	resp, err := c.response.Run(ctx, resp)
	if err != nil {
		c.finish(ctx, ex, nil, err)
		return nil, err
	}
	c.finish(ctx, ex, resp, nil)
	return resp, nil
}

// finish records stats, metrics, and the outcome log line. Exactly one
// of resp and err is set.
func (c *restClient) finish(ctx context.Context, ex *exchange, resp *Response, err error) {
	elapsed := time.Since(ex.start)
	logger.AddCallElapsed(ctx, elapsed)
	if err != nil {
		c.collector.RecordError(ex.method, err, elapsed)
		c.logError(ctx, ex, elapsed, err)
		return
	}
	c.collector.Record(ex.method, resp.StatusCode, elapsed, ex.sent, ex.received)
	c.logResponse(ctx, ex, resp)
}

// cancelOnClose ties an attempt context to the response body so the
// deadline keeps guarding the read and the context is released exactly
// when the body is.
type cancelOnClose struct {
	body   io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Read(p []byte) (int, error) {
	return c.body.Read(p)
}

func (c *cancelOnClose) Close() error {
	err := c.body.Close()
	c.cancel()
	return err
}
