package client

import (
	nethttp "net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/gaborage/go-fetch/cookiejar"
	"github.com/gaborage/go-fetch/httperr"
	"github.com/gaborage/go-fetch/interceptor"
	"github.com/gaborage/go-fetch/logger"
	"github.com/gaborage/go-fetch/metrics"
	"github.com/gaborage/go-fetch/retry"
	"github.com/gaborage/go-fetch/transport"
)

// Builder provides a fluent interface for configuring the request client
type Builder struct {
	config     *Config
	logger     logger.Logger
	store      cookiejar.Store
	jar        *cookiejar.Jar
	policy     transport.Policy
	httpClient *nethttp.Client
	rt         nethttp.RoundTripper
	limiter    *rate.Limiter
	collector  *metrics.Collector
	tracing    bool
}

// NewBuilder creates a new client builder
func NewBuilder(log logger.Logger) *Builder {
	return &Builder{
		config: &Config{
			Timeout:        DefaultTimeout,
			DefaultHeaders: make(map[string]string),
			Credentials:    CredentialsInclude,
			Cache:          CacheDefault,
			Redirect:       RedirectFollow,
		},
		logger: log,
	}
}

// WithBaseURL sets the base URL relative request paths resolve against.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	b.config.BaseURL = baseURL
	return b
}

// WithTimeout sets the default request timeout. A non-positive value
// leaves requests unbounded.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.config.Timeout = timeout
	return b
}

// WithRetry sets a simple retry configuration with fixed delay.
func (b *Builder) WithRetry(retries int, delay time.Duration) *Builder {
	b.config.Retry = retry.Policy{Retries: retries, Delay: delay}
	return b
}

// WithRetryPolicy sets the full retry policy.
func (b *Builder) WithRetryPolicy(policy retry.Policy) *Builder {
	b.config.Retry = policy
	return b
}

// WithBasicAuth sets basic authentication credentials
func (b *Builder) WithBasicAuth(username, password string) *Builder {
	b.config.BasicAuth = &BasicAuth{
		Username: username,
		Password: password,
	}
	return b
}

// WithBearerToken sets a bearer token used when no basic auth applies.
func (b *Builder) WithBearerToken(token string) *Builder {
	b.config.BearerToken = token
	return b
}

// WithDefaultHeader adds a default header that will be sent with all requests
func (b *Builder) WithDefaultHeader(key, value string) *Builder {
	b.config.DefaultHeaders[key] = value
	return b
}

// WithCookieJar sets the jar used for Cookie injection and Set-Cookie
// absorption.
func (b *Builder) WithCookieJar(jar *cookiejar.Jar) *Builder {
	b.jar = jar
	return b
}

// WithCookieStore builds the jar over the given store instead of the
// process-wide ambient one.
func (b *Builder) WithCookieStore(store cookiejar.Store) *Builder {
	b.store = store
	return b
}

// WithTransportPolicy overrides the transport selection policy.
func (b *Builder) WithTransportPolicy(policy transport.Policy) *Builder {
	b.policy = policy
	return b
}

// WithHTTPClient supplies the underlying net/http client both
// dispatchers share.
func (b *Builder) WithHTTPClient(client *nethttp.Client) *Builder {
	b.httpClient = client
	return b
}

// WithTransport supplies the round tripper for the underlying client.
// Ignored when WithHTTPClient is also used.
func (b *Builder) WithTransport(rt nethttp.RoundTripper) *Builder {
	b.rt = rt
	return b
}

// WithRateLimit throttles dispatches to rps requests per second with
// the given burst.
func (b *Builder) WithRateLimit(rps float64, burst int) *Builder {
	b.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	return b
}

// WithCredentials sets the credentials mode governing cookie handling.
func (b *Builder) WithCredentials(mode CredentialsMode) *Builder {
	b.config.Credentials = mode
	return b
}

// WithCacheMode sets the cache directives sent with every request.
func (b *Builder) WithCacheMode(mode CacheMode) *Builder {
	b.config.Cache = mode
	return b
}

// WithRedirectPolicy sets how the underlying client treats redirects.
func (b *Builder) WithRedirectPolicy(mode RedirectMode) *Builder {
	b.config.Redirect = mode
	return b
}

// WithPayloadLogging enables debug-level request/response payload
// logging, truncated to maxBytes per body.
func (b *Builder) WithPayloadLogging(maxBytes int) *Builder {
	b.config.LogPayloads = true
	b.config.MaxPayloadLogBytes = maxBytes
	return b
}

// WithTraceIDHeader overrides the header carrying the request ID.
func (b *Builder) WithTraceIDHeader(header string) *Builder {
	b.config.TraceIDHeader = header
	return b
}

// WithW3CTrace enables W3C traceparent/tracestate generation and
// propagation.
func (b *Builder) WithW3CTrace() *Builder {
	b.config.EnableW3CTrace = true
	return b
}

// WithMetrics attaches a collector recording every dispatched call.
func (b *Builder) WithMetrics(collector *metrics.Collector) *Builder {
	b.collector = collector
	return b
}

// WithTelemetry enables OpenTelemetry client spans around every
// dispatch. The global tracer provider must be configured separately,
// typically through the telemetry package.
func (b *Builder) WithTelemetry() *Builder {
	b.tracing = true
	return b
}

// Build creates the request client with the configured options.
func (b *Builder) Build() (Client, error) {
	if b.config.BaseURL != "" && !isAbsoluteURL(b.config.BaseURL) {
		return nil, httperr.NewValidationError("base URL must be absolute", "base_url")
	}
	if b.config.Credentials != CredentialsInclude && b.config.Credentials != CredentialsOmit {
		return nil, httperr.NewValidationError("unknown credentials mode", "credentials")
	}

	log := b.logger
	if log == nil {
		log = logger.New("info", false)
	}

	var httpClient *nethttp.Client
	if b.httpClient != nil {
		// Copy before installing the redirect hook so a client shared
		// across builders keeps its own redirect behavior.
		clone := *b.httpClient
		httpClient = &clone
	} else {
		httpClient = transport.NewHTTPClient()
		if b.rt != nil {
			httpClient.Transport = b.rt
		}
	}
	applyRedirectMode(httpClient, b.config.Redirect)

	policy := b.policy
	if policy == nil {
		policy = transport.NewAutoPolicy(
			transport.NewStreamTransport(httpClient),
			transport.NewBufferedTransport(httpClient),
		)
	}

	jar := b.jar
	if jar == nil {
		jar = cookiejar.New(b.store)
	}

	return &restClient{
		config:    b.config,
		logger:    log,
		filter:    logger.NewSensitiveDataFilter(nil),
		policy:    policy,
		jar:       jar,
		request:   interceptor.NewChain[*Request]("request"),
		response:  interceptor.NewChain[*Response]("response"),
		limiter:   b.limiter,
		collector: b.collector,
		tracing:   b.tracing,
	}, nil
}

// applyRedirectMode maps the redirect mode onto the client's redirect
// hook. Follow keeps the net/http default chain limit.
func applyRedirectMode(client *nethttp.Client, mode RedirectMode) {
	switch mode {
	case RedirectManual:
		client.CheckRedirect = func(*nethttp.Request, []*nethttp.Request) error {
			return nethttp.ErrUseLastResponse
		}
	case RedirectError:
		client.CheckRedirect = func(req *nethttp.Request, _ []*nethttp.Request) error {
			return httperr.NewNetworkError("redirect refused by policy: "+req.URL.String(), nil)
		}
	}
}
