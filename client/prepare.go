package client

import (
	"context"
	"encoding/json"
	nethttp "net/http"

	"github.com/gaborage/go-fetch/httperr"
	gofetchtrace "github.com/gaborage/go-fetch/trace"
)

// prepare builds the merged request the interceptor chain receives:
// Path resolved to an absolute URL with the query folded in, headers
// merged with the client defaults, credentials applied, and the Cookie
// header injected from the jar. The caller's request is never
// modified.
func (c *restClient) prepare(ctx context.Context, method string, req *Request) (*Request, error) {
	if method == "" {
		return nil, httperr.NewValidationError("method cannot be empty", "method")
	}

	prepared := *req
	prepared.Path = appendQuery(resolveURL(c.config.BaseURL, req.Path), req.Query)
	prepared.Query = nil
	if !isAbsoluteURL(prepared.Path) {
		return nil, httperr.NewValidationError("URL must be absolute after base resolution", "url")
	}

	if err := c.prepareBody(&prepared); err != nil {
		return nil, err
	}
	c.prepareHeaders(ctx, &prepared)
	return &prepared, nil
}

// prepareBody marshals the JSON payload when no raw body was supplied.
func (c *restClient) prepareBody(prepared *Request) error {
	if prepared.JSON == nil || len(prepared.Body) > 0 {
		return nil
	}
	body, err := json.Marshal(prepared.JSON)
	if err != nil {
		return httperr.NewValidationError("failed to marshal JSON body: "+err.Error(), "json")
	}
	prepared.Body = body
	return nil
}

// prepareHeaders folds the client defaults and the per-call headers
// into one canonicalized map, then layers on the automatic headers:
// content type, credentials, cache directives, cookies, and trace
// correlation. Explicit per-call values always win over automatic
// ones.
func (c *restClient) prepareHeaders(ctx context.Context, prepared *Request) {
	// http.Header canonicalizes keys, which makes the default/override
	// merge case-insensitive the way HTTP requires.
	header := make(nethttp.Header, len(c.config.DefaultHeaders)+len(prepared.Headers))
	for key, value := range c.config.DefaultHeaders {
		header.Set(key, value)
	}
	for key, value := range prepared.Headers {
		header.Set(key, value)
	}

	if header.Get(contentTypeHeader) == "" && len(prepared.Body) > 0 {
		header.Set(contentTypeHeader, contentTypeJSON)
	}

	c.applyAuth(header, prepared)
	c.applyCacheMode(header)
	c.applyCookies(header)
	gofetchtrace.InjectIntoHeadersWithOptions(ctx, header, gofetchtrace.InjectOptions{
		RequestIDHeader: c.traceIDHeader(),
		GenerateParent:  c.config.EnableW3CTrace,
	})

	flattened := make(map[string]string, len(header))
	for key := range header {
		flattened[key] = header.Get(key)
	}
	prepared.Headers = flattened
}

// applyAuth sets the Authorization header. Per-call basic auth wins
// over the client credentials; basic auth wins over a bearer token. An
// explicit Authorization header suppresses both.
func (c *restClient) applyAuth(header nethttp.Header, prepared *Request) {
	if header.Get("Authorization") != "" {
		return
	}
	auth := prepared.Auth
	if auth == nil {
		auth = c.config.BasicAuth
	}
	if auth != nil {
		// Reuse net/http's encoding rather than duplicating it.
		basic := &nethttp.Request{Header: header}
		basic.SetBasicAuth(auth.Username, auth.Password)
		return
	}
	if c.config.BearerToken != "" {
		header.Set("Authorization", "Bearer "+c.config.BearerToken)
	}
}

// applyCacheMode maps the configured cache mode onto request cache
// directives.
func (c *restClient) applyCacheMode(header nethttp.Header) {
	switch c.config.Cache {
	case CacheNoStore:
		if header.Get("Cache-Control") == "" {
			header.Set("Cache-Control", "no-store")
		}
	case CacheNoCache:
		if header.Get("Cache-Control") == "" {
			header.Set("Cache-Control", "no-cache")
		}
		if header.Get("Pragma") == "" {
			header.Set("Pragma", "no-cache")
		}
	}
}

// applyCookies serializes the jar into the Cookie header. An explicit
// Cookie header wins: unlike a browser, callers here may set one by
// hand, and the jar only fills the gap.
func (c *restClient) applyCookies(header nethttp.Header) {
	if c.config.Credentials == CredentialsOmit || header.Get("Cookie") != "" {
		return
	}
	if serialized := c.jar.Header(); serialized != "" {
		header.Set("Cookie", serialized)
	}
}

func (c *restClient) traceIDHeader() string {
	if c.config.TraceIDHeader != "" {
		return c.config.TraceIDHeader
	}
	return HeaderXRequestID
}
