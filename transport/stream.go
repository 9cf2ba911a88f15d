package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gaborage/go-fetch/httperr"
)

// StreamTransport dispatches through the shared net/http client and
// returns the live response body for incremental consumption. It
// exposes no byte-level upload progress; accounting for a streamed
// download belongs to whoever drains the body.
type StreamTransport struct {
	client *http.Client
}

// NewStreamTransport builds the streaming dispatcher. A nil client
// falls back to NewHTTPClient.
func NewStreamTransport(client *http.Client) *StreamTransport {
	if client == nil {
		client = NewHTTPClient()
	}
	return &StreamTransport{client: client}
}

// Kind implements Transport.
func (t *StreamTransport) Kind() Kind {
	return KindStream
}

// Dispatch implements Transport.
func (t *StreamTransport) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, httperr.Classify(err, req.Timeout)
	}

	return &Response{
		StatusCode:    httpResp.StatusCode,
		Status:        httpResp.Status,
		Header:        httpResp.Header,
		Body:          httpResp.Body,
		ContentLength: httpResp.ContentLength,
	}, nil
}

// buildHTTPRequest constructs the native request with a fresh body
// reader over the retained payload.
func buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var body io.Reader
	if req.HasBody() {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, httperr.NewNetworkError("failed to create HTTP request", err)
	}

	copyHeader(httpReq.Header, req.Header)
	return httpReq, nil
}

func copyHeader(dst, src http.Header) {
	for key, values := range src {
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}
