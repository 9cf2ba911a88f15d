package transport

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gaborage/go-fetch/httperr"
	"github.com/gaborage/go-fetch/progress"
)

// BufferedTransport dispatches with byte-level progress accounting on
// both directions. The request body flows to the wire through a
// counting reader feeding the upload registry; the response body is
// drained through one feeding the download registry and handed back
// materialized. This is the dispatcher progress hooks require, and the
// one that costs a full copy of the payload — which is why selection
// is conditional rather than unconditional.
type BufferedTransport struct {
	client *http.Client
}

// NewBufferedTransport builds the progress-accounting dispatcher. A
// nil client falls back to NewHTTPClient.
func NewBufferedTransport(client *http.Client) *BufferedTransport {
	if client == nil {
		client = NewHTTPClient()
	}
	return &BufferedTransport{client: client}
}

// Kind implements Transport.
func (t *BufferedTransport) Kind() Kind {
	return KindBuffered
}

// Dispatch implements Transport.
func (t *BufferedTransport) Dispatch(ctx context.Context, req *Request) (*Response, error) {
	var upload *progress.Reader
	var body io.Reader
	if req.HasBody() {
		upload = progress.NewReader(bytes.NewReader(req.Body), int64(len(req.Body)), req.Upload)
		body = upload
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, httperr.NewNetworkError("failed to create HTTP request", err)
	}
	if req.HasBody() {
		// The counting reader hides the payload size from net/http, so
		// restore the length and a plain rewind for redirects.
		payload := req.Body
		httpReq.ContentLength = int64(len(payload))
		httpReq.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	}
	copyHeader(httpReq.Header, req.Header)

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		classified := httperr.Classify(err, req.Timeout)
		emitFailure(req.Upload, classified, loadedOf(upload))
		emitFailure(req.Download, classified, 0)
		return nil, classified
	}
	defer httpResp.Body.Close()

	total := httpResp.ContentLength
	if total < 0 {
		total = 0
	}
	download := progress.NewReader(httpResp.Body, total, req.Download)
	data, err := io.ReadAll(download)
	if err != nil {
		classified := httperr.Classify(err, req.Timeout)
		emitFailure(req.Download, classified, download.Loaded())
		return nil, classified
	}
	download.Finish()

	return NewBufferedResponse(httpResp.StatusCode, httpResp.Status, httpResp.Header, data), nil
}

func loadedOf(r *progress.Reader) int64 {
	if r == nil {
		return 0
	}
	return r.Loaded()
}

// emitFailure reports a failed transfer on one registry. Cancellation
// observed in flight — caller abort or timer expiry — surfaces as the
// abort kind; everything else as the error kind.
func emitFailure(e *progress.Emitter, err error, loaded int64) {
	kind := progress.KindError
	if httperr.IsErrorType(err, httperr.AbortError) || httperr.IsErrorType(err, httperr.TimeoutError) {
		kind = progress.KindAbort
	}
	e.Emit(progress.Event{Kind: kind, Loaded: loaded, Err: err})
}
