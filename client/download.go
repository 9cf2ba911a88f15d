package client

import (
	"context"
	"io"
	nethttp "net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/gaborage/go-fetch/httperr"
	"github.com/gaborage/go-fetch/progress"
	"github.com/gaborage/go-fetch/transport"
)

// Download performs a GET and returns the payload. With progress
// callbacks the transport policy picks the buffered dispatcher, which
// accounts every byte and materializes the payload; without them the
// live body is consumed incrementally, so length-unknown streams are
// never buffered twice. When opts.Writer is set the payload goes there
// and the returned Response carries an empty body.
func (c *restClient) Download(ctx context.Context, path string, opts *DownloadOptions) (*Response, error) {
	if opts == nil {
		opts = &DownloadOptions{}
	}

	req := &Request{
		Path:     path,
		Query:    opts.Query,
		Headers:  opts.Headers,
		Download: opts.Progress,
	}

	tresp, ex, err := c.roundTrip(ctx, nethttp.MethodGet, req)
	if err != nil {
		return nil, err
	}
	// Closing the response releases the attempt context armed at
	// dispatch, including when the dispatcher delivered it buffered.
	defer tresp.Close()

	var body []byte
	if opts.Writer != nil {
		n, err := c.drainTo(opts.Writer, tresp, opts.Progress)
		if err != nil {
			classified := httperr.Classify(err, ex.timeout)
			c.finish(ctx, ex, nil, classified)
			return nil, classified
		}
		ex.received = n
	} else {
		body, err = tresp.Bytes()
		if err != nil {
			classified := httperr.Classify(err, ex.timeout)
			c.finish(ctx, ex, nil, classified)
			return nil, classified
		}
		ex.received = int64(len(body))
	}

	return c.deliver(ctx, ex, c.buildResponse(ex, tresp, body))
}

// drainTo copies the response body into w chunk by chunk. On the
// buffered dispatcher the payload is already materialized and progress
// has fired; on the stream dispatcher this is the single pass over the
// wire bytes. The caller closes the response.
func (c *restClient) drainTo(w io.Writer, tresp *transport.Response, callbacks *progress.Callbacks) (int64, error) {
	if tresp.Buffered() || !callbacks.Any() {
		return io.Copy(w, tresp.Body)
	}
	// A stream response with callbacks only happens under a custom
	// policy; count the bytes on the way through. ContentLength is -1
	// on chunked responses, which handlers see as unknown total.
	total := tresp.ContentLength
	if total < 0 {
		total = 0
	}
	counting := progress.NewWriter(w, total, callbacks.Emitter())
	n, err := io.Copy(counting, tresp.Body)
	if err == nil {
		counting.Finish()
	}
	return n, err
}

// DownloadFile downloads straight into dest, creating or truncating
// it. The file is removed again when the download fails.
func (c *restClient) DownloadFile(ctx context.Context, path, dest string, opts *DownloadOptions) error {
	if opts == nil {
		opts = &DownloadOptions{}
	}
	if opts.Writer != nil {
		return httperr.NewValidationError("DownloadFile manages its own writer", "writer")
	}

	f, err := os.Create(dest)
	if err != nil {
		return httperr.NewValidationError("failed to create destination file: "+err.Error(), "dest")
	}

	fileOpts := *opts
	fileOpts.Writer = f
	_, dlErr := c.Download(ctx, path, &fileOpts)

	closeErr := f.Close()
	if dlErr != nil {
		os.Remove(dest)
		return dlErr
	}
	if closeErr != nil {
		os.Remove(dest)
		return httperr.NewValidationError("failed to finalize destination file: "+closeErr.Error(), "dest")
	}
	return nil
}

// DownloadBatch runs the downloads concurrently, at most limit at a
// time (0 or less means no bound). The first failure cancels the
// remaining downloads and is returned.
func (c *restClient) DownloadBatch(ctx context.Context, specs []DownloadSpec, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for _, spec := range specs {
		g.Go(func() error {
			return c.DownloadFile(ctx, spec.Path, spec.Dest, spec.Options)
		})
	}
	return g.Wait()
}
