package client

import (
	"context"
	nethttp "net/http"
	"time"
)

// logRequest logs the outgoing request after interceptors have run, so
// the line reflects what actually goes on the wire.
func (c *restClient) logRequest(ctx context.Context, method string, prepared *Request, ex *exchange) {
	event := c.logger.WithContext(ctx).Info().
		Str("direction", "outbound").
		Str("method", method).
		Str("url", prepared.Path)

	if ex.requestID != "" {
		event = event.Str("request_id", ex.requestID)
	}
	if len(prepared.Headers) > 0 {
		event = event.Int("header_count", len(prepared.Headers))
	}
	if len(prepared.Body) > 0 {
		event = event.Int("body_size", len(prepared.Body))
	}
	event.Msg("HTTP client request")

	c.logPayload(ctx, "outbound", headerOf(prepared.Headers), prepared.Body)
}

// logResponse logs the delivered response.
func (c *restClient) logResponse(ctx context.Context, ex *exchange, resp *Response) {
	event := c.logger.WithContext(ctx).Info().
		Str("direction", "inbound").
		Str("method", ex.method).
		Str("url", ex.url).
		Int("status", resp.StatusCode).
		Dur("elapsed", resp.Stats.ElapsedTime).
		Int64("call_count", resp.Stats.CallCount)

	if ex.requestID != "" {
		event = event.Str("request_id", ex.requestID)
	}
	if resp.Stats.Attempts > 1 {
		event = event.Int("attempts", resp.Stats.Attempts)
	}
	event.Msg("HTTP client response")

	c.logPayload(ctx, "inbound", resp.Headers, resp.Body)
}

// logError logs a failed exchange.
func (c *restClient) logError(ctx context.Context, ex *exchange, elapsed time.Duration, err error) {
	event := c.logger.WithContext(ctx).Error().
		Err(err).
		Str("direction", "inbound").
		Str("method", ex.method).
		Str("url", ex.url).
		Dur("elapsed", elapsed)

	if ex.requestID != "" {
		event = event.Str("request_id", ex.requestID)
	}
	if ex.attempts > 1 {
		event = event.Int("attempts", ex.attempts)
	}
	event.Msg("HTTP client request failed")
}

// logPayload emits the debug-level payload line behind LogPayloads.
// Headers pass through the sensitive-data filter and the body preview
// is truncated to the configured budget.
func (c *restClient) logPayload(ctx context.Context, direction string, headers nethttp.Header, body []byte) {
	if !c.config.LogPayloads {
		return
	}

	limit := c.config.MaxPayloadLogBytes
	if limit <= 0 {
		limit = DefaultMaxPayloadLogBytes
	}
	preview := body
	truncated := false
	if len(preview) > limit {
		preview = preview[:limit]
		truncated = true
	}

	event := c.logger.WithContext(ctx).Debug().
		Str("direction", direction).
		Interface("headers", c.filter.FilterHeader(headers))
	if len(preview) > 0 {
		event = event.Bytes("body_preview", preview)
	}
	if truncated {
		event = event.Int("body_size", len(body)).Interface("body_truncated", true)
	}
	event.Msg("HTTP client payload")
}

func headerOf(flat map[string]string) nethttp.Header {
	h := make(nethttp.Header, len(flat))
	for key, value := range flat {
		h.Set(key, value)
	}
	return h
}
