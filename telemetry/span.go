package telemetry

import (
	"context"
	nethttp "net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
)

const clientTracerName = "go-fetch/client"

// EndSpan finalizes a client span with the outcome of the request. Pass the
// delivered status code, or zero and the error when no response arrived.
type EndSpan func(status int, err error)

// StartClientSpan creates an OpenTelemetry span for an outgoing HTTP request.
// The span name follows the "<method> <host>" convention for client spans, and
// the returned context carries the span so propagation can pick it up.
func StartClientSpan(ctx context.Context, method, rawURL string) (context.Context, EndSpan) {
	tracer := otel.Tracer(clientTracerName)

	spanName := method
	host := hostOf(rawURL)
	if host != "" {
		spanName = method + " " + host
	}

	ctx, span := tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
	)

	attrs := []attribute.KeyValue{
		semconv.HTTPRequestMethodKey.String(method),
		semconv.URLFull(rawURL),
	}
	if host != "" {
		attrs = append(attrs, semconv.ServerAddress(host))
	}
	span.SetAttributes(attrs...)

	return ctx, func(status int, err error) {
		if status > 0 {
			span.SetAttributes(semconv.HTTPResponseStatusCode(status))
		}
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case status >= nethttp.StatusBadRequest:
			// Client spans treat 4xx and 5xx as errors.
			span.SetStatus(codes.Error, nethttp.StatusText(status))
		default:
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// InjectContext writes the active span context into the headers using the
// globally configured propagator.
func InjectContext(ctx context.Context, h nethttp.Header) {
	if h == nil {
		return
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(h))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
