// Package telemetry wires the client into OpenTelemetry tracing. It owns the
// tracer provider lifecycle and exposes the span helper the client calls
// around each dispatch. When disabled, every operation is a no-op.
package telemetry

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc/credentials/insecure"
)

// Provider manages the lifecycle of the tracing backend.
type Provider interface {
	// TracerProvider returns the configured trace provider.
	TracerProvider() trace.TracerProvider

	// Shutdown gracefully shuts down the provider, flushing any pending data.
	Shutdown(ctx context.Context) error

	// ForceFlush immediately flushes any pending telemetry data.
	ForceFlush(ctx context.Context) error
}

// provider implements Provider with the OpenTelemetry SDK.
type provider struct {
	config         Config
	tracerProvider *sdktrace.TracerProvider
	mu             sync.Mutex
}

// NewProvider creates a telemetry provider from the configuration. Disabled
// configs yield a no-op provider. Enabled configs install the tracer provider
// and the W3C trace context propagator as the otel globals, so spans started
// anywhere in the process export through this provider.
func NewProvider(cfg *Config) (Provider, error) {
	safeCfg := *cfg
	safeCfg.ApplyDefaults()

	if err := safeCfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry config: %w", err)
	}

	if !safeCfg.Enabled {
		return newNoopProvider(), nil
	}

	p := &provider{config: safeCfg}
	if err := p.initTracerProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize trace provider: %w", err)
	}

	otel.SetTracerProvider(p.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return p, nil
}

func (p *provider) initTracerProvider() error {
	res, err := p.createResource()
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := p.createTraceExporter()
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(*p.config.SampleRate)),
	)
	return nil
}

func (p *provider) createResource() (*resource.Resource, error) {
	customRes, err := resource.New(
		context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(p.config.ServiceName),
			semconv.ServiceVersion(p.config.ServiceVersion),
			semconv.DeploymentEnvironmentName(p.config.Environment),
		),
	)
	if err != nil {
		return nil, err
	}
	return resource.Merge(resource.Default(), customRes)
}

func (p *provider) createTraceExporter() (sdktrace.SpanExporter, error) {
	if p.config.Endpoint == EndpointStdout {
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}

	switch p.config.Protocol {
	case ProtocolHTTP:
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(p.config.Endpoint)}
		if p.config.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(p.config.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(p.config.Headers))
		}
		return otlptracehttp.New(context.Background(), opts...)
	case ProtocolGRPC:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(p.config.Endpoint)}
		if p.config.Insecure {
			opts = append(opts, otlptracegrpc.WithTLSCredentials(insecure.NewCredentials()))
		}
		if len(p.config.Headers) > 0 {
			opts = append(opts, otlptracegrpc.WithHeaders(p.config.Headers))
		}
		return otlptracegrpc.New(context.Background(), opts...)
	default:
		return nil, fmt.Errorf("trace protocol '%s': %w", p.config.Protocol, ErrInvalidProtocol)
	}
}

// TracerProvider returns the configured trace provider.
func (p *provider) TracerProvider() trace.TracerProvider {
	if p.tracerProvider == nil {
		return noop.NewTracerProvider()
	}
	return p.tracerProvider
}

// Shutdown gracefully shuts down the provider.
func (p *provider) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tracerProvider == nil {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown trace provider: %w", err)
	}
	return nil
}

// ForceFlush immediately flushes any pending telemetry data.
func (p *provider) ForceFlush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.tracerProvider == nil {
		return nil
	}
	if err := p.tracerProvider.ForceFlush(ctx); err != nil {
		return fmt.Errorf("failed to flush trace provider: %w", err)
	}
	return nil
}

// noopProvider implements Provider with no-op operations.
type noopProvider struct {
	tracerProvider trace.TracerProvider
}

func newNoopProvider() *noopProvider {
	return &noopProvider{tracerProvider: noop.NewTracerProvider()}
}

// TracerProvider returns a no-op tracer provider.
func (n *noopProvider) TracerProvider() trace.TracerProvider {
	return n.tracerProvider
}

// Shutdown is a no-op for the no-op provider.
func (n *noopProvider) Shutdown(_ context.Context) error {
	return nil
}

// ForceFlush is a no-op for the no-op provider.
func (n *noopProvider) ForceFlush(_ context.Context) error {
	return nil
}
