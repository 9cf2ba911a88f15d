package telemetry

import "errors"

const (
	// EndpointStdout is a special endpoint value that outputs to stdout (for local development).
	EndpointStdout = "stdout"

	// ProtocolHTTP specifies OTLP over HTTP/protobuf.
	ProtocolHTTP = "http"

	// ProtocolGRPC specifies OTLP over gRPC.
	ProtocolGRPC = "grpc"

	// EnvironmentDevelopment is the default environment name for development mode.
	EnvironmentDevelopment = "development"
)

var (
	// ErrMissingServiceName is returned when telemetry is enabled without a service name.
	ErrMissingServiceName = errors.New("telemetry requires a service name")
	// ErrInvalidProtocol is returned for protocols other than http or grpc.
	ErrInvalidProtocol = errors.New("protocol must be http or grpc")
	// ErrInvalidSampleRate is returned when the sample rate is outside [0, 1].
	ErrInvalidSampleRate = errors.New("sample rate must be between 0.0 and 1.0")
)

// Config defines the tracing configuration for the client.
type Config struct {
	// Enabled controls whether telemetry is active.
	// When false, all operations become no-ops.
	Enabled bool `mapstructure:"enabled"`

	// ServiceName identifies this client in traces. Required when enabled.
	ServiceName string `mapstructure:"service_name"`

	// ServiceVersion specifies the version reported with spans.
	ServiceVersion string `mapstructure:"service_version"`

	// Environment indicates the deployment environment.
	Environment string `mapstructure:"environment"`

	// Endpoint is the OTLP collector endpoint, or "stdout" for local development.
	Endpoint string `mapstructure:"endpoint"`

	// Protocol selects OTLP transport: "http" or "grpc".
	Protocol string `mapstructure:"protocol"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `mapstructure:"insecure"`

	// SampleRate is the trace sampling ratio in [0, 1]. Zero records nothing.
	SampleRate *float64 `mapstructure:"sample_rate"`

	// Headers are added to every export request, e.g. for authentication.
	Headers map[string]string `mapstructure:"headers"`
}

// ApplyDefaults sets default values for any config fields that are not specified.
func (c *Config) ApplyDefaults() {
	if c.ServiceVersion == "" {
		c.ServiceVersion = "unknown"
	}
	if c.Environment == "" {
		c.Environment = EnvironmentDevelopment
	}
	if c.Endpoint == "" {
		c.Endpoint = EndpointStdout
	}
	if c.Protocol == "" {
		c.Protocol = ProtocolHTTP
	}
	if c.SampleRate == nil {
		rate := 1.0
		c.SampleRate = &rate
	}
}

// Validate checks the config for inconsistencies. Call after ApplyDefaults.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return ErrMissingServiceName
	}
	if c.Endpoint != EndpointStdout && c.Protocol != ProtocolHTTP && c.Protocol != ProtocolGRPC {
		return ErrInvalidProtocol
	}
	if c.SampleRate != nil && (*c.SampleRate < 0 || *c.SampleRate > 1) {
		return ErrInvalidSampleRate
	}
	return nil
}
