// Package config loads client configuration from files and the
// environment and assembles ready clients from it. Sources stack in
// priority order: built-in defaults, fetch.yaml, the
// environment-specific overlay, then FETCH_-prefixed environment
// variables on top.
package config

import "time"

// Config is the file/env surface for client construction. Durations
// are expressed in milliseconds at this layer.
type Config struct {
	// BaseURL is the absolute URL relative request paths resolve
	// against.
	BaseURL string `koanf:"base_url" json:"base_url" yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// TimeoutMs bounds each request. Zero or negative disables the
	// deadline.
	TimeoutMs int64 `koanf:"timeout_ms" json:"timeout_ms" yaml:"timeout_ms" mapstructure:"timeout_ms"`

	// Headers are sent with every request unless overridden per call.
	Headers map[string]string `koanf:"headers" json:"headers" yaml:"headers" mapstructure:"headers"`

	// Credentials governs automatic cookie handling: include or omit.
	Credentials string `koanf:"credentials" json:"credentials" yaml:"credentials" mapstructure:"credentials" validate:"omitempty,oneof=include omit"`

	// Cache selects the cache directives sent with every request.
	Cache string `koanf:"cache" json:"cache" yaml:"cache" mapstructure:"cache" validate:"omitempty,oneof=default no-store no-cache"`

	// Redirect selects redirect handling: follow, error, or manual.
	Redirect string `koanf:"redirect" json:"redirect" yaml:"redirect" mapstructure:"redirect" validate:"omitempty,oneof=follow error manual"`

	Auth  AuthConfig  `koanf:"auth" json:"auth" yaml:"auth" mapstructure:"auth"`
	Retry RetryConfig `koanf:"retry" json:"retry" yaml:"retry" mapstructure:"retry"`
	Rate  RateConfig  `koanf:"rate" json:"rate" yaml:"rate" mapstructure:"rate"`
	Log   LogConfig   `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Trace TraceConfig `koanf:"trace" json:"trace" yaml:"trace" mapstructure:"trace"`
}

// AuthConfig carries client-level credentials. Basic auth wins over
// the bearer token when both are set.
type AuthConfig struct {
	Username    string `koanf:"username" json:"username" yaml:"username" mapstructure:"username"`
	Password    string `koanf:"password" json:"password" yaml:"password" mapstructure:"password"`
	BearerToken string `koanf:"bearer_token" json:"bearer_token" yaml:"bearer_token" mapstructure:"bearer_token"`
}

// RetryConfig mirrors retry.Policy at the file surface.
type RetryConfig struct {
	// Retries is the number of re-attempts after the first try.
	Retries int `koanf:"retries" json:"retries" yaml:"retries" mapstructure:"retries" validate:"gte=0"`
	// DelayMs is the base sleep between attempts.
	DelayMs int64 `koanf:"delay_ms" json:"delay_ms" yaml:"delay_ms" mapstructure:"delay_ms" validate:"gte=0"`
	// ExponentialBackoff doubles the sleep after every attempt.
	ExponentialBackoff bool `koanf:"exponential_backoff" json:"exponential_backoff" yaml:"exponential_backoff" mapstructure:"exponential_backoff"`
}

// RateConfig throttles outbound calls. A zero RequestsPerSec leaves
// the client unthrottled.
type RateConfig struct {
	RequestsPerSec float64 `koanf:"requests_per_sec" json:"requests_per_sec" yaml:"requests_per_sec" mapstructure:"requests_per_sec" validate:"gte=0"`
	Burst          int     `koanf:"burst" json:"burst" yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// LogConfig tunes the default logger built for the client.
type LogConfig struct {
	Level           string `koanf:"level" json:"level" yaml:"level" mapstructure:"level"`
	Pretty          bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
	Payloads        bool   `koanf:"payloads" json:"payloads" yaml:"payloads" mapstructure:"payloads"`
	MaxPayloadBytes int    `koanf:"max_payload_bytes" json:"max_payload_bytes" yaml:"max_payload_bytes" mapstructure:"max_payload_bytes" validate:"gte=0"`
}

// TraceConfig tunes correlation header propagation.
type TraceConfig struct {
	// Header overrides the request-ID header name.
	Header string `koanf:"header" json:"header" yaml:"header" mapstructure:"header"`
	// W3C enables traceparent/tracestate generation and propagation.
	W3C bool `koanf:"w3c" json:"w3c" yaml:"w3c" mapstructure:"w3c"`
}

// Timeout returns the configured timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// RetryDelay returns the configured base retry delay as a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Retry.DelayMs) * time.Millisecond
}
