package config

import (
	"github.com/gaborage/go-fetch/client"
	"github.com/gaborage/go-fetch/logger"
	"github.com/gaborage/go-fetch/retry"
)

// Build assembles a client from the loaded configuration. A nil log
// gets a zerolog logger built from the log section.
func Build(cfg *Config, log logger.Logger) (client.Client, error) {
	if log == nil {
		log = logger.New(cfg.Log.Level, cfg.Log.Pretty)
	}

	b := client.NewBuilder(log)

	if cfg.BaseURL != "" {
		b.WithBaseURL(cfg.BaseURL)
	}
	b.WithTimeout(cfg.Timeout())

	for key, value := range cfg.Headers {
		b.WithDefaultHeader(key, value)
	}

	if cfg.Retry.Retries > 0 {
		b.WithRetryPolicy(retry.Policy{
			Retries:            cfg.Retry.Retries,
			Delay:              cfg.RetryDelay(),
			ExponentialBackoff: cfg.Retry.ExponentialBackoff,
		})
	}

	if cfg.Auth.Username != "" {
		b.WithBasicAuth(cfg.Auth.Username, cfg.Auth.Password)
	}
	if cfg.Auth.BearerToken != "" {
		b.WithBearerToken(cfg.Auth.BearerToken)
	}

	if cfg.Rate.RequestsPerSec > 0 {
		burst := cfg.Rate.Burst
		if burst <= 0 {
			burst = 1
		}
		b.WithRateLimit(cfg.Rate.RequestsPerSec, burst)
	}

	if cfg.Credentials != "" {
		b.WithCredentials(client.CredentialsMode(cfg.Credentials))
	}
	if cfg.Cache != "" {
		b.WithCacheMode(client.CacheMode(cfg.Cache))
	}
	if cfg.Redirect != "" {
		b.WithRedirectPolicy(client.RedirectMode(cfg.Redirect))
	}

	if cfg.Log.Payloads {
		b.WithPayloadLogging(cfg.Log.MaxPayloadBytes)
	}

	if cfg.Trace.Header != "" {
		b.WithTraceIDHeader(cfg.Trace.Header)
	}
	if cfg.Trace.W3C {
		b.WithW3CTrace()
	}

	return b.Build()
}

// Must panics when err is non-nil. Intended for program startup where
// a bad configuration should stop the process.
func Must(c client.Client, err error) client.Client {
	if err != nil {
		panic(err)
	}
	return c
}
