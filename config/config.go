package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultConfigFile is the base configuration file name.
	DefaultConfigFile = "fetch.yaml"
	// EnvPrefix is stripped from environment variable names; the
	// remainder maps onto config keys (FETCH_RETRY_DELAY_MS →
	// retry.delay.ms does not exist, so compound keys keep their
	// underscores via the defaults map below).
	EnvPrefix = "FETCH_"
	// EnvVar names the variable selecting the environment overlay
	// file, fetch.<env>.yaml.
	EnvVar = "FETCH_ENV"
)

// Load reads configuration with the usual priority: defaults, then
// fetch.yaml, then fetch.<env>.yaml when FETCH_ENV is set, then
// FETCH_-prefixed environment variables. Missing files are fine;
// malformed ones are not.
func Load() (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadFile(k, DefaultConfigFile); err != nil {
		return nil, err
	}
	if env := os.Getenv(EnvVar); env != "" {
		if err := loadFile(k, "fetch."+env+".yaml"); err != nil {
			return nil, err
		}
	}

	if err := k.Load(envprovider.Provider(".", envprovider.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return envKeyToPath(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	return unmarshal(k)
}

// LoadBytes parses raw YAML over the defaults. Intended for tests and
// embedded configuration.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config bytes: %w", err)
	}
	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"timeout_ms":  30_000,
		"credentials": "include",
		"cache":       "default",
		"redirect":    "follow",

		"retry.retries":             0,
		"retry.delay_ms":            1_000,
		"retry.exponential_backoff": false,

		"rate.requests_per_sec": 0,
		"rate.burst":            0,

		"log.level":             "info",
		"log.pretty":            false,
		"log.payloads":          false,
		"log.max_payload_bytes": 1024,
	}
	return k.Load(confmap.Provider(defaults, "."), nil)
}

// envKeyToPath maps FETCH_RETRY_DELAY_MS (already prefix-stripped to
// RETRY_DELAY_MS) onto retry.delay_ms. Only the first underscore
// separates the section from the key; later underscores belong to the
// key itself, matching the flat snake_case key naming above.
func envKeyToPath(key string) string {
	key = strings.ToLower(key)
	if section, rest, found := strings.Cut(key, "_"); found {
		switch section {
		case "auth", "retry", "rate", "log", "trace":
			return section + "." + rest
		}
	}
	return key
}
