// Package logger provides filtering capabilities for sensitive data in log output.
package logger

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultMaskValue replaces sensitive values in log output
	DefaultMaskValue = "***"
	// DefaultMaxDepth is the maximum recursion depth when filtering nested values
	DefaultMaxDepth = 8
)

// FilterConfig defines the configuration for sensitive data filtering
type FilterConfig struct {
	// SensitiveFields contains field names that should be masked in logs.
	// Matching is case-insensitive and substring-based, so "token" also
	// covers "access_token" and "X-Csrf-Token".
	SensitiveFields []string
	// MaskValue is the value used to replace sensitive data (default: "***")
	MaskValue string
}

// DefaultFilterConfig returns a configuration covering the field and header
// names that commonly carry credentials in HTTP traffic.
func DefaultFilterConfig() *FilterConfig {
	return &FilterConfig{
		SensitiveFields: []string{
			"password", "passwd", "pwd",
			"secret", "api_key", "apikey",
			"token", "access_token", "refresh_token",
			"auth", "authorization", "proxy-authorization",
			"cookie", "set-cookie", "session",
			"credential", "credentials",
		},
		MaskValue: DefaultMaskValue,
	}
}

// SensitiveDataFilter masks credential-bearing fields before they reach the
// log stream. It is applied by the logging adapter when fields are added and
// by the client when request and response headers are logged.
type SensitiveDataFilter struct {
	config *FilterConfig
}

// NewSensitiveDataFilter creates a new filter with the given configuration
func NewSensitiveDataFilter(config *FilterConfig) *SensitiveDataFilter {
	if config == nil {
		config = DefaultFilterConfig()
	}
	if config.MaskValue == "" {
		config.MaskValue = DefaultMaskValue
	}
	return &SensitiveDataFilter{config: config}
}

// FilterString filters sensitive data from string values
func (f *SensitiveDataFilter) FilterString(key, value string) string {
	if f.isSensitiveField(key) {
		return f.maskString(value)
	}
	return value
}

// FilterHeader returns a copy of h with sensitive header values masked.
// The original header is never modified.
func (f *SensitiveDataFilter) FilterHeader(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	filtered := make(http.Header, len(h))
	for name, values := range h {
		if f.isSensitiveField(name) {
			filtered[name] = []string{f.config.MaskValue}
			continue
		}
		filtered[name] = append([]string(nil), values...)
	}
	return filtered
}

// FilterValue filters sensitive data from arbitrary values. Nested maps and
// slices, such as decoded JSON payloads, are walked recursively up to
// DefaultMaxDepth. The depth limit also bounds recursion over cyclic values.
func (f *SensitiveDataFilter) FilterValue(key string, value any) any {
	return f.filterValue(key, value, DefaultMaxDepth)
}

func (f *SensitiveDataFilter) filterValue(key string, value any, depth int) any {
	if f.isSensitiveField(key) {
		return f.config.MaskValue
	}
	if value == nil || depth <= 0 {
		return value
	}

	switch v := value.(type) {
	case string:
		return v
	case map[string]any:
		filtered := make(map[string]any, len(v))
		for k, elem := range v {
			filtered[k] = f.filterValue(k, elem, depth-1)
		}
		return filtered
	case []any:
		filtered := make([]any, len(v))
		for i, elem := range v {
			filtered[i] = f.filterValue(key, elem, depth-1)
		}
		return filtered
	case http.Header:
		return f.FilterHeader(v)
	case url.Values:
		filtered := make(url.Values, len(v))
		for k, vals := range v {
			if f.isSensitiveField(k) {
				filtered[k] = []string{f.config.MaskValue}
				continue
			}
			filtered[k] = append([]string(nil), vals...)
		}
		return filtered
	default:
		return value
	}
}

// FilterFields filters a map of fields for sensitive data
func (f *SensitiveDataFilter) FilterFields(fields map[string]any) map[string]any {
	filtered := make(map[string]any, len(fields))
	for key, value := range fields {
		filtered[key] = f.FilterValue(key, value)
	}
	return filtered
}

// isSensitiveField checks if a field name is considered sensitive
func (f *SensitiveDataFilter) isSensitiveField(fieldName string) bool {
	lowerFieldName := strings.ToLower(fieldName)
	for _, sensitiveField := range f.config.SensitiveFields {
		if strings.Contains(lowerFieldName, strings.ToLower(sensitiveField)) {
			return true
		}
	}
	return false
}

// maskString masks sensitive string values
func (f *SensitiveDataFilter) maskString(value string) string {
	if value == "" {
		return value
	}

	// URLs keep their structure so operators can still see where a request
	// went; only the credential parts are replaced.
	if f.isURL(value) {
		return f.maskURL(value)
	}

	return f.config.MaskValue
}

// isURL checks if a string appears to be a URL
func (f *SensitiveDataFilter) isURL(value string) bool {
	return strings.HasPrefix(value, "http://") ||
		strings.HasPrefix(value, "https://") ||
		strings.HasPrefix(value, "ws://") ||
		strings.HasPrefix(value, "wss://")
}

// maskURL masks userinfo passwords in URLs while preserving structure
func (f *SensitiveDataFilter) maskURL(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		// If parsing fails, fallback to generic masking
		return f.config.MaskValue
	}

	if parsed.User != nil {
		if _, hasPassword := parsed.User.Password(); hasPassword {
			username := parsed.User.Username()
			return f.buildMaskedURL(parsed, username)
		}
	}

	// No password to mask, return original URL
	return urlStr
}

// buildMaskedURL constructs a URL with masked password while preserving structure
func (f *SensitiveDataFilter) buildMaskedURL(parsed *url.URL, username string) string {
	var b strings.Builder

	b.WriteString(parsed.Scheme)
	b.WriteString("://")

	b.WriteString(username)
	b.WriteByte(':')
	b.WriteString(f.config.MaskValue)
	b.WriteByte('@')
	b.WriteString(parsed.Host)

	// Preserve encoded path, query and fragment parts
	if p := parsed.EscapedPath(); p != "" {
		b.WriteString(p)
	}
	if q := parsed.RawQuery; q != "" {
		b.WriteByte('?')
		b.WriteString(q)
	}
	if frag := parsed.Fragment; frag != "" {
		b.WriteByte('#')
		b.WriteString(frag)
	}

	return b.String()
}
