package client

import (
	"net/url"
	"strings"
)

// isAbsoluteURL reports whether raw carries a recognizable scheme prefix.
func isAbsoluteURL(raw string) bool {
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}

// resolveURL joins path onto base with exactly one separating slash,
// regardless of trailing or leading slashes on either side. Absolute URLs
// pass through unchanged. An empty base leaves relative paths as-is so
// validation can reject them with context.
func resolveURL(base, path string) string {
	if isAbsoluteURL(path) {
		return path
	}
	if base == "" {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// appendQuery merges query values into rawURL, preserving any query string
// already present.
func appendQuery(rawURL string, query url.Values) string {
	if len(query) == 0 {
		return rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	existing := parsed.Query()
	for key, values := range query {
		for _, value := range values {
			existing.Add(key, value)
		}
	}
	parsed.RawQuery = existing.Encode()
	return parsed.String()
}
