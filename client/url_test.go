package client

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveURL(t *testing.T) {
	tests := []struct {
		name     string
		base     string
		path     string
		expected string
	}{
		{
			name:     "trailing and leading slashes collapse to one",
			base:     "https://api.example.com/",
			path:     "/users",
			expected: "https://api.example.com/users",
		},
		{
			name:     "no slashes on either side",
			base:     "https://api.example.com",
			path:     "users",
			expected: "https://api.example.com/users",
		},
		{
			name:     "base with path segment",
			base:     "https://api.example.com/v2/",
			path:     "users",
			expected: "https://api.example.com/v2/users",
		},
		{
			name:     "absolute URL passes through",
			base:     "https://api.example.com",
			path:     "https://other.example.com/users",
			expected: "https://other.example.com/users",
		},
		{
			name:     "empty base leaves path untouched",
			base:     "",
			path:     "/users",
			expected: "/users",
		},
		{
			name:     "empty path yields base with one trailing slash",
			base:     "https://api.example.com/",
			path:     "",
			expected: "https://api.example.com/",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, resolveURL(tc.base, tc.path))
		})
	}
}

func TestIsAbsoluteURL(t *testing.T) {
	assert.True(t, isAbsoluteURL("https://example.com"))
	assert.True(t, isAbsoluteURL("http://example.com/path"))
	assert.False(t, isAbsoluteURL("/relative/path"))
	assert.False(t, isAbsoluteURL("example.com"))
	assert.False(t, isAbsoluteURL(""))
}

func TestAppendQuery(t *testing.T) {
	t.Run("no query returns URL unchanged", func(t *testing.T) {
		assert.Equal(t, "https://example.com/a", appendQuery("https://example.com/a", nil))
	})

	t.Run("values are encoded and appended", func(t *testing.T) {
		got := appendQuery("https://example.com/a", url.Values{"q": {"x y"}})
		assert.Equal(t, "https://example.com/a?q=x+y", got)
	})

	t.Run("existing query is preserved", func(t *testing.T) {
		got := appendQuery("https://example.com/a?keep=1", url.Values{"add": {"2"}})
		assert.Equal(t, "https://example.com/a?add=2&keep=1", got)
	})
}
