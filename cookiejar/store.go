// Package cookiejar provides a browser-style cookie façade over a
// pluggable string store. The store models a single ambient mutable
// cookie string: reads return the serialized "name=value; name=value"
// form, and each write commits one cookie-attribute string that the
// store merges the way a browser would (overwrite by identity, delete
// on expiry). Jars are cheap stateless façades; every jar built
// without an explicit store shares the process-wide ambient one.
package cookiejar

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Store is the ambient cookie state port. Implementations must make
// Write atomic: each call replaces the whole serialized value rather
// than patching it in place, so concurrent writers never interleave
// partial state.
type Store interface {
	// Read returns the serialized cookie string: name=value pairs
	// joined by "; ", attributes stripped, in storage order.
	Read() string
	// Write commits one cookie-attribute string, e.g.
	// "name=value; Expires=...; Path=/; Secure". An already-expired
	// entry deletes the matching cookie.
	Write(entry string)
}

var ambientStore = NewMemoryStore()

// Ambient returns the process-wide shared store.
func Ambient() Store {
	return ambientStore
}

// storedCookie is one live entry. Identity is (name, domain, path);
// writing the same identity overwrites in place, preserving the
// entry's original position in the serialized order.
type storedCookie struct {
	name    string
	value   string
	domain  string
	path    string
	expires time.Time // zero = session cookie, never expires here
}

func (c *storedCookie) expired(now time.Time) bool {
	return !c.expires.IsZero() && !c.expires.After(now)
}

// MemoryStore is an in-memory Store with browser merge semantics.
// Safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries []*storedCookie
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Read implements Store.
func (s *MemoryStore) Read() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(time.Now())

	parts := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		parts = append(parts, e.name+"="+e.value)
	}
	return strings.Join(parts, "; ")
}

// Write implements Store.
func (s *MemoryStore) Write(entry string) {
	c, ok := parseEntry(entry, time.Now())
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if c.expired(now) {
		s.remove(c)
		return
	}
	for _, existing := range s.entries {
		if existing.name == c.name && existing.domain == c.domain && existing.path == c.path {
			existing.value = c.value
			existing.expires = c.expires
			return
		}
	}
	s.entries = append(s.entries, c)
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prune(time.Now())
	return len(s.entries)
}

// Clear drops every entry.
func (s *MemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *MemoryStore) remove(c *storedCookie) {
	kept := s.entries[:0]
	for _, existing := range s.entries {
		if existing.name == c.name && existing.domain == c.domain && existing.path == c.path {
			continue
		}
		kept = append(kept, existing)
	}
	s.entries = kept
}

func (s *MemoryStore) prune(now time.Time) {
	kept := s.entries[:0]
	for _, existing := range s.entries {
		if existing.expired(now) {
			continue
		}
		kept = append(kept, existing)
	}
	s.entries = kept
}

// parseEntry interprets one cookie-attribute string. Unparseable
// entries (no name=value pair) are dropped, matching the permissive
// way browsers treat garbage writes.
func parseEntry(entry string, now time.Time) (*storedCookie, bool) {
	segments := strings.Split(entry, ";")
	name, value, found := strings.Cut(strings.TrimSpace(segments[0]), "=")
	name = strings.TrimSpace(name)
	if !found || name == "" {
		return nil, false
	}

	c := &storedCookie{
		name:  name,
		value: strings.TrimSpace(value),
		path:  "/",
	}
	for _, segment := range segments[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(segment), "=")
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "expires":
			if t, err := http.ParseTime(val); err == nil && c.expires.IsZero() {
				c.expires = t
			}
		case "max-age":
			// Max-Age takes precedence over Expires.
			if seconds, err := strconv.Atoi(val); err == nil {
				if seconds <= 0 {
					c.expires = now.Add(-time.Second)
				} else {
					c.expires = now.Add(time.Duration(seconds) * time.Second)
				}
			}
		case "domain":
			c.domain = strings.ToLower(strings.TrimPrefix(val, "."))
		case "path":
			if val != "" {
				c.path = val
			}
		}
	}
	return c, true
}
