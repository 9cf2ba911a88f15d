package cookiejar

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Options carries the cookie attributes accepted by Set and Remove.
type Options struct {
	// MaxAge is the lifetime in seconds relative to now. Zero leaves
	// the entry as a session cookie; negative expires it immediately.
	MaxAge int
	// ExpiresAt is an absolute expiry. MaxAge wins when both are set.
	ExpiresAt time.Time
	// Domain scopes the entry. Empty means the current origin.
	Domain string
	// Path scopes the entry and defaults to "/".
	Path string
	// Secure marks the entry as HTTPS-only.
	Secure bool
	// SameSite is normalized to canonical casing (Lax, Strict, None).
	SameSite string
}

// Jar is a stateless façade over a Store. Values are percent-encoded
// on the way in and decoded on the way out, so any name=value pair
// survives the serialized round trip, separators included.
type Jar struct {
	store Store
}

// New builds a jar over the given store. A nil store selects the
// process-wide ambient one.
func New(store Store) *Jar {
	if store == nil {
		store = Ambient()
	}
	return &Jar{store: store}
}

// Set commits one cookie. The value is percent-encoded before the
// attribute string is built, so separators inside it never corrupt the
// store's serialized form.
func (j *Jar) Set(name, value string, opts ...Options) {
	if name == "" {
		return
	}
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(url.PathEscape(value))

	switch {
	case o.MaxAge > 0:
		writeExpires(&b, time.Now().Add(time.Duration(o.MaxAge)*time.Second))
	case o.MaxAge < 0:
		writeExpires(&b, time.Unix(0, 0))
	case !o.ExpiresAt.IsZero():
		writeExpires(&b, o.ExpiresAt)
	}
	if o.Domain != "" {
		b.WriteString("; Domain=")
		b.WriteString(o.Domain)
	}
	path := o.Path
	if path == "" {
		path = "/"
	}
	b.WriteString("; Path=")
	b.WriteString(path)
	if o.Secure {
		b.WriteString("; Secure")
	}
	if sameSite := normalizeSameSite(o.SameSite); sameSite != "" {
		b.WriteString("; SameSite=")
		b.WriteString(sameSite)
	}

	j.store.Write(b.String())
}

// Get scans the serialized store for name and returns its decoded
// value. Malformed percent-encoding falls back to the raw value; Get
// never fails. The second return reports presence.
func (j *Jar) Get(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	for _, segment := range strings.Split(j.store.Read(), ";") {
		key, value, found := strings.Cut(strings.TrimSpace(segment), "=")
		if !found || strings.TrimSpace(key) != name {
			continue
		}
		return decodeValue(value), true
	}
	return "", false
}

// GetAll returns every cookie as a name→value map in store scan order.
// Duplicate names resolve to the last occurrence.
func (j *Jar) GetAll() map[string]string {
	all := make(map[string]string)
	serialized := j.store.Read()
	if serialized == "" {
		return all
	}
	for _, segment := range strings.Split(serialized, ";") {
		key, value, found := strings.Cut(strings.TrimSpace(segment), "=")
		key = strings.TrimSpace(key)
		if !found || key == "" {
			continue
		}
		all[key] = decodeValue(value)
	}
	return all
}

// Remove expires the named cookie. The domain and path must match the
// ones used when the cookie was set, or the underlying store keeps the
// original entry; that is a property of cookie stores, not of this
// façade.
func (j *Jar) Remove(name string, opts ...Options) {
	var o Options
	if len(opts) > 0 {
		o = opts[0]
	}
	j.Set(name, "", Options{MaxAge: -1, Domain: o.Domain, Path: o.Path})
}

// Header returns the serialized store contents, ready to use as a
// Cookie request header value. Empty when the store is.
func (j *Jar) Header() string {
	return j.store.Read()
}

// Absorb folds Set-Cookie response headers into the store.
func (j *Jar) Absorb(h http.Header) {
	for _, entry := range h.Values("Set-Cookie") {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		j.store.Write(entry)
	}
}

func writeExpires(b *strings.Builder, t time.Time) {
	b.WriteString("; Expires=")
	b.WriteString(t.UTC().Format(http.TimeFormat))
}

func decodeValue(v string) string {
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func normalizeSameSite(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "lax":
		return "Lax"
	case "strict":
		return "Strict"
	case "none":
		return "None"
	default:
		return s
	}
}
