package cookiejar

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore records raw writes so tests can assert the exact attribute
// strings the jar commits.
type fakeStore struct {
	serialized string
	writes     []string
}

func (f *fakeStore) Read() string {
	return f.serialized
}

func (f *fakeStore) Write(entry string) {
	f.writes = append(f.writes, entry)
}

func newTestJar() (*Jar, *MemoryStore) {
	store := NewMemoryStore()
	return New(store), store
}

func TestSetGetRoundTrip(t *testing.T) {
	values := []struct {
		name  string
		value string
	}{
		{"plain value", "abc123"},
		{"value with separators", "a;b=c d"},
		{"value with equals", "key=val=deep"},
		{"value with semicolons", "one;two;three"},
		{"value with spaces", "hello cookie world"},
		{"value with plus", "a+b"},
		{"value with percent literal", "100%done"},
		{"value with unicode", "héllo wörld"},
		{"empty value", ""},
	}

	for _, tt := range values {
		t.Run(tt.name, func(t *testing.T) {
			jar, _ := newTestJar()
			jar.Set("k", tt.value)

			got, ok := jar.Get("k")
			require.True(t, ok)
			assert.Equal(t, tt.value, got, "value must survive the serialized round trip exactly")
		})
	}
}

func TestGetMissingCookie(t *testing.T) {
	jar, _ := newTestJar()

	_, ok := jar.Get("absent")
	assert.False(t, ok)

	_, ok = jar.Get("")
	assert.False(t, ok)
}

func TestGetMalformedEncodingFallsBackToRaw(t *testing.T) {
	jar, store := newTestJar()
	store.Write("broken=%zz%")

	got, ok := jar.Get("broken")
	require.True(t, ok)
	assert.Equal(t, "%zz%", got)
}

func TestGetAll(t *testing.T) {
	t.Run("returns every cookie", func(t *testing.T) {
		jar, _ := newTestJar()
		jar.Set("first", "1")
		jar.Set("second", "2")
		jar.Set("third", "3")

		all := jar.GetAll()
		assert.Equal(t, map[string]string{"first": "1", "second": "2", "third": "3"}, all)
	})

	t.Run("duplicate names resolve to the last occurrence", func(t *testing.T) {
		jar, store := newTestJar()
		store.Write("dup=one; Path=/a")
		store.Write("dup=two; Path=/b")

		all := jar.GetAll()
		assert.Equal(t, "two", all["dup"])
	})

	t.Run("empty store yields an empty map", func(t *testing.T) {
		jar, _ := newTestJar()
		assert.Empty(t, jar.GetAll())
	})
}

func TestRemove(t *testing.T) {
	t.Run("removes a default-scoped cookie", func(t *testing.T) {
		jar, _ := newTestJar()
		jar.Set("session", "abc")

		jar.Remove("session")

		_, ok := jar.Get("session")
		assert.False(t, ok)
	})

	t.Run("requires matching domain and path", func(t *testing.T) {
		jar, _ := newTestJar()
		jar.Set("scoped", "v", Options{Domain: "example.com", Path: "/app"})

		jar.Remove("scoped")
		_, ok := jar.Get("scoped")
		assert.True(t, ok, "mismatched scope must not clear the entry")

		jar.Remove("scoped", Options{Domain: "example.com", Path: "/app"})
		_, ok = jar.Get("scoped")
		assert.False(t, ok)
	})
}

func TestHeader(t *testing.T) {
	jar, _ := newTestJar()
	assert.Empty(t, jar.Header())

	jar.Set("token", "abc123")
	jar.Set("pref", "dark")

	assert.Equal(t, "token=abc123; pref=dark", jar.Header())
}

func TestAbsorb(t *testing.T) {
	t.Run("folds Set-Cookie headers into the store", func(t *testing.T) {
		jar, _ := newTestJar()

		h := http.Header{}
		h.Add("Set-Cookie", "sid=s3cret; Path=/; HttpOnly")
		h.Add("Set-Cookie", "pref=dark; Max-Age=3600")
		jar.Absorb(h)

		sid, ok := jar.Get("sid")
		require.True(t, ok)
		assert.Equal(t, "s3cret", sid)

		pref, ok := jar.Get("pref")
		require.True(t, ok)
		assert.Equal(t, "dark", pref)
	})

	t.Run("expired Set-Cookie clears an existing entry", func(t *testing.T) {
		jar, _ := newTestJar()
		jar.Set("gone", "soon")

		h := http.Header{}
		h.Add("Set-Cookie", "gone=; Expires=Thu, 01 Jan 1970 00:00:00 GMT; Path=/")
		jar.Absorb(h)

		_, ok := jar.Get("gone")
		assert.False(t, ok)
	})

	t.Run("ignores blank headers", func(t *testing.T) {
		jar, store := newTestJar()
		h := http.Header{}
		h.Add("Set-Cookie", "   ")
		jar.Absorb(h)

		assert.Zero(t, store.Len())
	})
}

func TestAmbientStoreShared(t *testing.T) {
	t.Cleanup(ambientStore.Clear)

	first := New(nil)
	second := New(nil)

	first.Set("shared", "yes")

	got, ok := second.Get("shared")
	require.True(t, ok)
	assert.Equal(t, "yes", got)
}

func TestSetAttributeString(t *testing.T) {
	t.Run("full attribute set", func(t *testing.T) {
		store := &fakeStore{}
		jar := New(store)

		jar.Set("k", "v", Options{Domain: "example.com", Path: "/app", Secure: true, SameSite: "lax"})

		require.Len(t, store.writes, 1)
		entry := store.writes[0]
		assert.Contains(t, entry, "k=v")
		assert.Contains(t, entry, "Domain=example.com")
		assert.Contains(t, entry, "Path=/app")
		assert.Contains(t, entry, "Secure")
		assert.Contains(t, entry, "SameSite=Lax")
	})

	t.Run("path defaults to root", func(t *testing.T) {
		store := &fakeStore{}
		jar := New(store)

		jar.Set("k", "v")

		require.Len(t, store.writes, 1)
		assert.Contains(t, store.writes[0], "Path=/")
		assert.NotContains(t, store.writes[0], "Domain=")
		assert.NotContains(t, store.writes[0], "Expires=")
	})

	t.Run("samesite normalizes casing", func(t *testing.T) {
		for input, want := range map[string]string{
			"STRICT": "SameSite=Strict",
			"none":   "SameSite=None",
			"Lax":    "SameSite=Lax",
		} {
			store := &fakeStore{}
			New(store).Set("k", "v", Options{SameSite: input})
			require.Len(t, store.writes, 1)
			assert.Contains(t, store.writes[0], want)
		}
	})

	t.Run("relative expiry lands near now plus max age", func(t *testing.T) {
		store := &fakeStore{}
		jar := New(store)

		jar.Set("k", "v", Options{MaxAge: 3600})

		require.Len(t, store.writes, 1)
		expires := extractExpires(t, store.writes[0])
		assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)
	})

	t.Run("absolute expiry is preserved", func(t *testing.T) {
		store := &fakeStore{}
		jar := New(store)
		at := time.Date(2030, time.June, 1, 12, 0, 0, 0, time.UTC)

		jar.Set("k", "v", Options{ExpiresAt: at})

		require.Len(t, store.writes, 1)
		assert.True(t, extractExpires(t, store.writes[0]).Equal(at))
	})

	t.Run("empty name is a no-op", func(t *testing.T) {
		store := &fakeStore{}
		New(store).Set("", "v")
		assert.Empty(t, store.writes)
	})
}

func extractExpires(t *testing.T, entry string) time.Time {
	t.Helper()
	c, ok := parseEntry(entry, time.Now())
	require.True(t, ok)
	require.False(t, c.expires.IsZero(), "entry should carry an Expires attribute: %s", entry)
	return c.expires
}
