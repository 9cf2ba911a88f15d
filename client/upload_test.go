package client

import (
	"bytes"
	"context"
	"io"
	nethttp "net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/go-fetch/httperr"
	"github.com/gaborage/go-fetch/internal/testutil"
	"github.com/gaborage/go-fetch/progress"
	"github.com/gaborage/go-fetch/transport"
)

type receivedUpload struct {
	fields map[string]string
	files  map[string][]byte
	types  map[string]string
	names  map[string]string
}

func newUploadServer(t *testing.T, got *atomic.Value) nethttp.Handler {
	t.Helper()
	return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(nethttp.StatusBadRequest)
			return
		}
		received := receivedUpload{
			fields: make(map[string]string),
			files:  make(map[string][]byte),
			types:  make(map[string]string),
			names:  make(map[string]string),
		}
		for name, values := range r.MultipartForm.Value {
			received.fields[name] = values[0]
		}
		for name, headers := range r.MultipartForm.File {
			f, err := headers[0].Open()
			require.NoError(t, err)
			content, err := io.ReadAll(f)
			require.NoError(t, err)
			f.Close()
			received.files[name] = content
			received.types[name] = headers[0].Header.Get("Content-Type")
			received.names[name] = headers[0].Filename
		}
		got.Store(received)
		w.WriteHeader(nethttp.StatusCreated)
	})
}

func TestUploadFormData(t *testing.T) {
	var got atomic.Value
	server := newIPv4TestServer(t, newUploadServer(t, &got))
	defer server.Close()

	client := buildTestClient(t, func(b *Builder) { b.WithBaseURL(server.URL) })

	form := &FormData{
		Fields: map[string]string{"description": "quarterly report"},
		Files: []FilePart{{
			FieldName: "report",
			FileName:  "q3.csv",
			Content:   []byte("a,b\n1,2\n"),
		}},
	}

	resp, err := client.Upload(context.Background(), "/files", form, nil)
	require.NoError(t, err)
	assert.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	received := got.Load().(receivedUpload)
	assert.Equal(t, "quarterly report", received.fields["description"])
	assert.Equal(t, []byte("a,b\n1,2\n"), received.files["report"])
	assert.Equal(t, "q3.csv", received.names["report"])
}

func TestUploadBareFile(t *testing.T) {
	var got atomic.Value
	server := newIPv4TestServer(t, newUploadServer(t, &got))
	defer server.Close()

	client := buildTestClient(t, func(b *Builder) { b.WithBaseURL(server.URL) })

	t.Run("raw bytes land under the conventional field name", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "/files", []byte("payload"), nil)
		require.NoError(t, err)

		received := got.Load().(receivedUpload)
		assert.Equal(t, []byte("payload"), received.files[DefaultUploadField])
	})

	t.Run("reader payload", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "/files", bytes.NewReader([]byte("streamed")), &UploadOptions{
			FileName: "data.bin",
		})
		require.NoError(t, err)

		received := got.Load().(receivedUpload)
		assert.Equal(t, []byte("streamed"), received.files[DefaultUploadField])
		assert.Equal(t, "data.bin", received.names[DefaultUploadField])
	})

	t.Run("file path payload keeps the base name", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("from disk"), 0o600))

		_, err := client.Upload(context.Background(), "/files", path, nil)
		require.NoError(t, err)

		received := got.Load().(receivedUpload)
		assert.Equal(t, []byte("from disk"), received.files[DefaultUploadField])
		assert.Equal(t, "notes.txt", received.names[DefaultUploadField])
	})

	t.Run("content type is sniffed", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "/files", []byte(`{"k":"v"}`), &UploadOptions{
			FileName: "doc.json",
		})
		require.NoError(t, err)

		received := got.Load().(receivedUpload)
		assert.Contains(t, received.types[DefaultUploadField], "json")
	})

	t.Run("custom field name", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "/files", []byte("x"), &UploadOptions{
			FieldName: "attachment",
			FileName:  "x.bin",
		})
		require.NoError(t, err)

		received := got.Load().(receivedUpload)
		assert.Equal(t, []byte("x"), received.files["attachment"])
	})
}

func TestUploadValidation(t *testing.T) {
	client := buildTestClient(t, func(b *Builder) { b.WithBaseURL(testutil.TestBaseURL) })

	t.Run("nil data", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "/files", nil, nil)
		require.Error(t, err)
		assert.True(t, httperr.IsErrorType(err, httperr.ValidationError))
	})

	t.Run("unsupported type", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "/files", 42, nil)
		require.Error(t, err)
		assert.True(t, httperr.IsErrorType(err, httperr.ValidationError))
	})

	t.Run("missing file path", func(t *testing.T) {
		_, err := client.Upload(context.Background(), "/files", "/no/such/file", nil)
		require.Error(t, err)
		assert.True(t, httperr.IsErrorType(err, httperr.ValidationError))
	})
}

func TestUploadProgressSelectsBufferedTransport(t *testing.T) {
	var got atomic.Value
	server := newIPv4TestServer(t, newUploadServer(t, &got))
	defer server.Close()

	client := buildTestClient(t, func(b *Builder) { b.WithBaseURL(server.URL) })

	var samples []progress.Event
	var completed bool
	resp, err := client.Upload(context.Background(), "/files", []byte("0123456789"), &UploadOptions{
		FileName: "ten.bin",
		Progress: &progress.Callbacks{
			OnProgress: func(ev progress.Event) { samples = append(samples, ev) },
			OnComplete: func(progress.Event) { completed = true },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, transport.KindBuffered, resp.Stats.Transport)
	assert.True(t, completed)
	require.NotEmpty(t, samples)

	var last int64
	for _, sample := range samples {
		assert.GreaterOrEqual(t, sample.Loaded, last)
		last = sample.Loaded
	}
	assert.Equal(t, resp.Stats.BytesSent, last)
}

func TestUploadWithoutProgressStaysOnStream(t *testing.T) {
	var got atomic.Value
	server := newIPv4TestServer(t, newUploadServer(t, &got))
	defer server.Close()

	client := buildTestClient(t, func(b *Builder) { b.WithBaseURL(server.URL) })

	resp, err := client.Upload(context.Background(), "/files", []byte("quiet"), nil)
	require.NoError(t, err)
	assert.Equal(t, transport.KindStream, resp.Stats.Transport)
}
