package progress

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindStart, "start"},
		{KindProgress, "progress"},
		{KindComplete, "complete"},
		{KindError, "error"},
		{KindAbort, "abort"},
		{Kind(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.kind.String())
		})
	}
}

func TestEventPercent(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		expected float64
	}{
		{
			name:     "half done",
			event:    Event{Loaded: 50, Total: 100},
			expected: 50,
		},
		{
			name:     "complete",
			event:    Event{Loaded: 256, Total: 256},
			expected: 100,
		},
		{
			name:     "unknown total",
			event:    Event{Loaded: 1024, Total: 0},
			expected: 0,
		},
		{
			name:     "nothing moved",
			event:    Event{Loaded: 0, Total: 100},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.event.Percent(), 0.001)
		})
	}
}

func TestEmitter(t *testing.T) {
	t.Run("delivers events to the matching kind only", func(t *testing.T) {
		e := NewEmitter()
		var progressed, completed int
		e.On(KindProgress, func(Event) { progressed++ })
		e.On(KindComplete, func(Event) { completed++ })

		e.Emit(Event{Kind: KindProgress, Loaded: 1})
		e.Emit(Event{Kind: KindProgress, Loaded: 2})
		e.Emit(Event{Kind: KindComplete, Loaded: 2, Total: 2})

		assert.Equal(t, 2, progressed)
		assert.Equal(t, 1, completed)
	})

	t.Run("handlers run in registration order", func(t *testing.T) {
		e := NewEmitter()
		var order []string
		e.On(KindStart, func(Event) { order = append(order, "first") })
		e.On(KindStart, func(Event) { order = append(order, "second") })

		e.Emit(Event{Kind: KindStart})

		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("nil emitter drops events", func(t *testing.T) {
		var e *Emitter
		assert.NotPanics(t, func() {
			e.On(KindProgress, func(Event) {})
			e.Emit(Event{Kind: KindProgress})
		})
	})

	t.Run("nil handler is ignored", func(t *testing.T) {
		e := NewEmitter()
		e.On(KindProgress, nil)
		assert.NotPanics(t, func() {
			e.Emit(Event{Kind: KindProgress})
		})
	})

	t.Run("error events carry the cause", func(t *testing.T) {
		e := NewEmitter()
		cause := errors.New("transfer interrupted")
		var seen error
		e.On(KindError, func(ev Event) { seen = ev.Err })

		e.Emit(Event{Kind: KindError, Err: cause})

		assert.Equal(t, cause, seen)
	})
}

func TestCallbacks(t *testing.T) {
	t.Run("Any on nil receiver", func(t *testing.T) {
		var c *Callbacks
		assert.False(t, c.Any())
	})

	t.Run("Any on empty callbacks", func(t *testing.T) {
		assert.False(t, (&Callbacks{}).Any())
	})

	t.Run("Any with a single hook", func(t *testing.T) {
		c := &Callbacks{OnProgress: func(Event) {}}
		assert.True(t, c.Any())
	})

	t.Run("Emitter is nil without hooks", func(t *testing.T) {
		assert.Nil(t, (&Callbacks{}).Emitter())
		var c *Callbacks
		assert.Nil(t, c.Emitter())
	})

	t.Run("Emitter routes each kind to its hook", func(t *testing.T) {
		var got []string
		c := &Callbacks{
			OnStart:    func(Event) { got = append(got, "start") },
			OnProgress: func(Event) { got = append(got, "progress") },
			OnComplete: func(Event) { got = append(got, "complete") },
			OnError:    func(Event) { got = append(got, "error") },
			OnAbort:    func(Event) { got = append(got, "abort") },
		}
		e := c.Emitter()
		require.NotNil(t, e)

		e.Emit(Event{Kind: KindStart})
		e.Emit(Event{Kind: KindProgress})
		e.Emit(Event{Kind: KindComplete})
		e.Emit(Event{Kind: KindError})
		e.Emit(Event{Kind: KindAbort})

		assert.Equal(t, []string{"start", "progress", "complete", "error", "abort"}, got)
	})
}

// collectSamples registers hooks that record every lifecycle event.
func collectSamples(c *Callbacks) *[]Event {
	samples := &[]Event{}
	record := func(ev Event) { *samples = append(*samples, ev) }
	c.OnStart = record
	c.OnProgress = record
	c.OnComplete = record
	return samples
}

func TestReader(t *testing.T) {
	t.Run("emits monotonic progress and a terminal complete", func(t *testing.T) {
		payload := strings.Repeat("x", 1000)
		c := &Callbacks{}
		samples := collectSamples(c)

		pr := NewReader(strings.NewReader(payload), int64(len(payload)), c.Emitter())
		data, err := io.ReadAll(pr)

		require.NoError(t, err)
		assert.Equal(t, payload, string(data))
		require.NotEmpty(t, *samples)

		assert.Equal(t, KindStart, (*samples)[0].Kind)
		var prev int64
		for _, ev := range *samples {
			assert.GreaterOrEqual(t, ev.Loaded, prev, "loaded must never decrease")
			prev = ev.Loaded
		}
		final := (*samples)[len(*samples)-1]
		assert.Equal(t, KindComplete, final.Kind)
		assert.Equal(t, final.Total, final.Loaded)
		assert.Equal(t, int64(len(payload)), final.Loaded)
	})

	t.Run("unknown total still completes with loaded equal to total", func(t *testing.T) {
		c := &Callbacks{}
		samples := collectSamples(c)

		pr := NewReader(strings.NewReader("stream of unknown size"), 0, c.Emitter())
		_, err := io.ReadAll(pr)

		require.NoError(t, err)
		final := (*samples)[len(*samples)-1]
		assert.Equal(t, KindComplete, final.Kind)
		assert.Equal(t, final.Total, final.Loaded)
		assert.Positive(t, final.Loaded)
	})

	t.Run("empty source emits start then complete", func(t *testing.T) {
		c := &Callbacks{}
		samples := collectSamples(c)

		pr := NewReader(strings.NewReader(""), 0, c.Emitter())
		_, err := io.ReadAll(pr)

		require.NoError(t, err)
		require.Len(t, *samples, 2)
		assert.Equal(t, KindStart, (*samples)[0].Kind)
		assert.Equal(t, KindComplete, (*samples)[1].Kind)
		assert.Zero(t, (*samples)[1].Loaded)
	})

	t.Run("Finish is idempotent", func(t *testing.T) {
		var completes int
		c := &Callbacks{OnComplete: func(Event) { completes++ }}

		pr := NewReader(strings.NewReader("abc"), 3, c.Emitter())
		_, err := io.ReadAll(pr)
		require.NoError(t, err)
		pr.Finish()
		pr.Finish()

		assert.Equal(t, 1, completes)
	})

	t.Run("counts without an emitter", func(t *testing.T) {
		pr := NewReader(strings.NewReader("12345"), 5, nil)
		_, err := io.ReadAll(pr)

		require.NoError(t, err)
		assert.Equal(t, int64(5), pr.Loaded())
	})
}

func TestWriter(t *testing.T) {
	t.Run("emits progress for each write and completes on Finish", func(t *testing.T) {
		c := &Callbacks{}
		samples := collectSamples(c)

		var sink bytes.Buffer
		pw := NewWriter(&sink, 10, c.Emitter())

		for _, chunk := range []string{"01234", "56789"} {
			n, err := pw.Write([]byte(chunk))
			require.NoError(t, err)
			assert.Equal(t, len(chunk), n)
		}
		pw.Finish()

		assert.Equal(t, "0123456789", sink.String())
		assert.Equal(t, int64(10), pw.Loaded())

		require.Len(t, *samples, 4)
		assert.Equal(t, KindStart, (*samples)[0].Kind)
		assert.Equal(t, int64(5), (*samples)[1].Loaded)
		assert.Equal(t, int64(10), (*samples)[2].Loaded)
		final := (*samples)[3]
		assert.Equal(t, KindComplete, final.Kind)
		assert.Equal(t, final.Total, final.Loaded)
	})

	t.Run("Finish is idempotent", func(t *testing.T) {
		var completes int
		c := &Callbacks{OnComplete: func(Event) { completes++ }}

		pw := NewWriter(io.Discard, 0, c.Emitter())
		_, err := pw.Write([]byte("x"))
		require.NoError(t, err)
		pw.Finish()
		pw.Finish()

		assert.Equal(t, 1, completes)
	})
}
