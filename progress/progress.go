// Package progress models transfer progress as a small typed event
// registry. Each event kind carries the same strongly-typed sample
// payload, so listeners never branch on string event names. Emitters
// are cheap, per-transfer objects: a transport creates one from the
// caller's callbacks, pushes samples through it while bytes move, and
// drops it when the transfer ends.
package progress

import "sync"

// Kind identifies a transfer lifecycle event.
type Kind uint8

const (
	// KindStart fires once before the first byte moves.
	KindStart Kind = iota
	// KindProgress fires as bytes are transferred.
	KindProgress
	// KindComplete fires once after the final byte. Its sample always
	// satisfies Loaded == Total.
	KindComplete
	// KindError fires when the transfer fails; the sample carries Err.
	KindError
	// KindAbort fires when the transfer is cancelled by the caller.
	KindAbort
)

// String returns the lowercase event name.
func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindProgress:
		return "progress"
	case KindComplete:
		return "complete"
	case KindError:
		return "error"
	case KindAbort:
		return "abort"
	default:
		return "unknown"
	}
}

// Event is one progress sample. Loaded never decreases within a single
// transfer. Total is 0 while the expected size is unknown; the final
// complete sample reports Total == Loaded even then.
type Event struct {
	Kind   Kind
	Loaded int64
	Total  int64
	Err    error
}

// Percent derives the completion percentage, or 0 while Total is unknown.
func (e Event) Percent() float64 {
	if e.Total <= 0 {
		return 0
	}
	return float64(e.Loaded) / float64(e.Total) * 100
}

// Emitter dispatches events to handlers registered per kind. A nil
// *Emitter is valid and drops every event, so call sites never need a
// nil check. Handlers run synchronously on the transferring goroutine,
// in registration order.
type Emitter struct {
	mu       sync.RWMutex
	handlers map[Kind][]func(Event)
}

// NewEmitter returns an empty registry.
func NewEmitter() *Emitter {
	return &Emitter{handlers: make(map[Kind][]func(Event))}
}

// On registers a handler for one event kind. Nil handlers are ignored.
func (e *Emitter) On(kind Kind, fn func(Event)) {
	if e == nil || fn == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[kind] = append(e.handlers[kind], fn)
}

// Emit delivers ev to every handler registered for its kind.
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	e.mu.RLock()
	handlers := e.handlers[ev.Kind]
	e.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// Callbacks is the per-transfer option surface: one optional hook per
// lifecycle kind. It is the shape callers hand to upload and download
// options; transports convert it to an Emitter.
type Callbacks struct {
	OnStart    func(Event)
	OnProgress func(Event)
	OnComplete func(Event)
	OnError    func(Event)
	OnAbort    func(Event)
}

// Any reports whether at least one hook is set. A nil receiver reports
// false. Transport selection keys off this.
func (c *Callbacks) Any() bool {
	if c == nil {
		return false
	}
	return c.OnStart != nil || c.OnProgress != nil || c.OnComplete != nil ||
		c.OnError != nil || c.OnAbort != nil
}

// Emitter builds a registry wired to the set hooks, or nil when no
// hook is set.
func (c *Callbacks) Emitter() *Emitter {
	if !c.Any() {
		return nil
	}
	e := NewEmitter()
	e.On(KindStart, c.OnStart)
	e.On(KindProgress, c.OnProgress)
	e.On(KindComplete, c.OnComplete)
	e.On(KindError, c.OnError)
	e.On(KindAbort, c.OnAbort)
	return e
}
