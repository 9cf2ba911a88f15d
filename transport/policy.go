package transport

// Policy selects the dispatcher for one request. The client picks its
// policy once at construction; there is deliberately no request-time
// environment probing, so tests can substitute a fake dispatcher by
// injecting a different policy.
type Policy interface {
	Select(req *Request) Transport
}

// AutoPolicy picks the buffered dispatcher exactly when the request
// asks for byte-level progress — an upload hook on a payload-bearing
// request, or any download hook — and the stream dispatcher otherwise.
// Progress costs a payload copy, so it is never bought unasked.
type AutoPolicy struct {
	stream   Transport
	buffered Transport
}

// NewAutoPolicy builds the default policy. A nil buffered dispatcher
// degrades every request to the stream dispatcher.
func NewAutoPolicy(stream, buffered Transport) *AutoPolicy {
	return &AutoPolicy{stream: stream, buffered: buffered}
}

// Select implements Policy.
func (p *AutoPolicy) Select(req *Request) Transport {
	if p.buffered == nil {
		return p.stream
	}
	if req.WantsProgress() {
		return p.buffered
	}
	return p.stream
}

// NewStaticPolicy pins every request to one dispatcher.
func NewStaticPolicy(t Transport) Policy {
	return staticPolicy{t: t}
}

type staticPolicy struct {
	t Transport
}

// Select implements Policy.
func (p staticPolicy) Select(*Request) Transport {
	return p.t
}
