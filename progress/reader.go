package progress

import "io"

// Reader wraps an io.Reader and reports bytes moved through it. It
// emits KindStart before the first read, KindProgress after every read
// that advanced, and KindComplete exactly once at EOF. The complete
// sample reports the final byte count as both Loaded and Total, which
// keeps the terminal invariant intact when the expected size was
// unknown up front.
type Reader struct {
	r       io.Reader
	emitter *Emitter
	total   int64
	loaded  int64
	started bool
	done    bool
}

// NewReader wraps r. total is the expected byte count, or 0 when
// unknown. A nil emitter turns the wrapper into plain counting.
func NewReader(r io.Reader, total int64, emitter *Emitter) *Reader {
	return &Reader{r: r, total: total, emitter: emitter}
}

func (pr *Reader) Read(p []byte) (int, error) {
	if !pr.started {
		pr.started = true
		pr.emitter.Emit(Event{Kind: KindStart, Total: pr.total})
	}
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.loaded += int64(n)
		pr.emitter.Emit(Event{Kind: KindProgress, Loaded: pr.loaded, Total: pr.total})
	}
	if err == io.EOF {
		pr.Finish()
	}
	return n, err
}

// Loaded returns the byte count moved so far.
func (pr *Reader) Loaded() int64 {
	return pr.loaded
}

// Finish emits the terminal complete sample. It is idempotent and runs
// automatically at EOF; owners that stop reading early (or wrap streams
// that never surface EOF) may call it directly.
func (pr *Reader) Finish() {
	if pr.done {
		return
	}
	pr.done = true
	pr.emitter.Emit(Event{Kind: KindComplete, Loaded: pr.loaded, Total: pr.loaded})
}

// Writer wraps an io.Writer and reports bytes written through it.
// Writers cannot observe end-of-stream, so the owner calls Finish once
// the copy returns.
type Writer struct {
	w       io.Writer
	emitter *Emitter
	total   int64
	loaded  int64
	started bool
	done    bool
}

// NewWriter wraps w. total is the expected byte count, or 0 when
// unknown.
func NewWriter(w io.Writer, total int64, emitter *Emitter) *Writer {
	return &Writer{w: w, total: total, emitter: emitter}
}

func (pw *Writer) Write(p []byte) (int, error) {
	if !pw.started {
		pw.started = true
		pw.emitter.Emit(Event{Kind: KindStart, Total: pw.total})
	}
	n, err := pw.w.Write(p)
	if n > 0 {
		pw.loaded += int64(n)
		pw.emitter.Emit(Event{Kind: KindProgress, Loaded: pw.loaded, Total: pw.total})
	}
	return n, err
}

// Loaded returns the byte count written so far.
func (pw *Writer) Loaded() int64 {
	return pw.loaded
}

// Finish emits the terminal complete sample. Idempotent.
func (pw *Writer) Finish() {
	if pw.done {
		return
	}
	pw.done = true
	pw.emitter.Emit(Event{Kind: KindComplete, Loaded: pw.loaded, Total: pw.loaded})
}
