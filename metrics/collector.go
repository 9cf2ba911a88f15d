// Package metrics aggregates per-request latency and traffic statistics for a
// client instance. Recording is cheap enough to leave enabled in production;
// snapshots are computed on demand.
package metrics

import (
	"errors"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/gaborage/go-fetch/httperr"
)

// Collector records per-request metrics in a thread-safe manner.
// A nil Collector is valid and records nothing.
type Collector struct {
	mu            sync.Mutex
	hist          *hdrhistogram.Histogram
	byMethod      map[string]int64
	byStatusClass map[string]int64
	errorsByType  map[string]int64
	successes     int64
	failures      int64
	bytesSent     int64
	bytesReceived int64
	minLatency    time.Duration
	maxLatency    time.Duration
	sumLatency    time.Duration
	start         time.Time
}

// Snapshot represents aggregated metrics at a point in time.
type Snapshot struct {
	Total          int64            `json:"total"`
	Successes      int64            `json:"successes"`
	Failures       int64            `json:"failures"`
	ByMethod       map[string]int64 `json:"by_method,omitempty"`
	ByStatusClass  map[string]int64 `json:"by_status_class,omitempty"`
	Errors         map[string]int64 `json:"errors,omitempty"`
	BytesSent      int64            `json:"bytes_sent"`
	BytesReceived  int64            `json:"bytes_received"`
	MinLatency     time.Duration    `json:"-"`
	MaxLatency     time.Duration    `json:"-"`
	MeanLatency    time.Duration    `json:"-"`
	P50Latency     time.Duration    `json:"-"`
	P95Latency     time.Duration    `json:"-"`
	P99Latency     time.Duration    `json:"-"`
	Duration       time.Duration    `json:"-"`
	RequestsPerSec float64          `json:"requests_per_sec"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	h := hdrhistogram.New(1, 60_000_000, 3)
	return &Collector{
		hist:          h,
		byMethod:      make(map[string]int64),
		byStatusClass: make(map[string]int64),
		errorsByType:  make(map[string]int64),
		start:         time.Now(),
	}
}

// Record registers a completed request. Every delivered response counts as a
// success here regardless of status code; the status class breakdown carries
// the 4xx/5xx signal.
func (c *Collector) Record(method string, status int, elapsed time.Duration, sent, received int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recordLatency(elapsed)
	c.successes++
	c.byMethod[method]++
	c.byStatusClass[statusClass(status)]++
	c.bytesSent += sent
	c.bytesReceived += received
}

// RecordError registers a request that failed without producing a response.
func (c *Collector) RecordError(method string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recordLatency(elapsed)
	c.failures++
	c.byMethod[method]++
	c.errorsByType[errorLabel(err)]++
}

func (c *Collector) recordLatency(latency time.Duration) {
	if latency > 0 {
		us := latency.Microseconds()
		if us < c.hist.LowestTrackableValue() {
			us = c.hist.LowestTrackableValue()
		}
		if us > c.hist.HighestTrackableValue() {
			us = c.hist.HighestTrackableValue()
		}
		_ = c.hist.RecordValue(us)
	}
	c.sumLatency += latency

	if c.minLatency == 0 || latency < c.minLatency {
		c.minLatency = latency
	}
	if latency > c.maxLatency {
		c.maxLatency = latency
	}
}

// Snapshot computes and returns current aggregated statistics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.successes + c.failures
	snap := Snapshot{
		Total:         total,
		Successes:     c.successes,
		Failures:      c.failures,
		BytesSent:     c.bytesSent,
		BytesReceived: c.bytesReceived,
		MinLatency:    c.minLatency,
		MaxLatency:    c.maxLatency,
	}

	if total > 0 {
		snap.MeanLatency = time.Duration(int64(c.sumLatency) / total)
	}

	if c.hist.TotalCount() > 0 {
		snap.P50Latency = time.Duration(c.hist.ValueAtQuantile(50)) * time.Microsecond
		snap.P95Latency = time.Duration(c.hist.ValueAtQuantile(95)) * time.Microsecond
		snap.P99Latency = time.Duration(c.hist.ValueAtQuantile(99)) * time.Microsecond
	}

	snap.MinLatencyMs = float64(snap.MinLatency) / float64(time.Millisecond)
	snap.MaxLatencyMs = float64(snap.MaxLatency) / float64(time.Millisecond)
	snap.MeanLatencyMs = float64(snap.MeanLatency) / float64(time.Millisecond)
	snap.P50LatencyMs = float64(snap.P50Latency) / float64(time.Millisecond)
	snap.P95LatencyMs = float64(snap.P95Latency) / float64(time.Millisecond)
	snap.P99LatencyMs = float64(snap.P99Latency) / float64(time.Millisecond)

	elapsed := time.Since(c.start)
	snap.Duration = elapsed
	snap.DurationMs = float64(elapsed) / float64(time.Millisecond)
	if elapsed > 0 && total > 0 {
		snap.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.byMethod) > 0 {
		snap.ByMethod = copyCounts(c.byMethod)
	}
	if len(c.byStatusClass) > 0 {
		snap.ByStatusClass = copyCounts(c.byStatusClass)
	}
	if len(c.errorsByType) > 0 {
		snap.Errors = copyCounts(c.errorsByType)
	}

	return snap
}

// Reset clears all recorded data and restarts the collection window.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.hist.Reset()
	c.byMethod = make(map[string]int64)
	c.byStatusClass = make(map[string]int64)
	c.errorsByType = make(map[string]int64)
	c.successes = 0
	c.failures = 0
	c.bytesSent = 0
	c.bytesReceived = 0
	c.minLatency = 0
	c.maxLatency = 0
	c.sumLatency = 0
	c.start = time.Now()
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func statusClass(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "2xx"
	case status >= 300 && status < 400:
		return "3xx"
	case status >= 400 && status < 500:
		return "4xx"
	case status >= 500 && status < 600:
		return "5xx"
	default:
		return "other"
	}
}

// errorLabel prefers the client error taxonomy over raw Go type names.
func errorLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var clientErr httperr.ClientError
	if errors.As(err, &clientErr) {
		return string(clientErr.Type())
	}
	return "unclassified"
}
