// Package stats publishes engines through expvar and records timings into
// them.
package stats

import (
	"expvar"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/jeffrom/greedyhisto/binning"
	"github.com/jeffrom/greedyhisto/internal"
)

// LatencyVar is the expvar name of the engine holding request latencies in
// milliseconds.
const LatencyVar = "requests.latency_ms"

var (
	TotalRequests *expvar.Map
	TotalErrors   *expvar.Map
)

var (
	mu      sync.Mutex
	engines = make(map[string]*binning.Engine)
)

func init() {
	TotalRequests = expvar.NewMap("requests.total")
	TotalErrors = expvar.NewMap("requests.errors")
	Publish(LatencyVar, binning.NewDefault())
}

// Summary is the expvar representation of a published engine.
type Summary struct {
	Total     int                `json:"total"`
	Capacity  int                `json:"capacity"`
	Quantiles map[string]float64 `json:"quantiles"`
	Bins      []binning.Bin      `json:"bins"`
}

var summaryQuantiles = []float64{0, 0.5, 0.9, 0.95, 0.99, 1}

// Summarize returns a consistent snapshot of e.
func Summarize(e *binning.Engine) Summary {
	qs, err := e.Quantiles(summaryQuantiles...)
	if err != nil {
		panic(err)
	}

	s := Summary{
		Total:     e.Total(),
		Capacity:  e.Capacity(),
		Quantiles: make(map[string]float64, len(qs)),
		Bins:      e.Snapshot(),
	}
	for i, q := range summaryQuantiles {
		s.Quantiles[strconv.FormatFloat(q, 'f', -1, 64)] = qs[i]
	}
	return s
}

// Publish exposes e under name in expvar. Like expvar.Publish, it panics if
// name is already taken.
func Publish(name string, e *binning.Engine) {
	mu.Lock()
	defer mu.Unlock()

	expvar.Publish(name, expvar.Func(func() interface{} {
		return Summarize(e)
	}))
	engines[name] = e
}

// Get returns the engine published under name.
func Get(name string) (*binning.Engine, bool) {
	mu.Lock()
	defer mu.Unlock()
	e, ok := engines[name]
	return e, ok
}

// Timing ingests the milliseconds elapsed since start into the engine
// published under name.
func Timing(name string, start time.Time) {
	e, ok := Get(name)
	if !ok {
		panic(fmt.Sprintf("stats: no engine published as %q", name))
	}
	internal.IgnoreError(e.Ingest(float64(time.Since(start).Nanoseconds()) / float64(time.Millisecond)))
}

func PrettyTime(ns float64) string {
	if ns > float64(time.Second*60) {
		return fmt.Sprintf("%.2fm", ns/float64(time.Second*60))
	}
	if ns > float64(time.Second) {
		return fmt.Sprintf("%.2fs", ns/float64(time.Second))
	}
	if ns > float64(time.Millisecond) {
		return fmt.Sprintf("%.2fms", ns/float64(time.Millisecond))
	}
	if ns > float64(time.Microsecond) {
		return fmt.Sprintf("%.2fμ", ns/float64(time.Microsecond))
	}
	return fmt.Sprintf("%.2fns", ns)
}
