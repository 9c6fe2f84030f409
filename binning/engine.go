// Package binning implements a greedy adaptive histogram over a stream of
// scalar samples.
//
// An Engine keeps an ordered list of integer-bounded bins. Each sample either
// lands in a bin that contains it, widens a neighboring bin by one unit, or
// starts a new width-one bin. Whenever a new bin pushes the list past its
// capacity, adjacent bins are merged, preferring merges that keep bins narrow
// and lose the least information. Quantiles are estimated by linear
// interpolation inside the bin holding the target rank.
//
// All Engine methods are safe for concurrent use; a single mutex serializes
// them.
package binning

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/jeffrom/greedyhisto/config"
	"github.com/jeffrom/greedyhisto/internal"
)

// Engine is a streaming adaptive histogram.
type Engine struct {
	mu   sync.Mutex
	conf *config.Config

	bins     []Bin
	capacity int

	maxBinWidth       int
	mergeGapTolerance int
	widthTolerance    int

	stats *internal.Stats
	now   func() time.Time
}

// New returns an engine using the capacity and merge policy from conf.
func New(conf *config.Config) *Engine {
	return &Engine{
		conf:              conf,
		capacity:          conf.Capacity,
		maxBinWidth:       conf.MaxBinWidth,
		mergeGapTolerance: conf.MergeGapTolerance,
		widthTolerance:    conf.WidthTolerance,
		now:               time.Now,
	}
}

// NewDefault returns an engine using config.Default.
func NewDefault() *Engine {
	return New(config.New())
}

// WithStats records operation counters into s.
func (e *Engine) WithStats(s *internal.Stats) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stats = s
	return e
}

// WithClock replaces the time source used to stamp bins.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
	return e
}

func (e *Engine) String() string {
	return fmt.Sprintf("min:\t%.2f\np50:\t%.2f\np90:\t%.2f\np95:\t%.2f\np99:\t%.2f\nmax:\t%.2f",
		e.mustQuantile(0.0),
		e.mustQuantile(0.5),
		e.mustQuantile(0.90),
		e.mustQuantile(0.95),
		e.mustQuantile(0.99),
		e.mustQuantile(1.0))
}

func (e *Engine) mustQuantile(q float64) float64 {
	v, err := e.Quantile(q)
	internal.PanicOnError(err)
	return v
}

// Reset discards all bins.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.bins = nil
}

// SetCapacity changes the maximum bin count. It is applied the next time a
// new bin is created.
func (e *Engine) SetCapacity(n int) error {
	if n <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "capacity must be positive, got %d", n)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	internal.Debugf(e.conf, "capacity %d -> %d", e.capacity, n)
	e.capacity = n
	return nil
}

// Capacity returns the maximum bin count.
func (e *Engine) Capacity() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.capacity
}

// Snapshot returns a copy of the bins in ascending order.
func (e *Engine) Snapshot() []Bin {
	e.mu.Lock()
	defer e.mu.Unlock()

	bins := make([]Bin, len(e.bins))
	copy(bins, e.bins)
	return bins
}

// Len returns the number of bins.
func (e *Engine) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.bins)
}

// Total returns the number of samples ingested since the last Reset.
func (e *Engine) Total() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.total()
}

func (e *Engine) total() int {
	total := 0
	for i := range e.bins {
		total += e.bins[i].Count
	}
	return total
}

// Ingest adds a sample. NaN, infinities, and values outside the int32 range
// are rejected with ErrInvalidArgument.
func (e *Engine) Ingest(v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if math.IsNaN(v) || v < math.MinInt32 || v > math.MaxInt32 {
		e.stats.Incr("invalid_samples")
		return errors.Wrapf(ErrInvalidArgument, "sample %v out of range", v)
	}
	e.stats.Incr("ingested")

	now := e.now()
	floor := int(math.Floor(v))
	ceil := int(math.Ceil(v))
	isInt := floor == ceil

	for i := range e.bins {
		if e.bins[i].Contains(v) {
			e.bins[i].Increment(1, now)
			return nil
		}
	}

	if e.extend(v, floor, ceil, isInt, now) {
		e.stats.Incr("bins_extended")
		return nil
	}

	e.insert(NewBin(floor, floor+1, 1, now))
	e.stats.Incr("bins_created")
	e.enforceCapacity()
	return nil
}

// extend widens the first bin, in ascending order, that sits one unit away
// from v and can grow without exceeding maxBinWidth. A non-integral value just
// past a bin's upper bound extends it right; an integral value one below its
// lower bound, or a non-integral one just under it, extends it left.
func (e *Engine) extend(v float64, floor, ceil int, isInt bool, now time.Time) bool {
	for i := range e.bins {
		b := &e.bins[i]
		lower, upperEx := b.Lower, b.UpperExclusive

		if !isInt && ceil == upperEx+1 && (upperEx+1)-lower <= e.maxBinWidth {
			b.ExtendRight(now)
			b.Increment(1, now)
			return true
		}

		if ((isInt && floor == lower-1) || (!isInt && ceil == lower)) && upperEx-(lower-1) <= e.maxBinWidth {
			b.ExtendLeft(now)
			b.Increment(1, now)
			return true
		}
	}
	return false
}

// insert places b after every bin whose lower bound is <= b.Lower.
func (e *Engine) insert(b Bin) {
	i := sort.Search(len(e.bins), func(i int) bool {
		return e.bins[i].Lower > b.Lower
	})
	e.bins = append(e.bins, Bin{})
	copy(e.bins[i+1:], e.bins[i:])
	e.bins[i] = b
}
