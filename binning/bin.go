package binning

import (
	"fmt"
	"time"
)

// Bin counts samples falling in the half-open integer range
// [Lower, UpperExclusive).
type Bin struct {
	Lower          int       `json:"lower"`
	UpperExclusive int       `json:"upper_exclusive"`
	Count          int       `json:"count"`
	LastUpdated    time.Time `json:"last_updated"`
}

// NewBin returns a bin covering [lower, upperExclusive) holding count samples.
func NewBin(lower, upperExclusive, count int, lastUpdated time.Time) Bin {
	return Bin{
		Lower:          lower,
		UpperExclusive: upperExclusive,
		Count:          count,
		LastUpdated:    lastUpdated,
	}
}

// Contains reports whether Lower <= v < UpperExclusive.
func (b Bin) Contains(v float64) bool {
	return v >= float64(b.Lower) && v < float64(b.UpperExclusive)
}

// Width is the number of integer slots the bin covers.
func (b Bin) Width() int {
	return b.UpperExclusive - b.Lower
}

// PrintedUpper is the inclusive upper bound.
func (b Bin) PrintedUpper() int {
	return b.UpperExclusive - 1
}

// RangeLabel formats the bin as "lower-upperExclusive".
func (b Bin) RangeLabel() string {
	return fmt.Sprintf("%d-%d", b.Lower, b.UpperExclusive)
}

func (b Bin) String() string {
	return fmt.Sprintf("%s:%d", b.RangeLabel(), b.Count)
}

// Increment adds n to the count.
func (b *Bin) Increment(n int, now time.Time) {
	b.Count += n
	b.LastUpdated = now
}

// ExtendLeft moves the lower bound down by one.
func (b *Bin) ExtendLeft(now time.Time) {
	b.Lower--
	b.LastUpdated = now
}

// ExtendRight moves the exclusive upper bound up by one.
func (b *Bin) ExtendRight(now time.Time) {
	b.UpperExclusive++
	b.LastUpdated = now
}

// merge returns a bin spanning both a and b with their combined count.
func merge(a, b Bin) Bin {
	lastUpdated := a.LastUpdated
	if b.LastUpdated.After(lastUpdated) {
		lastUpdated = b.LastUpdated
	}
	return NewBin(
		minInt(a.Lower, b.Lower),
		maxInt(a.UpperExclusive, b.UpperExclusive),
		a.Count+b.Count,
		lastUpdated,
	)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
