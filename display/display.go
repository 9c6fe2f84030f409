// Package display turns adaptive bins into uniform-width bins with round
// 1-2-5 step sizes for presentation.
package display

import (
	"math"

	"github.com/pkg/errors"

	"github.com/jeffrom/greedyhisto/binning"
)

// VisibilityThreshold is the count a display bin must exceed to be returned
// by Normalize.
const VisibilityThreshold = 10

// Normalize redistributes bins into roughly targetBins uniform display bins
// and drops those holding VisibilityThreshold samples or fewer. bins must be
// a snapshot; Normalize does not synchronize with the engine.
func Normalize(bins []binning.Bin, targetBins, minStep int) ([]binning.Bin, error) {
	all, err := Rebin(bins, targetBins, minStep)
	if err != nil {
		return nil, err
	}

	var visible []binning.Bin
	for _, b := range all {
		if b.Count > VisibilityThreshold {
			visible = append(visible, b)
		}
	}
	return visible, nil
}

// Rebin is Normalize without the visibility filter. The returned counts sum
// to the source counts. targetBins and minStep must be positive and every
// source bin must have a positive width.
func Rebin(bins []binning.Bin, targetBins, minStep int) ([]binning.Bin, error) {
	if targetBins <= 0 {
		return nil, errors.Wrapf(binning.ErrInvalidArgument, "target bin count must be positive, got %d", targetBins)
	}
	if minStep <= 0 {
		return nil, errors.Wrapf(binning.ErrInvalidArgument, "minimum step must be positive, got %d", minStep)
	}
	for _, b := range bins {
		if b.Width() <= 0 {
			return nil, errors.Wrapf(binning.ErrInvalidArgument, "bin %s has no width", b.RangeLabel())
		}
	}
	if len(bins) == 0 {
		return nil, nil
	}

	lo, hi := bounds(bins)
	step := Step(hi-lo+1, targetBins, minStep)
	start := floorToStep(lo, step)
	endEx := ceilToStep(hi+1, step)
	n := (endEx - start) / step

	display := make([]binning.Bin, n)
	for i := range display {
		display[i] = binning.Bin{
			Lower:          start + i*step,
			UpperExclusive: start + (i+1)*step,
		}
	}

	for _, src := range bins {
		distribute(display, src, start, step)
	}
	return display, nil
}

// Step returns the display bin width for an inclusive span: span/targetBins
// rounded up to a 1-2-5 step, at least minStep, then halved when above one.
func Step(span, targetBins, minStep int) int {
	rough := span / targetBins
	if rough < 1 {
		rough = 1
	}
	step := nice125(rough)
	if step < minStep {
		step = minStep
	}
	if step > 1 {
		step /= 2
	}
	return step
}

// bounds returns the lowest lower bound and the highest inclusive upper
// bound.
func bounds(bins []binning.Bin) (int, int) {
	lo, hi := math.MaxInt, math.MinInt
	for _, b := range bins {
		if b.Lower < lo {
			lo = b.Lower
		}
		if b.PrintedUpper() > hi {
			hi = b.PrintedUpper()
		}
	}
	return lo, hi
}

// distribute spreads src.Count over the display bins it overlaps in
// proportion to overlap, flooring each share. Whatever flooring lost goes to
// the display bin holding src's midpoint.
func distribute(display []binning.Bin, src binning.Bin, start, step int) {
	if src.Count == 0 {
		return
	}

	lo, hi := src.Lower, src.PrintedUpper()
	width := src.Width()
	first := clamp((lo-start)/step, 0, len(display)-1)
	last := clamp((hi-start)/step, 0, len(display)-1)

	assigned := 0
	for i := first; i <= last; i++ {
		d := &display[i]
		overlap := overlapInclusive(lo, hi, d.Lower, d.PrintedUpper())
		if overlap <= 0 {
			continue
		}

		share := overlap * src.Count / width
		d.Count += share
		assigned += share
	}

	if rest := src.Count - assigned; rest != 0 {
		mid := lo + (width-1)/2
		display[clamp((mid-start)/step, 0, len(display)-1)].Count += rest
	}
}

func overlapInclusive(aLo, aHi, bLo, bHi int) int {
	lo, hi := aLo, aHi
	if bLo > lo {
		lo = bLo
	}
	if bHi < hi {
		hi = bHi
	}
	if hi < lo {
		return 0
	}
	return hi - lo + 1
}

// nice125 returns the smallest value of the form {1,2,5,10} * 10^k that is at
// least rough.
func nice125(rough int) int {
	base := 1
	for base*10 <= rough {
		base *= 10
	}

	best := base
	for _, m := range []int{1, 2, 5, 10} {
		best = m * base
		if best >= rough {
			break
		}
	}
	return best
}

func floorToStep(v, step int) int {
	r := v % step
	if r >= 0 {
		return v - r
	}
	return v - (r + step)
}

func ceilToStep(v, step int) int {
	r := v % step
	switch {
	case r == 0:
		return v
	case r > 0:
		return v + (step - r)
	default:
		return v - r
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
