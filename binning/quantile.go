package binning

import (
	"math"

	"github.com/pkg/errors"
)

// Quantile estimates the value below which a fraction q of the samples fall,
// assuming samples are spread evenly across each bin. It returns 0 when no
// samples have been ingested.
func (e *Engine) Quantile(q float64) (float64, error) {
	if !(q >= 0 && q <= 1) {
		return 0, errors.Wrapf(ErrInvalidArgument, "quantile %v outside [0, 1]", q)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return quantile(e.bins, q), nil
}

// Quantiles estimates each of qs under a single lock.
func (e *Engine) Quantiles(qs ...float64) ([]float64, error) {
	for _, q := range qs {
		if !(q >= 0 && q <= 1) {
			return nil, errors.Wrapf(ErrInvalidArgument, "quantile %v outside [0, 1]", q)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	res := make([]float64, len(qs))
	for i, q := range qs {
		res[i] = quantile(e.bins, q)
	}
	return res, nil
}

func quantile(bins []Bin, q float64) float64 {
	total := 0
	for i := range bins {
		total += bins[i].Count
	}
	if total == 0 {
		return 0
	}

	rank := int(math.Ceil(q * float64(total)))
	cumulative := 0
	for _, b := range bins {
		cumulative += b.Count
		if cumulative >= rank {
			ratio := float64(rank-(cumulative-b.Count)) / float64(b.Count)
			return float64(b.Lower) + ratio*float64(b.Width())
		}
	}
	return float64(bins[len(bins)-1].PrintedUpper())
}
