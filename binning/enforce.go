package binning

import "math"

type mergePass int

const (
	passStrict mergePass = iota
	passRelaxed
	passForced
)

func (p mergePass) String() string {
	switch p {
	case passStrict:
		return "strict"
	case passRelaxed:
		return "relaxed"
	case passForced:
		return "forced"
	}
	return "unknown"
}

func (p mergePass) statKey() string {
	return "merges_" + p.String()
}

// enforceCapacity merges adjacent bins until there are at most capacity of
// them. Each round takes the first pass that finds a candidate pair.
func (e *Engine) enforceCapacity() {
	for len(e.bins) > e.capacity {
		merged := false
		for _, pass := range []mergePass{passStrict, passRelaxed, passForced} {
			if i := e.mergeCandidate(pass); i >= 0 {
				e.mergeAt(i)
				e.stats.Incr(pass.statKey())
				merged = true
				break
			}
		}
		if !merged {
			return
		}
	}
}

// mergeCandidate returns the index of the left bin of the eligible adjacent
// pair with the smallest combined count, or -1. Ties go to the lowest index.
func (e *Engine) mergeCandidate(pass mergePass) int {
	best := -1
	bestSum := math.MaxInt

	for i := 0; i < len(e.bins)-1; i++ {
		a, b := e.bins[i], e.bins[i+1]
		if !e.eligible(pass, a, b) {
			continue
		}
		if sum := a.Count + b.Count; sum < bestSum {
			bestSum = sum
			best = i
		}
	}
	return best
}

func (e *Engine) eligible(pass mergePass, a, b Bin) bool {
	mergedWidth := b.UpperExclusive - a.Lower
	switch pass {
	case passStrict:
		return mergedWidth <= e.maxBinWidth
	case passRelaxed:
		gap := b.Lower - a.UpperExclusive
		return gap <= e.mergeGapTolerance && mergedWidth <= e.maxBinWidth+e.widthTolerance
	default:
		return true
	}
}

// mergeAt replaces bins i and i+1 with their union.
func (e *Engine) mergeAt(i int) {
	e.bins[i] = merge(e.bins[i], e.bins[i+1])
	e.bins = append(e.bins[:i+1], e.bins[i+2:]...)
}
