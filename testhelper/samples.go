package testhelper

import (
	"math"
	"math/rand"
)

// Samples returns n latency-like samples: a dense body around 50 with a long
// right tail. The same seed always yields the same samples.
func Samples(seed int64, n int) []float64 {
	rnd := rand.New(rand.NewSource(seed))
	res := make([]float64, n)
	for i := range res {
		switch {
		case i%10 == 9:
			res[i] = 200 + rnd.ExpFloat64()*300
		case i%4 == 0:
			res[i] = math.Floor(rnd.NormFloat64()*8 + 50)
		default:
			res[i] = rnd.NormFloat64()*12 + 50
		}
	}
	return res
}

// Uniform returns n integral samples in [lo, hi).
func Uniform(seed int64, n, lo, hi int) []float64 {
	rnd := rand.New(rand.NewSource(seed))
	res := make([]float64, n)
	for i := range res {
		res[i] = float64(lo + rnd.Intn(hi-lo))
	}
	return res
}

