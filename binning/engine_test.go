package binning

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffrom/greedyhisto/internal"
	"github.com/jeffrom/greedyhisto/testhelper"
)

type span struct {
	lower, upperEx, count int
}

func spans(bins []Bin) []span {
	res := make([]span, len(bins))
	for i, b := range bins {
		res[i] = span{b.Lower, b.UpperExclusive, b.Count}
	}
	return res
}

func ingestAll(t testing.TB, e *Engine, vals ...float64) {
	t.Helper()
	for _, v := range vals {
		require.NoError(t, e.Ingest(v))
	}
}

func newTestEngine(t testing.TB) *Engine {
	return New(testhelper.TestConfig(testing.Verbose()))
}

func TestIngestSmallIntegers(t *testing.T) {
	stats := internal.NewStats()
	e := newTestEngine(t).WithStats(stats)
	ingestAll(t, e, 1, 1, 2, 5, 100, 101, 105)

	assert.Equal(t, []span{
		{1, 2, 2},
		{2, 3, 1},
		{5, 6, 1},
		{100, 101, 1},
		{101, 102, 1},
		{105, 106, 1},
	}, spans(e.Snapshot()))
	assert.Equal(t, 7, e.Total())
	assert.Equal(t, int64(7), stats.Get("ingested"))
	assert.Equal(t, int64(6), stats.Get("bins_created"))
	assert.Equal(t, int64(0), stats.Get("bins_extended"))
}

func TestIngestExtends(t *testing.T) {
	e := newTestEngine(t)

	ingestAll(t, e, 5, 4)
	assert.Equal(t, []span{{4, 6, 2}}, spans(e.Snapshot()))

	ingestAll(t, e, 3)
	assert.Equal(t, []span{{3, 6, 3}}, spans(e.Snapshot()))

	// just past the upper bound
	ingestAll(t, e, 6.5)
	assert.Equal(t, []span{{3, 7, 4}}, spans(e.Snapshot()))

	// just under the lower bound
	ingestAll(t, e, 2.5)
	assert.Equal(t, []span{{2, 7, 5}}, spans(e.Snapshot()))

	// an integer at the exclusive bound starts a new bin
	ingestAll(t, e, 7)
	assert.Equal(t, []span{{2, 7, 5}, {7, 8, 1}}, spans(e.Snapshot()))
}

func TestIngestWidthCap(t *testing.T) {
	e := newTestEngine(t)
	for v := 0; v >= -10; v-- {
		ingestAll(t, e, float64(v))
	}

	assert.Equal(t, []span{{-10, -9, 1}, {-9, 1, 10}}, spans(e.Snapshot()))
}

func TestIngestExtendsFirstEligible(t *testing.T) {
	e := newTestEngine(t)
	ingestAll(t, e, 0, 2, 1.5)
	assert.Equal(t, []span{{0, 2, 2}, {2, 3, 1}}, spans(e.Snapshot()))

	conf := testhelper.TestConfig(testing.Verbose())
	conf.MaxBinWidth = 2
	e = New(conf)
	ingestAll(t, e, 0, -1, 2, 1.5)
	assert.Equal(t, []span{{-1, 1, 2}, {1, 3, 2}}, spans(e.Snapshot()))
}

func TestIngestNegativeFraction(t *testing.T) {
	e := newTestEngine(t)
	ingestAll(t, e, -0.5, -0.25, -3.7)
	assert.Equal(t, []span{{-4, -3, 1}, {-1, 0, 2}}, spans(e.Snapshot()))
}

func TestIngestInvalid(t *testing.T) {
	stats := internal.NewStats()
	e := newTestEngine(t).WithStats(stats)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 1e12, -1e12} {
		err := e.Ingest(v)
		assert.True(t, IsInvalidArgument(err), "expected invalid argument for %v, got %v", v, err)
	}
	assert.Equal(t, 0, e.Len())
	assert.Equal(t, int64(5), stats.Get("invalid_samples"))
	assert.Equal(t, int64(0), stats.Get("ingested"))
}

func TestEnforceStrict(t *testing.T) {
	stats := internal.NewStats()
	e := New(testhelper.SmallConfig(testing.Verbose(), 3)).WithStats(stats)
	ingestAll(t, e, 0, 0, 0, 3, 20, 22)

	assert.Equal(t, []span{{0, 1, 3}, {3, 4, 1}, {20, 23, 2}}, spans(e.Snapshot()))
	assert.Equal(t, int64(1), stats.Get("merges_strict"))
	assert.Equal(t, int64(0), stats.Get("merges_relaxed"))
	assert.Equal(t, int64(0), stats.Get("merges_forced"))
}

func TestEnforceTieBreak(t *testing.T) {
	e := New(testhelper.SmallConfig(testing.Verbose(), 2))
	ingestAll(t, e, 0, 2, 4)

	assert.Equal(t, []span{{0, 3, 2}, {4, 5, 1}}, spans(e.Snapshot()))
}

func TestEnforceRelaxed(t *testing.T) {
	stats := internal.NewStats()
	e := New(testhelper.SmallConfig(testing.Verbose(), 2)).WithStats(stats)
	for v := 9; v >= 0; v-- {
		ingestAll(t, e, float64(v))
	}
	ingestAll(t, e, 11, 100)

	assert.Equal(t, []span{{0, 12, 11}, {100, 101, 1}}, spans(e.Snapshot()))
	assert.Equal(t, int64(1), stats.Get("merges_relaxed"))
	assert.Equal(t, int64(0), stats.Get("merges_forced"))
}

func TestEnforceForced(t *testing.T) {
	stats := internal.NewStats()
	e := New(testhelper.SmallConfig(testing.Verbose(), 3)).WithStats(stats)
	ingestAll(t, e, 0, 10, 20, 30)

	assert.Equal(t, []span{{0, 11, 2}, {20, 21, 1}, {30, 31, 1}}, spans(e.Snapshot()))
	assert.Equal(t, int64(1), stats.Get("merges_forced"))
}

func TestSetCapacity(t *testing.T) {
	e := newTestEngine(t)
	assert.True(t, IsInvalidArgument(e.SetCapacity(0)))
	assert.True(t, IsInvalidArgument(e.SetCapacity(-3)))
	assert.Equal(t, 60, e.Capacity())

	ingestAll(t, e, 0, 100, 200, 300, 400)
	require.NoError(t, e.SetCapacity(2))
	assert.Equal(t, 2, e.Capacity())
	assert.Equal(t, 5, e.Len())

	// contained samples do not trigger enforcement
	ingestAll(t, e, 100)
	assert.Equal(t, 5, e.Len())

	ingestAll(t, e, 500)
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, 7, e.Total())
}

func TestSnapshotIsCopy(t *testing.T) {
	e := newTestEngine(t)
	ingestAll(t, e, 1, 2, 3)

	first := e.Snapshot()
	second := e.Snapshot()
	assert.Equal(t, first, second)

	first[0].Count = 1000
	first[0].Lower = -50
	assert.Equal(t, second, e.Snapshot())
}

func TestReset(t *testing.T) {
	e := newTestEngine(t)
	ingestAll(t, e, 1, 2, 3)
	e.Reset()

	assert.Equal(t, 0, e.Len())
	assert.Equal(t, 0, e.Total())
	assert.Empty(t, e.Snapshot())
}

func TestLastUpdated(t *testing.T) {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	clock := func() time.Time {
		tick++
		return start.Add(time.Duration(tick) * time.Second)
	}

	e := New(testhelper.SmallConfig(testing.Verbose(), 1)).WithClock(clock)
	ingestAll(t, e, 0, 50)

	bins := e.Snapshot()
	require.Len(t, bins, 1)
	assert.Equal(t, start.Add(2*time.Second), bins[0].LastUpdated)
	assert.Equal(t, 2, bins[0].Count)
}

func TestInvariants(t *testing.T) {
	for _, capacity := range []int{2, 5, 20, 60} {
		e := New(testhelper.SmallConfig(false, capacity))
		for i, v := range testhelper.Samples(int64(capacity), 3000) {
			require.NoError(t, e.Ingest(v))

			bins := e.Snapshot()
			total := 0
			for j, b := range bins {
				total += b.Count
				require.Less(t, b.Lower, b.UpperExclusive)
				if j > 0 {
					require.LessOrEqual(t, bins[j-1].UpperExclusive, b.Lower, "bins overlap: %v", bins)
				}
			}
			require.Equal(t, i+1, total)
			require.LessOrEqual(t, len(bins), capacity)
		}

		prev := math.Inf(-1)
		for q := 0.0; q <= 1.0; q += 0.01 {
			v, err := e.Quantile(q)
			require.NoError(t, err)
			require.GreaterOrEqual(t, v, prev, "quantile %v not monotonic", q)
			prev = v
		}
	}
}

func TestConcurrentIngest(t *testing.T) {
	e := New(testhelper.SmallConfig(false, 16))
	samples := testhelper.Samples(7, 400)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, v := range samples {
				if err := e.Ingest(v); err != nil {
					panic(err)
				}
				e.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 8*len(samples), e.Total())
	assert.LessOrEqual(t, e.Len(), 16)
}

func TestConcurrentInvalidWithStats(t *testing.T) {
	e := newTestEngine(t)
	stats := internal.NewStats()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			assert.True(t, IsInvalidArgument(e.Ingest(math.NaN())))
		}
	}()
	go func() {
		defer wg.Done()
		e.WithStats(stats)
	}()
	wg.Wait()

	assert.LessOrEqual(t, stats.Get("invalid_samples"), int64(200))
	assert.Equal(t, 0, e.Len())
}
