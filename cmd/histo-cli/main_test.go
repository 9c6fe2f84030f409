package main

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeffrom/greedyhisto/binning"
	"github.com/jeffrom/greedyhisto/testhelper"
)

var smallInts = []string{"1", "1", "2", "5", "100", "101", "105"}

func TestIngestJSON(t *testing.T) {
	conf := testhelper.TestConfig(testing.Verbose())
	opts := &ingestOptions{format: "json", quantiles: []float64{0, 0.5, 1}}
	out := &bytes.Buffer{}

	require.NoError(t, doIngest(conf, opts, smallInts, nil, out))

	var res ingestResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 7, res.Total)
	assert.Equal(t, conf.Capacity, res.Capacity)
	require.Len(t, res.Bins, 6)
	assert.Equal(t, 1, res.Bins[0].Lower)
	assert.Equal(t, 2, res.Bins[0].Count)
	assert.Equal(t, []quantileResult{
		{Quantile: 0, Value: 1},
		{Quantile: 0.5, Value: 6},
		{Quantile: 1, Value: 106},
	}, res.Quantiles)
}

func TestIngestText(t *testing.T) {
	conf := testhelper.TestConfig(false)
	opts := &ingestOptions{format: "text", width: 20, quantiles: []float64{0.5, 0.99}}
	out := &bytes.Buffer{}
	in := strings.NewReader("1 1 2\n5\t100\n101 105\n")

	require.NoError(t, doIngest(conf, opts, nil, in, out))

	s := out.String()
	assert.Contains(t, s, "samples:\t7\n")
	assert.Contains(t, s, "bins:\t\t6\n")
	assert.Contains(t, s, "p50:\t\t6.00\n")
	assert.Contains(t, s, "p99:\t\t")
	assert.NotContains(t, s, "bins_created")
}

func TestIngestVerboseCounters(t *testing.T) {
	conf := testhelper.TestConfig(false)
	conf.Verbose = true
	opts := &ingestOptions{format: "json"}
	out := &bytes.Buffer{}

	require.NoError(t, doIngest(conf, opts, []string{"3", "4.5", "3"}, nil, out))

	var res ingestResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, int64(3), res.Counters["ingested"])
	assert.Len(t, res.Quantiles, len(conf.Quantiles))
}

func TestIngestDisplay(t *testing.T) {
	conf := testhelper.TestConfig(testing.Verbose())
	opts := &ingestOptions{format: "json", display: true}
	out := &bytes.Buffer{}

	var args []string
	for i := 0; i < 100; i++ {
		for v := 0; v < 10; v++ {
			args = append(args, strconv.Itoa(v))
		}
	}
	require.NoError(t, doIngest(conf, opts, args, nil, out))

	var res ingestResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	total := 0
	for _, b := range res.Bins {
		assert.Greater(t, b.Count, 10)
		total += b.Count
	}
	assert.Equal(t, 1000, total)
	assert.Equal(t, 1000, res.Total)
}

func TestIngestEmpty(t *testing.T) {
	conf := testhelper.TestConfig(testing.Verbose())
	out := &bytes.Buffer{}

	require.NoError(t, doIngest(conf, &ingestOptions{format: "json"}, nil, nil, out))
	var res ingestResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Bins)
	assert.Empty(t, res.Bins)
}

func TestIngestInvalid(t *testing.T) {
	conf := testhelper.TestConfig(testing.Verbose())
	tests := []struct {
		name string
		opts *ingestOptions
		args []string
	}{
		{"unparseable", &ingestOptions{format: "text"}, []string{"1", "nope"}},
		{"nan", &ingestOptions{format: "text"}, []string{"NaN"}},
		{"format", &ingestOptions{format: "xml"}, []string{"1"}},
		{"quantile", &ingestOptions{format: "text", quantiles: []float64{1.5}}, []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := doIngest(conf, tt.opts, tt.args, nil, &bytes.Buffer{})
			require.Error(t, err)
			assert.True(t, binning.IsInvalidArgument(err), err.Error())
		})
	}
}

func TestBench(t *testing.T) {
	conf := testhelper.TestConfig(testing.Verbose())
	out := &bytes.Buffer{}
	bconf := &benchConfig{duration: 20 * time.Millisecond, workers: 2, samples: 100, seed: 1}

	require.NoError(t, doBench(conf, bconf, out))
	assert.Contains(t, out.String(), "ingests")
	assert.Contains(t, out.String(), "\tp99 ")

	err := doBench(conf, &benchConfig{workers: 0, samples: 1}, out)
	assert.True(t, binning.IsInvalidArgument(err))
}

func TestServe(t *testing.T) {
	conf := testhelper.TestConfig(testing.Verbose())
	done := make(chan struct{})
	close(done)

	require.NoError(t, doServe(conf, done))
}
