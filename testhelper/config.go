package testhelper

import (
	"github.com/jeffrom/greedyhisto/config"
)

// TestConfig returns a copy of the default config suitable for tests.
func TestConfig(verbose bool) *config.Config {
	conf := config.New()
	conf.Capacity = 60
	conf.MaxBinWidth = 10
	conf.MergeGapTolerance = 2
	conf.WidthTolerance = 2
	conf.DisplayBins = 10
	conf.DisplayMinStep = 1
	conf.HttpHost = "127.0.0.1:0"

	conf.Verbose = verbose

	return conf
}

// SmallConfig returns a test config with a tiny capacity so merges happen
// early.
func SmallConfig(verbose bool, capacity int) *config.Config {
	conf := TestConfig(verbose)
	conf.Capacity = capacity
	return conf
}
