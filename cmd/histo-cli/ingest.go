package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	humanize "github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeffrom/greedyhisto/binning"
	"github.com/jeffrom/greedyhisto/config"
	"github.com/jeffrom/greedyhisto/display"
	"github.com/jeffrom/greedyhisto/internal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type ingestOptions struct {
	inputPath string
	format    string
	display   bool
	showEmpty bool
	width     int
	quantiles []float64
}

var tmpIngestOptions = &ingestOptions{}

func init() {
	pflags := IngestCmd.Flags()

	pflags.StringVarP(&tmpIngestOptions.inputPath, "input", "i", "",
		"read whitespace separated samples from `FILE` (- for stdin)")
	pflags.StringVarP(&tmpIngestOptions.format, "format", "f", "text",
		"output `FORMAT`, text or json")
	pflags.BoolVarP(&tmpIngestOptions.display, "display", "d", false,
		"print uniform display bins instead of the adaptive bins")
	pflags.BoolVar(&tmpIngestOptions.showEmpty, "show-empty", false,
		"keep display bins with too few samples to be interesting")
	pflags.IntVar(&tmpIngestOptions.width, "width", 60,
		"bar chart `WIDTH` in characters")
	pflags.Float64SliceVarP(&tmpIngestOptions.quantiles, "quantiles", "q", nil,
		"`QUANTILES` to report, defaults to the configured quantiles")
}

var IngestCmd = &cobra.Command{
	Use:     "ingest [values...]",
	Aliases: []string{"i"},
	Short:   "Build a histogram from samples and print it",
	Long: `Build a histogram from samples passed as arguments, read from a file, or
piped to standard input, then print its bins and quantiles.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := getInput(tmpIngestOptions.inputPath, len(args) > 0)
		if err != nil {
			return err
		}
		if in != nil {
			defer in.Close()
		}

		return doIngest(tmpConfig, tmpIngestOptions, args, in, os.Stdout)
	},
}

type quantileResult struct {
	Quantile float64 `json:"quantile"`
	Value    float64 `json:"value"`
}

type ingestResult struct {
	Total     int              `json:"total"`
	Capacity  int              `json:"capacity"`
	Bins      []binning.Bin    `json:"bins"`
	Quantiles []quantileResult `json:"quantiles"`
	Counters  map[string]int64 `json:"counters,omitempty"`
}

func doIngest(conf *config.Config, opts *ingestOptions, args []string, in io.Reader, out io.Writer) error {
	stats := internal.NewStats()
	e := binning.New(conf).WithStats(stats)

	for _, arg := range args {
		if err := ingestString(e, arg); err != nil {
			return err
		}
	}

	if in != nil {
		scanner := bufio.NewScanner(in)
		scanner.Split(bufio.ScanWords)
		for scanner.Scan() {
			if err := ingestString(e, scanner.Text()); err != nil {
				return err
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrap(err, "reading samples")
		}
	}
	internal.Debugf(conf, "ingested %d samples into %d bins", e.Total(), e.Len())

	res, err := buildResult(conf, opts, e)
	if err != nil {
		return err
	}
	if conf.Verbose {
		res.Counters = stats.Map()
	}

	switch opts.format {
	case "json":
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "%s\n", b)
		return err
	case "text", "":
		return writeText(out, res, opts.width)
	default:
		return errors.Wrapf(binning.ErrInvalidArgument, "unknown format %q", opts.format)
	}
}

func ingestString(e *binning.Engine, s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Wrapf(binning.ErrInvalidArgument, "parsing sample %q", s)
	}
	return e.Ingest(v)
}

func buildResult(conf *config.Config, opts *ingestOptions, e *binning.Engine) (*ingestResult, error) {
	qs := opts.quantiles
	if len(qs) == 0 {
		qs = conf.Quantiles
	}
	values, err := e.Quantiles(qs...)
	if err != nil {
		return nil, err
	}

	bins := e.Snapshot()
	if opts.display {
		rebin := display.Normalize
		if opts.showEmpty {
			rebin = display.Rebin
		}
		bins, err = rebin(bins, conf.DisplayBins, conf.DisplayMinStep)
		if err != nil {
			return nil, err
		}
	}
	if bins == nil {
		bins = []binning.Bin{}
	}

	res := &ingestResult{
		Total:     e.Total(),
		Capacity:  e.Capacity(),
		Bins:      bins,
		Quantiles: make([]quantileResult, len(qs)),
	}
	for i, q := range qs {
		res.Quantiles[i] = quantileResult{Quantile: q, Value: values[i]}
	}
	return res, nil
}

func writeText(w io.Writer, res *ingestResult, width int) error {
	if err := display.Render(w, res.Bins, width); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "\nsamples:\t%s\nbins:\t\t%d\n", humanize.Comma(int64(res.Total)), len(res.Bins)); err != nil {
		return err
	}
	for _, q := range res.Quantiles {
		if _, err := fmt.Fprintf(w, "p%s:\t\t%.2f\n", humanize.FtoaWithDigits(q.Quantile*100, 2), q.Value); err != nil {
			return err
		}
	}
	for _, k := range sortedKeys(res.Counters) {
		if _, err := fmt.Fprintf(w, "%s:\t%d\n", k, res.Counters[k]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
