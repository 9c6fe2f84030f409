package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jeffrom/greedyhisto/binning"
	"github.com/jeffrom/greedyhisto/config"
	"github.com/jeffrom/greedyhisto/internal"
	"github.com/jeffrom/greedyhisto/stats"
	"github.com/jeffrom/greedyhisto/testhelper"
)

var tmpBenchConfig = &benchConfig{}

func init() {
	pflags := BenchCmd.Flags()

	pflags.DurationVar(&tmpBenchConfig.duration, "duration", 5*time.Second,
		"amount of time for the benchmark")
	pflags.IntVar(&tmpBenchConfig.workers, "workers", 1,
		"number of goroutines ingesting concurrently")
	pflags.IntVar(&tmpBenchConfig.samples, "samples", 100000,
		"number of distinct generated samples")
	pflags.Int64Var(&tmpBenchConfig.seed, "seed", 1,
		"random seed for generated samples")
}

type benchConfig struct {
	duration time.Duration
	workers  int
	samples  int
	seed     int64
}

const fillAmt = 10

type benchCounts struct {
	started time.Time
	elapsed time.Duration
	ingests int64
	errors  int64
	timing  *binning.Engine
	engine  *binning.Engine
}

func newBenchCounts(conf *config.Config) *benchCounts {
	return &benchCounts{
		timing: binning.NewDefault(),
		engine: binning.New(conf),
	}
}

func (c *benchCounts) String() string {
	b := bytes.Buffer{}
	dur := c.elapsed.Seconds()
	if dur == 0 {
		dur = time.Since(c.started).Seconds()
	}

	ingests := atomic.LoadInt64(&c.ingests)
	b.WriteString(fmt.Sprintf("%s:\t\t%s\t\t%s/s\n",
		fill("ingests", fillAmt), fill(humanize.Comma(ingests), fillAmt),
		humanize.CommafWithDigits(float64(ingests)/dur, 2)))
	if errs := atomic.LoadInt64(&c.errors); errs > 0 {
		b.WriteString(fmt.Sprintf("%s:\t\t%s\n", fill("errors", fillAmt), humanize.Comma(errs)))
	}
	b.WriteString(fmt.Sprintf("%s:\t\t%d\n", fill("bins", fillAmt), c.engine.Len()))

	qs, err := c.timing.Quantiles(0, 0.5, 0.9, 0.95, 0.99, 1)
	internal.PanicOnError(err)
	b.WriteString(fmt.Sprintf("%s:\n", fill("timing", fillAmt)))
	b.WriteString(fmt.Sprintf("\tmin %s\n", stats.PrettyTime(qs[0])))
	b.WriteString(fmt.Sprintf("\tp50 %s\n", stats.PrettyTime(qs[1])))
	b.WriteString(fmt.Sprintf("\tp90 %s\n", stats.PrettyTime(qs[2])))
	b.WriteString(fmt.Sprintf("\tp95 %s\n", stats.PrettyTime(qs[3])))
	b.WriteString(fmt.Sprintf("\tp99 %s\n", stats.PrettyTime(qs[4])))
	b.WriteString(fmt.Sprintf("\tmax %s\n", stats.PrettyTime(qs[5])))

	return b.String()
}

func fill(s string, n int) string {
	for len(s) < n {
		s += " "
	}
	return s
}

type benchWorker struct {
	input  []float64
	counts *benchCounts
	done   chan struct{}
}

func newBenchWorker(counts *benchCounts, input []float64) *benchWorker {
	return &benchWorker{
		counts: counts,
		input:  input,
		done:   make(chan struct{}),
	}
}

func (w *benchWorker) start() {
	for i := 0; ; i++ {
		select {
		case <-w.done:
			return
		default:
		}

		start := time.Now()
		err := w.counts.engine.Ingest(w.input[i%len(w.input)])
		// ingest latencies are recorded in nanoseconds
		internal.IgnoreError(w.counts.timing.Ingest(float64(time.Since(start).Nanoseconds())))
		if err != nil {
			atomic.AddInt64(&w.counts.errors, 1)
			continue
		}
		atomic.AddInt64(&w.counts.ingests, 1)
	}
}

func (w *benchWorker) stop() {
	close(w.done)
}

var BenchCmd = &cobra.Command{
	Use:   "bench",
	Short: "benchmarking tool",
	Long:  ``,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("duration: %s, workers: %d, samples: %d\n",
			tmpBenchConfig.duration, tmpBenchConfig.workers, tmpBenchConfig.samples)
		fmt.Println("config:", tmpConfig)

		return doBench(tmpConfig, tmpBenchConfig, os.Stdout)
	},
}

func doBench(conf *config.Config, bconf *benchConfig, out io.Writer) error {
	if bconf.workers <= 0 {
		return errors.Wrapf(binning.ErrInvalidArgument, "workers must be positive, got %d", bconf.workers)
	}
	if bconf.samples <= 0 {
		return errors.Wrapf(binning.ErrInvalidArgument, "samples must be positive, got %d", bconf.samples)
	}

	counts := benchIngestLoop(conf, bconf)
	_, err := fmt.Fprintf(out, "\ningest:\n\n%s\n", counts)
	return err
}

func benchIngestLoop(conf *config.Config, bconf *benchConfig) *benchCounts {
	done := time.After(bconf.duration)
	counts := newBenchCounts(conf)

	var workers []*benchWorker
	for i := 0; i < bconf.workers; i++ {
		input := testhelper.Samples(bconf.seed+int64(i), bconf.samples)
		workers = append(workers, newBenchWorker(counts, input))
	}

	counts.started = time.Now()
	wg := sync.WaitGroup{}
	for _, w := range workers {
		wg.Add(1)
		go func(w *benchWorker) {
			w.start()
			wg.Done()
		}(w)
	}

	<-done

	for _, w := range workers {
		w.stop()
	}
	wg.Wait()
	counts.elapsed = time.Since(counts.started)

	internal.Debugf(conf, "bench histogram: %s", counts.engine)
	return counts
}
