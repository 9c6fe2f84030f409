package main

import (
	"github.com/spf13/cobra"

	"github.com/jeffrom/greedyhisto/binning"
	"github.com/jeffrom/greedyhisto/config"
	"github.com/jeffrom/greedyhisto/internal"
	"github.com/jeffrom/greedyhisto/server"
	"github.com/jeffrom/greedyhisto/stats"
)

// HistogramVar is the expvar name of the served histogram.
const HistogramVar = "histogram"

func init() {
	pflags := ServeCmd.Flags()

	pflags.String("http-host", config.Default.HttpHost,
		"a `HOST:PORT` combination to listen on")
	pflags.Duration("shutdown-timeout", config.Default.ShutdownTimeout,
		"how long to wait for active requests on shutdown")
	pflags.String("metrics-namespace", config.Default.MetricsNamespace,
		"`NAMESPACE` prefixing exported prometheus metrics")

	internal.PanicOnError(v.BindPFlags(pflags))
}

var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Serve a histogram over http",
	Long: `Serve a single histogram over http. Samples are posted to /ingest, and
bins, display bins, quantiles and metrics can be read back.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		done := make(chan struct{})
		handleKills(done)
		return doServe(tmpConfig, done)
	},
}

func doServe(conf *config.Config, done <-chan struct{}) error {
	s := internal.NewStats()
	e := binning.New(conf).WithStats(s)

	srv, err := server.NewHttp(conf, e, s)
	if err != nil {
		return err
	}
	if _, ok := stats.Get(HistogramVar); !ok {
		stats.Publish(HistogramVar, e)
	}

	if err := srv.GoServe(); err != nil {
		return err
	}
	<-done

	internal.Logf("served %d samples in %s", e.Total(), s.Uptime())
	internal.Debugf(conf, "final histogram: %s", e)
	return srv.Stop()
}
