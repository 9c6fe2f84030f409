package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jeffrom/greedyhisto/config"
	"github.com/jeffrom/greedyhisto/internal"
)

var (
	ReleaseVersion = "none"
	ReleaseDate    = "none"
	ReleaseCommit  = "none"
)

var tmpConfig = config.New()
var configFile string
var v = viper.New()

func init() {
	pflags := RootCmd.PersistentFlags()
	pflags.StringVarP(&configFile, "config", "c", "",
		"Load configuration from `FILE`")
	addHistogramFlags(pflags)

	internal.PanicOnError(v.BindPFlags(pflags))

	RootCmd.AddCommand(IngestCmd, ServeCmd, BenchCmd, ConfigCmd, VersionCmd)
}

// addHistogramFlags registers the engine and display settings, defaulting to
// config.Default.
func addHistogramFlags(pflags *pflag.FlagSet) {
	dconf := config.Default

	pflags.BoolP("verbose", "v", dconf.Verbose,
		"print debug output")
	pflags.Int("capacity", dconf.Capacity,
		"maximum number of adaptive `BINS`")
	pflags.Int("max-bin-width", dconf.MaxBinWidth,
		"maximum `WIDTH` a bin may grow to")
	pflags.Int("merge-gap-tolerance", dconf.MergeGapTolerance,
		"largest `GAP` a relaxed merge may bridge")
	pflags.Int("width-tolerance", dconf.WidthTolerance,
		"extra `WIDTH` allowed for relaxed merges")
	pflags.Int("display-bins", dconf.DisplayBins,
		"target number of display `BINS`")
	pflags.Int("display-min-step", dconf.DisplayMinStep,
		"minimum display bin `WIDTH`")
}

var RootCmd = &cobra.Command{
	Use:           "histo-cli",
	Short:         "Greedy adaptive streaming histograms",
	Long:          ``,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(v, configFile)
		if err != nil {
			return err
		}
		*tmpConfig = *conf
		internal.Debugf(tmpConfig, "%+v", tmpConfig)
		return nil
	},
}

// handleKills closes done on SIGINT or SIGTERM.
func handleKills(done chan struct{}) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigc
		internal.Logf("received %s, stopping", sig)
		signal.Stop(sigc)
		close(done)
	}()
}

// getInput opens path for reading. An empty path reads stdin, but only when
// it is piped and no values were passed as arguments; a nil reader means
// there is nothing to read.
func getInput(path string, hasArgs bool) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening %s", path)
		}
		return f, nil
	}
	if hasArgs {
		return nil, nil
	}

	stat, err := os.Stdin.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat stdin")
	}
	if (stat.Mode() & os.ModeCharDevice) != 0 {
		return nil, nil
	}
	return io.NopCloser(os.Stdin), nil
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
