package config

import (
	"fmt"
	"strings"
	"time"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// Config holds configuration variables
type Config struct {
	// File is the path of a file from which configuration is read.
	File string `json:"config-file" mapstructure:"config-file"`

	// Verbose prints debugging information.
	Verbose bool `json:"verbose" mapstructure:"verbose"`

	// Capacity is the soft ceiling on the number of adaptive bins. When a new
	// bin pushes the count past it, adjacent bins are merged until the count
	// is back within bounds.
	Capacity int `json:"capacity" mapstructure:"capacity"`

	// MaxBinWidth is the widest a bin may grow through extension or a strict
	// merge.
	MaxBinWidth int `json:"max-bin-width" mapstructure:"max-bin-width"`

	// MergeGapTolerance is the largest gap between two neighboring bins that
	// a relaxed merge will bridge.
	MergeGapTolerance int `json:"merge-gap-tolerance" mapstructure:"merge-gap-tolerance"`

	// WidthTolerance is how far past MaxBinWidth a relaxed merge may go.
	WidthTolerance int `json:"width-tolerance" mapstructure:"width-tolerance"`

	// DisplayBins is the target number of display bins.
	DisplayBins int `json:"display-bins" mapstructure:"display-bins"`

	// DisplayMinStep is the minimum width of a display bin.
	DisplayMinStep int `json:"display-min-step" mapstructure:"display-min-step"`

	// Quantiles are reported by the cli, the http server and metrics.
	Quantiles []float64 `json:"quantiles" mapstructure:"quantiles"`

	// HttpHost is the http listener host:port
	HttpHost string `json:"http-host" mapstructure:"http-host"`

	// ShutdownTimeout determines how long active connections should be waited
	// on during the shutdown sequence.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`

	// MetricsNamespace prefixes every exported prometheus metric.
	MetricsNamespace string `json:"metrics-namespace" mapstructure:"metrics-namespace"`
}

// New returns a new configuration object populated with defaults.
func New() *Config {
	conf := *Default
	conf.Quantiles = append([]float64(nil), Default.Quantiles...)
	return &conf
}

func (c *Config) String() string {
	return fmt.Sprintf("%+v", *c)
}

// Validate returns every invalid setting as a single error.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Capacity <= 0 {
		result = multierror.Append(result, errors.Errorf("capacity must be positive, got %d", c.Capacity))
	}
	if c.MaxBinWidth <= 0 {
		result = multierror.Append(result, errors.Errorf("max-bin-width must be positive, got %d", c.MaxBinWidth))
	}
	if c.MergeGapTolerance < 0 {
		result = multierror.Append(result, errors.Errorf("merge-gap-tolerance must not be negative, got %d", c.MergeGapTolerance))
	}
	if c.WidthTolerance < 0 {
		result = multierror.Append(result, errors.Errorf("width-tolerance must not be negative, got %d", c.WidthTolerance))
	}
	if c.DisplayBins <= 0 {
		result = multierror.Append(result, errors.Errorf("display-bins must be positive, got %d", c.DisplayBins))
	}
	if c.DisplayMinStep <= 0 {
		result = multierror.Append(result, errors.Errorf("display-min-step must be positive, got %d", c.DisplayMinStep))
	}
	for _, q := range c.Quantiles {
		if !(q >= 0 && q <= 1) {
			result = multierror.Append(result, errors.Errorf("quantile %v outside [0, 1]", q))
		}
	}

	return result.ErrorOrNil()
}

// EnvPrefix is the prefix for environment variable overrides, ie
// HISTO_CAPACITY.
const EnvPrefix = "HISTO"

// Load reads configuration from path, if not empty, and the environment on
// top of the defaults registered by SetDefaults. Values already set on v, such
// as bound flags, take precedence over the file.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", path)
		}
	}

	// decoding into a copy of Default would merge slices element by element
	conf := &Config{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	conf.File = path

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

// SetDefaults registers Default's values with v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("verbose", Default.Verbose)
	v.SetDefault("capacity", Default.Capacity)
	v.SetDefault("max-bin-width", Default.MaxBinWidth)
	v.SetDefault("merge-gap-tolerance", Default.MergeGapTolerance)
	v.SetDefault("width-tolerance", Default.WidthTolerance)
	v.SetDefault("display-bins", Default.DisplayBins)
	v.SetDefault("display-min-step", Default.DisplayMinStep)
	v.SetDefault("quantiles", Default.Quantiles)
	v.SetDefault("http-host", Default.HttpHost)
	v.SetDefault("shutdown-timeout", Default.ShutdownTimeout)
	v.SetDefault("metrics-namespace", Default.MetricsNamespace)
}

// Default is the default application config
var Default = &Config{
	Capacity:          60,
	MaxBinWidth:       10,
	MergeGapTolerance: 2,
	WidthTolerance:    2,
	DisplayBins:       20,
	DisplayMinStep:    1,
	Quantiles:         []float64{0, 0.5, 0.9, 0.95, 0.99, 1},
	HttpHost:          ":1776",
	ShutdownTimeout:   15 * time.Second,
	MetricsNamespace:  "greedyhisto",
}
