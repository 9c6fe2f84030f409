// Package metrics exports an engine's state as prometheus metrics.
package metrics

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jeffrom/greedyhisto/binning"
)

// Collector implements prometheus.Collector for a single engine. Every scrape
// reads the engine under its lock; nothing is cached.
type Collector struct {
	engine    *binning.Engine
	quantiles []float64

	quantileDesc *prometheus.Desc
	samplesDesc  *prometheus.Desc
	binsDesc     *prometheus.Desc
	capacityDesc *prometheus.Desc
}

// NewCollector returns a collector reporting qs for e. Metric names are
// prefixed with namespace.
func NewCollector(namespace string, e *binning.Engine, qs []float64) (*Collector, error) {
	for _, q := range qs {
		if !(q >= 0 && q <= 1) {
			return nil, errors.Wrapf(binning.ErrInvalidArgument, "quantile %v outside [0, 1]", q)
		}
	}

	return &Collector{
		engine:    e,
		quantiles: append([]float64(nil), qs...),
		quantileDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "quantile"),
			"Estimated sample value at each quantile.",
			[]string{"quantile"},
			nil,
		),
		samplesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "samples"),
			"Number of samples held by the histogram.",
			nil,
			nil,
		),
		binsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bins"),
			"Number of adaptive bins.",
			nil,
			nil,
		),
		capacityDesc: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "capacity"),
			"Maximum number of adaptive bins.",
			nil,
			nil,
		),
	}, nil
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.quantileDesc
	ch <- c.samplesDesc
	ch <- c.binsDesc
	ch <- c.capacityDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	values, err := c.engine.Quantiles(c.quantiles...)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.quantileDesc, err)
		return
	}
	for i, q := range c.quantiles {
		ch <- prometheus.MustNewConstMetric(c.quantileDesc, prometheus.GaugeValue, values[i], strconv.FormatFloat(q, 'f', -1, 64))
	}

	ch <- prometheus.MustNewConstMetric(c.samplesDesc, prometheus.GaugeValue, float64(c.engine.Total()))
	ch <- prometheus.MustNewConstMetric(c.binsDesc, prometheus.GaugeValue, float64(c.engine.Len()))
	ch <- prometheus.MustNewConstMetric(c.capacityDesc, prometheus.GaugeValue, float64(c.engine.Capacity()))
}
