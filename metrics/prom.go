// Package metrics holds the Prometheus collectors exported while the watch
// view is running.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	AcquisitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "felobs_acquisitions_total", Help: "Total observable acquisitions"},
		[]string{"outcome"},
	)
	AcquisitionSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "felobs_acquisition_seconds", Help: "End-to-end acquisition latency"},
	)
	BeamRateHz = prometheus.NewGauge(
		prometheus.GaugeOpts{Name: "felobs_beam_rate_hz", Help: "Last observed repetition rate"},
	)
)

func Collectors() []prometheus.Collector {
	return []prometheus.Collector{AcquisitionsTotal, AcquisitionSeconds, BeamRateHz}
}
