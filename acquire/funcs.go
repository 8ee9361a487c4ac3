// acquire/funcs.go
// Package: acquire
package acquire

import (
	"github.com/montanaflynn/stats"
)

// meanOf returns the average value, or 0 when there is nothing to average.
func meanOf(values stats.Float64Data) float64 {
	s, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	return s
}

// stdOf returns the population standard deviation, or 0 when undefined.
func stdOf(values stats.Float64Data) float64 {
	s, err := stats.StandardDeviation(values)
	if err != nil {
		return 0
	}
	return s
}

// percentileOf returns the requested percentile value, or 0 when undefined.
func percentileOf(values stats.Float64Data, percent float64) float64 {
	s, err := stats.Percentile(values, percent)
	if err != nil {
		return 0
	}
	return s
}

// maxOf returns the maximum value, or 0 when there is nothing to compare.
func maxOf(values stats.Float64Data) float64 {
	s, err := stats.Max(values)
	if err != nil {
		return 0
	}
	return s
}
