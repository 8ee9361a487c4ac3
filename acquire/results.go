// acquire/results.go
// Package: acquire
package acquire

import (
	"time"

	"github.com/google/uuid"
)

// summarize builds the suite-level aggregates from TrialResult rows. Failed
// trials count toward Failures and are excluded from every statistic.
func summarize(trials []TrialResult) SuiteSummary {
	var elapsed []float64
	var gasMeans []float64
	var lossP80s []float64
	failures := 0

	for _, t := range trials {
		if t.Err != "" {
			failures++
			continue
		}
		elapsed = append(elapsed, float64(t.ElapsedMillis))
		gasMeans = append(gasMeans, t.Stats.GasMean)
		lossP80s = append(lossP80s, t.Stats.LossP80)
	}

	s := SuiteSummary{
		Trials:     len(trials),
		Failures:   failures,
		ElapsedP50: percentileOf(elapsed, 50),
		ElapsedP95: percentileOf(elapsed, 95),
	}
	if len(gasMeans) > 0 {
		s.GasMeanMean = meanOf(gasMeans)
		s.GasMeanStd = stdOf(gasMeans)
	}
	if len(lossP80s) > 0 {
		s.LossP80Mean = meanOf(lossP80s)
		s.LossP80Max = maxOf(lossP80s)
	}
	return s
}

// buildSuiteResult packs everything with a run identifier and a timestamp.
func buildSuiteResult(cfg SuiteConfig, trials []TrialResult) SuiteResult {
	return SuiteResult{
		RunID:       uuid.NewString(),
		Config:      cfg,
		Trials:      trials,
		Summary:     summarize(trials),
		GeneratedAt: time.Now(),
	}
}
