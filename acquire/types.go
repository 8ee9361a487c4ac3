// acquire/types.go
// Package: acquire
package acquire

import (
	"time"

	"github.com/accelsw/felobs/observe"
)

// SuiteConfig configures the entire run.
type SuiteConfig struct {
	// Loss channel read alongside the gas detector,
	// e.g. "CBLM:UNDH:1375:I0_LOSSHSTBR".
	LossChannel string `json:"loss_channel"`

	// FEL channel number disambiguating the hard-x-ray detector name.
	FELChannel string `json:"fel_channel"`

	// Whether to read the hard-x-ray detector instead of the soft-x-ray monitor.
	HXR bool `json:"hxr"`

	// Number of most-recent shots reduced per trial.
	Points int `json:"points"`

	// Number of recorded trials.
	Trials int `json:"trials"`

	// Whether to run an initial warm-up acquisition (not recorded).
	Warmup bool `json:"warmup"`

	// Per-trial deadline (safety guard).
	TrialTimeout time.Duration `json:"trial_timeout"`

	// Pretty-print the effective configuration before running.
	Debug bool `json:"debug"`
}

// TrialResult captures one recorded acquisition.
type TrialResult struct {
	Trial int `json:"trial"`

	Stats observe.PulseStats `json:"stats"`

	// Wall time of the acquisition, including the buffer-fill nap.
	ElapsedMillis int64 `json:"elapsed_ms"`

	// Set when the acquisition failed; Stats is zero in that case.
	Err string `json:"err,omitempty"`
}

// SuiteSummary aggregates the suite for reporting.
type SuiteSummary struct {
	Trials   int `json:"trials"`
	Failures int `json:"failures"`

	// p50/p95 of per-trial wall time across successful trials
	ElapsedP50 float64 `json:"elapsed_p50_ms"`
	ElapsedP95 float64 `json:"elapsed_p95_ms"`

	// Mean +/- std of the per-trial mean intensity
	GasMeanMean float64 `json:"gas_mean_mean"`
	GasMeanStd  float64 `json:"gas_mean_std"`

	// Loss tail behavior across trials
	LossP80Mean float64 `json:"loss_p80_mean"`
	LossP80Max  float64 `json:"loss_p80_max"`
}

// SuiteResult is the top-level artifact returned by RunStabilitySuite.
type SuiteResult struct {
	RunID       string        `json:"run_id"`
	Config      SuiteConfig   `json:"config"`
	Trials      []TrialResult `json:"trials"`
	Summary     SuiteSummary  `json:"summary"`
	GeneratedAt time.Time     `json:"generated_at"`
}
