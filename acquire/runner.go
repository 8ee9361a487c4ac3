// acquire/runner.go
// Package: acquire
package acquire

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/k0kubun/pp"

	"github.com/accelsw/felobs/observe"
)

// RunStabilitySuite is the single exported entrypoint. Provide a sampler and
// a populated SuiteConfig, and it returns detailed per-trial results with a
// suite-level summary.
func RunStabilitySuite(ctx context.Context, sampler *observe.Sampler, cfg SuiteConfig) (SuiteResult, error) {
	if sampler == nil {
		return SuiteResult{}, errors.New("a sampler is required")
	}
	if cfg.LossChannel == "" {
		return SuiteResult{}, errors.New("LossChannel is required (e.g., CBLM:UNDH:1375:I0_LOSSHSTBR)")
	}
	if cfg.Trials <= 0 {
		cfg.Trials = 5
	}
	if cfg.Points <= 0 {
		cfg.Points = 120
	}
	if cfg.TrialTimeout <= 0 {
		cfg.TrialTimeout = 60 * time.Second
	}

	if cfg.Debug {
		pp.Println(cfg)
	}

	// Optional warm-up (not recorded)
	if cfg.Warmup {
		_ = doWarmup(ctx, sampler, cfg)
	}

	var all []TrialResult
	for i := 0; i < cfg.Trials; i++ {
		fmt.Printf("Trial %d/%d...\n", i+1, cfg.Trials)
		tr, err := measureTrial(ctx, sampler, cfg, i+1)
		if err != nil {
			// Record a synthetic failed row to make issues visible without aborting.
			all = append(all, TrialResult{
				Trial: i + 1,
				Err:   err.Error(),
			})
			continue
		}
		all = append(all, tr)
	}

	return buildSuiteResult(cfg, all), nil
}

// measureTrial performs a single acquisition under the per-trial deadline.
func measureTrial(ctx context.Context, sampler *observe.Sampler, cfg SuiteConfig, trial int) (TrialResult, error) {
	ctx2, cancel := context.WithTimeout(ctx, cfg.TrialTimeout)
	defer cancel()

	t0 := time.Now()
	st, err := sampler.IntensityAndLoss(ctx2, cfg.HXR, cfg.Points, cfg.LossChannel, cfg.FELChannel)
	if err != nil {
		return TrialResult{}, err
	}
	return TrialResult{
		Trial:         trial,
		Stats:         st,
		ElapsedMillis: time.Since(t0).Milliseconds(),
	}, nil
}

func doWarmup(ctx context.Context, sampler *observe.Sampler, cfg SuiteConfig) error {
	ctx2, cancel := context.WithTimeout(ctx, 45*time.Second)
	defer cancel()
	_, err := sampler.IntensityAndLoss(ctx2, cfg.HXR, cfg.Points, cfg.LossChannel, cfg.FELChannel)
	return err
}
