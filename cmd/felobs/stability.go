// cmd/felobs/stability.go
package felobs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/accelsw/felobs/acquire"
	"github.com/accelsw/felobs/observe"
)

var (
	stabilityTrials   int
	stabilityPoints   int
	stabilityWarmup   bool
	stabilityGateway  string
	stabilitySimulate bool
	stabilityOut      string
)

// stabilityCmd implements 'stability', which acquires the statistics record
// repeatedly and reports timing and drift across the trials.
var stabilityCmd = &cobra.Command{
	Use:   "stability",
	Short: "Run the acquisition stability suite",
	Long:  `The 'stability' command acquires the statistics record repeatedly, records per-trial results, and prints a suite-level summary of timing and drift. The full artifact can be written to a JSON file with --out.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(stabilitySimulate)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("points") {
			cfg.Points = stabilityPoints
		}

		logger := buildLogger(cfg.Debug)
		defer logger.Sync()

		source, _, err := newSource(cfg, stabilityGateway, stabilitySimulate, logger)
		if err != nil {
			return err
		}
		sampler := observe.NewSampler(source, observe.WithLogger(logger))

		res, err := acquire.RunStabilitySuite(cmd.Context(), sampler, acquire.SuiteConfig{
			LossChannel: cfg.LossChannel,
			FELChannel:  cfg.FELChannel,
			HXR:         cfg.HXR,
			Points:      cfg.Points,
			Trials:      stabilityTrials,
			Warmup:      stabilityWarmup,
			Debug:       cfg.Debug,
		})
		if err != nil {
			return err
		}

		// Print a concise summary
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "RUN: %s\n", res.RunID)
		fmt.Fprintf(out, "  Trials: %d (%d failed)\n", res.Summary.Trials, res.Summary.Failures)
		fmt.Fprintf(out, "  Elapsed p50/p95: %.1f / %.1f ms\n", res.Summary.ElapsedP50, res.Summary.ElapsedP95)
		fmt.Fprintf(out, "  Gas mean±std: %.4f ± %.4f mJ\n", res.Summary.GasMeanMean, res.Summary.GasMeanStd)
		fmt.Fprintf(out, "  Loss p80 mean/max: %.4f / %.4f\n", res.Summary.LossP80Mean, res.Summary.LossP80Max)

		if stabilityOut != "" {
			b, _ := json.MarshalIndent(res, "", "  ")
			if err := os.WriteFile(stabilityOut, b, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", stabilityOut, err)
			}
			fmt.Fprintf(out, "\nWrote %s\n", stabilityOut)
		}
		return nil
	},
}

func init() {
	stabilityCmd.Flags().IntVar(&stabilityTrials, "trials", 0, "number of recorded trials (defaults to 5)")
	stabilityCmd.Flags().IntVar(&stabilityPoints, "points", 0, "number of most-recent shots per trial (overrides config)")
	stabilityCmd.Flags().BoolVar(&stabilityWarmup, "warmup", false, "run one unrecorded acquisition first")
	stabilityCmd.Flags().StringVar(&stabilityGateway, "gateway", "", "configured gateway to read from (defaults to the first)")
	stabilityCmd.Flags().BoolVar(&stabilitySimulate, "simulate", false, "read from the in-process simulator")
	stabilityCmd.Flags().StringVar(&stabilityOut, "out", "", "write the full suite artifact to this JSON file")
	rootCmd.AddCommand(stabilityCmd)
}
