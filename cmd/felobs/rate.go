// cmd/felobs/rate.go
package felobs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accelsw/felobs/observe"
)

var (
	rateGateway  string
	rateSimulate bool
)

// rateCmd implements 'rate', which reads the current machine repetition
// rate and prints it in Hz.
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "Read the current beam repetition rate",
	Long:  `The 'rate' command reads the repetition-rate channel once and prints the value in Hz. It fails when the rate is missing, NaN, or non-positive.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(rateSimulate)
		if err != nil {
			return err
		}

		logger := buildLogger(cfg.Debug)
		defer logger.Sync()

		source, _, err := newSource(cfg, rateGateway, rateSimulate, logger)
		if err != nil {
			return err
		}
		sampler := observe.NewSampler(source, observe.WithLogger(logger))

		rate, err := sampler.BeamRate(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.2f\n", rate)
		return nil
	},
}

func init() {
	rateCmd.Flags().StringVar(&rateGateway, "gateway", "", "configured gateway to read from (defaults to the first)")
	rateCmd.Flags().BoolVar(&rateSimulate, "simulate", false, "read from the in-process simulator")
	rootCmd.AddCommand(rateCmd)
}
