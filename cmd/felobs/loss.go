// cmd/felobs/loss.go
package felobs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accelsw/felobs/observe"
)

var (
	lossPoints   int
	lossChannel  string
	lossGateway  string
	lossSimulate bool
)

// lossCmd implements 'loss', which acquires the beam-loss observable alone
// and prints its 80th percentile.
var lossCmd = &cobra.Command{
	Use:   "loss",
	Short: "Acquire the 80th percentile of the beam loss",
	Long:  `The 'loss' command waits for the history buffer to fill, reads the trailing window of the beam-loss channel, and prints the 80th percentile of the valid shots.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(lossSimulate)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("points") {
			cfg.Points = lossPoints
		}
		if lossChannel != "" {
			cfg.LossChannel = lossChannel
		}

		logger := buildLogger(cfg.Debug)
		defer logger.Sync()

		source, _, err := newSource(cfg, lossGateway, lossSimulate, logger)
		if err != nil {
			return err
		}
		sampler := observe.NewSampler(source, observe.WithLogger(logger))

		p80, err := sampler.Loss(cmd.Context(), cfg.Points, cfg.LossChannel)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.6f\n", p80)
		return nil
	},
}

func init() {
	lossCmd.Flags().IntVar(&lossPoints, "points", 0, "number of most-recent shots to reduce (overrides config)")
	lossCmd.Flags().StringVar(&lossChannel, "loss-channel", "", "beam-loss channel to read (overrides config)")
	lossCmd.Flags().StringVar(&lossGateway, "gateway", "", "configured gateway to read from (defaults to the first)")
	lossCmd.Flags().BoolVar(&lossSimulate, "simulate", false, "read from the in-process simulator")
	rootCmd.AddCommand(lossCmd)
}
