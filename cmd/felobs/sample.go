// cmd/felobs/sample.go
package felobs

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/accelsw/felobs/observe"
)

var (
	samplePoints      int
	sampleHXR         bool
	sampleLossChannel string
	sampleFELChannel  string
	sampleGateway     string
	sampleSimulate    bool
)

// sampleCmd implements 'sample', which performs one full acquisition and
// prints the reduced statistics record as JSON.
var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Acquire one intensity-and-loss statistics record",
	Long:  `The 'sample' command waits for the machine-side history buffers to fill, reads the trailing window of the gas-detector and beam-loss channels, and prints the reduced statistics record as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(sampleSimulate)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("points") {
			cfg.Points = samplePoints
		}
		if cmd.Flags().Changed("hxr") {
			cfg.HXR = sampleHXR
		}
		if sampleLossChannel != "" {
			cfg.LossChannel = sampleLossChannel
		}
		if sampleFELChannel != "" {
			cfg.FELChannel = sampleFELChannel
		}

		logger := buildLogger(cfg.Debug)
		defer logger.Sync()

		source, _, err := newSource(cfg, sampleGateway, sampleSimulate, logger)
		if err != nil {
			return err
		}
		sampler := observe.NewSampler(source, observe.WithLogger(logger))

		st, err := sampler.IntensityAndLoss(cmd.Context(), cfg.HXR, cfg.Points, cfg.LossChannel, cfg.FELChannel)
		if err != nil {
			return err
		}
		b, _ := json.MarshalIndent(st, "", "  ")
		fmt.Fprintln(cmd.OutOrStdout(), string(b))
		return nil
	},
}

func init() {
	sampleCmd.Flags().IntVar(&samplePoints, "points", 0, "number of most-recent shots to reduce (overrides config)")
	sampleCmd.Flags().BoolVar(&sampleHXR, "hxr", false, "read the hard-x-ray gas detector (overrides config)")
	sampleCmd.Flags().StringVar(&sampleLossChannel, "loss-channel", "", "beam-loss channel to read (overrides config)")
	sampleCmd.Flags().StringVar(&sampleFELChannel, "fel-channel", "", "FEL channel number for the hard-x-ray detector (overrides config)")
	sampleCmd.Flags().StringVar(&sampleGateway, "gateway", "", "configured gateway to read from (defaults to the first)")
	sampleCmd.Flags().BoolVar(&sampleSimulate, "simulate", false, "read from the in-process simulator")
	rootCmd.AddCommand(sampleCmd)
}
