// cmd/felobs/watch.go
package felobs

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/accelsw/felobs/monitor"
)

var (
	watchSimulate bool
	watchMetrics  string
	watchInterval time.Duration
)

// watchCmd implements 'watch', which starts the interactive monitor.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the interactive acquisition monitor",
	Long:  `The 'watch' command starts the full-screen terminal monitor: pick a gateway, acquire the statistics record, and resample on demand or on a fixed interval. Prometheus collectors are served when --metrics is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		monitor.StartGUI(monitor.Options{
			ConfigPath:  viper.GetString("config"),
			Simulate:    watchSimulate,
			MetricsAddr: watchMetrics,
			Interval:    watchInterval,
			Debug:       viper.GetBool("debug"),
		})
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchSimulate, "simulate", false, "read from the in-process simulator")
	watchCmd.Flags().StringVar(&watchMetrics, "metrics", "", "serve Prometheus metrics on this address (e.g. :9120)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "automatically resample at this interval (e.g. 30s)")
	rootCmd.AddCommand(watchCmd)
}
