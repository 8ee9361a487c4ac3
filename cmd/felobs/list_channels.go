// cmd/felobs/list_channels.go
package felobs

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/accelsw/felobs/epics"
	"github.com/accelsw/felobs/observe"
)

// channelsCmd represents the 'list channels' subcommand.
var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "Lists the observable channels on each gateway",
	Long:  `Connects to each gateway defined in the configuration and probes the channels the sampler reads, reporting how many samples each one currently holds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadRunConfig(false)
		if err != nil {
			return err
		}
		listChannels(cmd.OutOrStdout(), cfg)
		return nil
	},
}

// observableChannels returns the channel names the sampler reads under the
// given configuration.
func observableChannels(cfg epics.Config) []string {
	names := []string{
		observe.BeamRateChannel,
		cfg.LossChannel,
	}
	if cfg.HXR {
		names = append(names, fmt.Sprintf(observe.HXRGasChannelFormat, cfg.FELChannel))
	} else {
		names = append(names, observe.SXRGasChannel, observe.SXRGasScalarChannel)
	}
	return names
}

// listChannels connects to each gateway defined in the configuration
// concurrently and prints the state of the observable channels on each one.
func listChannels(w io.Writer, cfg epics.Config) {
	nodeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	badStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	channels := observableChannels(cfg)

	var wg sync.WaitGroup
	var mu sync.Mutex
	results := make(map[string][]string)

	for _, gw := range cfg.Gateways {
		wg.Add(1)
		go func(gw epics.Gateway) {
			defer wg.Done()

			client := epics.NewClient(gw.URL, epics.WithTimeout(5*time.Second))
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()

			lines := make([]string, 0, len(channels))
			for _, name := range channels {
				values, err := client.GetValue(ctx, name)
				if err != nil {
					lines = append(lines, badStyle.Render(fmt.Sprintf("- %s (UNAVAILABLE)", name)))
					continue
				}
				lines = append(lines, okStyle.Render(fmt.Sprintf("- %s (%d samples)", name, len(values))))
			}

			mu.Lock()
			results[gw.Name] = lines
			mu.Unlock()
		}(gw)
	}

	wg.Wait()

	// Sort gateway names for consistent output
	gatewayNames := make([]string, 0, len(results))
	for name := range results {
		gatewayNames = append(gatewayNames, name)
	}
	sort.Strings(gatewayNames)

	for _, name := range gatewayNames {
		fmt.Fprintln(w, nodeStyle.Render(fmt.Sprintf("  >>> %s", name)))
		for _, line := range results[name] {
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}
}

func init() {
	listCmd.AddCommand(channelsCmd)
}
