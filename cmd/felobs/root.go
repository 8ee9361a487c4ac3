// cmd/felobs/root.go
package felobs

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/accelsw/felobs/epics"
	"github.com/accelsw/felobs/observe"
)

// rootCmd is the base Cobra command for the felobs application.
// All subcommands are attached to this root to form the complete CLI.
var rootCmd = &cobra.Command{
	Use:   "felobs",
	Short: "Beam observables for the accelerator control system",
	Long:  `felobs acquires windowed beam-intensity and beam-loss statistics from the accelerator control system, for optimizer loops, shift checks, and dashboards.`,
}

// cfgFile is the --config flag value; the effective path also honors the
// FELOBS_CONFIG environment variable and a local .env file.
var cfgFile string

// debugMode is the --debug flag value; it forces diagnostic logging on even
// when the configuration file leaves it off.
var debugMode bool

// Execute runs the root Cobra command and all registered subcommands.
// It prints any returned error and exits the process with a non-zero
// status code on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the JSON configuration (defaults to config.json)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable diagnostic logging")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initEnv loads a local .env file when present and maps FELOBS_* environment
// variables onto configuration keys, so FELOBS_CONFIG works without a flag.
func initEnv() {
	_ = godotenv.Load()
	viper.SetEnvPrefix("FELOBS")
	viper.AutomaticEnv()
}

// loadRunConfig resolves the configuration for one-shot commands. A missing
// file is only fatal when a real gateway is needed.
func loadRunConfig(simulate bool) (epics.Config, error) {
	cfg, err := epics.LoadConfig(viper.GetString("config"))
	if err != nil {
		if !simulate {
			return epics.Config{}, err
		}
		cfg = epics.DefaultConfig()
	}
	if viper.GetBool("debug") {
		cfg.Debug = true
	}
	return cfg, nil
}

// newSource builds the channel source for one-shot commands: the in-process
// simulator, or a client for the named gateway. An empty name selects the
// first configured gateway.
func newSource(cfg epics.Config, gateway string, simulate bool, logger *zap.Logger) (observe.Interface, string, error) {
	if simulate {
		return epics.NewSimulator(), "simulator", nil
	}
	if len(cfg.Gateways) == 0 {
		return nil, "", errors.New("config must contain at least one gateway")
	}
	gw := cfg.Gateways[0]
	if gateway != "" {
		found := false
		for _, g := range cfg.Gateways {
			if g.Name == gateway {
				gw = g
				found = true
				break
			}
		}
		if !found {
			return nil, "", fmt.Errorf("unknown gateway %q", gateway)
		}
	}
	return epics.NewClient(gw.URL, epics.WithClientLogger(logger)), gw.Name, nil
}

// buildLogger returns the command-line logger: human-readable development
// output on stderr in debug mode, a no-op otherwise.
func buildLogger(debug bool) *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
