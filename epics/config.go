package epics

import (
	"encoding/json"
	"fmt"
	"os"
)

const configFile = "config.json"

// Defaults applied to fields the configuration file leaves unset.
const (
	DefaultLossChannel = "CBLM:UNDH:1375:I0_LOSSHSTBR"
	DefaultFELChannel  = "241"
	DefaultPoints      = 120
)

// Gateway names a single PV-gateway endpoint.
type Gateway struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Config represents the application's configuration.
type Config struct {
	Gateways    []Gateway `json:"gateways"`
	LossChannel string    `json:"loss_channel"`
	FELChannel  string    `json:"fel_channel"`
	HXR         bool      `json:"hxr"`
	Points      int       `json:"points"`
	Debug       bool      `json:"debug"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{}.withDefaults()
}

// LoadConfig reads and parses the configuration file. An empty path falls
// back to config.json in the working directory.
func LoadConfig(path string) (Config, error) {
	var config Config
	if path == "" {
		path = configFile
	}
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("parsing %s: %w", path, err)
	}
	return config.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	if c.LossChannel == "" {
		c.LossChannel = DefaultLossChannel
	}
	if c.FELChannel == "" {
		c.FELChannel = DefaultFELChannel
	}
	if c.Points <= 0 {
		c.Points = DefaultPoints
	}
	return c
}
