// Package config loads lobex's runtime configuration. The teacher
// hardcodes its listen address ("0.0.0.0", 9001) in cmd/main.go; this
// generalizes that single ambient concern with viper, following the
// env+flag+file convention used across the retrieved pack's CLI-configured
// services (see DESIGN.md — no teacher file to adapt here).
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds every externally-tunable knob for cmd/server.
type Config struct {
	Address     string   `mapstructure:"address"`
	Port        int      `mapstructure:"port"`
	MetricsPort int      `mapstructure:"metrics_port"`
	Symbols     []string `mapstructure:"symbols"`
	LogLevel    string   `mapstructure:"log_level"`
}

// Default returns the baseline configuration, matching the teacher's
// hardcoded "0.0.0.0:9001" defaults.
func Default() Config {
	return Config{
		Address:     "0.0.0.0",
		Port:        9001,
		MetricsPort: 9090,
		Symbols:     []string{"AAPL", "MSFT", "BTC-USD"},
		LogLevel:    "info",
	}
}

// Load reads configuration from (in ascending priority) defaults, an
// optional config file, and LOBEX_-prefixed environment variables.
func Load(configFile string) (Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("address", def.Address)
	v.SetDefault("port", def.Port)
	v.SetDefault("metrics_port", def.MetricsPort)
	v.SetDefault("symbols", def.Symbols)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("lobex")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	return cfg, nil
}
