// Package config defines the external configuration surface and binds it
// through cobra flags and viper, with viper layered under a cobra root
// command: flags override environment variables, which override a config
// file, which overrides the package defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the four options the daemon recognizes.
type Config struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	MemoryLimitMB int    `mapstructure:"memorylimit"`
	Verbosity     int    `mapstructure:"verbosity"`
}

// Defaults returns the daemon's documented default configuration.
func Defaults() Config {
	return Config{
		Host:          "127.0.0.1",
		Port:          11311,
		MemoryLimitMB: 64,
		Verbosity:     1,
	}
}

// BindFlags registers the recognized options as flags on cmd and wires
// viper to read a config file (if --config points at one) and
// TEMPUSCACHED_-prefixed environment variables.
func BindFlags(cmd *cobra.Command, v *viper.Viper) error {
	d := Defaults()

	cmd.Flags().String("host", d.Host, "bind address")
	cmd.Flags().Int("port", d.Port, "TCP port")
	cmd.Flags().Int("memorylimit", d.MemoryLimitMB, "hard memory cap in MiB")
	cmd.Flags().Int("verbosity", d.Verbosity, "log verbosity 0..3")
	cmd.Flags().String("config", "", "path to a YAML/TOML config file")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix("TEMPUSCACHED")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return nil
}

// Load reads whatever config file was named via --config (if any) and
// unmarshals the merged flag/env/file/default view into a Config.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Verbosity < 0 || cfg.Verbosity > 3 {
		return Config{}, fmt.Errorf("verbosity must be 0..3, got %d", cfg.Verbosity)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("port must be 0..65535, got %d", cfg.Port)
	}
	if cfg.MemoryLimitMB <= 0 {
		return Config{}, fmt.Errorf("memorylimit must be positive, got %d", cfg.MemoryLimitMB)
	}
	return cfg, nil
}
