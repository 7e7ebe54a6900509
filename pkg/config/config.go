// Package config loads CLI settings from an optional YAML file and the
// environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/suffix-labs/legacy-tx/pkg/crypto"
	"github.com/suffix-labs/legacy-tx/pkg/tx"
)

// EnvPrefix prefixes every environment override, e.g. LEGACYTX_NETWORK.
const EnvPrefix = "legacytx"

type ctxKey string

const configContextKey ctxKey = "config"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	NetworkName string `yaml:"network"  envconfig:"NETWORK"`
	FeePerKb    uint64 `yaml:"feePerKb" envconfig:"FEE_PER_KB"`
	LogLevel    string `yaml:"logLevel" envconfig:"LOG_LEVEL"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		NetworkName: crypto.MainNet.Name,
		FeePerKb:    tx.DefaultFeePerKb,
		LogLevel:    "info",
	}
}

// LoadConfig reads configFile over the defaults, then applies environment
// overrides. An empty configFile falls back to ~/.legacytx/legacytx.yaml
// when that file exists.
func LoadConfig(configFile string) (*Config, error) {
	cfg := Default()

	if configFile == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".legacytx", "legacytx.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting can be resolved.
func (c *Config) Validate() error {
	if _, err := c.Network(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.FeePerKb == 0 {
		return errors.New("invalid feePerKb: must be positive")
	}
	return nil
}

// Network resolves NetworkName.
func (c *Config) Network() (*crypto.Network, error) {
	net, err := crypto.NetworkByName(c.NetworkName)
	if err != nil {
		return nil, fmt.Errorf("invalid network: %w", err)
	}
	return net, nil
}

// Level parses LogLevel ("debug", "info", "warn" or "error").
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
	}
	return level, nil
}
