package server

import (
	"fmt"
	"os"

	"github.com/iwvelando/capcost/pkg/constants"
	"gopkg.in/yaml.v3"
)

// Config holds the HTTP server settings.
type Config struct {
	Address     string `yaml:"address"`
	MaxBodySize int64  `yaml:"maxBodySize"`
	Logging     struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// DefaultConfig returns the server settings used when no config file is
// supplied.
func DefaultConfig() Config {
	cfg := Config{
		Address:     constants.DefaultServerAddress,
		MaxBodySize: constants.DefaultMaxBodySizeBytes,
	}
	cfg.Logging.Level = "info"
	return cfg
}

// LoadConfig reads a YAML server configuration, filling unset fields with
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read server config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse server config: %w", err)
	}
	if cfg.Address == "" {
		cfg.Address = constants.DefaultServerAddress
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return cfg, nil
}
