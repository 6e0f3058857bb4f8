// Package config loads bridge configuration from the environment.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all bridge configuration.
type Config struct {
	Logging LogConfig
	Script  ScriptConfig
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// ScriptConfig holds script runtime configuration.
type ScriptConfig struct {
	// TaskBuffer sizes the script-thread task channel.
	TaskBuffer int `envconfig:"SCRIPT_TASK_BUFFER" default:"64"`
	// MaxCallStack bounds script call depth; 0 means engine default.
	MaxCallStack int `envconfig:"SCRIPT_MAX_CALL_STACK" default:"1024"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from the environment or returns the
// defaults.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Logging: LogConfig{Level: "info"},
		Script:  ScriptConfig{TaskBuffer: 64, MaxCallStack: 1024},
	}
}
