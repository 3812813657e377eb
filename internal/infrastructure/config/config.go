package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all module configuration.
type Config struct {
	Kernel   KernelConfig
	Launcher LauncherConfig
	Logging  LogConfig
	Server   ServerConfig
}

// KernelConfig holds embedded kernel driver configuration.
type KernelConfig struct {
	// PollInterval is how often the driver reenters the kernel's event loop
	// through the host scheduler.
	PollInterval time.Duration `envconfig:"KERNEL_POLL_INTERVAL" default:"100ms"`
}

// LauncherConfig holds notebook-server launcher configuration.
type LauncherConfig struct {
	// Timeout bounds the wait for the server to print its URL.
	Timeout time.Duration `envconfig:"LAUNCH_TIMEOUT" default:"30s"`
	// Python overrides the interpreter used to resolve the server command.
	Python string `envconfig:"LAUNCH_PYTHON" default:""`
	// UsePTY spawns the child under a pseudo-terminal so its output is
	// line-buffered instead of block-buffered.
	UsePTY bool `envconfig:"LAUNCH_USE_PTY" default:"false"`
	// ProbeURL enables a reachability check of the reported URL.
	ProbeURL bool `envconfig:"LAUNCH_PROBE_URL" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// ServerConfig holds the optional status/metrics HTTP surface configuration.
type ServerConfig struct {
	// Addr is the listen address; empty disables the status server.
	Addr string `envconfig:"STATUS_ADDR" default:""`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("SHEETKERNEL", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
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
		Kernel: KernelConfig{
			PollInterval: 100 * time.Millisecond,
		},
		Launcher: LauncherConfig{
			Timeout:  30 * time.Second,
			ProbeURL: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
