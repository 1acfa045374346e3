// Copyright 2026 The Ticketd Authors
// SPDX-License-Identifier: Apache-2.0

// Package serverconfig provides the ambient configuration layer for
// ticketd: concerns spec.md is silent on (log level/format, the stats
// snapshot cadence, socket buffer tuning) rather than the three
// protocol-level scalars spec.md §6 assigns to CLI flags.
//
// Configuration is loaded from an optional YAML file. There is no
// fallback discovery — an absent --config flag simply means "use
// defaults" — matching the teacher's lib/config in spirit (a single,
// explicit source) but without its deploy-environment override
// machinery, which has no analogue in a single-process daemon.
package serverconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is ticketd's ambient configuration.
type Config struct {
	// LogLevel is one of "debug", "info", "warn", "error". Default "info".
	LogLevel string `yaml:"log_level"`

	// LogFormat is "json" or "text". Default "json" (text is friendlier
	// in a dev terminal, matching cmd/bureau-sandbox's handler choice).
	LogFormat string `yaml:"log_format"`

	// StatsPath is where periodic counter snapshots are written.
	// Empty disables snapshotting.
	StatsPath string `yaml:"stats_path"`

	// StatsIntervalSeconds is how often a snapshot is written.
	StatsIntervalSeconds int `yaml:"stats_interval_seconds"`

	// SocketReceiveBufferBytes sets SO_RCVBUF on the UDP socket. Zero
	// leaves the OS default in place.
	SocketReceiveBufferBytes int `yaml:"socket_receive_buffer_bytes"`
}

// Default returns ticketd's default configuration. Like the teacher's
// config.Default, this exists to give every field a sensible
// zero-value rather than to serve as a silent fallback for a missing
// required file — here there is no required file, so Default is also
// simply what you get when --config is omitted.
func Default() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "json",
		StatsPath:            "",
		StatsIntervalSeconds: 60,
	}
}

// Load reads and parses a YAML config file at path, applying it on top
// of Default(). An empty path is not an error: Load returns Default()
// unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("serverconfig: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(content, cfg); err != nil {
		return nil, fmt.Errorf("serverconfig: parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("serverconfig: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports whether the configuration's values are sane.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q must be one of debug, info, warn, error", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("log_format %q must be one of json, text", c.LogFormat)
	}
	if c.StatsIntervalSeconds < 0 {
		return fmt.Errorf("stats_interval_seconds %d must be >= 0", c.StatsIntervalSeconds)
	}
	if c.SocketReceiveBufferBytes < 0 {
		return fmt.Errorf("socket_receive_buffer_bytes %d must be >= 0", c.SocketReceiveBufferBytes)
	}
	return nil
}
