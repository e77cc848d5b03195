// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hjson/hjson-go/v4"
)

// Config file names probed by FindConfig, in order.
var configNames = []string{"sidecar.hjson", "sidecar.json"}

// Loader handles configuration file loading.
type Loader struct{}

// NewLoader creates a new config loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and parses the configuration from the given path.
func (l *Loader) Load(ctx context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes HJSON config data.
func Parse(data []byte) (*Config, error) {
	// Parse HJSON to intermediate map
	var raw map[string]interface{}
	if err := hjson.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse hjson: %w", err)
	}

	// Convert to JSON and unmarshal to struct (for type safety)
	jsonData, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert to json: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults loads config with default values applied and validates
// it. An empty path yields the defaults alone.
func (l *Loader) LoadWithDefaults(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := l.Load(ctx, path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	ApplyDefaults(cfg)
	if err := NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FindConfig searches dirs in order for a config file. It returns an empty
// path, not an error, when none exists: the shell runs fine on defaults.
func (l *Loader) FindConfig(dirs ...string) string {
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				if abs, err := filepath.Abs(path); err == nil {
					return abs
				}
				return path
			}
		}
	}
	return ""
}

// Defaults returns a config populated with default values.
func Defaults() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for missing config fields.
func ApplyDefaults(cfg *Config) {
	if cfg.App.Identifier == "" {
		cfg.App.Identifier = "com.sidecar.desktop"
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "127.0.0.1"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 1420
	}

	if cfg.Backend.Binary == "" {
		cfg.Backend.Binary = "python-backend"
	}
	if cfg.Backend.Folder == "" {
		cfg.Backend.Folder = "python-backend"
	}
	if cfg.Backend.DistDir == "" {
		cfg.Backend.DistDir = "python-dist"
	}
	if cfg.Backend.StopSignal == "" {
		cfg.Backend.StopSignal = "SIGKILL"
	}
	if cfg.Backend.StopTimeout == "" {
		cfg.Backend.StopTimeout = "5s"
	}
	if cfg.Backend.KillTimeout == "" {
		cfg.Backend.KillTimeout = "5s"
	}
	if cfg.Backend.LogBuffer == 0 {
		cfg.Backend.LogBuffer = 1000
	}
	if cfg.Backend.MaxLineBytes == 0 {
		cfg.Backend.MaxLineBytes = 1024 * 1024
	}

	if cfg.Settings.File == "" {
		cfg.Settings.File = ".env"
	}
	if cfg.Settings.Debounce == "" {
		cfg.Settings.Debounce = "200ms"
	}

	if cfg.Events.History.MaxEvents == 0 {
		cfg.Events.History.MaxEvents = 1000
	}
	if cfg.Events.History.MaxAge == "" {
		cfg.Events.History.MaxAge = "1h"
	}
	if cfg.Events.SubscriberBuffer == 0 {
		cfg.Events.SubscriberBuffer = 100
	}

	if cfg.Logging.File == "" {
		cfg.Logging.File = "sidecar.log"
	}
	if cfg.Logging.MaxSizeMB == 0 {
		cfg.Logging.MaxSizeMB = 10
	}
	if cfg.Logging.MaxBackups == 0 {
		cfg.Logging.MaxBackups = 3
	}
	if cfg.Logging.MaxAgeDays == 0 {
		cfg.Logging.MaxAgeDays = 28
	}
}
