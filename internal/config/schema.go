// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package config handles HJSON configuration loading for the shell.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure.
type Config struct {
	App      AppConfig      `json:"app"`
	Server   ServerConfig   `json:"server"`
	Backend  BackendConfig  `json:"backend"`
	Settings SettingsConfig `json:"settings"`
	Events   EventsConfig   `json:"events"`
	Logging  LoggingConfig  `json:"logging"`
}

// AppConfig identifies the application on disk.
type AppConfig struct {
	Identifier string `json:"identifier"` // Reverse-DNS id, names the per-user data dir
	DataDir    string `json:"data_dir"`   // Overrides the per-user data dir
}

// ServerConfig configures the HTTP server the UI talks to.
type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// BackendConfig describes the supervised backend executable.
type BackendConfig struct {
	Path         string `json:"path"`    // Explicit path, bypasses discovery
	ExeDir       string `json:"exe_dir"` // Directory discovery starts from (default: shell binary dir)
	Binary       string `json:"binary"`
	Folder       string `json:"folder"`
	DistDir      string `json:"dist_dir"`
	StopSignal   string `json:"stop_signal"`  // SIGTERM, SIGINT or SIGKILL
	StopTimeout  string `json:"stop_timeout"` // Grace period after the stop signal
	KillTimeout  string `json:"kill_timeout"` // Wait after the forced kill
	LogBuffer    int    `json:"log_buffer"`   // Lines kept for get_logs
	MaxLineBytes int    `json:"max_line_bytes"`
}

// SettingsConfig configures the persisted user settings file.
type SettingsConfig struct {
	File     string `json:"file"`
	Watch    *bool  `json:"watch"`
	Debounce string `json:"debounce"`
}

// EventsConfig configures the event bus.
type EventsConfig struct {
	History          HistoryConfig `json:"history"`
	SubscriberBuffer int           `json:"subscriber_buffer"`
}

// HistoryConfig configures event history retention.
type HistoryConfig struct {
	MaxEvents int    `json:"max_events"`
	MaxAge    string `json:"max_age"`
}

// LoggingConfig configures the shell's own rotating log file.
type LoggingConfig struct {
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   *bool  `json:"compress"`
}

// IsWatching returns whether the settings file is watched for external edits.
func (s *SettingsConfig) IsWatching() bool {
	if s.Watch == nil {
		return true
	}
	return *s.Watch
}

// IsCompressed returns whether rotated log files are gzipped.
func (l *LoggingConfig) IsCompressed() bool {
	if l.Compress == nil {
		return true
	}
	return *l.Compress
}

// ResolveDataDir returns the per-user data directory: app.data_dir when set,
// otherwise <user config dir>/<identifier>.
func (c *Config) ResolveDataDir() (string, error) {
	if c.App.DataDir != "" {
		return expandHome(c.App.DataDir), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, c.App.Identifier), nil
}

// ParseDuration parses a duration string, returning defaultVal on error.
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
