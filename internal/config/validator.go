// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError contains multiple validation failures.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation error.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateServer(cfg, errs)
	v.validateBackend(cfg, errs)
	v.validateSettings(cfg, errs)
	v.validateDurations(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateServer(cfg *Config, errs *ValidationError) {
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs.Add("server.port", "must be between 0 and 65535")
	}
}

func (v *Validator) validateBackend(cfg *Config, errs *ValidationError) {
	switch cfg.Backend.StopSignal {
	case "", "SIGTERM", "SIGINT", "SIGKILL":
	default:
		errs.Add("backend.stop_signal", fmt.Sprintf("invalid signal '%s', must be one of: SIGTERM, SIGINT, SIGKILL", cfg.Backend.StopSignal))
	}
	if strings.ContainsAny(cfg.Backend.Binary, `/\`) {
		errs.Add("backend.binary", "must be a file name, not a path")
	}
	if cfg.Backend.LogBuffer < 0 {
		errs.Add("backend.log_buffer", "must not be negative")
	}
	if cfg.Backend.MaxLineBytes < 0 {
		errs.Add("backend.max_line_bytes", "must not be negative")
	}
}

func (v *Validator) validateSettings(cfg *Config, errs *ValidationError) {
	if cfg.Settings.File != "" && filepath.Base(cfg.Settings.File) != cfg.Settings.File {
		errs.Add("settings.file", "must be a file name inside the data dir")
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	durations := map[string]string{
		"backend.stop_timeout":   cfg.Backend.StopTimeout,
		"backend.kill_timeout":   cfg.Backend.KillTimeout,
		"settings.debounce":      cfg.Settings.Debounce,
		"events.history.max_age": cfg.Events.History.MaxAge,
	}
	for field, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			errs.Add(field, fmt.Sprintf("invalid duration '%s'", value))
		}
	}
}
