// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package supervisor owns the backend process: it spawns it, captures its
// output into a bounded buffer, mirrors each line onto the event bus and
// tears the process down on exit.
package supervisor

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrBackendNotFound is returned by Start when no backend executable exists.
	ErrBackendNotFound = errors.New("backend executable not found")

	// ErrAlreadyRunning is returned by Start while a backend is live.
	ErrAlreadyRunning = errors.New("backend already running")
)

// Entry is one captured line of backend output.
type Entry struct {
	Text    string
	IsError bool
}

// MarshalJSON encodes the entry as the tuple [text, is_error].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Text, e.IsError})
}

// UnmarshalJSON decodes the [text, is_error] tuple form.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("log entry: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.Text); err != nil {
		return fmt.Errorf("log entry text: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.IsError); err != nil {
		return fmt.Errorf("log entry flag: %w", err)
	}
	return nil
}

// State represents the lifecycle state of the backend.
type State int

const (
	StateStopped State = iota
	StateRunning
	StateStopping
	StateExited
	StateMissing
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateExited:
		return "exited"
	case StateMissing:
		return "missing"
	default:
		return "unknown"
	}
}

// MarshalJSON implements json.Marshaler to output the string representation.
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Status is a point-in-time view of the backend process.
type Status struct {
	State     State     `json:"state"`
	PID       int       `json:"pid,omitempty"`
	ExitCode  int       `json:"exit_code"`
	Path      string    `json:"path,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	StoppedAt time.Time `json:"stopped_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}
