// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one captured line of backend output.
// On the wire it is the two-element array [text, is_error].
type Entry struct {
	Text    string
	IsError bool
}

// MarshalJSON encodes the entry as [text, is_error].
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Text, e.IsError})
}

// UnmarshalJSON decodes a [text, is_error] pair.
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

// LogMessage is one frame of the log stream. Sequence is zero for
// entries replayed from the snapshot.
type LogMessage struct {
	Entry    Entry `json:"entry"`
	Sequence int64 `json:"sequence,omitempty"`
}

// Status describes the supervised backend.
type Status struct {
	// State is one of "stopped", "running", "stopping", "exited" or "missing".
	State     string    `json:"state"`
	PID       int       `json:"pid,omitempty"`
	ExitCode  int       `json:"exit_code"`
	Path      string    `json:"path,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	StoppedAt time.Time `json:"stopped_at,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// VersionInfo is returned by the version endpoint.
type VersionInfo struct {
	Version    string `json:"version"`
	APIVersion string `json:"api_version"`
}

// Event is a lifecycle or output event. For python-log and python-error the
// payload is the line text; other events carry a JSON object.
type Event struct {
	ID        string      `json:"id"`
	Version   string      `json:"version"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Field returns one member of an object payload, or nil.
func (e Event) Field(key string) interface{} {
	if m, ok := e.Payload.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}
