// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"github.com/wingedpig/sidecar/internal/supervisor"
)

// Commands is the command surface the UI invokes.
type Commands interface {
	// GetLogs returns a snapshot of buffered backend output. It cannot fail.
	GetLogs() []supervisor.Entry

	// GetSettings returns the persisted settings, empty on any read problem.
	GetSettings() map[string]string

	// SaveSettings merges settings into the persisted file.
	SaveSettings(settings map[string]string) error
}

// BackendStatus reports the supervised backend's state.
type BackendStatus interface {
	Status() supervisor.Status
}

// LogSource streams newly captured entries.
type LogSource interface {
	SnapshotSequence() ([]supervisor.Entry, int64)
	Subscribe() chan supervisor.LogLine
	Unsubscribe(ch chan supervisor.LogLine)
}
