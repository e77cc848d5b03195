// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"log"

	"github.com/wingedpig/sidecar/internal/supervisor"
)

// GetLogs returns a snapshot of the buffered backend output.
func (app *App) GetLogs() []supervisor.Entry {
	return app.supervisor.Logs()
}

// GetSettings returns the persisted settings, or an empty map.
func (app *App) GetSettings() map[string]string {
	return app.settings.Load()
}

// SaveSettings merges settings into the persisted file.
func (app *App) SaveSettings(settings map[string]string) error {
	if err := app.settings.Save(settings); err != nil {
		log.Printf("Error saving settings: %v", err)
		return err
	}
	log.Printf("Saved %d setting(s) to %s", len(settings), app.settings.Path())
	return nil
}
