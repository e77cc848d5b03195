// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wingedpig/sidecar/internal/settings"
)

// SettingsHandler serves the persisted user settings.
type SettingsHandler struct {
	cmds Commands
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(cmds Commands) *SettingsHandler {
	return &SettingsHandler{cmds: cmds}
}

// Get returns the current settings map.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.cmds.GetSettings())
}

// Put merges the JSON object in the body into the settings file and returns
// the resulting settings.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if !saveSettings(w, h.cmds, updates) {
		return
	}
	WriteJSON(w, http.StatusOK, h.cmds.GetSettings())
}

// saveSettings saves and writes the error response on failure.
func saveSettings(w http.ResponseWriter, cmds Commands, updates map[string]string) bool {
	if updates == nil {
		updates = map[string]string{}
	}
	if err := cmds.SaveSettings(updates); err != nil {
		var werr *settings.WriteError
		if errors.As(err, &werr) {
			WriteError(w, http.StatusInternalServerError, ErrSettingsError, err.Error())
		} else {
			WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		}
		return false
	}
	return true
}
