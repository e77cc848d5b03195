// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Command names accepted by InvokeHandler.
const (
	CommandGetLogs      = "get_logs"
	CommandGetSettings  = "get_settings"
	CommandSaveSettings = "save_settings"
)

// InvokeHandler dispatches RPC-style command calls from the UI by name.
type InvokeHandler struct {
	cmds Commands
}

// NewInvokeHandler creates a new invoke handler.
func NewInvokeHandler(cmds Commands) *InvokeHandler {
	return &InvokeHandler{cmds: cmds}
}

// saveSettingsArgs is the save_settings argument object.
type saveSettingsArgs struct {
	Settings map[string]string `json:"settings"`
}

// Invoke runs the command named in the path.
func (h *InvokeHandler) Invoke(w http.ResponseWriter, r *http.Request) {
	command := mux.Vars(r)["command"]

	switch command {
	case CommandGetLogs:
		WriteJSON(w, http.StatusOK, h.cmds.GetLogs())

	case CommandGetSettings:
		WriteJSON(w, http.StatusOK, h.cmds.GetSettings())

	case CommandSaveSettings:
		var args saveSettingsArgs
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "invalid JSON: "+err.Error())
			return
		}
		if !saveSettings(w, h.cmds, args.Settings) {
			return
		}
		WriteJSON(w, http.StatusOK, nil)

	default:
		WriteError(w, http.StatusNotFound, ErrUnknownCmd, "unknown command: "+command)
	}
}
