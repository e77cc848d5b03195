// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"

	"github.com/wingedpig/sidecar/internal/api/version"
)

// BackendHandler reports the supervised backend's status.
type BackendHandler struct {
	backend BackendStatus
	version string
}

// NewBackendHandler creates a new backend handler.
func NewBackendHandler(backend BackendStatus, version string) *BackendHandler {
	return &BackendHandler{backend: backend, version: version}
}

// Status returns the backend status.
func (h *BackendHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.backend.Status())
}

// Version returns the shell version and the API version in effect for the
// request.
func (h *BackendHandler) Version(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{
		"version":     h.version,
		"api_version": version.FromContext(r.Context()),
	})
}
