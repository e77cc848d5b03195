// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"net/http"
	"strconv"

	"github.com/wingedpig/sidecar/internal/supervisor"
)

// LogHandler serves the buffered backend output.
type LogHandler struct {
	cmds   Commands
	source LogSource
}

// NewLogHandler creates a new log handler. source may be nil, which
// disables streaming.
func NewLogHandler(cmds Commands, source LogSource) *LogHandler {
	return &LogHandler{cmds: cmds, source: source}
}

// Get returns the buffered entries as [text, is_error] tuples.
// ?lines=N limits the result to the newest N entries.
func (h *LogHandler) Get(w http.ResponseWriter, r *http.Request) {
	entries := h.cmds.GetLogs()

	if s := r.URL.Query().Get("lines"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			WriteError(w, http.StatusBadRequest, ErrBadRequest, "lines must be a non-negative integer")
			return
		}
		if n < len(entries) {
			entries = entries[len(entries)-n:]
		}
	}

	WriteJSON(w, http.StatusOK, entries)
}

// logMessage is one frame of the log stream.
type logMessage struct {
	Entry    supervisor.Entry `json:"entry"`
	Sequence int64            `json:"sequence,omitempty"`
}

// Stream sends the current snapshot over a WebSocket, then each new entry
// as it is captured.
func (h *LogHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		WriteError(w, http.StatusNotFound, ErrNotFound, "log streaming not available")
		return
	}

	s, ok := upgrade(w, r)
	if !ok {
		return
	}
	defer s.Close()

	// Subscribe before taking the snapshot so nothing falls in between.
	// Lines appended in that window arrive on ch as well; replayed is the
	// newest sequence already sent from the snapshot.
	ch := h.source.Subscribe()
	defer h.source.Unsubscribe(ch)

	var replayed int64
	if r.URL.Query().Get("snapshot") != "false" {
		var entries []supervisor.Entry
		entries, replayed = h.source.SnapshotSequence()
		for _, e := range entries {
			if err := s.conn.WriteJSON(logMessage{Entry: e}); err != nil {
				return
			}
		}
	}

	pump[supervisor.LogLine](s, ch, func(line supervisor.LogLine) (interface{}, bool) {
		if line.Sequence <= replayed {
			return nil, false
		}
		return logMessage{Entry: line.Entry, Sequence: line.Sequence}, true
	})
}
