// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/wingedpig/sidecar/internal/events"
)

const defaultEventQueue = 100

// EventHandler handles event-related API requests.
type EventHandler struct {
	bus    events.EventBus
	buffer int
}

// NewEventHandler creates a new event handler. buffer bounds the queue of
// each WebSocket subscriber; events that do not fit are dropped.
func NewEventHandler(bus events.EventBus, buffer int) *EventHandler {
	if buffer <= 0 {
		buffer = defaultEventQueue
	}
	return &EventHandler{bus: bus, buffer: buffer}
}

// History returns retained events, oldest first. Query parameters:
// type (repeatable pattern), limit, since and until (RFC 3339).
func (h *EventHandler) History(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventFilter(r.URL.Query())
	if err != nil {
		WriteError(w, http.StatusBadRequest, ErrBadRequest, err.Error())
		return
	}

	eventList, err := h.bus.History(filter)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, ErrInternalError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, eventList)
}

func parseEventFilter(query url.Values) (events.EventFilter, error) {
	var filter events.EventFilter

	// Type filter
	filter.Types = query["type"]

	// Limit keeps the newest matches
	if s := query.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return filter, fmt.Errorf("limit must be a non-negative integer")
		}
		filter.Limit = n
	}

	// Time window
	var err error
	if filter.Since, err = parseTime(query, "since"); err != nil {
		return filter, err
	}
	if filter.Until, err = parseTime(query, "until"); err != nil {
		return filter, err
	}

	return filter, nil
}

// parseTime reads an optional RFC 3339 timestamp; absent yields zero.
func parseTime(query url.Values, key string) (time.Time, error) {
	s := query.Get(key)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
	}
	return t, nil
}

// WebSocket handles the WebSocket connection for real-time events.
// ?pattern= selects events (default "*"); "python-*" yields both log channels.
// A malformed pattern is reported as an {"error"} frame before closing.
func (h *EventHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	s, ok := upgrade(w, r)
	if !ok {
		return
	}
	defer s.Close()

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*" // All events
	}

	// The bus already queues per subscriber; forward without blocking it
	eventCh := make(chan events.Event, h.buffer)
	subID, err := h.bus.SubscribeAsync(pattern, func(_ context.Context, event events.Event) error {
		select {
		case eventCh <- event:
		case <-s.gone:
		default:
			// Drop if buffer full
		}
		return nil
	}, h.buffer)
	if err != nil {
		s.conn.WriteJSON(map[string]string{"error": err.Error()})
		return
	}
	defer h.bus.Unsubscribe(subID)

	pump[events.Event](s, eventCh, func(e events.Event) (interface{}, bool) {
		return e, true
	})
}
