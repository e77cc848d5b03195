// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"sort"
	"sync"
	"time"
)

// EventHistoryConfig configures event history.
type EventHistoryConfig struct {
	MaxEvents int
	MaxAge    time.Duration
}

// EventHistory keeps a bounded window of recent events so a UI that connects
// late can catch up.
type EventHistory struct {
	mu        sync.RWMutex
	events    []Event
	maxEvents int
	maxAge    time.Duration
	matcher   *PatternMatcher
}

// NewEventHistory creates a new event history.
func NewEventHistory(cfg EventHistoryConfig) *EventHistory {
	if cfg.MaxEvents <= 0 {
		cfg.MaxEvents = 1000
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = time.Hour
	}

	return &EventHistory{
		events:    make([]Event, 0, cfg.MaxEvents),
		maxEvents: cfg.MaxEvents,
		maxAge:    cfg.MaxAge,
		matcher:   NewPatternMatcher(),
	}
}

// Add stores an event in history, evicting the oldest beyond MaxEvents.
func (h *EventHistory) Add(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = h.keepNewest(append(h.events, event))
}

// keepNewest trims events to the newest maxEvents.
func (h *EventHistory) keepNewest(events []Event) []Event {
	if over := len(events) - h.maxEvents; over > 0 {
		return events[over:]
	}
	return events
}

// Query retrieves events matching filter, oldest first. A limit keeps the
// newest matches.
func (h *EventHistory) Query(filter EventFilter) ([]Event, error) {
	types := h.compileTypes(filter.Types)

	h.mu.RLock()
	result := make([]Event, 0)
	for _, event := range h.events {
		if matchesFilter(event, filter, types) {
			result = append(result, event)
		}
	}
	h.mu.RUnlock()

	// Publishers may set their own timestamps, so order by time rather than
	// arrival
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})

	// Apply limit
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[len(result)-filter.Limit:]
	}

	return result, nil
}

// compileTypes compiles the type filter once per query. A malformed pattern
// matches nothing. The result is nil when no type filter is set.
func (h *EventHistory) compileTypes(patterns []string) []CompiledPattern {
	if len(patterns) == 0 {
		return nil
	}
	compiled := make([]CompiledPattern, 0, len(patterns))
	for _, p := range patterns {
		if cp, err := h.matcher.Compile(p); err == nil {
			compiled = append(compiled, cp)
		}
	}
	return compiled
}

func matchesFilter(event Event, filter EventFilter, types []CompiledPattern) bool {
	// Type filter
	if len(filter.Types) > 0 {
		matched := false
		for _, cp := range types {
			if cp.Match(event.Type) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	// Time window
	if !filter.Since.IsZero() && event.Timestamp.Before(filter.Since) {
		return false
	}
	if !filter.Until.IsZero() && event.Timestamp.After(filter.Until) {
		return false
	}

	return true
}

// Prune removes events older than max age or exceeding max count.
func (h *EventHistory) Prune() {
	h.mu.Lock()
	defer h.mu.Unlock()

	cutoff := time.Now().Add(-h.maxAge)
	kept := h.events[:0]
	for _, event := range h.events {
		if event.Timestamp.After(cutoff) {
			kept = append(kept, event)
		}
	}
	// Clear the tail so dropped payloads can be collected
	for i := len(kept); i < len(h.events); i++ {
		h.events[i] = Event{}
	}
	h.events = h.keepNewest(kept)
}

// Len returns the number of retained events.
func (h *EventHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events)
}

// Close releases resources.
func (h *EventHistory) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = nil
}
