// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package events provides the event bus that carries backend output and
// lifecycle notifications to the UI.
package events

import (
	"context"
	"time"
)

// Event represents an immutable event record. Backend output events carry
// the line text as their payload; the others carry a map[string]interface{}.
type Event struct {
	ID        string      `json:"id"`
	Version   string      `json:"version"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// Field returns payload[key] for a map payload, or nil.
func (e Event) Field(key string) interface{} {
	if m, ok := e.Payload.(map[string]interface{}); ok {
		return m[key]
	}
	return nil
}

// EventHandler processes received events.
type EventHandler func(ctx context.Context, event Event) error

// SubscriptionID uniquely identifies a subscription.
type SubscriptionID string

// EventFilter for querying event history.
type EventFilter struct {
	Types []string  // Event types to match (supports wildcards)
	Since time.Time // Events after this time
	Until time.Time // Events before this time
	Limit int       // Maximum events to return
}

// EventBus is the core event pub/sub system.
type EventBus interface {
	// Publish emits an event to all matching subscribers.
	Publish(ctx context.Context, event Event) error

	// Subscribe registers a synchronous handler for events matching pattern.
	Subscribe(pattern string, handler EventHandler) (SubscriptionID, error)

	// SubscribeAsync registers an async handler with a bounded buffer.
	// Events arriving while the buffer is full are dropped.
	SubscribeAsync(pattern string, handler EventHandler, bufferSize int) (SubscriptionID, error)

	// Unsubscribe removes a subscription.
	Unsubscribe(id SubscriptionID) error

	// History retrieves past events matching filter.
	History(filter EventFilter) ([]Event, error)

	// Close shuts down the event bus gracefully.
	Close() error
}

// Event types published by the shell. The two log channels keep the names
// the UI listens on.
const (
	EventBackendLog   = "python-log"
	EventBackendError = "python-error"

	EventBackendStarted = "backend.started"
	EventBackendExited  = "backend.exited"
	EventBackendStopped = "backend.stopped"
	EventBackendMissing = "backend.missing"

	EventSettingsChanged = "settings.changed"
)
