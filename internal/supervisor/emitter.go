// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import (
	"context"
	"log"
	"time"

	"github.com/wingedpig/sidecar/internal/events"
)

// Emitter records output entries into a LogBuffer and mirrors each one onto
// the event bus as python-log or python-error.
type Emitter struct {
	buffer *LogBuffer
	bus    events.EventBus
}

// NewEmitter creates an emitter. bus may be nil.
func NewEmitter(buffer *LogBuffer, bus events.EventBus) *Emitter {
	if buffer == nil {
		buffer = NewLogBuffer(defaultLogBufferSize)
	}
	return &Emitter{buffer: buffer, bus: bus}
}

// Record appends an entry and publishes it. Publication is fire-and-forget.
func (e *Emitter) Record(text string, isError bool) {
	e.buffer.Append(Entry{Text: text, IsError: isError})

	if isError {
		log.Printf("[backend error] %s", text)
	} else {
		log.Printf("[backend] %s", text)
	}

	eventType := events.EventBackendLog
	if isError {
		eventType = events.EventBackendError
	}
	e.publish(eventType, text)
}

// Snapshot returns a copy of the buffered entries in insertion order.
func (e *Emitter) Snapshot() []Entry {
	return e.buffer.Snapshot()
}

// Buffer returns the underlying log buffer.
func (e *Emitter) Buffer() *LogBuffer {
	return e.buffer
}

func (e *Emitter) publish(eventType string, payload interface{}) {
	if e.bus == nil {
		return
	}
	if err := e.bus.Publish(context.Background(), events.Event{
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}); err != nil && err != events.ErrBusClosed {
		log.Printf("Warning: publish %s: %v", eventType, err)
	}
}
