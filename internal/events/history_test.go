// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHistory_MaxEvents(t *testing.T) {
	h := NewEventHistory(EventHistoryConfig{MaxEvents: 3, MaxAge: time.Hour})

	now := time.Now()
	for i := 0; i < 5; i++ {
		h.Add(Event{ID: string(rune('a' + i)), Type: EventBackendLog, Timestamp: now.Add(time.Duration(i) * time.Millisecond)})
	}

	events, err := h.Query(EventFilter{})
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "c", events[0].ID)
	assert.Equal(t, "e", events[2].ID)
}

func TestEventHistory_TimeFilter(t *testing.T) {
	h := NewEventHistory(EventHistoryConfig{})

	base := time.Now()
	h.Add(Event{ID: "old", Type: EventBackendLog, Timestamp: base.Add(-time.Minute)})
	h.Add(Event{ID: "new", Type: EventBackendLog, Timestamp: base})

	events, err := h.Query(EventFilter{Since: base.Add(-time.Second)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "new", events[0].ID)

	events, err = h.Query(EventFilter{Until: base.Add(-time.Second)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "old", events[0].ID)
}

func TestEventHistory_Prune(t *testing.T) {
	h := NewEventHistory(EventHistoryConfig{MaxEvents: 10, MaxAge: time.Minute})

	h.Add(Event{Type: EventBackendLog, Timestamp: time.Now().Add(-2 * time.Minute)})
	h.Add(Event{Type: EventBackendLog, Timestamp: time.Now()})

	h.Prune()
	assert.Equal(t, 1, h.Len())
}
