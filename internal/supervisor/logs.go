// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package supervisor

import "sync"

const (
	defaultLogBufferSize = 1000
	subscriberBuffer     = 100
)

// LogBuffer is a thread-safe ring buffer of output entries with
// subscription support. When full, the oldest entry is evicted.
type LogBuffer struct {
	mu          sync.RWMutex
	entries     []Entry
	capacity    int
	size        int
	head        int // next write position
	sequence    int64
	subscribers map[chan LogLine]struct{}
	subMu       sync.RWMutex
}

// LogLine is an entry delivered to a subscriber with its sequence number.
type LogLine struct {
	Entry    Entry
	Sequence int64
}

// NewLogBuffer creates a new log buffer with the given capacity.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = defaultLogBufferSize
	}
	return &LogBuffer{
		entries:     make([]Entry, capacity),
		capacity:    capacity,
		subscribers: make(map[chan LogLine]struct{}),
	}
}

// Append adds an entry, evicting the oldest one when the buffer is full,
// and notifies subscribers. It returns the entry's sequence number.
func (b *LogBuffer) Append(e Entry) int64 {
	b.mu.Lock()
	b.entries[b.head] = e
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
	b.sequence++
	seq := b.sequence
	b.mu.Unlock()

	// Notify subscribers (non-blocking)
	b.subMu.RLock()
	for ch := range b.subscribers {
		select {
		case ch <- LogLine{Entry: e, Sequence: seq}:
		default:
			// Channel full, skip (subscriber too slow)
		}
	}
	b.subMu.RUnlock()

	return seq
}

// Snapshot returns a copy of all entries in insertion order.
func (b *LogBuffer) Snapshot() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastLocked(b.size)
}

// SnapshotSequence returns the entries together with the sequence number of
// the newest one. A subscriber can drop live lines at or below that number,
// since the snapshot already holds them.
func (b *LogBuffer) SnapshotSequence() ([]Entry, int64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastLocked(b.size), b.sequence
}

// Last returns the last n entries in insertion order.
func (b *LogBuffer) Last(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastLocked(n)
}

func (b *LogBuffer) lastLocked(n int) []Entry {
	if n <= 0 || b.size == 0 {
		return []Entry{}
	}
	if n > b.size {
		n = b.size
	}

	result := make([]Entry, n)

	// head points to next write position, so most recent is at head-1
	start := (b.head - n + b.capacity) % b.capacity
	for i := 0; i < n; i++ {
		result[i] = b.entries[(start+i)%b.capacity]
	}
	return result
}

// Len returns the number of entries in the buffer.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Capacity returns the maximum number of entries kept.
func (b *LogBuffer) Capacity() int {
	return b.capacity
}

// Sequence returns the sequence number of the newest entry.
func (b *LogBuffer) Sequence() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sequence
}

// Clear removes all entries. The sequence keeps counting.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make([]Entry, b.capacity)
	b.size = 0
	b.head = 0
}

// Subscribe returns a channel that receives new entries.
// The channel has a buffer of 100 entries; a slow reader misses lines.
func (b *LogBuffer) Subscribe() chan LogLine {
	ch := make(chan LogLine, subscriberBuffer)
	b.subMu.Lock()
	b.subscribers[ch] = struct{}{}
	b.subMu.Unlock()
	return ch
}

// Unsubscribe removes a subscription channel and closes it.
func (b *LogBuffer) Unsubscribe(ch chan LogLine) {
	b.subMu.Lock()
	if _, ok := b.subscribers[ch]; ok {
		delete(b.subscribers, ch)
		close(ch)
	}
	b.subMu.Unlock()
}

// CloseAllSubscribers closes every subscriber channel.
func (b *LogBuffer) CloseAllSubscribers() {
	b.subMu.Lock()
	for ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = make(map[chan LogLine]struct{})
	b.subMu.Unlock()
}
