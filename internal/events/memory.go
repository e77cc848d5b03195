// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ErrBusClosed is returned when operating on a closed bus.
var ErrBusClosed = errors.New("event bus is closed")

// ErrSubscriptionNotFound is returned when unsubscribing with invalid ID.
var ErrSubscriptionNotFound = errors.New("subscription not found")

const defaultAsyncBuffer = 100

// MemoryBusConfig configures the memory event bus.
type MemoryBusConfig struct {
	HistoryMaxEvents int
	HistoryMaxAge    time.Duration
}

// MemoryEventBus is an in-memory event bus implementation.
//
// Publishing never blocks on a slow subscriber: async subscribers own a
// bounded channel and an event that does not fit is dropped and counted.
type MemoryEventBus struct {
	mu            sync.RWMutex
	subscriptions map[SubscriptionID]*subscription
	history       *EventHistory
	matcher       *PatternMatcher
	closed        atomic.Bool
	dropped       atomic.Uint64
	wg            sync.WaitGroup
	nextID        uint64
	stopPruner    chan struct{}
}

type subscription struct {
	id      SubscriptionID
	pattern CompiledPattern
	handler EventHandler
	async   bool
	ch      chan Event
	stopCh  chan struct{}
}

// NewMemoryEventBus creates a new in-memory event bus.
func NewMemoryEventBus(cfg MemoryBusConfig) *MemoryEventBus {
	bus := &MemoryEventBus{
		subscriptions: make(map[SubscriptionID]*subscription),
		history: NewEventHistory(EventHistoryConfig{
			MaxEvents: cfg.HistoryMaxEvents,
			MaxAge:    cfg.HistoryMaxAge,
		}),
		matcher:    NewPatternMatcher(),
		stopPruner: make(chan struct{}),
	}

	// Prune aged-out history ten times per max age, within [1m, 1h]
	interval := cfg.HistoryMaxAge / 10
	switch {
	case interval < time.Minute:
		interval = time.Minute
	case interval > time.Hour:
		interval = time.Hour
	}
	bus.wg.Add(1)
	go bus.pruneLoop(interval)

	return bus
}

func (bus *MemoryEventBus) pruneLoop(interval time.Duration) {
	defer bus.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-bus.stopPruner:
			return
		case <-ticker.C:
			bus.history.Prune()
		}
	}
}

// Publish emits an event to all matching subscribers.
func (bus *MemoryEventBus) Publish(ctx context.Context, event Event) error {
	if bus.closed.Load() {
		return ErrBusClosed
	}

	// Stamp ID, version and timestamp if not set
	if event.ID == "" {
		event.ID = bus.generateID()
	}
	if event.Version == "" {
		event.Version = "1.0"
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Store in history
	bus.history.Add(event)

	// Notify subscribers outside the lock so a handler may subscribe
	for _, sub := range bus.matching(event.Type) {
		if sub.async {
			bus.enqueue(sub, event)
			continue
		}
		deliver(ctx, sub.handler, event, "Event handler")
	}

	return nil
}

// matching returns the subscriptions whose pattern matches eventType.
func (bus *MemoryEventBus) matching(eventType string) []*subscription {
	bus.mu.RLock()
	defer bus.mu.RUnlock()

	subs := make([]*subscription, 0, len(bus.subscriptions))
	for _, sub := range bus.subscriptions {
		if sub.pattern.Match(eventType) {
			subs = append(subs, sub)
		}
	}
	return subs
}

// enqueue hands an event to an async subscriber without blocking. A full
// buffer drops the event; drops are logged once per hundred.
func (bus *MemoryEventBus) enqueue(sub *subscription, event Event) {
	select {
	case sub.ch <- event:
	default:
		if bus.dropped.Add(1)%100 == 1 {
			log.Printf("EventBus: dropped %s - async subscriber buffer full", event.Type)
		}
	}
}

// deliver calls handler with panic protection.
func deliver(ctx context.Context, handler EventHandler, event Event, kind string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("%s panic for %s: %v", kind, event.Type, r)
		}
	}()
	handler(ctx, event)
}

// Subscribe registers a synchronous handler for events matching pattern.
func (bus *MemoryEventBus) Subscribe(pattern string, handler EventHandler) (SubscriptionID, error) {
	sub, err := bus.add(pattern, handler, 0)
	if err != nil {
		return "", err
	}
	return sub.id, nil
}

// SubscribeAsync registers an async handler with buffered channel.
func (bus *MemoryEventBus) SubscribeAsync(pattern string, handler EventHandler, bufferSize int) (SubscriptionID, error) {
	if bufferSize <= 0 {
		bufferSize = defaultAsyncBuffer
	}
	sub, err := bus.add(pattern, handler, bufferSize)
	if err != nil {
		return "", err
	}

	// Drain the buffer on a goroutine owned by the bus
	bus.wg.Add(1)
	go bus.runAsync(sub)

	return sub.id, nil
}

// add validates pattern and registers a subscription. A positive
// bufferSize makes it async.
func (bus *MemoryEventBus) add(pattern string, handler EventHandler, bufferSize int) (*subscription, error) {
	if bus.closed.Load() {
		return nil, ErrBusClosed
	}

	compiled, err := bus.matcher.Compile(pattern)
	if err != nil {
		return nil, err
	}

	sub := &subscription{
		id:      SubscriptionID(bus.generateID()),
		pattern: compiled,
		handler: handler,
	}
	if bufferSize > 0 {
		sub.async = true
		sub.ch = make(chan Event, bufferSize)
		sub.stopCh = make(chan struct{})
	}

	bus.mu.Lock()
	bus.subscriptions[sub.id] = sub
	bus.mu.Unlock()

	return sub, nil
}

func (bus *MemoryEventBus) runAsync(sub *subscription) {
	defer bus.wg.Done()

	for {
		select {
		case <-sub.stopCh:
			return
		case event := <-sub.ch:
			deliver(context.Background(), sub.handler, event, "Async event handler")
		}
	}
}

// Unsubscribe removes a subscription.
func (bus *MemoryEventBus) Unsubscribe(id SubscriptionID) error {
	bus.mu.Lock()
	sub, ok := bus.subscriptions[id]
	if !ok {
		bus.mu.Unlock()
		return ErrSubscriptionNotFound
	}
	delete(bus.subscriptions, id)
	bus.mu.Unlock()

	// Stop async handler if running
	if sub.async {
		close(sub.stopCh)
	}

	return nil
}

// History retrieves past events matching filter.
func (bus *MemoryEventBus) History(filter EventFilter) ([]Event, error) {
	return bus.history.Query(filter)
}

// Dropped returns how many events were discarded because an async
// subscriber's buffer was full.
func (bus *MemoryEventBus) Dropped() uint64 {
	return bus.dropped.Load()
}

// Close shuts down the event bus gracefully.
func (bus *MemoryEventBus) Close() error {
	if bus.closed.Swap(true) {
		return nil // Already closed
	}

	// Stop the background pruner
	close(bus.stopPruner)

	// Stop all async handlers
	bus.mu.Lock()
	for _, sub := range bus.subscriptions {
		if sub.async {
			close(sub.stopCh)
		}
	}
	bus.subscriptions = make(map[SubscriptionID]*subscription)
	bus.mu.Unlock()

	// Wait for goroutines to finish
	bus.wg.Wait()

	bus.history.Close()
	return nil
}

// generateID returns a random hex prefix joined to a sequence number, so
// IDs are unique and still sort by creation within one bus.
func (bus *MemoryEventBus) generateID() string {
	n := atomic.AddUint64(&bus.nextID, 1)
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b) + "-" + strconv.FormatUint(n, 10)
}
