// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package settings

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wingedpig/sidecar/internal/events"
)

// Watcher publishes settings.changed when the settings file is edited,
// whether by Save or by hand.
type Watcher struct {
	store     *Store
	bus       events.EventBus
	watcher   *fsnotify.Watcher
	debouncer *Debouncer

	mu      sync.Mutex
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// NewWatcher starts watching the store's directory. The directory is
// created if needed, since fsnotify cannot watch a path that does not exist.
func NewWatcher(store *Store, bus events.EventBus, debounce time.Duration) (*Watcher, error) {
	if err := os.MkdirAll(store.Dir(), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	// Watch the directory: editors replace files by rename, which drops a
	// watch on the file itself.
	if err := fsWatcher.Add(store.Dir()); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watch %s: %w", store.Dir(), err)
	}

	w := &Watcher{
		store:     store,
		bus:       bus,
		watcher:   fsWatcher,
		debouncer: NewDebouncer(debounce),
		closeCh:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.processEvents()

	return w, nil
}

// Close stops the watcher and releases resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.debouncer.Stop()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Warning: settings watcher: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != w.store.file {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	w.debouncer.Debounce(w.store.file, w.publish)
}

func (w *Watcher) publish() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed || w.bus == nil {
		return
	}

	keys := Keys(w.store.Load())
	w.bus.Publish(context.Background(), events.Event{
		Type:      events.EventSettingsChanged,
		Timestamp: time.Now(),
		Payload: map[string]interface{}{
			"path": w.store.Path(),
			"keys": keys,
		},
	})
}
