// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

//go:build !windows

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/sidecar/internal/app"
	"github.com/wingedpig/sidecar/internal/config"
	"github.com/wingedpig/sidecar/pkg/client"
)

// tickingBackend prints a greeting on each stream and then one line every
// 50ms until it is signalled.
const tickingBackend = `#!/bin/sh
echo "hello from backend"
echo "warming up" >&2
i=0
while true; do
  echo "tick $i"
  i=$((i+1))
  sleep 0.05
done
`

type harness struct {
	app     *app.App
	client  *client.Client
	dataDir string
	done    chan error
}

func startSidecar(t *testing.T, script string) *harness {
	t.Helper()

	exeDir := t.TempDir()
	if script != "" {
		require.NoError(t, os.WriteFile(filepath.Join(exeDir, "backend"), []byte(script), 0755))
	}

	cfg := config.Defaults()
	cfg.Server.Port = 0
	cfg.App.DataDir = t.TempDir()
	cfg.Backend.ExeDir = exeDir
	cfg.Backend.Binary = "backend"
	cfg.Backend.StopSignal = "SIGTERM"
	cfg.Backend.StopTimeout = "2s"
	cfg.Settings.Debounce = "20ms"

	a, err := app.New(app.Options{Config: cfg, Version: "e2e"})
	require.NoError(t, err)

	h := &harness{app: a, dataDir: a.DataDir(), done: make(chan error, 1)}
	go func() { h.done <- a.Run(context.Background()) }()

	require.Eventually(t, func() bool { return a.Addr() != "" }, 5*time.Second, 10*time.Millisecond)
	h.client = client.New("http://"+a.Addr(), client.WithTimeout(5*time.Second))

	t.Cleanup(func() {
		a.Stop()
		select {
		case <-h.done:
		case <-time.After(10 * time.Second):
			t.Error("sidecar did not shut down")
		}
	})
	return h
}

func containsEntry(entries []client.Entry, want client.Entry) bool {
	for _, e := range entries {
		if e == want {
			return true
		}
	}
	return false
}

func TestBackendOutputCaptured(t *testing.T) {
	h := startSidecar(t, tickingBackend)
	ctx := context.Background()

	var entries []client.Entry
	require.Eventually(t, func() bool {
		var err error
		entries, err = h.client.Logs.Get(ctx)
		return err == nil &&
			containsEntry(entries, client.Entry{Text: "hello from backend"}) &&
			containsEntry(entries, client.Entry{Text: "warming up", IsError: true})
	}, 5*time.Second, 20*time.Millisecond)

	assert.True(t, strings.HasPrefix(entries[0].Text, "Starting backend from: "))
	assert.False(t, entries[0].IsError)

	viaInvoke, err := h.client.Logs.GetViaInvoke(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(viaInvoke), len(entries))

	tail, err := h.client.Logs.Tail(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, tail, 2)
}

func TestBackendStatusAndStop(t *testing.T) {
	h := startSidecar(t, tickingBackend)
	ctx := context.Background()

	var status *client.Status
	require.Eventually(t, func() bool {
		var err error
		status, err = h.client.Backend.Status(ctx)
		return err == nil && status.State == "running"
	}, 5*time.Second, 20*time.Millisecond)
	assert.Greater(t, status.PID, 0)
	assert.FileExists(t, filepath.Join(h.dataDir, "backend.pid"))

	info, err := h.client.Backend.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, "e2e", info.Version)
	assert.Equal(t, client.LatestVersion, info.APIVersion)

	h.app.Stop()
	select {
	case err := <-h.done:
		require.NoError(t, err)
		h.done <- err
	case <-time.After(10 * time.Second):
		t.Fatal("sidecar did not stop")
	}
	assert.NoFileExists(t, filepath.Join(h.dataDir, "backend.pid"))
}

func TestLogStream(t *testing.T) {
	h := startSidecar(t, tickingBackend)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var replayed, live int
	stop := errors.New("enough")
	err := h.client.Logs.Stream(ctx, true, func(msg client.LogMessage) error {
		if msg.Sequence == 0 {
			replayed++
			return nil
		}
		if strings.HasPrefix(msg.Entry.Text, "tick ") {
			live++
		}
		if live >= 3 {
			return stop
		}
		return nil
	})
	require.ErrorIs(t, err, stop)
	assert.Greater(t, replayed, 0)
}

func TestEventStream(t *testing.T) {
	h := startSidecar(t, tickingBackend)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stop := errors.New("enough")
	var got client.Event
	err := h.client.Events.Stream(ctx, "python-*", func(evt client.Event) error {
		got = evt
		return stop
	})
	require.ErrorIs(t, err, stop)
	assert.Contains(t, []string{"python-log", "python-error"}, got.Type)
	assert.IsType(t, "", got.Payload)
	assert.NotEmpty(t, got.Payload)

	history, err := h.client.Events.List(context.Background(), &client.ListOptions{
		Types: []string{"backend.started"},
	})
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.NotNil(t, history[0].Field("pid"))
}

func TestSettingsRoundTrip(t *testing.T) {
	h := startSidecar(t, tickingBackend)
	ctx := context.Background()

	settings, err := h.client.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, settings)

	settings, err = h.client.Settings.Save(ctx, map[string]string{"B": "2", "A": "1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A": "1", "B": "2"}, settings)

	require.NoError(t, h.client.Settings.SaveViaInvoke(ctx, map[string]string{"A": "updated"}))

	data, err := os.ReadFile(filepath.Join(h.dataDir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, "A=updated\nB=2\n", string(data))

	settings, err = h.client.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "updated", settings["A"])
}

func TestSettingsExternalEditPublishesEvent(t *testing.T) {
	h := startSidecar(t, tickingBackend)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	subscribed := make(chan struct{})
	result := make(chan client.Event, 1)
	go func() {
		// The first event proves the subscription is live.
		first := true
		h.client.Events.Stream(ctx, "*", func(evt client.Event) error {
			if first {
				first = false
				close(subscribed)
			}
			if evt.Type == "settings.changed" {
				result <- evt
				return errors.New("done")
			}
			return nil
		})
	}()

	select {
	case <-subscribed:
	case <-ctx.Done():
		t.Fatal("event stream never delivered")
	}

	require.NoError(t, os.WriteFile(filepath.Join(h.dataDir, ".env"), []byte("THEME=dark\n"), 0644))

	select {
	case evt := <-result:
		assert.Equal(t, []interface{}{"THEME"}, evt.Field("keys"))
	case <-ctx.Done():
		t.Fatal("no settings.changed event")
	}
}

func TestMissingBackendKeepsServing(t *testing.T) {
	h := startSidecar(t, "")
	ctx := context.Background()

	entries, err := h.client.Logs.Get(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.True(t, strings.HasPrefix(entries[0].Text, "Backend not found at: "))
	assert.True(t, entries[0].IsError)

	status, err := h.client.Backend.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, "missing", status.State)

	_, err = h.client.Settings.Save(ctx, map[string]string{"K": "V"})
	require.NoError(t, err)
}

func TestUnknownCommand(t *testing.T) {
	h := startSidecar(t, tickingBackend)

	resp, err := http.Post(h.client.BaseURL()+"/api/v1/invoke/restart_backend", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body struct {
		Error client.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "UNKNOWN_COMMAND", body.Error.Code)
}
