// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wingedpig/sidecar/internal/events"
	"github.com/wingedpig/sidecar/internal/supervisor"
)

type fakeCommands struct {
	logs     []supervisor.Entry
	settings map[string]string
}

func (f *fakeCommands) GetLogs() []supervisor.Entry     { return f.logs }
func (f *fakeCommands) GetSettings() map[string]string { return f.settings }
func (f *fakeCommands) SaveSettings(m map[string]string) error {
	for k, v := range m {
		f.settings[k] = v
	}
	return nil
}

type fakeBackend struct{}

func (fakeBackend) Status() supervisor.Status {
	return supervisor.Status{State: supervisor.StateRunning, PID: 42}
}

func testDeps(t *testing.T) Dependencies {
	t.Helper()
	bus := events.NewMemoryEventBus(events.MemoryBusConfig{})
	t.Cleanup(func() { bus.Close() })
	return Dependencies{
		Commands: &fakeCommands{
			logs:     []supervisor.Entry{{Text: "ready"}},
			settings: map[string]string{},
		},
		Backend:  fakeBackend{},
		EventBus: bus,
		Version:  "test",
	}
}

func TestNewRouter_Routes(t *testing.T) {
	r := NewRouter(testDeps(t))

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{"GET", "/api/v1/logs", "", http.StatusOK},
		{"GET", "/api/v1/settings", "", http.StatusOK},
		{"PUT", "/api/v1/settings", `{"A":"1"}`, http.StatusOK},
		{"POST", "/api/v1/invoke/get_logs", "", http.StatusOK},
		{"POST", "/api/v1/invoke/nope", "", http.StatusNotFound},
		{"GET", "/api/v1/backend", "", http.StatusOK},
		{"GET", "/api/v1/version", "", http.StatusOK},
		{"GET", "/api/v1/events", "", http.StatusOK},
		{"GET", "/api/v1/logs/ws", "", http.StatusNotFound}, // no LogSource
		{"DELETE", "/api/v1/settings", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestNewRouter_OptionalRoutes(t *testing.T) {
	r := NewRouter(Dependencies{Commands: &fakeCommands{settings: map[string]string{}}})

	for _, path := range []string{"/api/v1/backend", "/api/v1/events"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestNewRouter_FallbacksWriteEnvelope(t *testing.T) {
	r := NewRouter(testDeps(t))

	tests := []struct {
		method string
		path   string
		want   int
		code   string
	}{
		{"GET", "/api/v1/nope", http.StatusNotFound, "NOT_FOUND"},
		{"GET", "/elsewhere", http.StatusNotFound, "NOT_FOUND"},
		{"GET", "/api/v1/invoke/get_logs", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"DELETE", "/api/v1/settings", http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			require.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

			var resp struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.code, resp.Error.Code)
			assert.Contains(t, resp.Error.Message, tt.path)
		})
	}
}

func TestNewRouter_CORSAndVersion(t *testing.T) {
	r := NewRouter(testDeps(t))

	req := httptest.NewRequest("OPTIONS", "/api/v1/settings", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/v1/version", nil)
	req.Header.Set("Sidecar-Version", "2026-10-18")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "test", resp.Data["version"])
	assert.Equal(t, "2026-10-18", resp.Data["api_version"])
}

func TestServer_Lifecycle(t *testing.T) {
	s := NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, testDeps(t))
	assert.Equal(t, "", s.Addr())
	require.Error(t, s.Serve())

	require.NoError(t, s.Listen())
	addr := s.Addr()
	require.NotEmpty(t, addr)

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.Serve() }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		var err error
		resp, err = http.Get("http://" + addr + "/api/v1/logs")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	select {
	case err := <-serveErr:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return")
	}
}

func TestServer_ShutdownWithoutServe(t *testing.T) {
	s := NewServer(ServerConfig{Host: "127.0.0.1", Port: 0}, testDeps(t))
	require.NoError(t, s.Shutdown(context.Background()))

	require.NoError(t, s.Listen())
	addr := s.Addr()
	require.NoError(t, s.Shutdown(context.Background()))

	// The port is released even though Serve never ran.
	ln, err := net.Listen("tcp", addr)
	require.NoError(t, err)
	ln.Close()
}

func TestServer_ListenAddressInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	port := ln.Addr().(*net.TCPAddr).Port
	s := NewServer(ServerConfig{Host: "127.0.0.1", Port: port}, testDeps(t))
	assert.Error(t, s.Listen())
}
