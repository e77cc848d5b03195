// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/wingedpig/sidecar/internal/api/handlers"
	"github.com/wingedpig/sidecar/internal/api/middleware"
	"github.com/wingedpig/sidecar/internal/api/version"
	"github.com/wingedpig/sidecar/internal/events"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Host string
	Port int // 0 picks a free port
}

// Dependencies holds all dependencies for API handlers.
type Dependencies struct {
	Commands    handlers.Commands
	Backend     handlers.BackendStatus
	Logs        handlers.LogSource // Optional, enables /logs/ws
	EventBus    events.EventBus
	EventBuffer int    // Per-connection WebSocket queue
	Version     string // Application version string
}

// NewRouter creates a new API router.
func NewRouter(deps Dependencies) *mux.Router {
	r := mux.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logging)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS)
	r.Use(version.Middleware)

	// API v1 routes
	api := r.PathPrefix("/api/v1").Subrouter()

	// The three UI commands, as REST resources
	logHandler := handlers.NewLogHandler(deps.Commands, deps.Logs)
	api.HandleFunc("/logs", logHandler.Get).Methods("GET")
	api.HandleFunc("/logs/ws", logHandler.Stream).Methods("GET")

	settingsHandler := handlers.NewSettingsHandler(deps.Commands)
	api.HandleFunc("/settings", settingsHandler.Get).Methods("GET")
	api.HandleFunc("/settings", settingsHandler.Put).Methods("PUT")

	// ...and by name, the way the UI invokes them
	invokeHandler := handlers.NewInvokeHandler(deps.Commands)
	api.HandleFunc("/invoke/{command}", invokeHandler.Invoke).Methods("POST")

	// Backend status
	if deps.Backend != nil {
		backendHandler := handlers.NewBackendHandler(deps.Backend, deps.Version)
		api.HandleFunc("/backend", backendHandler.Status).Methods("GET")
		api.HandleFunc("/version", backendHandler.Version).Methods("GET")
	}

	// Event handlers
	if deps.EventBus != nil {
		eventHandler := handlers.NewEventHandler(deps.EventBus, deps.EventBuffer)
		api.HandleFunc("/events", eventHandler.History).Methods("GET")
		api.HandleFunc("/events/ws", eventHandler.WebSocket).Methods("GET")
	}

	// Router middleware only runs on a matched route, so the fallbacks carry
	// CORS themselves. A preflight is a method mismatch on a known path.
	r.NotFoundHandler = middleware.CORS(http.HandlerFunc(handlers.NotFound))
	r.MethodNotAllowedHandler = middleware.CORS(http.HandlerFunc(handlers.MethodNotAllowed))

	return r
}

// Server represents the API server.
type Server struct {
	router *mux.Router
	cfg    ServerConfig

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig, deps Dependencies) *Server {
	return &Server{
		router: NewRouter(deps),
		cfg:    cfg,
	}
}

// Router returns the underlying router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Listen binds the configured address. Serve must be called afterwards.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.listener = ln
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Unlock()

	log.Printf("API server listening on http://%s", ln.Addr())
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve handles requests until Shutdown. It returns nil after a clean
// shutdown.
func (s *Server) Serve() error {
	s.mu.Lock()
	server, ln := s.server, s.listener
	s.mu.Unlock()
	if server == nil {
		return errors.New("server is not listening")
	}

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ListenAndServe starts the server.
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server, ln := s.server, s.listener
	s.mu.Unlock()
	if server == nil {
		return nil
	}
	// Serve may never have run; the listener is ours to close then.
	defer ln.Close()

	log.Println("Shutting down API server...")

	// Create a timeout context if none provided
	shutdownCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
	}

	return server.Shutdown(shutdownCtx)
}
