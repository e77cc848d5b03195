// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package app wires the shell together: it owns the event bus, the backend
// supervisor, the settings store and the API server, and runs the startup
// and shutdown lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wingedpig/sidecar/internal/api"
	"github.com/wingedpig/sidecar/internal/config"
	"github.com/wingedpig/sidecar/internal/events"
	"github.com/wingedpig/sidecar/internal/locator"
	"github.com/wingedpig/sidecar/internal/settings"
	"github.com/wingedpig/sidecar/internal/supervisor"
)

// App is the main application container. It is the one place that holds
// the backend handle and the log buffer; everything else receives them
// explicitly.
type App struct {
	mu sync.Mutex

	version         string
	config          *config.Config
	dataDir         string
	eventBus        *events.MemoryEventBus
	emitter         *supervisor.Emitter
	supervisor      *supervisor.Supervisor
	settings        *settings.Store
	settingsWatcher *settings.Watcher
	apiServer       *api.Server

	debug     bool
	serverErr chan error
	done      chan struct{}
	stopOnce  sync.Once
	shutdown  bool
}

// Options holds configuration options for the app.
type Options struct {
	ConfigPath  string         // Empty means defaults only
	Config      *config.Config // Used instead of loading ConfigPath when set
	Host        string
	Port        int
	BackendPath string // Explicit backend executable, bypasses discovery
	DataDir     string
	Debug       bool   // Trace lifecycle and settings events to the log
	Version     string // Application version string
}

// New creates a new App instance. Nothing is started until Run.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		loaded, err := config.NewLoader().LoadWithDefaults(context.Background(), opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// Command-line overrides
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port > 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.BackendPath != "" {
		cfg.Backend.Path = opts.BackendPath
	}
	if opts.DataDir != "" {
		cfg.App.DataDir = opts.DataDir
	}

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}

	app := &App{
		version:   opts.Version,
		config:    cfg,
		dataDir:   dataDir,
		debug:     opts.Debug,
		serverErr: make(chan error, 1),
		done:      make(chan struct{}),
	}

	app.eventBus = events.NewMemoryEventBus(events.MemoryBusConfig{
		HistoryMaxEvents: cfg.Events.History.MaxEvents,
		HistoryMaxAge:    config.ParseDuration(cfg.Events.History.MaxAge, time.Hour),
	})
	if app.debug {
		app.traceEvents()
	}

	app.emitter = supervisor.NewEmitter(supervisor.NewLogBuffer(cfg.Backend.LogBuffer), app.eventBus)

	exeDir := cfg.Backend.ExeDir
	if exeDir == "" {
		exeDir = locator.ExecutableDir()
	}
	loc := locator.New(exeDir, locator.Layout{
		Binary:  locator.BinaryName(cfg.Backend.Binary),
		Folder:  cfg.Backend.Folder,
		DistDir: cfg.Backend.DistDir,
	})

	app.supervisor = supervisor.New(supervisor.Options{
		Locator:      loc,
		Path:         cfg.Backend.Path,
		Emitter:      app.emitter,
		DataDir:      dataDir,
		StopSignal:   cfg.Backend.StopSignal,
		StopTimeout:  config.ParseDuration(cfg.Backend.StopTimeout, 5*time.Second),
		KillTimeout:  config.ParseDuration(cfg.Backend.KillTimeout, 5*time.Second),
		MaxLineBytes: cfg.Backend.MaxLineBytes,
	})

	app.settings = settings.NewStore(dataDir, cfg.Settings.File)

	app.apiServer = api.NewServer(api.ServerConfig{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, api.Dependencies{
		Commands:    app,
		Backend:     app.supervisor,
		Logs:        app.emitter.Buffer(),
		EventBus:    app.eventBus,
		EventBuffer: cfg.Events.SubscriberBuffer,
		Version:     opts.Version,
	})

	return app, nil
}

// Initialize prepares the data dir, the settings watcher and the API
// listener.
func (app *App) Initialize(ctx context.Context) error {
	cfg := app.config

	log.Printf("Using data directory: %s", app.dataDir)
	if err := os.MkdirAll(app.dataDir, 0755); err != nil {
		log.Printf("Warning: failed to create data directory: %v", err)
	}

	if cfg.Settings.IsWatching() {
		w, err := settings.NewWatcher(app.settings, app.eventBus, config.ParseDuration(cfg.Settings.Debounce, 200*time.Millisecond))
		if err != nil {
			log.Printf("Warning: settings watcher disabled: %v", err)
		} else {
			app.settingsWatcher = w
		}
	}

	if err := app.apiServer.Listen(); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// Start launches the backend and begins serving the API. A missing backend
// is logged and the shell keeps running without one; a backend that exists
// but cannot be spawned is returned as an error.
func (app *App) Start(ctx context.Context) error {
	if _, err := app.supervisor.Start(ctx); err != nil {
		if !errors.Is(err, supervisor.ErrBackendNotFound) {
			return fmt.Errorf("start backend: %w", err)
		}
		log.Printf("Warning: %v; continuing without a backend", err)
	}

	go func() {
		if err := app.apiServer.Serve(); err != nil {
			log.Printf("API server error: %v", err)
			app.serverErr <- err
		}
	}()

	return nil
}

// Run starts the app and blocks until shutdown.
func (app *App) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		app.Shutdown(context.Background())
		return err
	}

	if err := app.Start(ctx); err != nil {
		app.Shutdown(context.Background())
		return err
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case <-ctx.Done():
		log.Printf("Context cancelled, shutting down...")
	case <-app.done:
		log.Printf("Shutdown requested...")
	case err := <-app.serverErr:
		runErr = fmt.Errorf("api server: %w", err)
	}

	app.ExitRequested()
	if err := app.Exit(context.Background()); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// ExitRequested is the first shutdown hook: it stops the backend.
func (app *App) ExitRequested() {
	app.stopBackend()
}

// Exit is the final shutdown hook. It stops the backend again, which is a
// no-op unless ExitRequested was skipped, and then tears down the rest.
func (app *App) Exit(ctx context.Context) error {
	app.stopBackend()
	return app.Shutdown(ctx)
}

func (app *App) stopBackend() {
	cfg := app.config.Backend
	timeout := config.ParseDuration(cfg.StopTimeout, 5*time.Second) +
		config.ParseDuration(cfg.KillTimeout, 5*time.Second) + time.Second

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.supervisor.Stop(ctx); err != nil {
		log.Printf("Error stopping backend: %v", err)
	}
}

// Shutdown gracefully shuts down all components. Safe to call more than
// once.
func (app *App) Shutdown(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.shutdown {
		return nil
	}
	app.shutdown = true

	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Stop API server first to stop accepting new requests
	if app.apiServer != nil {
		if err := app.apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down API server: %v", err)
		}
	}

	if app.settingsWatcher != nil {
		app.settingsWatcher.Close()
	}

	if err := app.supervisor.Stop(shutdownCtx); err != nil {
		log.Printf("Error stopping backend: %v", err)
	}

	app.emitter.Buffer().CloseAllSubscribers()

	if app.eventBus != nil {
		app.eventBus.Close()
	}

	log.Println("Shutdown complete")
	return nil
}

// Stop signals the app to shut down. Safe to call multiple times.
func (app *App) Stop() {
	app.stopOnce.Do(func() {
		close(app.done)
	})
}

// Config returns the effective configuration.
func (app *App) Config() *config.Config {
	return app.config
}

// DataDir returns the per-user data directory.
func (app *App) DataDir() string {
	return app.dataDir
}

// EventBus returns the application's event bus.
func (app *App) EventBus() events.EventBus {
	return app.eventBus
}

// Supervisor returns the backend supervisor.
func (app *App) Supervisor() *supervisor.Supervisor {
	return app.supervisor
}

// Settings returns the settings store.
func (app *App) Settings() *settings.Store {
	return app.settings
}

// Addr returns the API server's bound address, or "" before Initialize.
func (app *App) Addr() string {
	return app.apiServer.Addr()
}
