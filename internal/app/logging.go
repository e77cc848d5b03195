// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/wingedpig/sidecar/internal/config"
	"github.com/wingedpig/sidecar/internal/events"
)

// SetupLogging sends the standard logger to stderr and to a rotating file
// in dataDir. The returned closer flushes and closes the file.
func SetupLogging(cfg config.LoggingConfig, dataDir string, debug bool) io.Closer {
	path := cfg.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dataDir, path)
	}

	logFile := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.IsCompressed(),
	}

	log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	if debug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	}
	log.Printf("Logging to %s", path)

	return logFile
}

// traceEvents logs every event except backend output, which the emitter
// already mirrors line by line.
func (app *App) traceEvents() {
	_, err := app.eventBus.Subscribe("*", func(ctx context.Context, e events.Event) error {
		if e.Type == events.EventBackendLog || e.Type == events.EventBackendError {
			return nil
		}
		log.Printf("[event] %s %v", e.Type, e.Payload)
		return nil
	})
	if err != nil {
		log.Printf("Warning: event trace disabled: %v", err)
	}
}
