// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/wingedpig/sidecar/internal/app"
	"github.com/wingedpig/sidecar/internal/config"
	"github.com/wingedpig/sidecar/internal/locator"
)

var (
	version = "0.1.0"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "init" {
		if err := runInit(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	var (
		configPath  string
		host        string
		port        int
		backendPath string
		dataDir     string
		showVersion bool
		debug       bool
	)

	flag.StringVarP(&configPath, "config", "c", "", "Path to config file (default: auto-detect)")
	flag.StringVar(&host, "host", "", "HTTP server host (overrides config)")
	flag.IntVar(&port, "port", 0, "HTTP server port (overrides config)")
	flag.StringVar(&backendPath, "backend", "", "Backend executable (skips discovery)")
	flag.StringVar(&dataDir, "data-dir", "", "Per-user data directory (overrides config)")
	flag.BoolVarP(&showVersion, "version", "v", false, "Show version")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.Parse()

	if showVersion {
		fmt.Printf("sidecar %s\n", version)
		os.Exit(0)
	}

	if configPath == "" {
		dirs := []string{locator.ExecutableDir()}
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
		configPath = config.NewLoader().FindConfig(dirs...)
	}

	application, err := app.New(app.Options{
		ConfigPath:  configPath,
		Host:        host,
		Port:        port,
		BackendPath: backendPath,
		DataDir:     dataDir,
		Debug:       debug,
		Version:     version,
	})
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}

	logFile := app.SetupLogging(application.Config().Logging, application.DataDir(), debug)
	defer logFile.Close()

	if configPath != "" {
		log.Printf("Using config: %s", configPath)
	} else {
		log.Printf("No config file found, using defaults")
	}

	if err := application.Run(context.Background()); err != nil {
		log.Printf("App error: %v", err)
		logFile.Close()
		os.Exit(1)
	}
}
