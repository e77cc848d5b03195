// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"
)

const configFile = "sidecar.hjson"

// runInit handles the "sidecar init" command.
func runInit(args []string) error {
	initFlags := flag.NewFlagSet("init", flag.ExitOnError)
	showHelp := initFlags.BoolP("help", "h", false, "Show help for init command")
	initFlags.Parse(args)

	if *showHelp {
		fmt.Println(`Usage: sidecar init [options]

Create a commented sidecar.hjson in the current directory.

Options:
  -h, --help    Show this help message

The command asks for:
  - Server port (defaults to 1420)
  - Backend executable name (defaults to python-backend)
  - Signal sent to stop the backend (defaults to SIGKILL)

Place the file next to the sidecar binary or run sidecar from this directory.`)
		return nil
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("%s already exists; remove it first or use a different directory", configFile)
	}

	answers := askInit(bufio.NewReader(os.Stdin), os.Stdout)

	if err := os.WriteFile(configFile, []byte(generateConfig(answers)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Println()
	fmt.Printf("Created %s\n", configFile)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit sidecar.hjson as needed")
	fmt.Println("  2. Run: ./sidecar")
	fmt.Println("  3. Check: sidecar-ctl status")
	fmt.Println()

	return nil
}

type initAnswers struct {
	Port       int
	Binary     string
	StopSignal string
}

func askInit(reader *bufio.Reader, out io.Writer) initAnswers {
	fmt.Fprintln(out, "Sidecar Configuration Setup")
	fmt.Fprintln(out, "===========================")
	fmt.Fprintln(out, "Press Enter to accept defaults shown in [brackets].")
	fmt.Fprintln(out)

	a := initAnswers{}
	port, err := strconv.Atoi(prompt(reader, out, "Server port", "1420"))
	if err != nil || port <= 0 || port > 65535 {
		port = 1420
	}
	a.Port = port
	a.Binary = prompt(reader, out, "Backend executable name", "python-backend")

	switch sig := strings.ToUpper(prompt(reader, out, "Stop signal (SIGTERM, SIGINT, SIGKILL)", "SIGKILL")); sig {
	case "SIGTERM", "SIGINT", "SIGKILL":
		a.StopSignal = sig
	default:
		a.StopSignal = "SIGKILL"
	}
	return a
}

func prompt(reader *bufio.Reader, out io.Writer, question, defaultVal string) string {
	if defaultVal != "" {
		fmt.Fprintf(out, "%s [%s]: ", question, defaultVal)
	} else {
		fmt.Fprintf(out, "%s: ", question)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

// escapeHJSONValue escapes a string for safe inclusion in an HJSON double-quoted value.
func escapeHJSONValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

func generateConfig(a initAnswers) string {
	var sb strings.Builder

	sb.WriteString(`{
  // =============================================================================
  // Sidecar Configuration
  // =============================================================================
  //
  // This is an HJSON file (JSON with comments and relaxed syntax).

  app: {
    // Reverse-DNS identifier; names the per-user data directory
    identifier: "com.sidecar.desktop"

    // Uncomment to pin the data directory instead
    // data_dir: "~/.sidecar"
  }

  // HTTP and WebSocket API used by the UI
  server: {
    host: "127.0.0.1"
    port: `)
	sb.WriteString(strconv.Itoa(a.Port))
	sb.WriteString(`
  }

  backend: {
    // Executable name; ".exe" is added on Windows
    binary: "`)
	sb.WriteString(escapeHJSONValue(a.Binary))
	sb.WriteString(`"

    // Looked up next to the sidecar binary, then in <folder>/, then in
    // <dist_dir>/<folder>/. Set path to skip discovery.
    folder: "python-backend"
    dist_dir: "python-dist"
    // path: "/opt/app/python-backend"

    // How the backend is asked to stop, and how long to wait before a kill
    stop_signal: "`)
	sb.WriteString(a.StopSignal)
	sb.WriteString(`"
    stop_timeout: "5s"
    kill_timeout: "5s"

    // Output lines kept for get_logs
    log_buffer: 1000
  }

  // KEY=VALUE settings file in the data directory
  settings: {
    file: ".env"
    watch: true
    debounce: "200ms"
  }

  events: {
    history: {
      max_events: 1000
      max_age: "1h"
    }
  }

  // Rotating log file for the sidecar itself
  logging: {
    file: "sidecar.log"
    max_size_mb: 10
    max_backups: 3
    max_age_days: 28
  }
}
`)

	return sb.String()
}
