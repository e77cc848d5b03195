// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// sidecar-ctl is a command-line tool for inspecting a running sidecar.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/wingedpig/sidecar/cmd/sidecar-ctl/logs"
	"github.com/wingedpig/sidecar/pkg/client"
)

var (
	version    = "0.1.0"
	apiURL     = "http://127.0.0.1:1420"
	jsonOutput = false

	apiClient *client.Client
)

func main() {
	if env := os.Getenv("SIDECAR_API"); env != "" {
		apiURL = strings.TrimSuffix(env, "/")
	}

	// Global flags may appear anywhere; strip them before dispatch.
	var filteredArgs []string
	for _, arg := range os.Args[1:] {
		if arg == "--json" || arg == "-json" {
			jsonOutput = true
		} else {
			filteredArgs = append(filteredArgs, arg)
		}
	}

	apiClient = client.New(apiURL)

	if len(filteredArgs) < 1 {
		printUsage()
		os.Exit(1)
	}

	cmd := filteredArgs[0]
	args := filteredArgs[1:]

	var err error
	switch cmd {
	case "status":
		err = cmdStatus(args)
	case "logs":
		err = cmdLogs(args)
	case "settings":
		err = cmdSettings(args)
	case "set":
		err = cmdSet(args)
	case "events":
		err = cmdEvents(args)
	case "version", "-v", "--version":
		err = cmdVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sidecar-ctl - Inspect a running sidecar

Usage:
  sidecar-ctl [--json] <command> [arguments]

Global Flags:
  --json         Output in JSON format

Environment:
  SIDECAR_API    Base URL of the sidecar API (default: http://127.0.0.1:1420)

Commands:
  status                   Show the backend process state
  version                  Show client, sidecar and API versions

  logs [options]           Show captured backend output
    -n N                   Only the last N lines
    -f                     Stream new lines as they arrive
    --errors               Only error lines
    --grep <pattern>       Filter by regex pattern
    -B N / -A N / -C N     Context lines around grep matches
    --format <fmt>         plain, raw, json, jsonl
    --template <tmpl>      Go template ({{.Text}}, {{.IsError}})

  settings                 Print the saved settings
  set KEY=VALUE ...        Save one or more settings

  events [options]         Show recent events
    -n N                   Number of events (default: 50)
    -f                     Stream live events
    --pattern <glob>       Event type pattern for -f (e.g. "python-*")`)
}

func printJSON(v interface{}) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}

// signalContext returns a context cancelled on Ctrl-C, for streaming commands.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func cmdStatus(args []string) error {
	status, err := apiClient.Backend.Status(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}

	pid := "-"
	if status.PID > 0 {
		pid = strconv.Itoa(status.PID)
	}
	errMsg := status.Error
	if errMsg == "" {
		errMsg = "-"
	}
	fmt.Printf("%-10s %-8s %-6s %s\n", "STATE", "PID", "EXIT", "ERROR")
	fmt.Println(strings.Repeat("-", 60))
	fmt.Printf("%-10s %-8s %-6d %s\n", status.State, pid, status.ExitCode, errMsg)
	if status.Path != "" {
		fmt.Printf("\nPath: %s\n", status.Path)
	}
	return nil
}

func cmdVersion() error {
	info, err := apiClient.Backend.Version(context.Background())
	if err != nil {
		fmt.Printf("sidecar-ctl %s\n", version)
		return err
	}
	if jsonOutput {
		printJSON(map[string]string{
			"client":      version,
			"server":      info.Version,
			"api_version": info.APIVersion,
		})
		return nil
	}
	fmt.Printf("sidecar-ctl %s\n", version)
	fmt.Printf("sidecar     %s (API %s)\n", info.Version, info.APIVersion)
	return nil
}

func cmdLogs(args []string) error {
	fs := flag.NewFlagSet("logs", flag.ContinueOnError)
	lines := fs.IntP("lines", "n", 0, "Only the last N lines")
	follow := fs.BoolP("follow", "f", false, "Stream new lines")
	errorsOnly := fs.Bool("errors", false, "Only error lines")
	grep := fs.String("grep", "", "Regex filter")
	before := fs.IntP("before", "B", 0, "Lines before each match")
	after := fs.IntP("after", "A", 0, "Lines after each match")
	around := fs.IntP("context", "C", 0, "Lines around each match")
	format := fs.String("format", "", "Output format")
	tmpl := fs.String("template", "", "Go template")
	if err := fs.Parse(args); err != nil {
		return err
	}

	filterOpts := logs.FilterOptions{
		GrepPattern: *grep,
		ErrorsOnly:  *errorsOnly,
		Before:      *before,
		After:       *after,
	}
	if *around > 0 {
		filterOpts.Before = *around
		filterOpts.After = *around
	}

	outputOpts := logs.OutputOptions{}
	if *tmpl != "" {
		outputOpts.Format = logs.FormatTemplate
		outputOpts.Template = *tmpl
	} else {
		f, err := logs.ParseOutputFormat(*format)
		if err != nil {
			return err
		}
		outputOpts.Format = f
	}
	if jsonOutput && outputOpts.Format == logs.FormatPlain {
		outputOpts.Format = logs.FormatJSON
	}

	formatter, err := logs.NewFormatter(os.Stdout, outputOpts)
	if err != nil {
		return err
	}

	if *follow {
		return followLogs(*lines, filterOpts, formatter, outputOpts)
	}

	entries, err := apiClient.Logs.Tail(context.Background(), *lines)
	if err != nil {
		return err
	}
	entries, err = logs.FilterEntries(entries, filterOpts)
	if err != nil {
		return err
	}
	return formatter.FormatEntries(entries)
}

func followLogs(lines int, filterOpts logs.FilterOptions, formatter *logs.Formatter, outputOpts logs.OutputOptions) error {
	if outputOpts.Format == logs.FormatJSON {
		return fmt.Errorf("-f cannot be combined with json output; use --format jsonl")
	}

	filter, err := logs.NewFilter(filterOpts)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	// With -n the tail comes from the HTTP endpoint and the stream skips
	// its own replay; otherwise the stream replays the whole buffer.
	snapshot := true
	if lines > 0 {
		entries, err := apiClient.Logs.Tail(ctx, lines)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if filter.Match(e) {
				if err := formatter.FormatEntry(e); err != nil {
					return err
				}
			}
		}
		snapshot = false
	}

	return apiClient.Logs.Stream(ctx, snapshot, func(msg client.LogMessage) error {
		if !filter.Match(msg.Entry) {
			return nil
		}
		return formatter.FormatEntry(msg.Entry)
	})
}

func cmdSettings(args []string) error {
	settings, err := apiClient.Settings.Get(context.Background())
	if err != nil {
		return err
	}
	printSettings(settings)
	return nil
}

func cmdSet(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: sidecar-ctl set KEY=VALUE [KEY=VALUE...]")
	}

	updates, err := parseAssignments(args)
	if err != nil {
		return err
	}

	settings, err := apiClient.Settings.Save(context.Background(), updates)
	if err != nil {
		return err
	}
	printSettings(settings)
	return nil
}

// parseAssignments parses KEY=VALUE arguments. The value may contain "=".
func parseAssignments(args []string) (map[string]string, error) {
	updates := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid setting %q (use KEY=VALUE)", arg)
		}
		updates[key] = value
	}
	return updates, nil
}

func printSettings(settings map[string]string) {
	if jsonOutput {
		printJSON(settings)
		return
	}
	if len(settings) == 0 {
		fmt.Println("No settings saved")
		return
	}
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s=%s\n", k, settings[k])
	}
}

func cmdEvents(args []string) error {
	fs := flag.NewFlagSet("events", flag.ContinueOnError)
	limit := fs.IntP("limit", "n", 50, "Number of events")
	follow := fs.BoolP("follow", "f", false, "Stream live events")
	pattern := fs.String("pattern", "", "Event type pattern")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *follow {
		ctx, cancel := signalContext()
		defer cancel()
		return apiClient.Events.Stream(ctx, *pattern, func(evt client.Event) error {
			if jsonOutput {
				data, err := json.Marshal(evt)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			printEvent(evt)
			return nil
		})
	}

	events, err := apiClient.Events.List(context.Background(), &client.ListOptions{Limit: *limit})
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(events)
		return nil
	}

	fmt.Printf("%-20s %-20s %s\n", "TIME", "TYPE", "DETAILS")
	fmt.Println(strings.Repeat("-", 80))
	for _, evt := range events {
		printEvent(evt)
	}
	return nil
}

func printEvent(evt client.Event) {
	fmt.Printf("%-20s %-20s %s\n",
		evt.Timestamp.Format("2006-01-02 15:04:05"),
		evt.Type,
		formatPayload(evt.Payload),
	)
}

// formatPayload renders an object payload as sorted key=value pairs and
// anything else, such as a log line, as is.
func formatPayload(payload interface{}) string {
	switch p := payload.(type) {
	case nil:
		return ""
	case string:
		return p
	case map[string]interface{}:
		return formatFields(p)
	default:
		return fmt.Sprintf("%v", p)
	}
}

func formatFields(payload map[string]interface{}) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, payload[k]))
	}
	return strings.Join(parts, " ")
}
