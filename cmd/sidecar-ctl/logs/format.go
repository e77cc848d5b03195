// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/wingedpig/sidecar/pkg/client"
)

// Formatter formats log entries for output.
type Formatter struct {
	opts     OutputOptions
	template *template.Template
	writer   io.Writer
}

// NewFormatter creates a new Formatter with the given options.
func NewFormatter(w io.Writer, opts OutputOptions) (*Formatter, error) {
	f := &Formatter{
		opts:   opts,
		writer: w,
	}

	if opts.Format == FormatTemplate {
		if opts.Template == "" {
			return nil, fmt.Errorf("template format requires a template")
		}
		tmpl, err := template.New("log").Parse(opts.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid template: %w", err)
		}
		f.template = tmpl
	}

	return f, nil
}

// FormatEntry formats a single log entry.
func (f *Formatter) FormatEntry(entry client.Entry) error {
	switch f.opts.Format {
	case FormatJSON:
		return fmt.Errorf("use FormatEntries for JSON array format")
	case FormatJSONL:
		return f.formatJSONL(entry)
	case FormatRaw:
		_, err := fmt.Fprintln(f.writer, entry.Text)
		return err
	case FormatTemplate:
		return f.formatTemplate(entry)
	default:
		return f.formatPlain(entry)
	}
}

// FormatEntries formats multiple log entries.
func (f *Formatter) FormatEntries(entries []client.Entry) error {
	if f.opts.Format == FormatJSON {
		if entries == nil {
			entries = []client.Entry{}
		}
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(f.writer, "%s\n", data)
		return err
	}
	for _, entry := range entries {
		if err := f.FormatEntry(entry); err != nil {
			return err
		}
	}
	return nil
}

func (f *Formatter) formatPlain(entry client.Entry) error {
	stream := "out"
	if entry.IsError {
		stream = "ERR"
	}
	_, err := fmt.Fprintf(f.writer, "%s %s\n", stream, entry.Text)
	return err
}

func (f *Formatter) formatJSONL(entry client.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f.writer, "%s\n", data)
	return err
}

func (f *Formatter) formatTemplate(entry client.Entry) error {
	var sb strings.Builder
	if err := f.template.Execute(&sb, entry); err != nil {
		return fmt.Errorf("template error: %w", err)
	}
	out := sb.String()
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	_, err := io.WriteString(f.writer, out)
	return err
}

// ParseOutputFormat parses an output format string.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "plain", "text":
		return FormatPlain, nil
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "raw":
		return FormatRaw, nil
	default:
		return FormatPlain, fmt.Errorf("unknown output format: %q", s)
	}
}
