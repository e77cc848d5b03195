// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package settings persists user-editable key=value settings in a
// .env-style file, preserving comments, blank lines and untouched keys
// across rewrites.
package settings

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const defaultFileName = ".env"

// Store reads and merge-writes the settings file. It does not lock: two
// concurrent saves race and the last writer wins.
type Store struct {
	dir  string
	file string
}

// WriteError is returned by Save when the settings file cannot be written.
type WriteError struct {
	Op   string // "create data dir" or "write settings"
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// NewStore creates a store for dir/file. An empty file name means ".env".
func NewStore(dir, file string) *Store {
	if file == "" {
		file = defaultFileName
	}
	return &Store{dir: dir, file: file}
}

// Path returns the settings file path.
func (s *Store) Path() string {
	return filepath.Join(s.dir, s.file)
}

// Dir returns the directory holding the settings file.
func (s *Store) Dir() string {
	return s.dir
}

// Load parses the settings file. A missing or unreadable file yields an
// empty map; lines without '=' are skipped.
func (s *Store) Load() map[string]string {
	settings := make(map[string]string)

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: read settings: %v", err)
		}
		return settings
	}

	for _, line := range splitLines(string(data)) {
		key, value, ok := parseLine(line)
		if ok {
			settings[key] = value
		}
	}
	return settings
}

// Save merges updates into the settings file. Existing keys are rewritten in
// place, every other line passes through unchanged, and keys not already
// present are appended in sorted order.
func (s *Store) Save(updates map[string]string) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return &WriteError{Op: "create data dir", Path: s.dir, Err: err}
	}

	var lines []string
	if data, err := os.ReadFile(s.Path()); err == nil {
		lines = splitLines(string(data))
	}

	out := make([]string, 0, len(lines)+len(updates))
	updated := make(map[string]bool)
	for _, line := range lines {
		if key, _, ok := parseLine(line); ok {
			if value, found := updates[key]; found {
				out = append(out, key+"="+value)
				updated[key] = true
				continue
			}
		}
		out = append(out, line)
	}

	var added []string
	for key := range updates {
		if !updated[key] {
			added = append(added, key)
		}
	}
	sort.Strings(added)
	for _, key := range added {
		out = append(out, key+"="+updates[key])
	}

	var b strings.Builder
	for _, line := range out {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(s.Path(), []byte(b.String()), 0644); err != nil {
		return &WriteError{Op: "write settings", Path: s.Path(), Err: err}
	}
	return nil
}

// parseLine splits a key=value line at the first '='. Blank lines, comments
// and lines with no '=' report ok=false.
func parseLine(line string) (key, value string, ok bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false
	}
	key, value, ok = strings.Cut(trimmed, "=")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

// splitLines splits on '\n', dropping a trailing '\r' from each line and
// the empty element after a final newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// Keys returns the sorted keys of m.
func Keys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
