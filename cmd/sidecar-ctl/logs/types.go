// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package logs filters and formats captured backend output for sidecar-ctl.
package logs

// FilterOptions contains all options for filtering log entries.
type FilterOptions struct {
	GrepPattern string // Regex pattern to match in the line text
	ErrorsOnly  bool   // Only stderr lines and shell-reported failures
	Before      int    // Number of lines to show before each match (-B)
	After       int    // Number of lines to show after each match (-A)
}

// OutputFormat specifies the output format for logs.
type OutputFormat int

const (
	FormatPlain OutputFormat = iota
	FormatJSON
	FormatJSONL
	FormatRaw
	FormatTemplate
)

// OutputOptions contains all options for formatting log output.
type OutputOptions struct {
	Format   OutputFormat
	Template string // Go template string for FormatTemplate
}
