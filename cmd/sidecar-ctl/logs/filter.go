// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"fmt"
	"regexp"

	"github.com/wingedpig/sidecar/pkg/client"
)

// Filter filters log entries based on the provided options.
type Filter struct {
	opts      FilterOptions
	grepRegex *regexp.Regexp
}

// NewFilter creates a new Filter with the given options.
func NewFilter(opts FilterOptions) (*Filter, error) {
	f := &Filter{opts: opts}

	if opts.GrepPattern != "" {
		re, err := regexp.Compile(opts.GrepPattern)
		if err != nil {
			return nil, fmt.Errorf("invalid grep pattern: %w", err)
		}
		f.grepRegex = re
	}

	return f, nil
}

// Match returns true if the entry matches all filter criteria.
func (f *Filter) Match(entry client.Entry) bool {
	if f.opts.ErrorsOnly && !entry.IsError {
		return false
	}
	return f.matchGrep(entry)
}

func (f *Filter) matchGrep(entry client.Entry) bool {
	if f.grepRegex == nil {
		return true
	}
	return f.grepRegex.MatchString(entry.Text)
}

// FilterEntries filters a slice of entries. If Before or After is set,
// lines surrounding each grep match are included too.
func FilterEntries(entries []client.Entry, opts FilterOptions) ([]client.Entry, error) {
	filter, err := NewFilter(opts)
	if err != nil {
		return nil, err
	}

	if opts.GrepPattern == "" || (opts.Before == 0 && opts.After == 0) {
		var result []client.Entry
		for _, entry := range entries {
			if filter.Match(entry) {
				result = append(result, entry)
			}
		}
		return result, nil
	}

	// Context mode: apply the non-grep criteria, then widen around matches.
	var base []client.Entry
	for _, entry := range entries {
		if !opts.ErrorsOnly || entry.IsError {
			base = append(base, entry)
		}
	}

	include := make(map[int]bool)
	for i, entry := range base {
		if !filter.matchGrep(entry) {
			continue
		}
		start := i - opts.Before
		if start < 0 {
			start = 0
		}
		end := i + opts.After
		if end >= len(base) {
			end = len(base) - 1
		}
		for j := start; j <= end; j++ {
			include[j] = true
		}
	}

	var result []client.Entry
	for i, entry := range base {
		if include[i] {
			result = append(result, entry)
		}
	}
	return result, nil
}
