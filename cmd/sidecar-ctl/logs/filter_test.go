// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package logs

import (
	"testing"

	"github.com/wingedpig/sidecar/pkg/client"
)

func TestFilterMatch(t *testing.T) {
	out := client.Entry{Text: "Server listening on :8000"}
	errEntry := client.Entry{Text: "Traceback (most recent call last):", IsError: true}

	tests := []struct {
		name  string
		entry client.Entry
		opts  FilterOptions
		want  bool
	}{
		{"no filters", out, FilterOptions{}, true},
		{"errors only drops stdout", out, FilterOptions{ErrorsOnly: true}, false},
		{"errors only keeps stderr", errEntry, FilterOptions{ErrorsOnly: true}, true},
		{"grep match", out, FilterOptions{GrepPattern: `listening on :\d+`}, true},
		{"grep miss", out, FilterOptions{GrepPattern: "Traceback"}, false},
		{"grep and errors", errEntry, FilterOptions{GrepPattern: "Traceback", ErrorsOnly: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := NewFilter(tt.opts)
			if err != nil {
				t.Fatalf("NewFilter failed: %v", err)
			}
			if got := f.Match(tt.entry); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterInvalidGrepPattern(t *testing.T) {
	if _, err := NewFilter(FilterOptions{GrepPattern: "[invalid"}); err == nil {
		t.Error("expected error for invalid regex")
	}
}

func TestFilterEntriesWithContext(t *testing.T) {
	entries := []client.Entry{
		{Text: "line 0"},
		{Text: "line 1"},
		{Text: "boom", IsError: true},
		{Text: "line 3"},
		{Text: "line 4"},
		{Text: "line 5"},
		{Text: "boom again", IsError: true},
	}

	t.Run("before and after", func(t *testing.T) {
		got, err := FilterEntries(entries, FilterOptions{GrepPattern: "boom", Before: 1, After: 1})
		if err != nil {
			t.Fatalf("FilterEntries failed: %v", err)
		}
		want := []string{"line 1", "boom", "line 3", "line 5", "boom again"}
		if len(got) != len(want) {
			t.Fatalf("got %d entries, want %d: %+v", len(got), len(want), got)
		}
		for i, w := range want {
			if got[i].Text != w {
				t.Errorf("got[%d] = %q, want %q", i, got[i].Text, w)
			}
		}
	})

	t.Run("overlapping context not duplicated", func(t *testing.T) {
		got, err := FilterEntries(entries, FilterOptions{GrepPattern: "boom", After: 4})
		if err != nil {
			t.Fatalf("FilterEntries failed: %v", err)
		}
		if len(got) != 5 {
			t.Errorf("got %d entries, want 5", len(got))
		}
	})

	t.Run("no match", func(t *testing.T) {
		got, err := FilterEntries(entries, FilterOptions{GrepPattern: "nothing", Before: 2})
		if err != nil {
			t.Fatalf("FilterEntries failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d entries, want 0", len(got))
		}
	})

	t.Run("errors only without grep", func(t *testing.T) {
		got, err := FilterEntries(entries, FilterOptions{ErrorsOnly: true})
		if err != nil {
			t.Fatalf("FilterEntries failed: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("got %d entries, want 2", len(got))
		}
	})
}
