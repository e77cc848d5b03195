// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"fmt"
	"strings"
)

// PatternMatcher matches event types against subscription patterns.
//
// Supported forms:
//   - "*" matches everything
//   - "backend.*" matches "backend.started", "backend.exited", ...
//   - "python-*" matches "python-log" and "python-error"
//   - "*.changed" matches "settings.changed"
//   - anything else must match exactly
type PatternMatcher struct{}

// NewPatternMatcher creates a new pattern matcher.
func NewPatternMatcher() *PatternMatcher {
	return &PatternMatcher{}
}

// Match checks if an event type matches a pattern. A malformed pattern
// matches nothing.
func (pm *PatternMatcher) Match(eventType, pattern string) bool {
	if eventType == "" {
		return false
	}
	cp, err := pm.Compile(pattern)
	if err != nil {
		return false
	}
	return cp.Match(eventType)
}

// Compile validates a pattern and prepares it for matching.
func (pm *PatternMatcher) Compile(pattern string) (CompiledPattern, error) {
	if pattern == "" {
		return nil, fmt.Errorf("empty pattern")
	}

	cp := &compiledPattern{pattern: pattern}
	switch {
	case pattern == "*":
		cp.kind = matchAll
	case strings.HasSuffix(pattern, ".*") || strings.HasSuffix(pattern, "-*"):
		cp.kind = matchPrefix
		cp.fixed = strings.TrimSuffix(pattern, "*")
	case strings.HasPrefix(pattern, "*."):
		cp.kind = matchSuffix
		cp.fixed = strings.TrimPrefix(pattern, "*")
	default:
		cp.kind = matchExact
		cp.fixed = pattern
	}

	if strings.Contains(cp.fixed, "*") {
		return nil, fmt.Errorf("invalid pattern %q: only a leading \"*.\" or trailing \".*\"/\"-*\" wildcard is allowed", pattern)
	}
	return cp, nil
}

// CompiledPattern is a validated pattern.
type CompiledPattern interface {
	Match(eventType string) bool
}

type matchKind int

const (
	matchExact matchKind = iota
	matchAll
	matchPrefix
	matchSuffix
)

type compiledPattern struct {
	pattern string
	kind    matchKind
	fixed   string
}

func (cp *compiledPattern) Match(eventType string) bool {
	if eventType == "" {
		return false
	}
	switch cp.kind {
	case matchAll:
		return true
	case matchPrefix:
		return strings.HasPrefix(eventType, cp.fixed)
	case matchSuffix:
		return strings.HasSuffix(eventType, cp.fixed)
	default:
		return eventType == cp.fixed
	}
}
