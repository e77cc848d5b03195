// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package version implements date-based API versioning for the command API.
//
// Clients send the version they were written against in the Sidecar-Version
// header; when absent, the latest version is used. The first version keeps
// the command names and the [text, is_error] log tuple the UI already relies
// on, so any change to those shapes needs a new version.
package version

import "context"

// Version constants. Add new versions here when making breaking changes.
const (
	// Version20261018 is the initial API version.
	Version20261018 = "2026-10-18"
)

// LatestVersion is the current default API version.
// Update this when adding a new version.
var LatestVersion = Version20261018

// Header is the HTTP header used to specify the API version.
const Header = "Sidecar-Version"

// contextKey is the type used for context keys in this package.
type contextKey string

// versionKey is the context key for storing the API version.
const versionKey contextKey = "api-version"

// FromContext returns the API version from the context.
// Returns LatestVersion if not set.
func FromContext(ctx context.Context) string {
	v, ok := ctx.Value(versionKey).(string)
	if !ok || v == "" {
		return LatestVersion
	}
	return v
}

// WithContext returns a new context with the API version set.
func WithContext(ctx context.Context, version string) context.Context {
	return context.WithValue(ctx, versionKey, version)
}
