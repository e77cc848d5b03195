// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// BackendClient reports on the supervised backend process.
type BackendClient struct {
	c *Client
}

// Status returns the backend's current state.
func (b *BackendClient) Status(ctx context.Context) (*Status, error) {
	data, err := b.c.get(ctx, "/api/v1/backend")
	if err != nil {
		return nil, err
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to parse status: %w", err)
	}
	return &status, nil
}

// Version returns the shell and API versions.
func (b *BackendClient) Version(ctx context.Context) (*VersionInfo, error) {
	data, err := b.c.get(ctx, "/api/v1/version")
	if err != nil {
		return nil, err
	}

	var info VersionInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse version: %w", err)
	}
	return &info, nil
}
