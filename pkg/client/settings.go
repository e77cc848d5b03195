// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
)

// SettingsClient reads and writes the persisted KEY=VALUE settings.
type SettingsClient struct {
	c *Client
}

// Get returns the current settings. A missing file yields an empty map.
func (s *SettingsClient) Get(ctx context.Context) (map[string]string, error) {
	data, err := s.c.get(ctx, "/api/v1/settings")
	if err != nil {
		return nil, err
	}
	return parseSettings(data)
}

// Save merges updates into the settings file and returns the result.
// Keys not in updates are left as they are.
func (s *SettingsClient) Save(ctx context.Context, updates map[string]string) (map[string]string, error) {
	if updates == nil {
		updates = map[string]string{}
	}
	data, err := s.c.putJSON(ctx, "/api/v1/settings", updates)
	if err != nil {
		return nil, err
	}
	return parseSettings(data)
}

// SaveViaInvoke saves updates through the save_settings command.
func (s *SettingsClient) SaveViaInvoke(ctx context.Context, updates map[string]string) error {
	if updates == nil {
		updates = map[string]string{}
	}
	_, err := s.c.postJSON(ctx, "/api/v1/invoke/save_settings", map[string]interface{}{
		"settings": updates,
	})
	return err
}

func parseSettings(data json.RawMessage) (map[string]string, error) {
	settings := map[string]string{}
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	return settings, nil
}
