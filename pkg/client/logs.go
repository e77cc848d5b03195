// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// LogClient provides access to the captured backend output.
//
//	entries, err := c.Logs.Get(ctx)
type LogClient struct {
	c *Client
}

// Get returns the full retained log in arrival order.
func (l *LogClient) Get(ctx context.Context) ([]Entry, error) {
	return l.Tail(ctx, 0)
}

// Tail returns the last n retained entries. n <= 0 returns all of them.
func (l *LogClient) Tail(ctx context.Context, n int) ([]Entry, error) {
	path := "/api/v1/logs"
	if n > 0 {
		path += "?lines=" + strconv.Itoa(n)
	}

	data, err := l.c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse logs: %w", err)
	}
	return entries, nil
}

// GetViaInvoke fetches the log through the get_logs command.
func (l *LogClient) GetViaInvoke(ctx context.Context) ([]Entry, error) {
	data, err := l.c.postJSON(ctx, "/api/v1/invoke/get_logs", struct{}{})
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse logs: %w", err)
	}
	return entries, nil
}

// Stream calls fn for each log frame. With snapshot set the retained log
// is replayed first. Stream blocks until ctx is done or fn returns an error.
func (l *LogClient) Stream(ctx context.Context, snapshot bool, fn func(LogMessage) error) error {
	path := "/api/v1/logs/ws"
	if !snapshot {
		path += "?snapshot=false"
	}

	return l.c.stream(ctx, path, func(data json.RawMessage) error {
		var msg LogMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to parse log message: %w", err)
		}
		return fn(msg)
	})
}
