// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package client provides a Go client library for the sidecar API.
//
// The sidecar supervises a single backend process and exposes its captured
// output, the persisted settings file, and the lifecycle event stream over
// HTTP and WebSocket.
//
// # Getting Started
//
//	c := client.New("http://127.0.0.1:1420")
//
//	entries, err := c.Logs.Get(ctx)
//	settings, err := c.Settings.Get(ctx)
//	err = c.Settings.Save(ctx, map[string]string{"API_KEY": "abc"})
//	status, err := c.Backend.Status(ctx)
//
// # Streaming
//
// Live output and events are delivered over WebSocket:
//
//	err := c.Logs.Stream(ctx, true, func(e client.LogMessage) error {
//		fmt.Println(e.Entry.Text)
//		return nil
//	})
//
// Returning an error from the callback stops the stream and is returned
// from Stream. Cancelling ctx stops it with ctx.Err().
//
// # API Versioning
//
// The version is sent via the Sidecar-Version HTTP header on each request.
// Use [WithVersion] to pin a version.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a sidecar API client.
type Client struct {
	baseURL    string
	version    string
	httpClient *http.Client

	// Logs provides access to the captured backend output.
	Logs *LogClient

	// Settings reads and writes the persisted settings file.
	Settings *SettingsClient

	// Backend reports the supervised process state.
	Backend *BackendClient

	// Events provides access to lifecycle and output events.
	Events *EventClient
}

// Option configures a Client.
type Option func(*Client)

// New creates a new client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		version: LatestVersion,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Logs = &LogClient{c: c}
	c.Settings = &SettingsClient{c: c}
	c.Backend = &BackendClient{c: c}
	c.Events = &EventClient{c: c}

	return c
}

// WithVersion pins the API version sent with each request.
func WithVersion(version string) Option {
	return func(c *Client) {
		c.version = version
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout on the default HTTP client.
// Streaming calls are bounded by their context instead.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// Version returns the API version used by the client.
func (c *Client) Version() string {
	return c.version
}

// BaseURL returns the base URL of the API.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiResponse is the standard API response envelope.
type apiResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error"`
}

// APIError is an error response from the sidecar API.
//
// Codes include NOT_FOUND, BAD_REQUEST, SETTINGS_ERROR, UNKNOWN_COMMAND
// and INTERNAL_ERROR.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body)
}

func (c *Client) putJSON(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.sendJSON(ctx, http.MethodPut, path, body)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(data))
}

// do performs an HTTP request and parses the response.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set(VersionHeader, c.version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return c.parseResponse(resp)
}

// parseResponse reads and parses an API response.
func (c *Client) parseResponse(resp *http.Response) (json.RawMessage, error) {
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return respBody, nil
	}

	if apiResp.Error != nil {
		return nil, apiResp.Error
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	return apiResp.Data, nil
}

// wsURL converts the base URL to a WebSocket URL for path.
func (c *Client) wsURL(path string) string {
	u := c.baseURL + path
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u
}
