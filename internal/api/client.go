// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the HTTP client for the report backend.
//
// The backend exposes two generation endpoints (chunked streaming and
// atomic deep reports) plus a set of history endpoints that store full
// transcripts keyed by conversation title. All methods take a context
// and return typed errors (see ClientError).
package api

import (
	"net/http"
	"strings"
	"time"
)

// Message is the wire form of a single conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ClientConfig holds configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. "http://127.0.0.1:8000"
	BaseURL string
	// Timeout for non-streaming requests
	Timeout time.Duration
	// ConnectTimeout for initial connection
	ConnectTimeout time.Duration
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:        "http://127.0.0.1:8000",
		Timeout:        60 * time.Second,
		ConnectTimeout: 10 * time.Second,
	}
}

// Client is an HTTP client for the report backend.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	// streamClient has no overall timeout. Streaming responses and deep
	// reports can run for minutes; cancellation comes from the request
	// context instead.
	streamClient *http.Client
}

// NewClient creates a client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:8000"
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = 10 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		streamClient: &http.Client{},
	}
}

// BaseURL returns the configured backend URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// endpoint joins path segments onto the base URL.
func (c *Client) endpoint(parts ...string) string {
	base := strings.TrimRight(c.config.BaseURL, "/")
	return base + "/" + strings.Join(parts, "/")
}
