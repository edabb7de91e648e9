// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// appendRequest is the body for append_message.
type appendRequest struct {
	Title   string  `json:"title"`
	Message Message `json:"message"`
}

// titleRequest is the body for endpoints keyed by title alone.
type titleRequest struct {
	Title string `json:"title"`
}

// titlesResponse is the envelope returned by get_titles.
type titlesResponse struct {
	Titles []string `json:"titles"`
}

// AppendMessage persists one finished turn to the transcript stored
// under title. The backend creates the transcript on first append.
func (c *Client) AppendMessage(ctx context.Context, title string, msg Message) error {
	var ignored struct{}
	return c.postJSON(ctx, "append_message", appendRequest{Title: title, Message: msg}, &ignored)
}

// LoadMessage fetches the full transcript stored under title, in
// chronological order.
func (c *Client) LoadMessage(ctx context.Context, title string) ([]Message, error) {
	var messages []Message
	if err := c.postJSON(ctx, "load_message", titleRequest{Title: title}, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// GetTitles returns every conversation title the backend knows about.
func (c *Client) GetTitles(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("get_titles"), nil)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrTypePersistence,
			Message: "failed to create titles request",
			Cause:   err,
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ClientError{
			Type:    ErrTypePersistence,
			Message: "titles request failed",
			Cause:   fmt.Errorf("%w: %w", ErrBackendUnavailable, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, c.persistenceStatusError(resp)
	}

	var result titlesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrEmptyBody
		}
		return nil, &ClientError{
			Type:    ErrTypePersistence,
			Message: "failed to decode titles response",
			Cause:   err,
		}
	}
	return result.Titles, nil
}

// DeleteMessage removes the transcript stored under title.
func (c *Client) DeleteMessage(ctx context.Context, title string) error {
	var ignored struct{}
	return c.postJSON(ctx, "delete_message", titleRequest{Title: title}, &ignored)
}

// postJSON posts a JSON body to a history endpoint and decodes the
// response into out. Responses without a body leave out untouched.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return &ClientError{
			Type:    ErrTypePersistence,
			Message: "failed to encode request",
			Cause:   err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(path), bytes.NewReader(payload))
	if err != nil {
		return &ClientError{
			Type:    ErrTypePersistence,
			Message: "failed to create request",
			Cause:   err,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ClientError{
			Type:    ErrTypePersistence,
			Message: fmt.Sprintf("%s request failed", path),
			Cause:   fmt.Errorf("%w: %w", ErrBackendUnavailable, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.persistenceStatusError(resp)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ClientError{
			Type:    ErrTypePersistence,
			Message: "failed to read response",
			Cause:   err,
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &ClientError{
			Type:    ErrTypePersistence,
			Message: "failed to decode response",
			Cause:   err,
		}
	}
	return nil
}

func (c *Client) persistenceStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &ClientError{
		Type:    ErrTypePersistence,
		Message: fmt.Sprintf("backend returned status %d", resp.StatusCode),
		Cause:   fmt.Errorf("%s", strings.TrimSpace(string(body))),
	}
}
