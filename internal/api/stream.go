// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// StreamCallback receives each raw text chunk as it arrives from the
// backend. Chunks carry no framing; concatenating them in receipt order
// yields the full answer.
type StreamCallback func(chunk string)

// readBufferSize is the chunk granularity for streamed response bodies.
const readBufferSize = 4096

// StreamCompletion sends the query and prior turns to the streaming
// endpoint and invokes cb for every chunk of the response body until EOF.
// The query travels in the URL path and the history in a form field, so
// the backend can route on the query alone.
func (c *Client) StreamCompletion(ctx context.Context, query string, history []Message, cb StreamCallback) error {
	payload, err := json.Marshal(history)
	if err != nil {
		return &ClientError{
			Type:    ErrTypeProtocol,
			Message: "failed to encode conversation history",
			Cause:   err,
		}
	}

	form := url.Values{}
	form.Set("messages", string(payload))

	endpoint := c.endpoint("stream_completion", url.PathEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return &ClientError{
			Type:    ErrTypeTransport,
			Message: "failed to create streaming request",
			Cause:   err,
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return &ClientError{
			Type:    ErrTypeTransport,
			Message: "streaming request failed",
			Cause:   fmt.Errorf("%w: %w", ErrBackendUnavailable, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ClientError{
			Type:    ErrTypeTransport,
			Message: fmt.Sprintf("backend returned status %d", resp.StatusCode),
			Cause:   fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return &ClientError{
				Type:    ErrTypeTransport,
				Message: "stream cancelled",
				Cause:   ctx.Err(),
			}
		default:
		}

		n, err := resp.Body.Read(buf)
		if n > 0 {
			cb(string(buf[:n]))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ClientError{
				Type:    ErrTypeProtocol,
				Message: "stream ended unexpectedly",
				Cause:   err,
			}
		}
	}
}
