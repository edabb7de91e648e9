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
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// reportResponse is the envelope returned by the deep report endpoint.
// Exactly one of the two fields is populated.
type reportResponse struct {
	Report string `json:"report"`
	Error  string `json:"error"`
}

// Report runs the deep report pipeline for the query and returns the
// finished report as a single string. The request is multipart so that
// attachment files can ride along with the history. A populated error
// field counts as a failure even on HTTP 200.
func (c *Client) Report(ctx context.Context, query string, history []Message, attachments []string) (string, error) {
	payload, err := json.Marshal(history)
	if err != nil {
		return "", &ClientError{
			Type:    ErrTypeProtocol,
			Message: "failed to encode conversation history",
			Cause:   err,
		}
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("messages", string(payload)); err != nil {
		return "", &ClientError{
			Type:    ErrTypeProtocol,
			Message: "failed to build report request",
			Cause:   err,
		}
	}
	for _, path := range attachments {
		if err := attachFile(writer, path); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", &ClientError{
			Type:    ErrTypeProtocol,
			Message: "failed to build report request",
			Cause:   err,
		}
	}

	endpoint := c.endpoint("report", url.PathEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", &ClientError{
			Type:    ErrTypeTransport,
			Message: "failed to create report request",
			Cause:   err,
		}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return "", &ClientError{
			Type:    ErrTypeTransport,
			Message: "report request failed",
			Cause:   fmt.Errorf("%w: %w", ErrBackendUnavailable, err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &ClientError{
			Type:    ErrTypeTransport,
			Message: fmt.Sprintf("backend returned status %d", resp.StatusCode),
			Cause:   fmt.Errorf("%s", strings.TrimSpace(string(raw))),
		}
	}

	var result reportResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		if errors.Is(err, io.EOF) {
			err = ErrEmptyBody
		}
		return "", &ClientError{
			Type:    ErrTypeProtocol,
			Message: "failed to decode report response",
			Cause:   err,
		}
	}
	if result.Error != "" {
		return "", &ClientError{
			Type:    ErrTypeApplication,
			Message: "backend could not generate the report",
			Cause:   errors.New(result.Error),
		}
	}
	return result.Report, nil
}

func attachFile(writer *multipart.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &ClientError{
			Type:    ErrTypeTransport,
			Message: fmt.Sprintf("failed to open attachment %s", path),
			Cause:   err,
		}
	}
	defer f.Close()

	part, err := writer.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return &ClientError{
			Type:    ErrTypeProtocol,
			Message: "failed to build report request",
			Cause:   err,
		}
	}
	if _, err := io.Copy(part, f); err != nil {
		return &ClientError{
			Type:    ErrTypeProtocol,
			Message: fmt.Sprintf("failed to read attachment %s", path),
			Cause:   err,
		}
	}
	return nil
}
