// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history mirrors finished turns to the backend transcript
// store. Persistence is best-effort: a failed append never rolls back
// the in-memory conversation, the turn is simply absent server-side.
package history

import (
	"context"
	"fmt"

	"github.com/jeranaias/intel-tui/internal/api"
	"github.com/jeranaias/intel-tui/internal/registry"
)

// Synchronizer appends finished turns to the backend and keeps the
// registry's view of known conversations current.
type Synchronizer struct {
	client   *api.Client
	registry *registry.Registry
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(client *api.Client, reg *registry.Registry) *Synchronizer {
	return &Synchronizer{client: client, registry: reg}
}

// Finalize persists one finished turn under title. On success the
// identity is confirmed and the registry refreshes from the backend.
func (s *Synchronizer) Finalize(ctx context.Context, title string, msg api.Message) error {
	if err := s.client.AppendMessage(ctx, title, msg); err != nil {
		return fmt.Errorf("failed to persist %s turn: %w", msg.Role, err)
	}
	s.registry.Confirm(title)
	if _, err := s.registry.Refresh(ctx); err != nil {
		return fmt.Errorf("turn persisted but title refresh failed: %w", err)
	}
	return nil
}

// FinalizeExchange persists a completed exchange, user turn first. The
// assistant turn is only attempted after the user turn lands, so the
// stored transcript never shows an answer without its question.
func (s *Synchronizer) FinalizeExchange(ctx context.Context, title, userContent, assistantContent string) error {
	if err := s.Finalize(ctx, title, api.Message{Role: "user", Content: userContent}); err != nil {
		return err
	}
	return s.Finalize(ctx, title, api.Message{Role: "assistant", Content: assistantContent})
}

// Load fetches the stored transcript for title.
func (s *Synchronizer) Load(ctx context.Context, title string) ([]api.Message, error) {
	return s.client.LoadMessage(ctx, title)
}
