// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/jeranaias/intel-tui/internal/api"
)

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StreamRequestMsg asks the program root to run an exchange against the
// backend. The chat model emits it from submitInput; the root spawns
// the HTTP work and feeds results back as the messages below.
type StreamRequestMsg struct {
	SessionID   string
	MessageID   string
	Query       string
	History     []api.Message
	Deep        bool
	Attachments []string
}

// StreamStartMsg signals that the request is on the wire.
type StreamStartMsg struct {
	MessageID string
}

// StreamChunkMsg carries one chunk of a streaming answer.
type StreamChunkMsg struct {
	MessageID string
	Chunk     string
}

// StreamDoneMsg signals that a streaming answer finished cleanly.
type StreamDoneMsg struct {
	MessageID string
}

// ReportResultMsg carries a finished deep report, or the error that
// replaced it. Deep reports never arrive in pieces.
type ReportResultMsg struct {
	MessageID string
	Report    string
	Err       error
}

// StreamFailedMsg signals that a streaming answer failed.
type StreamFailedMsg struct {
	MessageID string
	Err       error
}

// StreamTickMsg drives periodic flushes of buffered chunks into the
// transcript at a capped frame rate.
type StreamTickMsg struct {
	Time time.Time
}

// =============================================================================
// PERSISTENCE MESSAGES
// =============================================================================

// TurnsPersistedMsg reports the outcome of persisting an exchange.
type TurnsPersistedMsg struct {
	Title  string
	Titles []string
	Err    error
}

// TitlesMsg delivers a refreshed conversation list.
type TitlesMsg struct {
	Titles []string
	Err    error
}

// TranscriptLoadedMsg delivers a stored transcript for resumption.
type TranscriptLoadedMsg struct {
	Title    string
	Messages []api.Message
	Err      error
}

// ConversationDeletedMsg reports a completed deletion.
type ConversationDeletedMsg struct {
	Title     string
	WasActive bool
	Err       error
}

// =============================================================================
// ENVIRONMENT MESSAGES
// =============================================================================

// ConfigReloadedMsg signals that the on-disk configuration changed.
type ConfigReloadedMsg struct {
	BackendURL string
	DeepMode   bool
}

// StatusMsg shows a transient notice in the status bar.
type StatusMsg struct {
	Text string
}
