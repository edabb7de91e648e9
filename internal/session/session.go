// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the lifecycle of a single in-flight exchange.
// A conversation runs at most one exchange at a time; a second send
// while one is active is rejected, never queued.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// FailureMessage is the fixed notice shown in place of an answer when
// an exchange fails for any reason. Backend error details never reach
// the transcript.
const FailureMessage = "Sorry, I encountered an error while generating your report. Please try again."

// ErrSessionActive is returned by Begin while an exchange is running.
var ErrSessionActive = errors.New("a request is already in progress")

// ===== MODE =====

// Mode selects how the answer arrives.
type Mode int

const (
	// ModeIncremental streams the answer chunk by chunk.
	ModeIncremental Mode = iota
	// ModeAtomic delivers a deep report in a single step.
	ModeAtomic
)

func (m Mode) String() string {
	switch m {
	case ModeIncremental:
		return "quick"
	case ModeAtomic:
		return "deep"
	default:
		return "unknown"
	}
}

// ===== STATUS =====

// Status is the lifecycle state of the current exchange.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusStreaming
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusStreaming:
		return "streaming"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ===== TRACKER =====

// Tracker guards the single-flight invariant and remembers which
// assistant turn the running exchange owns. Terminal transitions only
// apply when the caller presents the owning turn's ID, so results from
// an abandoned exchange cannot flip a newer one.
type Tracker struct {
	mu sync.Mutex

	id          string
	assistantID string
	mode        Mode
	status      Status
	startedAt   time.Time
	cancel      context.CancelFunc
}

// New creates an idle tracker.
func New() *Tracker {
	return &Tracker{}
}

// Begin starts a new exchange owning assistantID. Returns the exchange
// ID, or ErrSessionActive when one is already running.
func (t *Tracker) Begin(assistantID string, mode Mode) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == StatusPending || t.status == StatusStreaming {
		return "", ErrSessionActive
	}

	t.id = uuid.NewString()
	t.assistantID = assistantID
	t.mode = mode
	t.status = StatusPending
	t.startedAt = time.Now()
	t.cancel = nil
	return t.id, nil
}

// MarkStreaming records that the first chunk has arrived.
func (t *Tracker) MarkStreaming() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusPending {
		t.status = StatusStreaming
	}
}

// Complete ends the exchange successfully. Returns false when
// assistantID does not own the running exchange.
func (t *Tracker) Complete(assistantID string) bool {
	return t.finish(assistantID, StatusCompleted)
}

// Fail ends the exchange with a failure. Returns false when
// assistantID does not own the running exchange.
func (t *Tracker) Fail(assistantID string) bool {
	return t.finish(assistantID, StatusFailed)
}

func (t *Tracker) finish(assistantID string, status Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.assistantID == "" || t.assistantID != assistantID {
		return false
	}
	if t.status != StatusPending && t.status != StatusStreaming {
		return false
	}

	t.status = status
	t.assistantID = ""
	t.cancel = nil
	return true
}

// Abandon drops the running exchange without a terminal status change,
// used when the surrounding conversation is cleared or replaced. Late
// results are then rejected by the ID check.
func (t *Tracker) Abandon() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusPending || t.status == StatusStreaming {
		t.status = StatusIdle
	}
	t.assistantID = ""
	t.cancel = nil
}

// Busy reports whether an exchange is running.
func (t *Tracker) Busy() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status == StatusPending || t.status == StatusStreaming
}

// Status returns the current lifecycle state.
func (t *Tracker) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// AssistantID returns the turn owned by the running exchange, or empty.
func (t *Tracker) AssistantID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.assistantID
}

// ID returns the current exchange ID.
func (t *Tracker) ID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.id
}

// Mode returns the mode of the current exchange.
func (t *Tracker) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Elapsed returns how long the current exchange has been running.
func (t *Tracker) Elapsed() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.startedAt.IsZero() {
		return 0
	}
	return time.Since(t.startedAt)
}

// SetCancel stores the cancel function for the running exchange.
func (t *Tracker) SetCancel(cancel context.CancelFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancel = cancel
}

// Cancel aborts the running exchange's request, if any. The exchange
// still finishes through its normal terminal transition.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	cancel := t.cancel
	t.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
