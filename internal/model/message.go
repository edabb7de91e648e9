// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/jeranaias/intel-tui/internal/util"
)

// ===== ROLES =====

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Analyst"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// ===== MESSAGE =====

// Message is a single turn in a conversation.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`

	// IsStreaming marks a turn whose content is still arriving.
	IsStreaming bool `json:"-"`

	// streamContent accumulates chunks while streaming, merged into
	// Content by FinalizeStream.
	streamContent strings.Builder
}

// NewUserMessage creates a finished user turn.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewAssistantMessage creates an empty assistant turn awaiting content.
func NewAssistantMessage() *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewSystemMessage creates a local notice that is never persisted.
func NewSystemMessage(content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      RoleSystem,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// AppendChunk adds arriving text to a streaming message.
func (m *Message) AppendChunk(chunk string) {
	if !m.IsStreaming {
		return
	}
	m.streamContent.WriteString(chunk)
}

// SetContent replaces the message body in one step and ends streaming.
// Used for deep reports and failure notices, which never show partials.
func (m *Message) SetContent(content string) {
	m.Content = content
	m.streamContent.Reset()
	m.IsStreaming = false
}

// FinalizeStream merges accumulated chunks into Content and clears the
// streaming flag.
func (m *Message) FinalizeStream() {
	if !m.IsStreaming {
		return
	}
	m.Content += m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false
}

// GetDisplayContent returns what should be rendered right now,
// including any chunks not yet finalized.
func (m *Message) GetDisplayContent() string {
	if m.IsStreaming {
		return m.Content + m.streamContent.String()
	}
	return m.Content
}

// IsEmpty returns true if the message has no visible content.
func (m *Message) IsEmpty() bool {
	return strings.TrimSpace(m.GetDisplayContent()) == ""
}

// Preview returns a truncated, single-line form of the content.
func (m *Message) Preview(maxLen int) string {
	content := strings.ReplaceAll(m.GetDisplayContent(), "\n", " ")
	return util.TruncateRunes(content, maxLen)
}

// generateID returns a random message identifier.
func generateID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "msg_" + hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return "msg_" + hex.EncodeToString(b)
}
