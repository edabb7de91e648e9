// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"time"

	"github.com/jeranaias/intel-tui/internal/api"
)

// Conversation is the in-memory transcript of the active session. All
// mutations that target the streaming assistant turn take the turn's ID
// and are rejected when the ID is stale, so late results from an
// abandoned exchange can never touch a newer transcript.
type Conversation struct {
	Messages  []*Message `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// streamingID is the ID of the assistant turn currently receiving
	// content, or empty when no turn is open.
	streamingID string
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		Messages:  []*Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AppendUser adds a finished user turn and returns it.
func (c *Conversation) AppendUser(content string) *Message {
	msg := NewUserMessage(content)
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	return msg
}

// AppendAssistantPlaceholder opens an empty assistant turn that the
// current exchange will fill. Its ID becomes the only ID accepted by
// the mutation methods until the turn is finalized.
func (c *Conversation) AppendAssistantPlaceholder() *Message {
	msg := NewAssistantMessage()
	c.Messages = append(c.Messages, msg)
	c.streamingID = msg.ID
	c.UpdatedAt = time.Now()
	return msg
}

// AppendSystem adds a local notice turn.
func (c *Conversation) AppendSystem(content string) *Message {
	msg := NewSystemMessage(content)
	c.Messages = append(c.Messages, msg)
	c.UpdatedAt = time.Now()
	return msg
}

// AppendToAssistant adds a chunk to the open assistant turn. Returns
// false without mutating anything when id does not match the open turn.
func (c *Conversation) AppendToAssistant(id, chunk string) bool {
	msg, ok := c.openAssistant(id)
	if !ok {
		return false
	}
	msg.AppendChunk(chunk)
	c.UpdatedAt = time.Now()
	return true
}

// SetAssistantContent replaces the open assistant turn's body in a
// single step. Returns false when id is stale.
func (c *Conversation) SetAssistantContent(id, content string) bool {
	msg, ok := c.openAssistant(id)
	if !ok {
		return false
	}
	msg.SetContent(content)
	c.UpdatedAt = time.Now()
	return true
}

// FinalizeAssistant closes the open assistant turn, merging any pending
// chunks. Returns false when id is stale.
func (c *Conversation) FinalizeAssistant(id string) bool {
	msg, ok := c.openAssistant(id)
	if !ok {
		return false
	}
	msg.FinalizeStream()
	c.streamingID = ""
	c.UpdatedAt = time.Now()
	return true
}

// FailAssistant replaces the open assistant turn with notice and closes
// it. The turn stays in the transcript. Returns false when id is stale.
func (c *Conversation) FailAssistant(id, notice string) bool {
	msg, ok := c.openAssistant(id)
	if !ok {
		return false
	}
	msg.SetContent(notice)
	c.streamingID = ""
	c.UpdatedAt = time.Now()
	return true
}

func (c *Conversation) openAssistant(id string) (*Message, bool) {
	if id == "" || id != c.streamingID {
		return nil, false
	}
	msg := c.GetMessageByID(id)
	if msg == nil {
		return nil, false
	}
	return msg, true
}

// StreamingID returns the ID of the open assistant turn, or empty.
func (c *Conversation) StreamingID() string {
	return c.streamingID
}

// ReplaceAll swaps the transcript wholesale, used when resuming a
// stored conversation. Any open assistant turn is forgotten, so a
// result still in flight for the old transcript is discarded on
// arrival.
func (c *Conversation) ReplaceAll(messages []*Message) {
	c.Messages = messages
	if c.Messages == nil {
		c.Messages = []*Message{}
	}
	c.streamingID = ""
	c.UpdatedAt = time.Now()
}

// Clear empties the transcript and forgets any open assistant turn.
func (c *Conversation) Clear() {
	c.Messages = []*Message{}
	c.streamingID = ""
	c.UpdatedAt = time.Now()
}

// GetMessageByID finds a message by ID, or nil.
func (c *Conversation) GetMessageByID(id string) *Message {
	for _, msg := range c.Messages {
		if msg.ID == id {
			return msg
		}
	}
	return nil
}

// Last returns the most recent message, or nil when empty.
func (c *Conversation) Last() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// FirstUserContent returns the content of the earliest user turn, or
// empty when none exists.
func (c *Conversation) FirstUserContent() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg.Content
		}
	}
	return ""
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true when the transcript has no messages.
func (c *Conversation) IsEmpty() bool {
	return len(c.Messages) == 0
}

// ToWireMessages converts the transcript to the backend wire format.
// System notices and the open assistant placeholder are local-only and
// excluded.
func (c *Conversation) ToWireMessages() []api.Message {
	wire := make([]api.Message, 0, len(c.Messages))
	for _, msg := range c.Messages {
		if msg.Role == RoleSystem || msg.IsStreaming {
			continue
		}
		wire = append(wire, api.Message{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return wire
}

// FromWireMessages builds transcript messages from the backend wire
// format, preserving order.
func FromWireMessages(wire []api.Message) []*Message {
	messages := make([]*Message, 0, len(wire))
	for _, m := range wire {
		msg := &Message{
			ID:        generateID(),
			Role:      Role(m.Role),
			Content:   m.Content,
			Timestamp: time.Now(),
		}
		messages = append(messages, msg)
	}
	return messages
}
