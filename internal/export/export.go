// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to local files.
// Writes are atomic so a crash mid-export never leaves a torn file.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/intel-tui/internal/model"
	"github.com/jeranaias/intel-tui/internal/util"
)

// ErrEmptyConversation is returned when there is nothing to export.
var ErrEmptyConversation = errors.New("conversation has no messages")

// DefaultPath builds a timestamped filename in the working directory.
func DefaultPath(extension string) string {
	return fmt.Sprintf("conversation-%s.%s", time.Now().Format("20060102-150405"), extension)
}

// Markdown writes the transcript as a Markdown document.
func Markdown(conv *model.Conversation, title, path string) error {
	if conv == nil || conv.IsEmpty() {
		return ErrEmptyConversation
	}

	var sb strings.Builder
	if title == "" {
		title = "Conversation"
	}
	sb.WriteString("# " + title + "\n\n")
	sb.WriteString("Exported " + time.Now().Format("2006-01-02 15:04") + "\n\n")

	for _, msg := range conv.Messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		sb.WriteString("## " + msg.Role.DisplayName() + "\n\n")
		sb.WriteString(msg.GetDisplayContent())
		sb.WriteString("\n\n")
	}

	return util.AtomicWriteFile(path, []byte(sb.String()), 0644)
}

// exportedMessage is the JSON form of one exported turn.
type exportedMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// exportedConversation is the JSON export envelope.
type exportedConversation struct {
	Title      string            `json:"title"`
	ExportedAt time.Time         `json:"exported_at"`
	Messages   []exportedMessage `json:"messages"`
}

// JSON writes the transcript as a JSON document.
func JSON(conv *model.Conversation, title, path string) error {
	if conv == nil || conv.IsEmpty() {
		return ErrEmptyConversation
	}

	out := exportedConversation{
		Title:      title,
		ExportedAt: time.Now(),
	}
	for _, msg := range conv.Messages {
		if msg.Role == model.RoleSystem {
			continue
		}
		out.Messages = append(out.Messages, exportedMessage{
			Role:      string(msg.Role),
			Content:   msg.GetDisplayContent(),
			Timestamp: msg.Timestamp,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}
	return util.AtomicWriteFile(path, data, 0644)
}
