// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/jeranaias/intel-tui/internal/model"
	"github.com/jeranaias/intel-tui/internal/session"
	"github.com/jeranaias/intel-tui/internal/util"
)

// View renders the chat interface.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteString("\n")
	if m.sidebarVisible {
		sb.WriteString(m.renderSidebar())
	} else {
		sb.WriteString(m.viewport.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.renderInput())
	sb.WriteString("\n")
	sb.WriteString(m.renderStatusBar())
	return sb.String()
}

func (m Model) renderHeader() string {
	title := m.registry.Active()
	if title == "" {
		title = "New Conversation"
	}
	// Leave room for the app name and the mode badge.
	titleWidth := m.width - 16
	if titleWidth < 10 {
		titleWidth = 10
	}
	title = util.TruncateWidth(title, titleWidth)

	mode := m.theme.ModeQuick.Render("[quick]")
	if m.deepMode {
		mode = m.theme.ModeDeep.Render("[deep]")
	}

	return m.theme.Header.Render("intel") + " " +
		m.theme.Muted.Render(title) + " " + mode
}

func (m Model) renderInput() string {
	return m.input.View()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if m.tracker.Busy() {
		verb := "streaming"
		if m.deepMode {
			verb = "compiling report"
		}
		parts = append(parts, m.theme.Busy.Render(m.spinner.View()+" "+verb))
	}
	if n := len(m.attachments); n > 0 {
		parts = append(parts, m.theme.Muted.Render(fmt.Sprintf("%d attached", n)))
	}
	if m.status != "" {
		parts = append(parts, m.theme.Muted.Render(m.status))
	}
	if len(parts) == 0 {
		parts = append(parts, m.theme.Muted.Render("enter send - /help commands"))
	}

	return m.theme.StatusBar.Render(strings.Join(parts, "  "))
}

// updateViewport re-renders the transcript into the viewport.
func (m *Model) updateViewport() {
	m.viewport.SetContent(m.renderMessages())
}

func (m *Model) renderMessages() string {
	if m.conversation.IsEmpty() {
		return m.theme.Muted.Render("\n  Ask a question to start a report.\n")
	}

	var sb strings.Builder
	for _, msg := range m.conversation.Messages {
		sb.WriteString(m.renderMessage(msg))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	var label string
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	case model.RoleAssistant:
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	default:
		label = m.theme.SystemLabel.Render(msg.Role.DisplayName())
	}
	sb.WriteString(label)

	if m.showTimestamps {
		sb.WriteString(" " + m.theme.Timestamp.Render(msg.Timestamp.Format("15:04")))
	}
	sb.WriteString("\n")

	content := msg.GetDisplayContent()
	switch {
	case msg.IsStreaming:
		sb.WriteString(content)
		sb.WriteString(m.theme.StreamCursor.Render("▌"))
	case msg.Role == model.RoleAssistant && content == session.FailureMessage:
		sb.WriteString(m.theme.Failure.Render(content))
	case msg.Role == model.RoleAssistant && m.renderer != nil && content != "":
		rendered, err := m.renderer.Render(content)
		if err != nil {
			sb.WriteString(content)
		} else {
			sb.WriteString(strings.TrimRight(rendered, "\n"))
		}
	default:
		sb.WriteString(content)
	}
	sb.WriteString("\n")

	return sb.String()
}
