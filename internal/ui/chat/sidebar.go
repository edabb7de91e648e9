// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/intel-tui/internal/util"
)

// handleSidebarKey routes keys while the conversation list is open.
func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel), key.Matches(msg, m.keys.Sidebar):
		m.sidebarVisible = false
		return m, nil

	case key.Matches(msg, m.keys.SidebarUp):
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return m, nil

	case key.Matches(msg, m.keys.SidebarDown):
		if m.sidebarIndex < len(m.sidebarTitles)-1 {
			m.sidebarIndex++
		}
		return m, nil

	case key.Matches(msg, m.keys.SidebarDel):
		if len(m.sidebarTitles) == 0 {
			return m, nil
		}
		title := m.sidebarTitles[m.sidebarIndex]
		return m, m.deleteConversationCmd(title)

	case key.Matches(msg, m.keys.Submit):
		if len(m.sidebarTitles) == 0 {
			m.sidebarVisible = false
			return m, nil
		}
		title := m.sidebarTitles[m.sidebarIndex]
		m.sidebarVisible = false
		return m, m.loadTranscriptCmd(title)
	}

	return m, nil
}

// renderSidebar draws the conversation list in place of the viewport.
func (m Model) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString(m.theme.SidebarTitle.Render("Conversations"))
	sb.WriteString("\n\n")

	if len(m.sidebarTitles) == 0 {
		sb.WriteString(m.theme.Muted.Render("No stored conversations yet."))
	}

	width := m.viewport.Width - 8
	if width < 10 {
		width = 10
	}
	for i, title := range m.sidebarTitles {
		label := util.TruncateWidth(title, width)
		if i == m.sidebarIndex {
			sb.WriteString(m.theme.SidebarSelected.Render(" " + label + " "))
		} else {
			sb.WriteString(m.theme.SidebarItem.Render(" " + label + " "))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(m.theme.Muted.Render(
		fmt.Sprintf("%d stored - enter resume, ctrl+d delete, esc close", len(m.sidebarTitles))))

	return m.theme.SidebarBox.Width(m.viewport.Width - 2).Render(sb.String())
}
