// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/intel-tui/internal/export"
	"github.com/jeranaias/intel-tui/internal/session"
)

// submitInput processes the input line: slash commands run locally,
// anything else starts an exchange against the backend.
func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}

	if strings.HasPrefix(text, "/") {
		m.input.Reset()
		return m.handleCommand(text)
	}

	// One exchange at a time. A second send is rejected outright, the
	// transcript gains nothing.
	if m.tracker.Busy() {
		m.status = "a report is already in progress"
		return m, nil
	}

	m.input.Reset()

	userMsg := m.conversation.AppendUser(text)
	m.registry.ResolveIdentity(userMsg.Content)
	placeholder := m.conversation.AppendAssistantPlaceholder()

	mode := session.ModeIncremental
	if m.deepMode {
		mode = session.ModeAtomic
	}
	exchangeID, err := m.tracker.Begin(placeholder.ID, mode)
	if err != nil {
		// Begin was checked via Busy above; losing the race still
		// leaves a consistent transcript, so just surface it.
		m.status = "a report is already in progress"
		return m, nil
	}

	m.pendingUserContent = text
	attachments := m.attachments
	m.attachments = nil
	m.status = ""

	history := m.conversation.ToWireMessages()

	m.updateViewport()
	m.viewport.GotoBottom()

	request := StreamRequestMsg{
		SessionID:   exchangeID,
		MessageID:   placeholder.ID,
		Query:       text,
		History:     history,
		Deep:        m.deepMode,
		Attachments: attachments,
	}

	return m, tea.Batch(
		m.spinner.Tick,
		func() tea.Msg { return request },
	)
}

// ===== SLASH COMMANDS =====

func (m Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(text)
	command := fields[0]
	args := fields[1:]

	switch command {
	case "/new", "/clear":
		return m.startNewConversation()

	case "/deep":
		m.deepMode = true
		m.status = "deep mode on"
		return m, nil

	case "/quick":
		m.deepMode = false
		m.status = "deep mode off"
		return m, nil

	case "/attach":
		return m.attachCommand(args)

	case "/attachments":
		if len(m.attachments) == 0 {
			m.status = "no attachments staged"
		} else {
			m.status = fmt.Sprintf("staged: %s", strings.Join(m.attachments, ", "))
		}
		return m, nil

	case "/detach":
		m.attachments = nil
		m.status = "attachments cleared"
		return m, nil

	case "/sessions":
		m.sidebarVisible = true
		m.sidebarIndex = 0
		return m, m.refreshTitlesCmd()

	case "/export":
		return m.exportCommand(args)

	case "/help":
		m.conversation.AppendSystem(helpText)
		m.updateViewport()
		m.viewport.GotoBottom()
		return m, nil

	case "/quit", "/exit":
		return m, tea.Quit

	default:
		m.status = fmt.Sprintf("unknown command %s", command)
		return m, nil
	}
}

func (m Model) attachCommand(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		m.status = "usage: /attach <path>"
		return m, nil
	}
	path := strings.Join(args, " ")
	if _, err := os.Stat(path); err != nil {
		m.status = fmt.Sprintf("cannot attach %s", path)
		return m, nil
	}
	m.attachments = append(m.attachments, path)
	m.status = fmt.Sprintf("attached %s (%d staged)", path, len(m.attachments))
	return m, nil
}

func (m Model) exportCommand(args []string) (tea.Model, tea.Cmd) {
	if m.conversation.IsEmpty() {
		m.status = "nothing to export"
		return m, nil
	}

	format := "md"
	if len(args) > 0 {
		format = args[0]
	}
	path := ""
	if len(args) > 1 {
		path = args[1]
	}

	var err error
	switch format {
	case "md", "markdown":
		if path == "" {
			path = export.DefaultPath("md")
		}
		err = export.Markdown(m.conversation, m.registry.Active(), path)
	case "json":
		if path == "" {
			path = export.DefaultPath("json")
		}
		err = export.JSON(m.conversation, m.registry.Active(), path)
	default:
		m.status = "usage: /export [md|json] [path]"
		return m, nil
	}

	if err != nil {
		m.status = "export failed"
		return m, nil
	}
	m.status = fmt.Sprintf("exported to %s", path)
	return m, nil
}

const helpText = `Commands:
  /new              start a fresh conversation
  /deep, /quick     switch report mode
  /attach <path>    stage a file for the next deep report
  /attachments      list staged files
  /detach           clear staged files
  /sessions         browse stored conversations
  /export [md|json] save the transcript to a file
  /quit             exit

Keys: ctrl+s conversations, ctrl+n new, ctrl+r toggle deep mode,
esc cancel the running report, ctrl+c quit`

// ===== ASYNC COMMANDS =====

// refreshTitlesCmd fetches the conversation list from the backend.
func (m Model) refreshTitlesCmd() tea.Cmd {
	reg := m.registry
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		titles, err := reg.Refresh(ctx)
		return TitlesMsg{Titles: titles, Err: err}
	}
}

// persistExchangeCmd mirrors a finished exchange to the backend, user
// turn first. Failures never touch the in-memory transcript.
func (m Model) persistExchangeCmd(title, userContent, assistantContent string) tea.Cmd {
	if title == "" {
		return nil
	}
	sync := m.synchronizer
	reg := m.registry
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		err := sync.FinalizeExchange(ctx, title, userContent, assistantContent)
		return TurnsPersistedMsg{Title: title, Titles: reg.Known(), Err: err}
	}
}

// loadTranscriptCmd fetches a stored conversation.
func (m Model) loadTranscriptCmd(title string) tea.Cmd {
	sync := m.synchronizer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		messages, err := sync.Load(ctx, title)
		return TranscriptLoadedMsg{Title: title, Messages: messages, Err: err}
	}
}

// deleteConversationCmd removes a stored conversation.
func (m Model) deleteConversationCmd(title string) tea.Cmd {
	reg := m.registry
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		wasActive, err := reg.Remove(ctx, title)
		return ConversationDeletedMsg{Title: title, WasActive: wasActive, Err: err}
	}
}
