// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/intel-tui/internal/api"
	"github.com/jeranaias/intel-tui/internal/config"
	"github.com/jeranaias/intel-tui/internal/history"
	"github.com/jeranaias/intel-tui/internal/model"
	"github.com/jeranaias/intel-tui/internal/registry"
	"github.com/jeranaias/intel-tui/internal/session"
	"github.com/jeranaias/intel-tui/internal/ui/styles"
)

// Layout constants. Conservative values that leave room for borders.
const (
	headerHeight    = 2
	inputAreaHeight = 4
	statusBarHeight = 2
)

// persistTimeout bounds the background history writes.
const persistTimeout = 30 * time.Second

// Model is the chat view state.
type Model struct {
	conversation *model.Conversation
	tracker      *session.Tracker
	registry     *registry.Registry
	synchronizer *history.Synchronizer
	client       *api.Client

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	theme    *styles.Theme
	keys     KeyMap
	renderer *glamour.TermRenderer

	buffer    *StreamingBuffer
	cancelMgr *cancelManager

	// pendingUserContent is the question of the in-flight exchange,
	// held for persistence once the answer lands.
	pendingUserContent string

	deepMode       bool
	attachments    []string
	showTimestamps bool

	sidebarVisible bool
	sidebarIndex   int
	sidebarTitles  []string

	status string
	width  int
	height int
	ready  bool
}

// New creates the chat view.
func New(client *api.Client, reg *registry.Registry, sync *history.Synchronizer, theme *styles.Theme, cfg *config.Config) Model {
	input := textinput.New()
	input.Placeholder = "Ask for a report..."
	input.Prompt = "> "
	input.PromptStyle = theme.InputPrompt
	input.CharLimit = 4096
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 30,
	}

	return Model{
		conversation:   model.NewConversation(),
		tracker:        session.New(),
		registry:       reg,
		synchronizer:   sync,
		client:         client,
		input:          input,
		viewport:       viewport.New(80, 20),
		spinner:        sp,
		theme:          theme,
		keys:           DefaultKeyMap(),
		buffer:         NewStreamingBuffer(),
		cancelMgr:      newCancelManager(),
		deepMode:       cfg.UI.DeepMode,
		showTimestamps: cfg.UI.ShowTimestamps,
	}
}

// Init is the Bubble Tea initialization hook.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.refreshTitlesCmd())
}

// SetCancelFunc stores the cancel function for the in-flight request.
// Called by the program root when it spawns backend work.
func (m *Model) SetCancelFunc(fn context.CancelFunc) {
	m.cancelMgr.set(fn)
}

// Busy reports whether an exchange is running.
func (m Model) Busy() bool {
	return m.tracker.Busy()
}

// Update handles incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.tracker.Busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case StreamStartMsg:
		return m.handleStreamStart(msg)

	case StreamChunkMsg:
		return m.handleStreamChunk(msg)

	case StreamTickMsg:
		return m.handleStreamTick()

	case StreamDoneMsg:
		return m.handleStreamDone(msg)

	case StreamFailedMsg:
		return m.handleStreamFailed(msg)

	case ReportResultMsg:
		return m.handleReportResult(msg)

	case TurnsPersistedMsg:
		return m.handleTurnsPersisted(msg)

	case TitlesMsg:
		if msg.Err == nil {
			m.sidebarTitles = msg.Titles
			m.clampSidebarIndex()
		}
		return m, nil

	case TranscriptLoadedMsg:
		return m.handleTranscriptLoaded(msg)

	case ConversationDeletedMsg:
		return m.handleConversationDeleted(msg)

	case ConfigReloadedMsg:
		m.deepMode = msg.DeepMode
		m.status = "configuration reloaded"
		return m, nil

	case StatusMsg:
		m.status = msg.Text
		return m, nil
	}

	return m.updateComponents(msg)
}

func (m Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	if !m.sidebarVisible {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// ===== LIFECYCLE HANDLERS =====

func (m Model) handleStreamStart(msg StreamStartMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.conversation.StreamingID() {
		return m, nil
	}
	m.tracker.MarkStreaming()
	return m, tea.Batch(m.spinner.Tick, streamTickCmd())
}

func (m Model) handleStreamChunk(msg StreamChunkMsg) (tea.Model, tea.Cmd) {
	// Chunks for a turn that is no longer open belong to an abandoned
	// exchange and are dropped.
	if msg.MessageID != m.conversation.StreamingID() {
		return m, nil
	}
	m.buffer.Write(msg.Chunk)
	return m, nil
}

func (m Model) handleStreamTick() (tea.Model, tea.Cmd) {
	if !m.tracker.Busy() {
		return m, nil
	}
	id := m.conversation.StreamingID()
	if chunk, ok := m.buffer.Flush(); ok && id != "" {
		m.conversation.AppendToAssistant(id, chunk)
		m.updateViewport()
		m.viewport.GotoBottom()
	}
	return m, streamTickCmd()
}

func (m Model) handleStreamDone(msg StreamDoneMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.conversation.StreamingID() {
		return m, nil
	}

	if chunk, ok := m.buffer.ForceFlush(); ok {
		m.conversation.AppendToAssistant(msg.MessageID, chunk)
	}
	m.conversation.FinalizeAssistant(msg.MessageID)
	m.tracker.Complete(msg.MessageID)
	m.cancelMgr.cancel()

	answer := ""
	if turn := m.conversation.GetMessageByID(msg.MessageID); turn != nil {
		answer = turn.Content
	}

	m.status = ""
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, m.persistExchangeCmd(m.registry.Active(), m.pendingUserContent, answer)
}

func (m Model) handleStreamFailed(msg StreamFailedMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.conversation.StreamingID() {
		return m, nil
	}
	return m.failExchange(msg.MessageID)
}

func (m Model) handleReportResult(msg ReportResultMsg) (tea.Model, tea.Cmd) {
	if msg.MessageID != m.conversation.StreamingID() {
		return m, nil
	}
	if msg.Err != nil {
		return m.failExchange(msg.MessageID)
	}

	m.conversation.SetAssistantContent(msg.MessageID, msg.Report)
	m.conversation.FinalizeAssistant(msg.MessageID)
	m.tracker.Complete(msg.MessageID)
	m.cancelMgr.cancel()

	m.status = ""
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, m.persistExchangeCmd(m.registry.Active(), m.pendingUserContent, msg.Report)
}

// failExchange replaces the open turn with the fixed failure notice and
// closes out the exchange. The failed exchange still persists, so the
// stored transcript matches the screen.
func (m Model) failExchange(messageID string) (tea.Model, tea.Cmd) {
	m.buffer.Reset()
	m.conversation.FailAssistant(messageID, session.FailureMessage)
	m.tracker.Fail(messageID)
	m.cancelMgr.cancel()

	m.status = ""
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, m.persistExchangeCmd(m.registry.Active(), m.pendingUserContent, session.FailureMessage)
}

func (m Model) handleTurnsPersisted(msg TurnsPersistedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.status = "history sync failed; this exchange is local only"
		return m, nil
	}
	m.sidebarTitles = msg.Titles
	m.clampSidebarIndex()
	return m, nil
}

func (m Model) handleTranscriptLoaded(msg TranscriptLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.status = "failed to load conversation"
		return m, nil
	}

	m.tracker.Abandon()
	m.cancelMgr.cancel()
	m.buffer.Reset()
	m.conversation.ReplaceAll(model.FromWireMessages(msg.Messages))
	m.registry.SetActive(msg.Title)
	m.attachments = nil
	m.status = ""
	m.updateViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleConversationDeleted(msg ConversationDeletedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.status = "failed to delete conversation"
		return m, nil
	}

	m.sidebarTitles = m.registry.Known()
	m.clampSidebarIndex()

	if msg.WasActive {
		m.tracker.Abandon()
		m.cancelMgr.cancel()
		m.buffer.Reset()
		m.conversation.Clear()
		m.updateViewport()
	}
	m.status = "conversation deleted"
	return m, nil
}

// ===== KEYS AND RESIZE =====

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	viewportHeight := msg.Height - headerHeight - inputAreaHeight - statusBarHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}
	m.viewport.Width = msg.Width
	m.viewport.Height = viewportHeight

	inputWidth := msg.Width - 6 - len(m.input.Prompt)
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(min(msg.Width-4, 100)),
	)
	if err == nil {
		m.renderer = renderer
	}

	m.ready = true
	m.updateViewport()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.sidebarVisible {
		return m.handleSidebarKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.tracker.Busy() {
			m.cancelMgr.cancel()
			m.status = "cancelling..."
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.tracker.Busy() {
			m.cancelMgr.cancel()
			m.status = "cancelling..."
		}
		return m, nil

	case key.Matches(msg, m.keys.Sidebar):
		m.sidebarVisible = true
		m.sidebarIndex = 0
		return m, m.refreshTitlesCmd()

	case key.Matches(msg, m.keys.NewConvo):
		return m.startNewConversation()

	case key.Matches(msg, m.keys.ClearScreen):
		return m.startNewConversation()

	case key.Matches(msg, m.keys.ToggleDeep):
		m.deepMode = !m.deepMode
		return m, nil

	case key.Matches(msg, m.keys.Submit):
		return m.submitInput()
	}

	return m.updateComponents(msg)
}

// startNewConversation abandons any in-flight exchange and resets to an
// empty transcript with no identity. A late result for the old
// transcript is rejected by the turn ID check on arrival.
func (m Model) startNewConversation() (tea.Model, tea.Cmd) {
	m.tracker.Abandon()
	m.cancelMgr.cancel()
	m.buffer.Reset()
	m.conversation.Clear()
	m.registry.ClearActive()
	m.attachments = nil
	m.pendingUserContent = ""
	m.status = ""
	m.updateViewport()
	return m, nil
}

func (m *Model) clampSidebarIndex() {
	if m.sidebarIndex >= len(m.sidebarTitles) {
		m.sidebarIndex = len(m.sidebarTitles) - 1
	}
	if m.sidebarIndex < 0 {
		m.sidebarIndex = 0
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
