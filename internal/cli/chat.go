// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/peterh/liner"

	"github.com/jeranaias/intel-tui/internal/api"
	"github.com/jeranaias/intel-tui/internal/config"
	"github.com/jeranaias/intel-tui/internal/history"
	"github.com/jeranaias/intel-tui/internal/model"
	"github.com/jeranaias/intel-tui/internal/registry"
	"github.com/jeranaias/intel-tui/internal/session"
	"github.com/jeranaias/intel-tui/internal/ui/styles"
)

// persistTimeout bounds history calls made from the REPL.
const persistTimeout = 30 * time.Second

var (
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(styles.Cyan)
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(styles.Purple)
	noticeStyle    = lipgloss.NewStyle().Foreground(styles.Amber)
	failureStyle   = lipgloss.NewStyle().Foreground(styles.Rose)
	mutedStyle     = lipgloss.NewStyle().Foreground(styles.TextMuted)
)

// ChatCLI wraps liner with history persistence for the REPL.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates the REPL line editor and loads prompt history.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	historyFile := ""
	if dir, err := config.EnsureConfigDir(); err == nil {
		historyFile = filepath.Join(dir, "chat_history")
		if f, err := os.Open(historyFile); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}

	return &ChatCLI{line: line, historyFile: historyFile}
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	if c.historyFile != "" {
		if f, err := os.Create(c.historyFile); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// Prompt reads one line of input.
func (c *ChatCLI) Prompt(prompt string) (string, error) {
	text, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) != "" {
		c.line.AppendHistory(text)
	}
	return text, nil
}

// replState carries everything one REPL session needs.
type replState struct {
	client       *api.Client
	registry     *registry.Registry
	synchronizer *history.Synchronizer
	conversation *model.Conversation
	deep         bool
	attachments  []string
}

// HandleChat runs the line-based chat loop.
func HandleChat(args Args) int {
	cfg := config.Global()
	baseURL := cfg.Backend.BaseURL
	if args.Backend != "" {
		baseURL = args.Backend
	}

	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: baseURL})
	reg := registry.New(client)
	state := &replState{
		client:       client,
		registry:     reg,
		synchronizer: history.NewSynchronizer(client, reg),
		conversation: model.NewConversation(),
		deep:         args.Deep || cfg.UI.DeepMode,
	}

	cli := NewChatCLI()
	defer cli.Close()

	fmt.Println(mutedStyle.Render("intel chat - /help for commands, /quit to exit"))

	for {
		text, err := cli.Prompt(promptStyle.Render("you> "))
		if err != nil {
			// Ctrl+C or EOF ends the session.
			fmt.Println()
			return 0
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "/") {
			if done := state.command(text); done {
				return 0
			}
			continue
		}

		state.send(text)
	}
}

// send runs one exchange and prints the answer as it arrives.
func (s *replState) send(text string) {
	s.conversation.AppendUser(text)
	title := s.registry.ResolveIdentity(text)
	placeholder := s.conversation.AppendAssistantPlaceholder()
	wire := s.conversation.ToWireMessages()

	ctx := context.Background()
	fmt.Print(assistantStyle.Render("analyst> "))

	var answer string
	var err error
	if s.deep {
		answer, err = s.client.Report(ctx, text, wire, s.attachments)
		s.attachments = nil
		if err == nil {
			fmt.Println(answer)
		}
	} else {
		err = s.client.StreamCompletion(ctx, text, wire, func(chunk string) {
			fmt.Print(chunk)
			s.conversation.AppendToAssistant(placeholder.ID, chunk)
		})
		fmt.Println()
	}

	if err != nil {
		answer = session.FailureMessage
		fmt.Println(failureStyle.Render(answer))
		s.conversation.FailAssistant(placeholder.ID, answer)
	} else if s.deep {
		s.conversation.SetAssistantContent(placeholder.ID, answer)
		s.conversation.FinalizeAssistant(placeholder.ID)
	} else {
		s.conversation.FinalizeAssistant(placeholder.ID)
		answer = s.conversation.GetMessageByID(placeholder.ID).Content
	}

	persistCtx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.synchronizer.FinalizeExchange(persistCtx, title, text, answer); err != nil {
		fmt.Println(mutedStyle.Render("(history sync failed; this exchange is local only)"))
	}
}

// command handles slash commands. Returns true when the loop should end.
func (s *replState) command(text string) bool {
	fields := strings.Fields(text)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/new":
		s.conversation.Clear()
		s.registry.ClearActive()
		s.attachments = nil
		fmt.Println(noticeStyle.Render("started a new conversation"))

	case "/deep":
		s.deep = true
		fmt.Println(noticeStyle.Render("deep mode on"))

	case "/quick":
		s.deep = false
		fmt.Println(noticeStyle.Render("deep mode off"))

	case "/attach":
		if len(fields) < 2 {
			fmt.Println(mutedStyle.Render("usage: /attach <path>"))
			break
		}
		path := strings.Join(fields[1:], " ")
		if _, err := os.Stat(path); err != nil {
			fmt.Println(failureStyle.Render("cannot attach " + path))
			break
		}
		s.attachments = append(s.attachments, path)
		fmt.Println(noticeStyle.Render(fmt.Sprintf("attached %s (%d staged)", path, len(s.attachments))))

	case "/sessions":
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		titles, err := s.registry.Refresh(ctx)
		cancel()
		if err != nil {
			fmt.Println(failureStyle.Render("failed to list conversations"))
			break
		}
		if len(titles) == 0 {
			fmt.Println(mutedStyle.Render("no stored conversations"))
			break
		}
		for _, title := range titles {
			fmt.Println("  " + title)
		}

	case "/load":
		if len(fields) < 2 {
			fmt.Println(mutedStyle.Render("usage: /load <title>"))
			break
		}
		title := strings.Join(fields[1:], " ")
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		messages, err := s.synchronizer.Load(ctx, title)
		cancel()
		if err != nil {
			fmt.Println(failureStyle.Render("failed to load " + title))
			break
		}
		s.conversation.ReplaceAll(model.FromWireMessages(messages))
		s.registry.SetActive(title)
		fmt.Println(noticeStyle.Render(fmt.Sprintf("resumed %s (%d turns)", title, len(messages))))

	case "/help":
		fmt.Println(mutedStyle.Render(`/new /deep /quick /attach <path> /sessions /load <title> /quit`))

	default:
		fmt.Println(mutedStyle.Render("unknown command " + fields[0]))
	}
	return false
}
