// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// intel is a terminal client for the report backend. It streams quick
// answers chunk by chunk, requests deep reports as a single document,
// and mirrors every finished exchange to the backend's history store.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/intel-tui/internal/api"
	"github.com/jeranaias/intel-tui/internal/cli"
	"github.com/jeranaias/intel-tui/internal/config"
	"github.com/jeranaias/intel-tui/internal/history"
	"github.com/jeranaias/intel-tui/internal/registry"
	"github.com/jeranaias/intel-tui/internal/ui/chat"
	"github.com/jeranaias/intel-tui/internal/ui/styles"
)

// Version information, set at build time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// programRef lets request goroutines push messages into the running
// Bubble Tea program. Guarded by programMu because the program starts
// after the model is constructed.
var (
	programRef *tea.Program
	programMu  sync.Mutex
)

// sendToProgram delivers a message to the running program, dropping it
// when the program has already exited.
func sendToProgram(msg tea.Msg) {
	programMu.Lock()
	p := programRef
	programMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func main() {
	command, args := cli.Parse()

	switch command {
	case cli.CmdVersion:
		fmt.Printf("intel %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	case cli.CmdHelp:
		cli.Usage()
		os.Exit(0)
	case cli.CmdChat:
		os.Exit(cli.HandleChat(args))
	case cli.CmdSessions:
		os.Exit(cli.HandleSessions(args))
	default:
		os.Exit(runTUI(args))
	}
}

// runTUI starts the full-screen interface.
func runTUI(args cli.Args) int {
	cfg := config.Global()
	baseURL := cfg.Backend.BaseURL
	if args.Backend != "" {
		baseURL = args.Backend
	}
	if args.Deep {
		cfg.UI.DeepMode = true
	}

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:        baseURL,
		Timeout:        time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
		ConnectTimeout: time.Duration(cfg.Backend.ConnectTimeoutSeconds) * time.Second,
	})
	reg := registry.New(client)
	sync := history.NewSynchronizer(client, reg)
	theme := styles.NewTheme()

	m := rootModel{
		chat:   chat.New(client, reg, sync, theme, cfg),
		client: client,
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	programMu.Lock()
	programRef = p
	programMu.Unlock()

	watcher, err := config.NewWatcher(func(reloaded *config.Config) {
		sendToProgram(chat.ConfigReloadedMsg{
			BackendURL: reloaded.Backend.BaseURL,
			DeepMode:   reloaded.UI.DeepMode,
		})
	})
	if err == nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	programMu.Lock()
	programRef = nil
	programMu.Unlock()
	return 0
}

// rootModel wraps the chat view and owns the backend goroutines.
type rootModel struct {
	chat   chat.Model
	client *api.Client
}

func (m rootModel) Init() tea.Cmd {
	return m.chat.Init()
}

func (m rootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// The chat view emits StreamRequestMsg when the user sends a
	// question; the root runs the HTTP exchange so the view stays free
	// of network code.
	if req, ok := msg.(chat.StreamRequestMsg); ok {
		return m.startExchange(req)
	}

	updated, cmd := m.chat.Update(msg)
	m.chat = updated.(chat.Model)
	return m, cmd
}

func (m rootModel) View() string {
	return m.chat.View()
}

// startExchange spawns the backend call for one exchange. Results come
// back through sendToProgram as chat messages keyed by the turn ID, so
// stale results are discarded by the view.
func (m rootModel) startExchange(req chat.StreamRequestMsg) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	m.chat.SetCancelFunc(cancel)

	client := m.client
	cmd := func() tea.Msg {
		go func() {
			if req.Deep {
				report, err := client.Report(ctx, req.Query, req.History, req.Attachments)
				sendToProgram(chat.ReportResultMsg{MessageID: req.MessageID, Report: report, Err: err})
				return
			}

			err := client.StreamCompletion(ctx, req.Query, req.History, func(chunk string) {
				sendToProgram(chat.StreamChunkMsg{MessageID: req.MessageID, Chunk: chunk})
			})
			if err != nil {
				sendToProgram(chat.StreamFailedMsg{MessageID: req.MessageID, Err: err})
				return
			}
			sendToProgram(chat.StreamDoneMsg{MessageID: req.MessageID})
		}()

		return chat.StreamStartMsg{MessageID: req.MessageID}
	}

	return m, cmd
}
