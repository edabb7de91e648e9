// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements command-line parsing and the line-based chat
// interface used when a full TUI is not wanted.
package cli

import (
	"fmt"
	"os"
)

// Command identifies the top-level command.
type Command int

const (
	// CmdTUI launches the full-screen interface (default).
	CmdTUI Command = iota
	// CmdChat runs the line-based chat REPL.
	CmdChat
	// CmdSessions lists or manipulates stored conversations.
	CmdSessions
	// CmdVersion prints version information.
	CmdVersion
	// CmdHelp prints usage.
	CmdHelp
)

// Args holds parsed command-line arguments.
type Args struct {
	// Backend overrides the configured backend URL.
	Backend string
	// Deep starts the session in deep report mode.
	Deep bool
	// JSON emits machine-readable output where supported.
	JSON bool
	// Rest holds positional arguments after the command.
	Rest []string
}

const usageText = `intel - terminal client for the report backend

Usage:
  intel                 launch the full-screen interface
  intel chat            line-based chat in the current terminal
  intel sessions        list stored conversations
  intel sessions delete <title>
  intel version         print version information
  intel help            show this help

Options:
  --backend <url>       override the backend URL
  --deep                start in deep report mode
  --json                machine-readable output (sessions)

Environment:
  INTEL_BACKEND_URL     backend URL
  INTEL_TIMEOUT_SECONDS request timeout
  INTEL_DEEP_MODE       start in deep report mode
`

// Usage prints the usage text.
func Usage() {
	fmt.Fprint(os.Stderr, usageText)
}

// Parse interprets os.Args and returns the command plus its arguments.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

func parseArgs(raw []string) (Command, Args) {
	cmd := CmdTUI
	var positional []string
	args := Args{}

	i := 0
	if len(raw) > 0 {
		switch raw[0] {
		case "chat":
			cmd = CmdChat
			i = 1
		case "sessions":
			cmd = CmdSessions
			i = 1
		case "version", "--version", "-v":
			return CmdVersion, args
		case "help", "--help", "-h":
			return CmdHelp, args
		}
	}

	for ; i < len(raw); i++ {
		switch raw[i] {
		case "--backend":
			if i+1 < len(raw) {
				i++
				args.Backend = raw[i]
			}
		case "--deep":
			args.Deep = true
		case "--json":
			args.JSON = true
		case "--help", "-h":
			return CmdHelp, args
		default:
			positional = append(positional, raw[i])
		}
	}

	args.Rest = positional
	return cmd, args
}
