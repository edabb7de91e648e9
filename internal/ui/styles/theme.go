// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme bundles the lipgloss styles used across the chat interface.
type Theme struct {
	Profile termenv.Profile

	Header    lipgloss.Style
	StatusBar lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	SystemLabel    lipgloss.Style
	Timestamp      lipgloss.Style

	StreamCursor lipgloss.Style
	Failure      lipgloss.Style
	Muted        lipgloss.Style

	ModeQuick lipgloss.Style
	ModeDeep  lipgloss.Style
	Busy      lipgloss.Style

	SidebarBox      lipgloss.Style
	SidebarTitle    lipgloss.Style
	SidebarItem     lipgloss.Style
	SidebarSelected lipgloss.Style

	InputPrompt lipgloss.Style
}

// NewTheme builds the theme from the detected color profile.
func NewTheme() *Theme {
	return &Theme{
		Profile: termenv.ColorProfile(),

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan).
			Background(SurfaceDim).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1),

		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan),

		AssistantLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(Purple),

		SystemLabel: lipgloss.NewStyle().
			Foreground(Amber),

		Timestamp: lipgloss.NewStyle().
			Foreground(TextMuted),

		StreamCursor: lipgloss.NewStyle().
			Foreground(Purple),

		Failure: lipgloss.NewStyle().
			Foreground(Rose),

		Muted: lipgloss.NewStyle().
			Foreground(TextMuted),

		ModeQuick: lipgloss.NewStyle().
			Bold(true).
			Foreground(Emerald),

		ModeDeep: lipgloss.NewStyle().
			Bold(true).
			Foreground(Amber),

		Busy: lipgloss.NewStyle().
			Foreground(Amber),

		SidebarBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Overlay).
			Padding(0, 1),

		SidebarTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan),

		SidebarItem: lipgloss.NewStyle().
			Foreground(TextSecondary),

		SidebarSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(TextInverse).
			Background(Purple),

		InputPrompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(Cyan),
	}
}
