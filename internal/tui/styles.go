// SPDX-License-Identifier: MIT
//
// Package tui holds the bubbletea front-ends: an audio device picker and a
// live strip preview that doubles as a remote control for the renderer.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C6C6C"))

	meterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065"))
)
