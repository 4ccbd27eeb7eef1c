// Copyright (C) 2025 Forkbomb B.V.
// License: AGPL-3.0-only

package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/forkbombeu/emuctl/internal/device"
)

var (
	accentColor  = lipgloss.Color("#119EFF")
	lightColor   = lipgloss.Color("#ECEDEE")
	grayColor    = lipgloss.Color("#4A4A5A")
	successColor = lipgloss.Color("#4ADE80")
	errorColor   = lipgloss.Color("#F87171")
	warnColor    = lipgloss.Color("#FBBF24")
	mutedColor   = lipgloss.Color("#64748B")
	iosColor     = lipgloss.Color("#0A84FF")
	androidColor = lipgloss.Color("#34D399")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(grayColor).
			Padding(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(lightColor)

	runningStyle = lipgloss.NewStyle().
			Foreground(successColor)

	startingStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	stoppedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	warningStyle = lipgloss.NewStyle().
			Foreground(warnColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			MarginTop(1)

	helpKeyStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	iosBadge = lipgloss.NewStyle().
			Foreground(iosColor).
			Bold(true)

	androidBadge = lipgloss.NewStyle().
			Foreground(androidColor).
			Bold(true)
)

// PlatformBadge returns the styled short label for a platform.
func PlatformBadge(platform device.Platform) string {
	switch platform {
	case device.PlatformIOS:
		return iosBadge.Render("iOS")
	case device.PlatformAndroid:
		return androidBadge.Render("And")
	}
	return string(platform)
}

// StateDot returns the colored run-state indicator.
func StateDot(state device.State) string {
	switch state {
	case device.StateRunning:
		return runningStyle.Render("●")
	case device.StateStarting:
		return startingStyle.Render("◐")
	default:
		return stoppedStyle.Render("○")
	}
}
