// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the viewer TUI. All colors use
// lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// UI chrome.
	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Connectivity indicator.
	HealthyColor   lipgloss.Color
	UnhealthyColor lipgloss.Color

	// Weight bars (animation fades and morph influences).
	BarFilled lipgloss.Color
	BarEmpty  lipgloss.Color

	// Swap-in-flight indicator.
	SwapColor lipgloss.Color

	// Status bar log levels.
	WarnColor  lipgloss.Color
	ErrorColor lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText:       lipgloss.Color("252"),
	FaintText:        lipgloss.Color("243"),
	HeaderForeground: lipgloss.Color("39"),
	BorderColor:      lipgloss.Color("238"),
	HelpText:         lipgloss.Color("241"),
	HealthyColor:     lipgloss.Color("42"),
	UnhealthyColor:   lipgloss.Color("196"),
	BarFilled:        lipgloss.Color("39"),
	BarEmpty:         lipgloss.Color("237"),
	SwapColor:        lipgloss.Color("214"),
	WarnColor:        lipgloss.Color("214"),
	ErrorColor:       lipgloss.Color("196"),
}
