// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the avatar viewer TUI.
type KeyMap struct {
	// Sync forces an immediate poll instead of waiting for the ticker.
	Sync key.Binding

	// TogglePanels cycles visibility of the morph detail panel.
	TogglePanels key.Binding

	Quit key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Sync: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "sync now"),
	),
	TogglePanels: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "morphs"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}
