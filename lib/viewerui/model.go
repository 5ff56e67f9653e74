// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package viewerui implements the terminal avatar viewer: a bubbletea
// program that renders the stage state at a fixed frame rate while a
// poll reconciler (running on its own goroutine) applies server
// deltas to the stage. The TUI never mutates avatar state itself; it
// is a pure observer of the stage and the poll client.
package viewerui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ValyrianTech/AgentRig/lib/avatar"
	"github.com/ValyrianTech/AgentRig/lib/poll"
	"github.com/ValyrianTech/AgentRig/lib/scene"
)

// DefaultFrameRate is the render cadence when the configuration does
// not specify one.
const DefaultFrameRate = 30

// maxFrameDelta caps the per-frame time step. A laptop resume or a
// stopped terminal would otherwise deliver one enormous delta and
// teleport every running animation to its end.
const maxFrameDelta = 250 * time.Millisecond

// frameTickMsg drives the render loop. Carries the tick's wall-clock
// time so the model can measure the real elapsed delta rather than
// assuming the nominal frame interval.
type frameTickMsg struct {
	at time.Time
}

// Model is the bubbletea model for the avatar viewer.
type Model struct {
	stage   *scene.Stage
	client  *poll.Client
	keys    KeyMap
	theme   Theme
	spinner spinner.Model

	frameInterval time.Duration
	lastFrame     time.Time

	width  int
	height int

	// Render-time snapshots, refreshed every frame tick.
	status  scene.Status
	state   avatar.State
	healthy bool

	showMorphs bool

	logMessage string
	logLevel   slog.Level
}

// ModelConfig configures a viewer Model.
type ModelConfig struct {
	// Stage is the display coordinator the poll client drives.
	// Required.
	Stage *scene.Stage

	// Client is the poll reconciler, already running on its own
	// goroutine. The model reads its snapshot and health. Required.
	Client *poll.Client

	// FrameRate is frames per second. Defaults to DefaultFrameRate.
	FrameRate int
}

// NewModel creates the viewer model.
func NewModel(config ModelConfig) Model {
	if config.Stage == nil {
		panic("viewerui.Model: Stage is required")
	}
	if config.Client == nil {
		panic("viewerui.Model: Client is required")
	}
	frameRate := config.FrameRate
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	swapSpinner := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(DefaultTheme.SwapColor)),
	)
	return Model{
		stage:         config.Stage,
		client:        config.Client,
		keys:          DefaultKeyMap,
		theme:         DefaultTheme,
		spinner:       swapSpinner,
		frameInterval: time.Second / time.Duration(frameRate),
		showMorphs:    true,
	}
}

// Init implements tea.Model. Starts the frame ticker and the swap
// spinner.
func (model Model) Init() tea.Cmd {
	return tea.Batch(scheduleFrame(model.frameInterval), model.spinner.Tick)
}

func scheduleFrame(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(at time.Time) tea.Msg {
		return frameTickMsg{at: at}
	})
}

// Update implements tea.Model.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height
		return model, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(message, model.keys.Quit):
			return model, tea.Quit
		case key.Matches(message, model.keys.Sync):
			return model, forceSync(model.client)
		case key.Matches(message, model.keys.TogglePanels):
			model.showMorphs = !model.showMorphs
			return model, nil
		}
		return model, nil

	case frameTickMsg:
		model = model.advanceFrame(message.at)
		return model, scheduleFrame(model.frameInterval)

	case spinner.TickMsg:
		var command tea.Cmd
		model.spinner, command = model.spinner.Update(message)
		return model, command

	case logRecordMsg:
		model.logMessage = message.Summary
		model.logLevel = message.Level
		return model, tea.Tick(logRecordFadeDelay, func(time.Time) tea.Msg {
			return logRecordFadeMsg{}
		})

	case logRecordFadeMsg:
		model.logMessage = ""
		return model, nil
	}
	return model, nil
}

// advanceFrame steps the mixer by the measured wall-clock delta and
// refreshes the render snapshots.
func (model Model) advanceFrame(now time.Time) Model {
	if !model.lastFrame.IsZero() {
		dt := now.Sub(model.lastFrame)
		if dt > maxFrameDelta {
			dt = maxFrameDelta
		}
		if dt > 0 {
			model.stage.Update(dt.Seconds())
		}
	}
	model.lastFrame = now

	model.status = model.stage.Snapshot()
	model.state = model.client.LastSeen()
	model.healthy = model.client.Healthy()
	return model
}

// forceSync runs one poll cycle off the UI goroutine. The result
// shows up on the next frame tick through the usual snapshots.
func forceSync(client *poll.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client.Sync(ctx)
		return nil
	}
}
