// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// barWidth is the character width of weight and influence bars.
const barWidth = 20

// View implements tea.Model.
func (model Model) View() string {
	if model.width == 0 {
		return "starting viewer..."
	}

	sections := []string{
		model.renderHeader(),
		model.renderModelPanel(),
		model.renderPlaybackPanel(),
		model.renderEmotionPanel(),
	}
	if len(model.state.AnimationQueue) > 0 {
		sections = append(sections, model.renderQueuePanel())
	}
	sections = append(sections, model.renderStatusBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (model Model) renderHeader() string {
	title := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Bold(true).
		Render("AgentRig Viewer")

	health := lipgloss.NewStyle().
		Foreground(model.theme.HealthyColor).
		Render("● connected")
	if !model.healthy {
		health = lipgloss.NewStyle().
			Foreground(model.theme.UnhealthyColor).
			Render("● disconnected (retrying)")
	}

	gap := model.width - lipgloss.Width(title) - lipgloss.Width(health)
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + health
}

func (model Model) renderModelPanel() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)

	var lines []string
	if model.status.ModelName == "" {
		lines = append(lines, faint.Render("no model attached"))
	} else {
		lines = append(lines, normal.Render(model.status.ModelName)+
			faint.Render("  ("+model.status.ModelSource+")"))
		transform := model.status.Transform
		lines = append(lines, faint.Render(fmt.Sprintf(
			"scale %.2f  position (%.2f, %.2f, %.2f)",
			transform.Scale, transform.X, transform.Y, transform.Z,
		)))
	}
	if model.status.Swapping {
		lines = append(lines, model.spinner.View()+lipgloss.NewStyle().
			Foreground(model.theme.SwapColor).
			Render("loading "+model.state.CurrentModel+"..."))
	}

	return model.panel("Model", lines)
}

func (model Model) renderPlaybackPanel() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)

	lines := []string{
		faint.Render("commanded: ") + normal.Render(model.state.CurrentAnimation),
	}
	if len(model.status.Actions) == 0 {
		lines = append(lines, faint.Render("no active actions"))
	}
	for _, action := range model.status.Actions {
		mode := "once"
		if action.Looping {
			mode = "loop"
		}
		label := fmt.Sprintf("%-16s %s %5.1fs %s",
			truncate(action.Clip.Name, 16),
			mode,
			action.Time,
			model.renderBar(action.Weight),
		)
		lines = append(lines, normal.Render(label))
	}

	return model.panel("Playback", lines)
}

func (model Model) renderEmotionPanel() string {
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)

	lines := []string{
		normal.Render(model.status.Emotion) +
			faint.Render(fmt.Sprintf("  intensity %.2f", model.status.Intensity)),
	}

	if model.showMorphs {
		if len(model.status.MorphNames) == 0 {
			lines = append(lines, faint.Render("model has no morph targets"))
		}
		for index, name := range model.status.MorphNames {
			weight := 0.0
			if index < len(model.status.MorphWeights) {
				weight = model.status.MorphWeights[index]
			}
			lines = append(lines, normal.Render(fmt.Sprintf("%-16s %s %.2f",
				truncate(name, 16),
				model.renderBar(weight),
				weight,
			)))
		}
	}

	return model.panel("Emotion", lines)
}

func (model Model) renderQueuePanel() string {
	normal := lipgloss.NewStyle().Foreground(model.theme.NormalText)
	faint := lipgloss.NewStyle().Foreground(model.theme.FaintText)

	var lines []string
	for index, entry := range model.state.AnimationQueue {
		detail := "once"
		if entry.Loop {
			detail = "loop"
		}
		if entry.Duration != nil {
			detail += fmt.Sprintf(", %.1fs", *entry.Duration)
		}
		lines = append(lines, normal.Render(fmt.Sprintf("%2d. %s", index+1, entry.Name))+
			faint.Render("  ("+detail+")"))
	}

	return model.panel("Queue", lines)
}

func (model Model) renderStatusBar() string {
	if model.logMessage != "" {
		color := model.theme.FaintText
		switch {
		case model.logLevel >= slog.LevelError:
			color = model.theme.ErrorColor
		case model.logLevel >= slog.LevelWarn:
			color = model.theme.WarnColor
		}
		return lipgloss.NewStyle().
			Foreground(color).
			Render(ansi.Truncate(model.logMessage, model.width, "…"))
	}

	return lipgloss.NewStyle().
		Foreground(model.theme.HelpText).
		Render("s sync now  ·  m morphs  ·  q quit")
}

// panel renders a titled bordered box sized to the terminal width.
func (model Model) panel(title string, lines []string) string {
	width := model.width - 2
	if width < 10 {
		width = 10
	}
	header := lipgloss.NewStyle().
		Foreground(model.theme.HeaderForeground).
		Render(title)
	body := strings.Join(lines, "\n")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(model.theme.BorderColor).
		Width(width).
		Render(header + "\n" + body)
}

// renderBar draws a fixed-width influence bar for a value in [0,1].
func (model Model) renderBar(value float64) string {
	if value < 0 {
		value = 0
	}
	if value > 1 {
		value = 1
	}
	filled := int(value*float64(barWidth) + 0.5)
	empty := barWidth - filled
	return lipgloss.NewStyle().Foreground(model.theme.BarFilled).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(model.theme.BarEmpty).Render(strings.Repeat("░", empty))
}

func truncate(text string, max int) string {
	if len(text) <= max {
		return text
	}
	if max <= 1 {
		return text[:max]
	}
	return text[:max-1] + "…"
}
