// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a slog record to the bubbletea model for
// display in the status bar.
type logRecordMsg struct {
	// Summary is the human-readable one-line message.
	Summary string

	// Level is the slog level for styling (warn vs error).
	Level slog.Level
}

// logRecordFadeMsg is sent after a delay to clear the log message
// from the status bar and restore the normal help text.
type logRecordFadeMsg struct{}

// logRecordFadeDelay is how long log messages stay visible in the
// status bar.
const logRecordFadeDelay = 5 * time.Second

// TUILogHandler is a slog.Handler that routes log records into a
// bubbletea program as messages, so subsystem warnings (failed polls,
// rejected deltas, slow downloads) surface in the status bar instead
// of corrupting the alternate screen.
//
// The handler must be created before the program starts. Call
// SetProgram once the tea.Program is created; records arriving before
// that are dropped.
type TUILogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
}

// NewTUILogHandler creates a handler that delivers records at or
// above the given level.
func NewTUILogHandler(level slog.Level) *TUILogHandler {
	return &TUILogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the bubbletea program that receives log messages.
// Safe to call from any goroutine; propagates to handlers derived via
// WithAttrs/WithGroup (they share the same atomic pointer).
func (handler *TUILogHandler) SetProgram(program *tea.Program) {
	handler.program.Store(program)
}

// Enabled implements slog.Handler.
func (handler *TUILogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

// Handle formats the record as "message (key=value, ...)" and sends
// it to the program. Records before SetProgram are silently dropped.
func (handler *TUILogHandler) Handle(_ context.Context, record slog.Record) error {
	program := handler.program.Load()
	if program == nil {
		return nil
	}

	summary := record.Message
	var attrParts []string
	for _, attr := range handler.attrs {
		attrParts = append(attrParts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		attrParts = append(attrParts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
		return true
	})
	if len(attrParts) > 0 {
		summary += " ("
		for index, part := range attrParts {
			if index > 0 {
				summary += ", "
			}
			summary += part
		}
		summary += ")"
	}

	program.Send(logRecordMsg{
		Summary: summary,
		Level:   record.Level,
	})
	return nil
}

// WithAttrs implements slog.Handler. The derived handler shares the
// same atomic program pointer.
func (handler *TUILogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TUILogHandler{
		level:   handler.level,
		program: handler.program,
		attrs:   append(slices.Clone(handler.attrs), attrs...),
	}
}

// WithGroup implements slog.Handler. Groups are flattened; the viewer
// status bar has no room for nesting.
func (handler *TUILogHandler) WithGroup(string) slog.Handler {
	return handler
}
