// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ValyrianTech/AgentRig/lib/scene"
)

// StageHandler adapts a scene stage to the poll delta interface.
// Animation and emotion deltas apply synchronously; a model swap is
// handed to a worker goroutine so an asset download never occupies
// the polling goroutine. Deltas for the other fields keep flowing to
// the old model while the load is in flight.
//
// Swaps are latest-wins: if more model deltas arrive while one swap
// is running, intermediate targets are skipped and the worker loads
// only the most recent one.
type StageHandler struct {
	stage  *scene.Stage
	logger *slog.Logger

	// ctx bounds in-flight downloads. Cancelling it (viewer
	// shutdown) aborts the load instead of leaving it running.
	ctx context.Context

	mu      sync.Mutex
	target  string
	running bool
}

// NewStageHandler creates the delta handler for a stage. The context
// is the viewer's lifetime; swaps started before cancellation are
// aborted by it.
func NewStageHandler(ctx context.Context, stage *scene.Stage, logger *slog.Logger) *StageHandler {
	if stage == nil {
		panic("viewerui.StageHandler: stage is required")
	}
	if logger == nil {
		panic("viewerui.StageHandler: logger is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &StageHandler{
		stage:  stage,
		logger: logger,
		ctx:    ctx,
	}
}

// PlayAnimation handles an observed animation change. Poll-observed
// plays are always one-shot; the loop flag travels only on the
// command channel, not the poll payload.
func (h *StageHandler) PlayAnimation(name string) error {
	return h.stage.PlayAnimation(name, false, nil)
}

// ApplyEmotion handles an observed emotion or intensity change.
func (h *StageHandler) ApplyEmotion(name string, intensity float64) error {
	h.stage.ApplyEmotion(name, intensity)
	return nil
}

// SwapModel records the new target and returns immediately. Swap
// errors surface through the logger; the poll client has already
// advanced past the delta, so a failed load is retried only when the
// server state changes again.
func (h *StageHandler) SwapModel(name string) error {
	h.mu.Lock()
	h.target = name
	if h.running {
		h.mu.Unlock()
		return nil
	}
	h.running = true
	h.mu.Unlock()

	go h.swapWorker()
	return nil
}

// swapWorker loads targets until the most recent one has been
// attempted. One worker exists at a time; the running flag hands the
// role to a new goroutine only after this one drains.
func (h *StageHandler) swapWorker() {
	for {
		h.mu.Lock()
		name := h.target
		h.mu.Unlock()

		if err := h.stage.Swap(h.ctx, name); err != nil {
			h.logger.Warn("model swap failed", "model", name, "error", err)
		}

		h.mu.Lock()
		if h.target == name {
			h.running = false
			h.mu.Unlock()
			return
		}
		h.mu.Unlock()
	}
}
