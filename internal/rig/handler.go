// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package rig implements the avatar state server: the REST surface an
// agent drives and viewers poll. The server holds authoritative state
// in an avatar.Store; it knows nothing about clips or morph targets
// inside a model file, so animation and emotion names pass through
// unchecked. Viewers resolve them against the loaded asset.
package rig

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/klauspost/compress/gzhttp"

	"github.com/ValyrianTech/AgentRig/lib/avatar"
	"github.com/ValyrianTech/AgentRig/lib/modelindex"
)

// maxCommandBytes bounds command payloads. Commands are tiny; anything
// larger is garbage.
const maxCommandBytes = 1 << 16

// Handler serves the avatar REST API.
type Handler struct {
	store     *avatar.Store
	index     *modelindex.Index
	modelsDir string
	logger    *slog.Logger
}

// HandlerConfig holds the dependencies for the API handler.
type HandlerConfig struct {
	// Store is the authoritative avatar state. Required.
	Store *avatar.Store

	// Index is the model catalog backing GET /api/models. Required.
	Index *modelindex.Index

	// ModelsDir is the directory served under /static/models/.
	// Required.
	ModelsDir string

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(config HandlerConfig) *Handler {
	if config.Store == nil {
		panic("rig.Handler: Store is required")
	}
	if config.Index == nil {
		panic("rig.Handler: Index is required")
	}
	if config.ModelsDir == "" {
		panic("rig.Handler: ModelsDir is required")
	}
	if config.Logger == nil {
		panic("rig.Handler: Logger is required")
	}
	return &Handler{
		store:     config.Store,
		index:     config.Index,
		modelsDir: config.ModelsDir,
		logger:    config.Logger,
	}
}

// Routes returns the HTTP handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/state", h.handleState)
	mux.HandleFunc("POST /api/animations/play", h.handlePlayAnimation)
	mux.HandleFunc("POST /api/animations/stop", h.handleStopAnimation)
	mux.HandleFunc("GET /api/animations", h.handleListAnimations)
	mux.HandleFunc("POST /api/emotions/set", h.handleSetEmotion)
	mux.HandleFunc("GET /api/emotions", h.handleListEmotions)
	mux.HandleFunc("GET /api/models", h.handleListModels)
	mux.HandleFunc("POST /api/models/load", h.handleLoadModel)
	mux.HandleFunc("GET /api/queue", h.handleGetQueue)
	mux.HandleFunc("DELETE /api/queue", h.handleClearQueue)

	// Model files are large and highly compressible (.gltf is JSON);
	// gzip saves most of the transfer for viewers that accept it.
	fileServer := http.StripPrefix("/static/models/", http.FileServer(http.Dir(h.modelsDir)))
	mux.Handle("GET /static/models/", gzhttp.GzipHandler(fileServer))

	return mux
}

// handleState returns the poll payload: the full avatar state.
func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.store.Read())
}

func (h *Handler) handlePlayAnimation(w http.ResponseWriter, r *http.Request) {
	var cmd avatar.PlayCommand
	if !h.decodeCommand(w, r, &cmd) {
		return
	}
	if err := cmd.Validate(); err != nil {
		h.writeCommandError(w, err)
		return
	}

	h.store.SetAnimation(cmd)
	h.logger.Info("animation commanded", "animation", cmd.Name, "loop", cmd.Loop)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   fmt.Sprintf("Playing animation: %s", cmd.Name),
		"animation": cmd.Name,
	})
}

func (h *Handler) handleStopAnimation(w http.ResponseWriter, r *http.Request) {
	h.store.StopAnimation()
	h.logger.Info("animation stopped")
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "Animation stopped, returning to idle",
	})
}

// handleListAnimations is informational only: clip sets live inside
// model files, which the server does not parse.
func (h *Handler) handleListAnimations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Animations are model-dependent. Viewers play any animation that exists in the current model.",
		"current_model": h.store.Read().CurrentModel,
	})
}

func (h *Handler) handleSetEmotion(w http.ResponseWriter, r *http.Request) {
	// Intensity defaults to 1.0 when the field is absent.
	cmd := avatar.EmotionCommand{Intensity: 1.0}
	if !h.decodeCommand(w, r, &cmd) {
		return
	}
	if err := cmd.Validate(); err != nil {
		h.writeCommandError(w, err)
		return
	}

	h.store.SetEmotion(cmd)
	h.logger.Info("emotion commanded", "emotion", cmd.Name, "intensity", cmd.Intensity)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   fmt.Sprintf("Emotion set to: %s", cmd.Name),
		"emotion":   cmd.Name,
		"intensity": cmd.Intensity,
	})
}

// handleListEmotions is informational only, like handleListAnimations:
// emotions are morph targets inside the loaded model.
func (h *Handler) handleListEmotions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Emotions are model-dependent (morph targets). Viewers apply any emotion that exists in the current model.",
		"current_model": h.store.Read().CurrentModel,
	})
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	names, err := h.index.Names(r.Context())
	if err != nil {
		h.logger.Error("model listing failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "model catalog unavailable")
		return
	}
	if names == nil {
		names = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"models":  names,
		"current": h.store.Read().CurrentModel,
	})
}

func (h *Handler) handleLoadModel(w http.ResponseWriter, r *http.Request) {
	var cmd avatar.ModelCommand
	if !h.decodeCommand(w, r, &cmd) {
		return
	}
	if err := cmd.Validate(); err != nil {
		h.writeCommandError(w, err)
		return
	}

	// Existence on disk is deliberately not checked here: viewers
	// resolve the asset with extension fallback and keep the previous
	// model when nothing loads.
	h.store.SetModel(cmd)
	h.logger.Info("model commanded", "model", cmd.Name)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": fmt.Sprintf("Model changed to: %s", cmd.Name),
		"model":   cmd.Name,
	})
}

func (h *Handler) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	queue := h.store.Read().AnimationQueue
	if queue == nil {
		queue = []avatar.QueueEntry{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"queue": queue})
}

func (h *Handler) handleClearQueue(w http.ResponseWriter, r *http.Request) {
	h.store.ClearQueue()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"message": "Queue cleared",
	})
}

// decodeCommand decodes a JSON command body into destination. On
// failure it writes the 400 response and returns false; the store is
// never touched for a payload that fails to decode.
func (h *Handler) decodeCommand(w http.ResponseWriter, r *http.Request, destination any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	if err := decoder.Decode(destination); err != nil {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// writeCommandError maps a validation failure to HTTP 400.
func (h *Handler) writeCommandError(w http.ResponseWriter, err error) {
	var validation *avatar.ValidationError
	if errors.As(err, &validation) {
		h.writeError(w, http.StatusBadRequest, validation.Error())
		return
	}
	h.writeError(w, http.StatusBadRequest, err.Error())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(value); err != nil {
		h.logger.Error("response encoding failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]any{
		"status":  "error",
		"message": message,
	})
}
