// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package rig

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ValyrianTech/AgentRig/lib/avatar"
	"github.com/ValyrianTech/AgentRig/lib/clock"
	"github.com/ValyrianTech/AgentRig/lib/modelindex"
)

// testServer wires a handler against a temp models directory with the
// given model files present.
func testServer(t *testing.T, modelFiles ...string) (*avatar.Store, http.Handler) {
	t.Helper()

	modelsDir := t.TempDir()
	for _, name := range modelFiles {
		if err := os.WriteFile(filepath.Join(modelsDir, name), []byte("model data for "+name), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	index, err := modelindex.Open(modelindex.Config{
		Path:   filepath.Join(t.TempDir(), "index.db"),
		Dir:    modelsDir,
		Clock:  clock.Fake(time.Unix(1000, 0)),
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("opening index: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	if _, err := index.Scan(context.Background()); err != nil {
		t.Fatalf("scanning models: %v", err)
	}

	store := avatar.NewStore()
	handler := NewHandler(HandlerConfig{
		Store:     store,
		Index:     index,
		ModelsDir: modelsDir,
		Logger:    logger,
	})
	return store, handler.Routes()
}

func doRequest(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var request *http.Request
	if body == "" {
		request = httptest.NewRequest(method, path, nil)
	} else {
		request = httptest.NewRequest(method, path, strings.NewReader(body))
		request.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decoding response %q: %v", recorder.Body.String(), err)
	}
	return decoded
}

func TestStateInitial(t *testing.T) {
	_, handler := testServer(t)

	recorder := doRequest(t, handler, "GET", "/api/state", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	body := decodeBody(t, recorder)
	if body["current_model"] != "robot" {
		t.Errorf("current_model = %v, want robot", body["current_model"])
	}
	if body["current_animation"] != "idle" {
		t.Errorf("current_animation = %v, want idle", body["current_animation"])
	}
	if body["current_emotion"] != "neutral" {
		t.Errorf("current_emotion = %v, want neutral", body["current_emotion"])
	}
	if body["intensity"] != 1.0 {
		t.Errorf("intensity = %v, want 1", body["intensity"])
	}
}

func TestPlayAnimation(t *testing.T) {
	store, handler := testServer(t)

	recorder := doRequest(t, handler, "POST", "/api/animations/play",
		`{"name": "wave", "loop": true}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}

	body := decodeBody(t, recorder)
	if body["status"] != "ok" || body["animation"] != "wave" {
		t.Errorf("unexpected response: %v", body)
	}

	state := store.Read()
	if state.CurrentAnimation != "wave" {
		t.Errorf("CurrentAnimation = %q, want wave", state.CurrentAnimation)
	}
	if len(state.AnimationQueue) != 1 || !state.AnimationQueue[0].Loop {
		t.Errorf("queue = %+v, want one looping entry", state.AnimationQueue)
	}
}

func TestPlayAnimationMissingName(t *testing.T) {
	store, handler := testServer(t)

	recorder := doRequest(t, handler, "POST", "/api/animations/play", `{"loop": true}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}

	body := decodeBody(t, recorder)
	if body["status"] != "error" {
		t.Errorf("status field = %v, want error", body["status"])
	}

	if state := store.Read(); state.CurrentAnimation != "idle" || len(state.AnimationQueue) != 0 {
		t.Errorf("store mutated by rejected command: %+v", state)
	}
}

func TestPlayAnimationMalformedJSON(t *testing.T) {
	store, handler := testServer(t)

	recorder := doRequest(t, handler, "POST", "/api/animations/play", `{"name": `)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}

	if state := store.Read(); state.CurrentAnimation != "idle" {
		t.Errorf("store mutated by malformed payload: %+v", state)
	}
}

func TestStopAnimation(t *testing.T) {
	store, handler := testServer(t)

	doRequest(t, handler, "POST", "/api/animations/play", `{"name": "dance"}`)
	recorder := doRequest(t, handler, "POST", "/api/animations/stop", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	state := store.Read()
	if state.CurrentAnimation != "idle" {
		t.Errorf("CurrentAnimation = %q, want idle", state.CurrentAnimation)
	}
	if len(state.AnimationQueue) != 0 {
		t.Errorf("queue not cleared: %+v", state.AnimationQueue)
	}
}

func TestSetEmotionDefaultsIntensity(t *testing.T) {
	store, handler := testServer(t)

	recorder := doRequest(t, handler, "POST", "/api/emotions/set", `{"name": "happy"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}

	state := store.Read()
	if state.CurrentEmotion != "happy" {
		t.Errorf("CurrentEmotion = %q, want happy", state.CurrentEmotion)
	}
	if state.Intensity != 1.0 {
		t.Errorf("Intensity = %v, want default 1.0", state.Intensity)
	}
}

func TestSetEmotionExplicitIntensity(t *testing.T) {
	store, handler := testServer(t)

	doRequest(t, handler, "POST", "/api/emotions/set", `{"name": "sad", "intensity": 0.4}`)
	state := store.Read()
	if state.CurrentEmotion != "sad" || state.Intensity != 0.4 {
		t.Errorf("state = %+v, want sad at 0.4", state)
	}
}

func TestSetEmotionMissingName(t *testing.T) {
	_, handler := testServer(t)

	recorder := doRequest(t, handler, "POST", "/api/emotions/set", `{"intensity": 0.5}`)
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", recorder.Code)
	}
}

func TestLoadModelResetsAnimation(t *testing.T) {
	store, handler := testServer(t)

	doRequest(t, handler, "POST", "/api/animations/play", `{"name": "spin"}`)
	recorder := doRequest(t, handler, "POST", "/api/models/load", `{"name": "fox"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", recorder.Code, recorder.Body.String())
	}

	state := store.Read()
	if state.CurrentModel != "fox" {
		t.Errorf("CurrentModel = %q, want fox", state.CurrentModel)
	}
	if state.CurrentAnimation != "idle" {
		t.Errorf("CurrentAnimation = %q, want idle after model change", state.CurrentAnimation)
	}
}

func TestLoadModelDoesNotCheckDisk(t *testing.T) {
	// Asset existence is the viewer's concern; the server accepts any
	// well-formed name.
	store, handler := testServer(t)

	recorder := doRequest(t, handler, "POST", "/api/models/load", `{"name": "nonexistent"}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if store.Read().CurrentModel != "nonexistent" {
		t.Error("model command not applied")
	}
}

func TestListModels(t *testing.T) {
	_, handler := testServer(t, "robot.glb", "fox.gltf", "fox.glb")

	recorder := doRequest(t, handler, "GET", "/api/models", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}

	body := decodeBody(t, recorder)
	models, ok := body["models"].([]any)
	if !ok {
		t.Fatalf("models field = %T, want array", body["models"])
	}
	if len(models) != 2 {
		t.Errorf("models = %v, want [fox robot]", models)
	}
	if body["current"] != "robot" {
		t.Errorf("current = %v, want robot", body["current"])
	}
}

func TestQueueRoundTrip(t *testing.T) {
	_, handler := testServer(t)

	doRequest(t, handler, "POST", "/api/animations/play", `{"name": "wave"}`)
	doRequest(t, handler, "POST", "/api/animations/play", `{"name": "bow", "loop": true}`)

	recorder := doRequest(t, handler, "GET", "/api/queue", "")
	body := decodeBody(t, recorder)
	queue, ok := body["queue"].([]any)
	if !ok || len(queue) != 2 {
		t.Fatalf("queue = %v, want two entries", body["queue"])
	}

	recorder = doRequest(t, handler, "DELETE", "/api/queue", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("clear status = %d, want 200", recorder.Code)
	}

	recorder = doRequest(t, handler, "GET", "/api/queue", "")
	body = decodeBody(t, recorder)
	if queue, _ := body["queue"].([]any); len(queue) != 0 {
		t.Errorf("queue after clear = %v, want empty", body["queue"])
	}
}

func TestListAnimationsIsInformational(t *testing.T) {
	_, handler := testServer(t)

	recorder := doRequest(t, handler, "GET", "/api/animations", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	body := decodeBody(t, recorder)
	if body["current_model"] != "robot" {
		t.Errorf("current_model = %v, want robot", body["current_model"])
	}
	if body["message"] == "" {
		t.Error("expected explanatory message")
	}
}

func TestStaticModelServing(t *testing.T) {
	_, handler := testServer(t, "robot.glb")

	recorder := doRequest(t, handler, "GET", "/static/models/robot.glb", "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if got := recorder.Body.String(); got != "model data for robot.glb" {
		t.Errorf("body = %q, want model file contents", got)
	}
}

func TestStaticModelMissing(t *testing.T) {
	_, handler := testServer(t)

	recorder := doRequest(t, handler, "GET", "/static/models/ghost.glb", "")
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", recorder.Code)
	}
}
