// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package modelindex

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValyrianTech/AgentRig/lib/clock"
)

func testIndex(t *testing.T, dir string) *Index {
	t.Helper()
	index, err := Open(Config{
		Path:   filepath.Join(t.TempDir(), "index.db"),
		Dir:    dir,
		Clock:  clock.Fake(time.Unix(1000, 0)),
		Logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { index.Close() })
	return index
}

func writeModel(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestScanIndexesModelFiles(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "Robot.glb", "robot binary")
	writeModel(t, dir, "fox.gltf", "fox json")
	writeModel(t, dir, "notes.txt", "ignored")

	index := testIndex(t, dir)
	stats, err := index.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if stats.Indexed != 2 || stats.Hashed != 2 || stats.Removed != 0 {
		t.Errorf("stats = %+v, want 2 indexed, 2 hashed, 0 removed", stats)
	}

	names, err := index.Names(context.Background())
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 2 || names[0] != "fox" || names[1] != "robot" {
		t.Errorf("Names = %v, want [fox robot]", names)
	}
}

func TestRescanSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "robot.glb", "robot binary")

	index := testIndex(t, dir)
	if _, err := index.Scan(context.Background()); err != nil {
		t.Fatalf("first Scan: %v", err)
	}

	stats, err := index.Scan(context.Background())
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if stats.Hashed != 0 {
		t.Errorf("second scan hashed %d files, want 0", stats.Hashed)
	}
	if stats.Indexed != 1 {
		t.Errorf("second scan indexed %d files, want 1", stats.Indexed)
	}
}

func TestScanRemovesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "robot.glb", "robot binary")
	writeModel(t, dir, "fox.glb", "fox binary")

	index := testIndex(t, dir)
	if _, err := index.Scan(context.Background()); err != nil {
		t.Fatalf("first Scan: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "fox.glb")); err != nil {
		t.Fatalf("removing fox.glb: %v", err)
	}
	stats, err := index.Scan(context.Background())
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if stats.Removed != 1 {
		t.Errorf("Removed = %d, want 1", stats.Removed)
	}

	names, err := index.Names(context.Background())
	if err != nil {
		t.Fatalf("Names: %v", err)
	}
	if len(names) != 1 || names[0] != "robot" {
		t.Errorf("Names = %v, want [robot]", names)
	}
}

func TestLookupOrdersBinaryFirst(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "fox.gltf", "fox json")
	writeModel(t, dir, "fox.glb", "fox binary")

	index := testIndex(t, dir)
	if _, err := index.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	entries, err := index.Lookup(context.Background(), "Fox")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Lookup returned %d entries, want 2", len(entries))
	}
	if entries[0].Extension != ".glb" || entries[1].Extension != ".gltf" {
		t.Errorf("extension order = [%s %s], want [.glb .gltf]",
			entries[0].Extension, entries[1].Extension)
	}
	if entries[0].Digest == "" || len(entries[0].Digest) != 64 {
		t.Errorf("digest = %q, want 64 hex characters", entries[0].Digest)
	}
}

func TestLookupUnknownModel(t *testing.T) {
	dir := t.TempDir()
	index := testIndex(t, dir)
	if _, err := index.Scan(context.Background()); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	entries, err := index.Lookup(context.Background(), "dragon")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Lookup returned %d entries for unknown model, want 0", len(entries))
	}
}

func TestModifiedFileIsRehashed(t *testing.T) {
	dir := t.TempDir()
	writeModel(t, dir, "robot.glb", "version one")

	index := testIndex(t, dir)
	if _, err := index.Scan(context.Background()); err != nil {
		t.Fatalf("first Scan: %v", err)
	}
	first, err := index.Lookup(context.Background(), "robot")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	// Force a different size so change detection cannot rely on the
	// modification time alone (coarse filesystem clocks).
	writeModel(t, dir, "robot.glb", "version two, longer")
	stats, err := index.Scan(context.Background())
	if err != nil {
		t.Fatalf("second Scan: %v", err)
	}
	if stats.Hashed != 1 {
		t.Errorf("Hashed = %d, want 1", stats.Hashed)
	}

	second, err := index.Lookup(context.Background(), "robot")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if first[0].Digest == second[0].Digest {
		t.Error("digest unchanged after file contents changed")
	}
}
