// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package assetcache

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ValyrianTech/AgentRig/lib/gltf"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(t.TempDir(), slog.New(slog.NewTextHandler(os.Stderr, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return cache
}

func sampleAsset() *gltf.Asset {
	return &gltf.Asset{
		Clips: []gltf.Clip{
			{Name: "idle", Duration: 2.5},
			{Name: "wave", Duration: 1.2},
		},
		MorphTargets: []string{"happy", "sad"},
	}
}

func TestStoreThenLoad(t *testing.T) {
	cache := testCache(t)
	key := Key([]byte("model bytes"))

	if err := cache.Store(key, sampleAsset()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	loaded, ok := cache.Load(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(loaded.Clips) != 2 || loaded.Clips[0].Name != "idle" || loaded.Clips[0].Duration != 2.5 {
		t.Errorf("clips round-trip mismatch: %+v", loaded.Clips)
	}
	if len(loaded.MorphTargets) != 2 || loaded.MorphTargets[1] != "sad" {
		t.Errorf("morph targets round-trip mismatch: %v", loaded.MorphTargets)
	}
}

func TestLoadAbsentIsMiss(t *testing.T) {
	cache := testCache(t)
	if _, ok := cache.Load(Key([]byte("never stored"))); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestLoadCorruptIsMiss(t *testing.T) {
	cache := testCache(t)
	key := Key([]byte("model bytes"))
	if err := os.WriteFile(filepath.Join(cache.dir, key+".meta.zst"), []byte("not zstd"), 0o644); err != nil {
		t.Fatalf("writing corrupt record: %v", err)
	}
	if _, ok := cache.Load(key); ok {
		t.Fatal("expected miss for corrupt record")
	}
}

func TestKeyIsContentAddressed(t *testing.T) {
	a := Key([]byte("model A"))
	b := Key([]byte("model B"))
	if a == b {
		t.Fatal("distinct content mapped to the same key")
	}
	if a != Key([]byte("model A")) {
		t.Fatal("key is not deterministic")
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(a))
	}
}

func TestStoreOverwrites(t *testing.T) {
	cache := testCache(t)
	key := Key([]byte("model bytes"))

	if err := cache.Store(key, sampleAsset()); err != nil {
		t.Fatalf("Store: %v", err)
	}
	updated := &gltf.Asset{Clips: []gltf.Clip{{Name: "run", Duration: 0.8}}}
	if err := cache.Store(key, updated); err != nil {
		t.Fatalf("Store (overwrite): %v", err)
	}
	loaded, ok := cache.Load(key)
	if !ok {
		t.Fatal("expected cache hit after overwrite")
	}
	if len(loaded.Clips) != 1 || loaded.Clips[0].Name != "run" {
		t.Errorf("overwrite not visible: %+v", loaded.Clips)
	}
}
