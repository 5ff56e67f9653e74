// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Environment != Development {
		t.Errorf("expected environment=development, got %s", cfg.Environment)
	}

	if cfg.Server.Listen != "127.0.0.1:8080" {
		t.Errorf("expected listen=127.0.0.1:8080, got %s", cfg.Server.Listen)
	}

	if cfg.Server.DefaultModel != "robot" {
		t.Errorf("expected default_model=robot, got %s", cfg.Server.DefaultModel)
	}

	if !cfg.Server.ScanOnStart {
		t.Error("expected scan_on_start=true for development")
	}

	if cfg.Viewer.PollIntervalDuration() != 500*time.Millisecond {
		t.Errorf("expected poll interval 500ms, got %v", cfg.Viewer.PollIntervalDuration())
	}
}

func TestLoad_RequiresAgentRigConfig(t *testing.T) {
	// Save and restore AGENTRIG_CONFIG.
	origConfig := os.Getenv("AGENTRIG_CONFIG")
	defer os.Setenv("AGENTRIG_CONFIG", origConfig)

	// Unset AGENTRIG_CONFIG - Load() should fail.
	os.Unsetenv("AGENTRIG_CONFIG")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when AGENTRIG_CONFIG not set, got nil")
	}

	expectedMsg := "AGENTRIG_CONFIG environment variable not set"
	if err.Error()[:len(expectedMsg)] != expectedMsg {
		t.Errorf("expected error message to start with %q, got %q", expectedMsg, err.Error())
	}
}

func TestLoad_WithAgentRigConfig(t *testing.T) {
	// Save and restore AGENTRIG_CONFIG.
	origConfig := os.Getenv("AGENTRIG_CONFIG")
	defer os.Setenv("AGENTRIG_CONFIG", origConfig)

	// Create temp config file.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "agentrig.yaml")

	configContent := `
environment: staging
paths:
  root: /test/root
server:
  listen: 0.0.0.0:9090
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Set AGENTRIG_CONFIG and load.
	os.Setenv("AGENTRIG_CONFIG", configPath)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Root != "/test/root" {
		t.Errorf("expected root=/test/root, got %s", cfg.Paths.Root)
	}

	if cfg.Server.Listen != "0.0.0.0:9090" {
		t.Errorf("expected listen=0.0.0.0:9090, got %s", cfg.Server.Listen)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "agentrig.yaml")

	configContent := `
environment: staging

paths:
  root: /custom/root
  models: /custom/models

server:
  listen: 0.0.0.0:8088
  default_model: fox
  scan_on_start: false

viewer:
  server_url: http://rig.example.com:8088
  poll_interval: 250ms
  frame_rate: 60
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Staging {
		t.Errorf("expected environment=staging, got %s", cfg.Environment)
	}

	if cfg.Paths.Models != "/custom/models" {
		t.Errorf("expected models=/custom/models, got %s", cfg.Paths.Models)
	}

	if cfg.Server.DefaultModel != "fox" {
		t.Errorf("expected default_model=fox, got %s", cfg.Server.DefaultModel)
	}

	if cfg.Server.ScanOnStart {
		t.Error("expected scan_on_start=false")
	}

	if cfg.Viewer.ServerURL != "http://rig.example.com:8088" {
		t.Errorf("expected server_url=http://rig.example.com:8088, got %s", cfg.Viewer.ServerURL)
	}

	if cfg.Viewer.PollIntervalDuration() != 250*time.Millisecond {
		t.Errorf("expected poll interval 250ms, got %v", cfg.Viewer.PollIntervalDuration())
	}

	if cfg.Viewer.FrameRate != 60 {
		t.Errorf("expected frame_rate=60, got %d", cfg.Viewer.FrameRate)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "agentrig.yaml")

	configContent := `
environment: production

paths:
  root: /default/root

server:
  listen: 127.0.0.1:8080
  scan_on_start: true

production:
  paths:
    root: /prod/root
  server:
    listen: 0.0.0.0:80
    scan_on_start: false
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	// Production overrides should be applied.
	if cfg.Paths.Root != "/prod/root" {
		t.Errorf("expected root=/prod/root, got %s", cfg.Paths.Root)
	}

	if cfg.Server.Listen != "0.0.0.0:80" {
		t.Errorf("expected listen=0.0.0.0:80, got %s", cfg.Server.Listen)
	}

	if cfg.Server.ScanOnStart {
		t.Error("expected scan_on_start=false from production override")
	}
}

func TestProductionDefaultsWithoutOverrideSection(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "agentrig.yaml")

	configContent := `
environment: production
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Server.ScanOnStart {
		t.Error("expected scan_on_start=false in production by default")
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// The config file is the single source of truth; environment
	// variables must not override file values.

	origRoot := os.Getenv("AGENTRIG_ROOT")
	origEnv := os.Getenv("AGENTRIG_ENVIRONMENT")
	defer func() {
		os.Setenv("AGENTRIG_ROOT", origRoot)
		os.Setenv("AGENTRIG_ENVIRONMENT", origEnv)
	}()

	os.Setenv("AGENTRIG_ROOT", "/env/root")
	os.Setenv("AGENTRIG_ENVIRONMENT", "staging")

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "agentrig.yaml")

	configContent := `
environment: development
paths:
  root: /file/root
`

	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if cfg.Environment != Development {
		t.Errorf("expected environment=development from file, got %s (env vars should not override)", cfg.Environment)
	}

	if cfg.Paths.Root != "/file/root" {
		t.Errorf("expected root=/file/root from file, got %s (env vars should not override)", cfg.Paths.Root)
	}
}

func TestExpandVars(t *testing.T) {
	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{
			input:    "${HOME}/agentrig",
			vars:     map[string]string{"HOME": "/home/user"},
			expected: "/home/user/agentrig",
		},
		{
			input:    "${MISSING:-default}",
			vars:     map[string]string{},
			expected: "default",
		},
		{
			input:    "${PRESENT:-default}",
			vars:     map[string]string{"PRESENT": "value"},
			expected: "value",
		},
		{
			input:    "${A}/${B}",
			vars:     map[string]string{"A": "first", "B": "second"},
			expected: "first/second",
		},
		{
			input:    "no variables here",
			vars:     map[string]string{},
			expected: "no variables here",
		},
	}

	for _, tt := range tests {
		result := expandVars(tt.input, tt.vars)
		if result != tt.expected {
			t.Errorf("expandVars(%q) = %q, want %q", tt.input, result, tt.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name: "invalid environment",
			modify: func(c *Config) {
				c.Environment = "invalid"
			},
			wantErr: true,
		},
		{
			name: "empty listen address",
			modify: func(c *Config) {
				c.Server.Listen = ""
			},
			wantErr: true,
		},
		{
			name: "empty models path",
			modify: func(c *Config) {
				c.Paths.Models = ""
			},
			wantErr: true,
		},
		{
			name: "unparseable poll interval",
			modify: func(c *Config) {
				c.Viewer.PollInterval = "soon"
			},
			wantErr: true,
		},
		{
			name: "negative poll interval",
			modify: func(c *Config) {
				c.Viewer.PollInterval = "-1s"
			},
			wantErr: true,
		},
		{
			name: "zero frame rate",
			modify: func(c *Config) {
				c.Viewer.FrameRate = 0
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnsurePaths(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := Default()
	cfg.Paths.Root = filepath.Join(tmpDir, "agentrig")
	cfg.Paths.Models = filepath.Join(cfg.Paths.Root, "models")
	cfg.Paths.Cache = filepath.Join(cfg.Paths.Root, "cache")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths failed: %v", err)
	}

	for _, path := range []string{cfg.Paths.Root, cfg.Paths.Models, cfg.Paths.Cache} {
		info, err := os.Stat(path)
		if err != nil {
			t.Errorf("path %s not created: %v", path, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("path %s is not a directory", path)
		}
	}
}
