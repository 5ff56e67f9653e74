// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for AgentRig
// components.
//
// Configuration is loaded from a single file specified by:
//   - AGENTRIG_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. The config file may
// contain environment-specific sections (development, staging,
// production) that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for AgentRig.
type Config struct {
	// Environment identifies the deployment type (development,
	// staging, production).
	Environment Environment `yaml:"environment"`

	// Server configures the avatar state server.
	Server ServerConfig `yaml:"server"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Viewer configures the polling viewer.
	Viewer ViewerConfig `yaml:"viewer"`

	// Per-environment overrides, applied after the base config.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment.
type ConfigOverrides struct {
	Server *ServerConfig `yaml:"server,omitempty"`
	Paths  *PathsConfig  `yaml:"paths,omitempty"`
	Viewer *ViewerConfig `yaml:"viewer,omitempty"`
}

// ServerConfig configures the avatar state server.
type ServerConfig struct {
	// Listen is the address the HTTP API binds to.
	// Default: 127.0.0.1:8080
	Listen string `yaml:"listen"`

	// DefaultModel is the model name served before any agent command
	// arrives. Default: robot
	DefaultModel string `yaml:"default_model"`

	// ScanOnStart rescans the models directory when the server
	// starts. Default: true
	ScanOnStart bool `yaml:"scan_on_start"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for AgentRig data.
	Root string `yaml:"root"`

	// Models is the directory holding .glb and .gltf model files.
	Models string `yaml:"models"`

	// Cache is where viewers keep parsed asset metadata.
	Cache string `yaml:"cache"`

	// Database is the SQLite model index file.
	Database string `yaml:"database"`
}

// ViewerConfig configures the polling viewer.
type ViewerConfig struct {
	// ServerURL is the base URL of the avatar state server.
	// Default: http://127.0.0.1:8080
	ServerURL string `yaml:"server_url"`

	// PollInterval is how often the viewer polls for state, as a Go
	// duration string. Default: 500ms
	PollInterval string `yaml:"poll_interval"`

	// FadeDuration is the animation crossfade length, as a Go
	// duration string. Default: 300ms
	FadeDuration string `yaml:"fade_duration"`

	// FrameRate is the viewer's render loop frequency in frames per
	// second. Default: 30
	FrameRate int `yaml:"frame_rate"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "agentrig")

	return &Config{
		Environment: Development,
		Server: ServerConfig{
			Listen:       "127.0.0.1:8080",
			DefaultModel: "robot",
			ScanOnStart:  true,
		},
		Paths: PathsConfig{
			Root:     defaultRoot,
			Models:   filepath.Join(defaultRoot, "models"),
			Cache:    filepath.Join(defaultRoot, "cache"),
			Database: filepath.Join(defaultRoot, "models.db"),
		},
		Viewer: ViewerConfig{
			ServerURL:    "http://127.0.0.1:8080",
			PollInterval: "500ms",
			FadeDuration: "300ms",
			FrameRate:    30,
		},
	}
}

// Load loads configuration from the AGENTRIG_CONFIG environment
// variable. There are no fallbacks: if AGENTRIG_CONFIG is not set,
// this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("AGENTRIG_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("AGENTRIG_CONFIG environment variable not set; " +
			"set it to the path of your agentrig.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific
// overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production defaults: no automatic rescans on start, the
		// operator controls when the catalog changes.
		if overrides == nil {
			overrides = &ConfigOverrides{
				Server: &ServerConfig{
					ScanOnStart: false,
				},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Server != nil {
		if overrides.Server.Listen != "" {
			c.Server.Listen = overrides.Server.Listen
		}
		if overrides.Server.DefaultModel != "" {
			c.Server.DefaultModel = overrides.Server.DefaultModel
		}
		// ScanOnStart is a bool, so we always apply it from overrides.
		c.Server.ScanOnStart = overrides.Server.ScanOnStart
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Models != "" {
			c.Paths.Models = overrides.Paths.Models
		}
		if overrides.Paths.Cache != "" {
			c.Paths.Cache = overrides.Paths.Cache
		}
		if overrides.Paths.Database != "" {
			c.Paths.Database = overrides.Paths.Database
		}
	}

	if overrides.Viewer != nil {
		if overrides.Viewer.ServerURL != "" {
			c.Viewer.ServerURL = overrides.Viewer.ServerURL
		}
		if overrides.Viewer.PollInterval != "" {
			c.Viewer.PollInterval = overrides.Viewer.PollInterval
		}
		if overrides.Viewer.FadeDuration != "" {
			c.Viewer.FadeDuration = overrides.Viewer.FadeDuration
		}
		if overrides.Viewer.FrameRate != 0 {
			c.Viewer.FrameRate = overrides.Viewer.FrameRate
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"AGENTRIG_ROOT": c.Paths.Root,
		"HOME":          os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["AGENTRIG_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Models = expandVars(c.Paths.Models, vars)
	c.Paths.Cache = expandVars(c.Paths.Cache, vars)
	c.Paths.Database = expandVars(c.Paths.Database, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Server.Listen == "" {
		errs = append(errs, fmt.Errorf("server.listen is required"))
	}

	if c.Paths.Models == "" {
		errs = append(errs, fmt.Errorf("paths.models is required"))
	}

	if interval, err := time.ParseDuration(c.Viewer.PollInterval); err != nil {
		errs = append(errs, fmt.Errorf("viewer.poll_interval: %w", err))
	} else if interval <= 0 {
		errs = append(errs, fmt.Errorf("viewer.poll_interval must be positive"))
	}

	if fade, err := time.ParseDuration(c.Viewer.FadeDuration); err != nil {
		errs = append(errs, fmt.Errorf("viewer.fade_duration: %w", err))
	} else if fade < 0 {
		errs = append(errs, fmt.Errorf("viewer.fade_duration must not be negative"))
	}

	if c.Viewer.FrameRate <= 0 || c.Viewer.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("viewer.frame_rate must be between 1 and 240"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// PollIntervalDuration parses the viewer poll interval. Call Validate
// first; an unparseable value here falls back to the default.
func (v ViewerConfig) PollIntervalDuration() time.Duration {
	interval, err := time.ParseDuration(v.PollInterval)
	if err != nil || interval <= 0 {
		return 500 * time.Millisecond
	}
	return interval
}

// FadeDurationDuration parses the crossfade length. Call Validate
// first; an unparseable value here falls back to the default.
func (v ViewerConfig) FadeDurationDuration() time.Duration {
	fade, err := time.ParseDuration(v.FadeDuration)
	if err != nil || fade < 0 {
		return 300 * time.Millisecond
	}
	return fade
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Models,
		c.Paths.Cache,
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
