// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// agentrig-server is the avatar state server. An agent (or any REST
// client) drives the avatar through the JSON API; viewers poll
// /api/state and fetch model files from /static/models/.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/ValyrianTech/AgentRig/cmd/agentrig/cli"
	"github.com/ValyrianTech/AgentRig/internal/rig"
	"github.com/ValyrianTech/AgentRig/lib/avatar"
	"github.com/ValyrianTech/AgentRig/lib/clock"
	"github.com/ValyrianTech/AgentRig/lib/config"
	"github.com/ValyrianTech/AgentRig/lib/modelindex"
	"github.com/ValyrianTech/AgentRig/lib/process"
	"github.com/ValyrianTech/AgentRig/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var listenOverride string
	var showVersion bool

	flagSet := pflag.NewFlagSet("agentrig-server", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to agentrig.yaml (default: $AGENTRIG_CONFIG)")
	flagSet.StringVar(&listenOverride, "listen", "", "listen address override (e.g. 0.0.0.0:8080)")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		return err
	}

	if showVersion {
		version.Print("agentrig-server")
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if listenOverride != "" {
		cfg.Server.Listen = listenOverride
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	logger := cli.NewCommandLogger().With("component", "agentrig-server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	index, err := modelindex.Open(modelindex.Config{
		Path:   cfg.Paths.Database,
		Dir:    cfg.Paths.Models,
		Clock:  clock.Real(),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer index.Close()

	if cfg.Server.ScanOnStart {
		if _, err := index.Scan(ctx); err != nil {
			return err
		}
	}

	store := avatar.NewStore()
	if cfg.Server.DefaultModel != "" {
		store.SetModel(avatar.ModelCommand{Name: cfg.Server.DefaultModel})
	}

	handler := rig.NewHandler(rig.HandlerConfig{
		Store:     store,
		Index:     index,
		ModelsDir: cfg.Paths.Models,
		Logger:    logger,
	})

	server := rig.NewServer(rig.ServerConfig{
		Address: cfg.Server.Listen,
		Handler: handler.Routes(),
		Logger:  logger,
	})

	return server.Serve(ctx)
}

// loadConfig resolves the configuration source: the --config flag
// wins, then AGENTRIG_CONFIG, then built-in defaults for local runs.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("AGENTRIG_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}
