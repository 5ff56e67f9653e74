// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// agentrig-viewer is the terminal viewer: it polls the avatar server,
// reconciles observed state onto a local stage (model swaps, clip
// playback, morph-target emotions), and renders the stage at a fixed
// frame rate.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/ValyrianTech/AgentRig/cmd/agentrig/cli"
	"github.com/ValyrianTech/AgentRig/lib/animation"
	"github.com/ValyrianTech/AgentRig/lib/assetcache"
	"github.com/ValyrianTech/AgentRig/lib/clock"
	"github.com/ValyrianTech/AgentRig/lib/config"
	"github.com/ValyrianTech/AgentRig/lib/poll"
	"github.com/ValyrianTech/AgentRig/lib/process"
	"github.com/ValyrianTech/AgentRig/lib/scene"
	"github.com/ValyrianTech/AgentRig/lib/version"
	"github.com/ValyrianTech/AgentRig/lib/viewerui"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var configPath string
	var serverURL string

	flagSet := pflag.NewFlagSet("agentrig-viewer", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to configuration file (default: $AGENTRIG_CONFIG)")
	flagSet.StringVar(&serverURL, "server", "", "avatar server base URL (overrides configuration)")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		version.Print("agentrig-viewer")
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return cli.Validation("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if serverURL != "" {
		cfg.Viewer.ServerURL = serverURL
	}
	if cfg.Viewer.ServerURL == "" {
		cfg.Viewer.ServerURL = "http://127.0.0.1:8080"
	}

	// Log records route into the TUI status bar; writing to stderr
	// would corrupt the alternate screen.
	logHandler := viewerui.NewTUILogHandler(slog.LevelWarn)
	logger := slog.New(logHandler)

	var cache *assetcache.Cache
	if cfg.Paths.Cache != "" {
		cache, err = assetcache.Open(cfg.Paths.Cache, logger)
		if err != nil {
			// A broken cache directory degrades to parse-every-load.
			cache = nil
		}
	}

	client := viewerui.NewClient(viewerui.ClientConfig{
		BaseURL: cfg.Viewer.ServerURL,
		Cache:   cache,
		Logger:  logger,
	})

	mixer := animation.NewMixer()
	machine := animation.NewMachine(animation.MachineConfig{
		Clock:        clock.Real(),
		Mixer:        mixer,
		FadeDuration: cfg.Viewer.FadeDurationDuration(),
		Logger:       logger,
	})
	stage := scene.NewStage(scene.StageConfig{
		Loader:  client,
		Machine: machine,
		Mixer:   mixer,
		Logger:  logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reconciler := poll.NewClient(poll.ClientConfig{
		Fetcher:  client,
		Handler:  viewerui.NewStageHandler(ctx, stage, logger),
		Clock:    clock.Real(),
		Interval: cfg.Viewer.PollIntervalDuration(),
		Logger:   logger,
	})

	model := viewerui.NewModel(viewerui.ModelConfig{
		Stage:     stage,
		Client:    reconciler,
		FrameRate: cfg.Viewer.FrameRate,
	})

	program := tea.NewProgram(model, tea.WithAltScreen())
	logHandler.SetProgram(program)

	go reconciler.Run(ctx)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("viewer terminated: %w", err)
	}
	return nil
}

// loadConfig resolves the configuration source: the --config flag
// wins, then $AGENTRIG_CONFIG, then built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("AGENTRIG_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Printf(`agentrig-viewer renders the avatar state in the terminal.

The viewer polls the avatar server, downloads model assets from its
static mount, and shows playback, emotion morphs, and the command
queue live.

Usage:
  agentrig-viewer [flags]

Flags:
%s
Keys:
  s    force an immediate poll
  m    toggle the morph detail panel
  q    quit
`, flagSet.FlagUsages())
}
