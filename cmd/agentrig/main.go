// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

// agentrig is the command-line client for the avatar state server.
// It is the tool an agent shells out to: every subcommand maps to one
// REST call and prints the server's JSON response to stdout.
//
// Usage:
//
//	agentrig state
//	agentrig play <name> [--loop] [--duration seconds]
//	agentrig stop
//	agentrig emote <name> [--intensity f]
//	agentrig model <name>
//	agentrig models
//	agentrig queue [--clear]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/ValyrianTech/AgentRig/cmd/agentrig/cli"
	"github.com/ValyrianTech/AgentRig/lib/process"
	"github.com/ValyrianTech/AgentRig/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		return &cli.ExitError{Code: 2}
	}

	if args[0] == "--version" {
		version.Print("agentrig")
		return nil
	}
	if args[0] == "--help" || args[0] == "-h" || args[0] == "help" {
		printUsage()
		return nil
	}

	command := args[0]
	rest := args[1:]

	switch command {
	case "state":
		return runState(rest)
	case "play":
		return runPlay(rest)
	case "stop":
		return runStop(rest)
	case "emote":
		return runEmote(rest)
	case "model":
		return runModel(rest)
	case "models":
		return runModels(rest)
	case "queue":
		return runQueue(rest)
	default:
		printUsage()
		return cli.Validation("unknown command: %s", command)
	}
}

// serverFlag registers the shared --server flag on a subcommand's
// flag set.
func serverFlag(flagSet *pflag.FlagSet) *string {
	defaultURL := os.Getenv("AGENTRIG_SERVER")
	if defaultURL == "" {
		defaultURL = "http://127.0.0.1:8080"
	}
	return flagSet.String("server", defaultURL, "avatar server base URL (default: $AGENTRIG_SERVER)")
}

func runState(args []string) error {
	flagSet := pflag.NewFlagSet("state", pflag.ContinueOnError)
	serverURL := serverFlag(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	client := newClient(*serverURL)
	response, err := client.get("/api/state")
	if err != nil {
		return err
	}
	return cli.WriteJSON(response)
}

func runPlay(args []string) error {
	flagSet := pflag.NewFlagSet("play", pflag.ContinueOnError)
	serverURL := serverFlag(flagSet)
	loop := flagSet.Bool("loop", false, "repeat the clip until superseded")
	duration := flagSet.Float64("duration", 0, "override the clip duration in seconds")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return cli.Validation("play requires exactly one animation name")
	}

	payload := map[string]any{
		"name": flagSet.Arg(0),
		"loop": *loop,
	}
	if flagSet.Changed("duration") {
		payload["duration"] = *duration
	}

	client := newClient(*serverURL)
	response, err := client.post("/api/animations/play", payload)
	if err != nil {
		return err
	}
	return cli.WriteJSON(response)
}

func runStop(args []string) error {
	flagSet := pflag.NewFlagSet("stop", pflag.ContinueOnError)
	serverURL := serverFlag(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	client := newClient(*serverURL)
	response, err := client.post("/api/animations/stop", nil)
	if err != nil {
		return err
	}
	return cli.WriteJSON(response)
}

func runEmote(args []string) error {
	flagSet := pflag.NewFlagSet("emote", pflag.ContinueOnError)
	serverURL := serverFlag(flagSet)
	intensity := flagSet.Float64("intensity", 1.0, "expression strength in [0,1]")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return cli.Validation("emote requires exactly one emotion name")
	}

	client := newClient(*serverURL)
	response, err := client.post("/api/emotions/set", map[string]any{
		"name":      flagSet.Arg(0),
		"intensity": *intensity,
	})
	if err != nil {
		return err
	}
	return cli.WriteJSON(response)
}

func runModel(args []string) error {
	flagSet := pflag.NewFlagSet("model", pflag.ContinueOnError)
	serverURL := serverFlag(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() != 1 {
		return cli.Validation("model requires exactly one model name")
	}

	client := newClient(*serverURL)
	response, err := client.post("/api/models/load", map[string]any{
		"name": flagSet.Arg(0),
	})
	if err != nil {
		return err
	}
	return cli.WriteJSON(response)
}

func runModels(args []string) error {
	flagSet := pflag.NewFlagSet("models", pflag.ContinueOnError)
	serverURL := serverFlag(flagSet)
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	client := newClient(*serverURL)
	response, err := client.get("/api/models")
	if err != nil {
		return err
	}
	return cli.WriteJSON(response)
}

func runQueue(args []string) error {
	flagSet := pflag.NewFlagSet("queue", pflag.ContinueOnError)
	serverURL := serverFlag(flagSet)
	clear := flagSet.Bool("clear", false, "clear the queue instead of listing it")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	client := newClient(*serverURL)
	var response map[string]any
	var err error
	if *clear {
		response, err = client.delete("/api/queue")
	} else {
		response, err = client.get("/api/queue")
	}
	if err != nil {
		return err
	}
	return cli.WriteJSON(response)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `agentrig drives the avatar state server.

Usage:
  agentrig <command> [flags]

Commands:
  state              print the current avatar state
  play <name>        play an animation clip (--loop, --duration)
  stop               stop the current animation, return to idle
  emote <name>       set the emotional expression (--intensity)
  model <name>       switch the displayed model
  models             list available models
  queue              print the animation queue (--clear empties it)

The server address comes from --server or $AGENTRIG_SERVER
(default http://127.0.0.1:8080).
`)
}
