// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/bureau-foundation/kernelbundle/lib/config"
	"github.com/bureau-foundation/kernelbundle/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	subcommand := os.Args[1]
	switch subcommand {
	case "pack":
		return runPack(os.Args[2:])
	case "inspect":
		return runInspect(os.Args[2:])
	case "replay":
		return runReplay(os.Args[2:])
	case "devices":
		return runDevices(os.Args[2:])
	case "version":
		return runVersion(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", subcommand)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: kernelbundle <subcommand> [flags]

Subcommands:
  pack      Collect staged kernel artifacts into a portable bundle file
  inspect   Print the contents of a bundle file
  replay    Unpack a bundle file into the replay cache
  devices   List visible accelerator devices
  version   Print version information

Run 'kernelbundle <subcommand> --help' for subcommand flags.
`)
}

func runVersion(args []string) error {
	flags := flag.NewFlagSet("version", flag.ExitOnError)
	var full bool
	flags.BoolVar(&full, "full", false, "include Go and platform details")
	flags.Parse(args)

	if full {
		fmt.Printf("kernelbundle %s\n", version.Full())
		return nil
	}
	fmt.Printf("kernelbundle %s\n", version.Info())
	return nil
}

// newLogger builds the process logger. All diagnostics go to stderr so
// that subcommand output on stdout stays machine-readable.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig resolves the configuration for a subcommand: an explicit
// --config path wins, then KERNELBUNDLE_CONFIG, then built-in defaults.
// The CLI tolerates a missing config file because pack and replay are
// also used ad hoc against explicit flag values.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	if os.Getenv("KERNELBUNDLE_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}
