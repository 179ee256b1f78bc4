// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bureau-foundation/kernelbundle/lib/bundle"
	"github.com/bureau-foundation/kernelbundle/lib/metrics"
)

// runReplay unpacks a bundle file into the on-disk replay cache, where
// the kernel runtime's own cache lookup will find the artifacts on the
// next compilation.
func runReplay(args []string) error {
	flags := flag.NewFlagSet("replay", flag.ExitOnError)
	var (
		configPath string
		cacheRoot  string
		verbose    bool
	)
	flags.StringVar(&configPath, "config", "", "path to kernelbundle.yaml (default: $KERNELBUNDLE_CONFIG)")
	flags.StringVar(&cacheRoot, "root", "", "replay cache root (default: from config, then resolver default)")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flags.Parse(args)

	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("exactly one bundle file argument required")
	}
	path := flags.Arg(0)

	logger := newLogger(verbose)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cacheRoot == "" {
		cacheRoot = cfg.Cache.Root
	}

	container, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading bundle file: %w", err)
	}

	groups, err := bundle.DecodeBundle(container)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	counters := &metrics.Counters{}
	bundler := bundle.New(bundle.Options{
		Enabled:   true,
		CacheRoot: cacheRoot,
		Logger:    logger,
		Counters:  counters,
	})

	if err := bundler.WriteBundle(groups); err != nil {
		return fmt.Errorf("replaying bundle: %w", err)
	}

	written := counters.Snapshot().WrittenArtifacts
	logger.Info("bundle replayed", "path", path, "kernels", len(groups), "artifacts", written)
	fmt.Printf("%s: %d kernels, %d artifacts replayed\n", path, len(groups), written)
	return nil
}
