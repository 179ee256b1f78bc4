// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/bureau-foundation/kernelbundle/lib/bundle"
	"github.com/bureau-foundation/kernelbundle/lib/cachedir"
	"github.com/bureau-foundation/kernelbundle/lib/config"
	"github.com/bureau-foundation/kernelbundle/lib/metrics"
)

// runPack collects every kernel staged under a compilation cache
// directory into a single portable bundle file.
func runPack(args []string) error {
	flags := flag.NewFlagSet("pack", flag.ExitOnError)
	var (
		configPath  string
		stagingDir  string
		outputPath  string
		compression string
		device      int
		verbose     bool
	)
	flags.StringVar(&configPath, "config", "", "path to kernelbundle.yaml (default: $KERNELBUNDLE_CONFIG)")
	flags.StringVar(&stagingDir, "staging", "", "staged kernel directory (default: $TRITON_CACHE_DIR)")
	flags.StringVar(&outputPath, "output", "", "bundle file to write (required)")
	flags.StringVar(&compression, "compression", "", `bundle compression: none, lz4, zstd (default: from config)`)
	flags.IntVar(&device, "device", -1, "device index recorded for the staged kernels (default: current device)")
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flags.Parse(args)

	if outputPath == "" {
		flags.Usage()
		return fmt.Errorf("--output is required")
	}

	logger := newLogger(verbose)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Running pack is itself the gate decision, so the configured
	// feature gate counts as active here. Only an explicit disable
	// in the config stops an invocation.
	if !cfg.BundlingEnabled(config.StaticGate{cfg.Bundling.FeatureGate: true}) {
		return fmt.Errorf("bundling is disabled by configuration")
	}

	if stagingDir == "" {
		staged, ok := cachedir.Staging()
		if !ok {
			return fmt.Errorf("no staging directory: pass --staging or set %s", cachedir.StagingEnv)
		}
		stagingDir = staged
	} else if err := os.Setenv(cachedir.StagingEnv, stagingDir); err != nil {
		return fmt.Errorf("setting staging directory: %w", err)
	}

	if compression == "" {
		compression = cfg.Cache.Compression
	}
	tag, err := bundle.ParseCompressionTag(compression)
	if err != nil {
		return err
	}

	if device < 0 {
		device = detectRuntime(logger).CurrentDevice()
	}

	hashes, err := stagedKernelHashes(stagingDir)
	if err != nil {
		return fmt.Errorf("scanning staging directory: %w", err)
	}
	if len(hashes) == 0 {
		return fmt.Errorf("no staged kernels under %s", stagingDir)
	}

	counters := &metrics.Counters{}
	bundler := bundle.New(bundle.Options{
		Enabled:  true,
		Logger:   logger,
		Counters: counters,
	})

	session := bundler.BeginCompile()
	for _, hash := range hashes {
		session.Put(hash, device)
	}

	groups, stats := bundler.Collect()
	if len(groups) == 0 {
		return fmt.Errorf("no readable artifacts under %s", stagingDir)
	}

	container, err := bundle.EncodeBundle(groups, tag)
	if err != nil {
		return fmt.Errorf("encoding bundle: %w", err)
	}

	if err := os.WriteFile(outputPath, container, 0o644); err != nil {
		return fmt.Errorf("writing bundle file: %w", err)
	}

	logger.Info("bundle written",
		"path", outputPath,
		"groups", len(groups),
		"artifacts", stats.ArtifactsRead,
		"skipped_files", stats.FilesSkipped,
		"bytes", len(container),
	)
	fmt.Printf("%s: %d kernels, %d artifacts, %d bytes (%s)\n",
		outputPath, len(groups), stats.ArtifactsRead, len(container), tag)
	return nil
}

// stagedKernelHashes lists the kernel hash directories staged under a
// compilation cache directory. Non-directory entries (lock files,
// stray output) are ignored.
func stagedKernelHashes(stagingDir string) ([]string, error) {
	children, err := os.ReadDir(stagingDir)
	if err != nil {
		return nil, err
	}

	var hashes []string
	for _, child := range children {
		if child.IsDir() {
			hashes = append(hashes, child.Name())
		}
	}
	return hashes, nil
}
