// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/bureau-foundation/kernelbundle/lib/bundle"
	"github.com/bureau-foundation/kernelbundle/lib/codec"
)

// bundleSummary is the JSON shape emitted by "inspect --json".
type bundleSummary struct {
	Kernels []kernelSummary `json:"kernels"`
}

type kernelSummary struct {
	KernelHash string            `json:"kernel_hash"`
	Device     int               `json:"device"`
	Artifacts  []artifactSummary `json:"artifacts"`
}

type artifactSummary struct {
	Filename string `json:"filename"`
	Bytes    int    `json:"bytes"`
}

// runInspect prints the contents of a bundle file without writing
// anything to the replay cache.
func runInspect(args []string) error {
	flags := flag.NewFlagSet("inspect", flag.ExitOnError)
	var (
		asJSON   bool
		diagnose bool
	)
	flags.BoolVar(&asJSON, "json", false, "emit a JSON summary instead of text")
	flags.BoolVar(&diagnose, "diag", false, "print the bundle body in CBOR diagnostic notation")
	flags.Parse(args)

	if flags.NArg() != 1 {
		flags.Usage()
		return fmt.Errorf("exactly one bundle file argument required")
	}
	path := flags.Arg(0)

	container, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading bundle file: %w", err)
	}

	groups, err := bundle.DecodeBundle(container)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	if diagnose {
		body, err := codec.Marshal(groups)
		if err != nil {
			return fmt.Errorf("re-encoding bundle body: %w", err)
		}
		notation, err := codec.Diagnose(body)
		if err != nil {
			return fmt.Errorf("diagnosing bundle body: %w", err)
		}
		fmt.Println(notation)
		return nil
	}

	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(summarize(groups))
	}

	for _, group := range groups {
		fmt.Printf("%s device=%d (%d artifacts)\n",
			group.KernelHash, group.Device, len(group.Artifacts))
		for _, artifact := range group.Artifacts {
			fmt.Printf("  %s (%d bytes)\n", artifact.Filename, len(artifact.Payload))
		}
	}
	return nil
}

func summarize(groups []bundle.Group) bundleSummary {
	summary := bundleSummary{Kernels: []kernelSummary{}}
	for _, group := range groups {
		kernel := kernelSummary{
			KernelHash: group.KernelHash,
			Device:     group.Device,
			Artifacts:  []artifactSummary{},
		}
		for _, artifact := range group.Artifacts {
			kernel.Artifacts = append(kernel.Artifacts, artifactSummary{
				Filename: artifact.Filename,
				Bytes:    len(artifact.Payload),
			})
		}
		summary.Kernels = append(summary.Kernels, kernel)
	}
	return summary
}
