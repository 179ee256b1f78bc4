// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"os"
	"path/filepath"
)

// CollectStats reports per-item outcomes of one Collect call. Skips
// are deliberate, recoverable events; surfacing their counts makes
// the failure-isolation behavior observable instead of only logged.
type CollectStats struct {
	// ArtifactsRead counts files successfully read into the bundle.
	ArtifactsRead int

	// FilesSkipped counts files omitted because they were not
	// regular files or could not be read.
	FilesSkipped int

	// EntriesMissing counts entries whose kernel directory did not
	// exist at collection time (kernel never compiled, or the stage
	// was cleared). Expected, not an error.
	EntriesMissing int
}

// Collect drains the active episode and gathers the registered
// kernels' staged output files into groups, in entry insertion order.
//
// The registry is returned to the no-episode state unconditionally,
// so exactly one Collect is meaningful per BeginCompile; a second
// call before the next episode returns nothing. When bundling is
// disabled this clears any residual state and returns nothing.
//
// Failure isolation is per artifact: an entry whose directory is
// absent is skipped silently, and a single unreadable or non-regular
// file inside a directory is logged at Debug and skipped while its
// siblings and all other entries continue to collect. Entries that
// yield no readable artifacts produce no group.
func (b *Bundler) Collect() ([]Group, CollectStats) {
	entries := b.take()

	var stats CollectStats
	if !b.enabled || entries == nil {
		return nil, stats
	}

	var result []Group
	for _, entry := range entries {
		path := filepath.Join(entry.Directory, entry.KernelHash)
		if _, err := os.Stat(path); err != nil {
			stats.EntriesMissing++
			continue
		}

		children, err := os.ReadDir(path)
		if err != nil {
			// The directory exists but cannot be enumerated.
			// Isolate the failure to this entry.
			b.logger.Debug("failed to enumerate kernel directory",
				"kernel_hash", entry.KernelHash,
				"path", path,
				"error", err)
			continue
		}

		var artifacts []Artifact
		for _, child := range children {
			filePath := filepath.Join(path, child.Name())

			// Stat follows symlinks, so a link to a regular file
			// collects like the file itself. Dangling links fail
			// the stat and are skipped with the non-regular cases.
			info, err := os.Stat(filePath)
			if err != nil || !info.Mode().IsRegular() {
				b.logger.Debug("skipping non-regular kernel file",
					"kernel_hash", entry.KernelHash,
					"path", filePath)
				stats.FilesSkipped++
				b.counters.FileSkipped()
				continue
			}

			payload, err := os.ReadFile(filePath)
			if err != nil {
				b.logger.Debug("failed to read kernel artifact",
					"kernel_hash", entry.KernelHash,
					"path", filePath,
					"error", err)
				stats.FilesSkipped++
				b.counters.FileSkipped()
				continue
			}

			artifacts = append(artifacts, Artifact{
				Filename: child.Name(),
				Payload:  payload,
			})
			stats.ArtifactsRead++
			b.counters.ArtifactSaved()
		}

		if len(artifacts) > 0 {
			result = append(result, Group{
				KernelHash: entry.KernelHash,
				Device:     entry.Device,
				Artifacts:  artifacts,
			})
		}
	}

	return result, stats
}
