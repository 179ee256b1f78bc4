// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics provides instrumentation counters for the bundling
// pipeline. Counters are purely observational: nothing in the core
// reads them to make decisions. They exist so that an embedding
// compilation service can report how much work the bundle cache is
// actually doing.
package metrics

import "sync/atomic"

// Counters tracks artifact traffic through one Bundler. All methods
// are safe for concurrent use.
type Counters struct {
	savedArtifacts   atomic.Uint64
	writtenArtifacts atomic.Uint64
	skippedFiles     atomic.Uint64
}

// ArtifactSaved records one artifact successfully read from disk
// during collection.
func (c *Counters) ArtifactSaved() {
	c.savedArtifacts.Add(1)
}

// ArtifactWritten records one artifact successfully written to disk
// during bundle replay.
func (c *Counters) ArtifactWritten() {
	c.writtenArtifacts.Add(1)
}

// FileSkipped records one file omitted from collection because it
// could not be read or was not a regular file.
func (c *Counters) FileSkipped() {
	c.skippedFiles.Add(1)
}

// Snapshot is a point-in-time copy of counter values.
type Snapshot struct {
	SavedArtifacts   uint64
	WrittenArtifacts uint64
	SkippedFiles     uint64
}

// Snapshot returns the current counter values. Values read under
// concurrent updates are individually consistent but not mutually
// atomic, which is fine for reporting.
func (c *Counters) Snapshot() Snapshot {
	return Snapshot{
		SavedArtifacts:   c.savedArtifacts.Load(),
		WrittenArtifacts: c.writtenArtifacts.Load(),
		SkippedFiles:     c.skippedFiles.Load(),
	}
}
