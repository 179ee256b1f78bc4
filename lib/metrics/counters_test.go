// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"sync"
	"testing"
)

func TestCountersSnapshot(t *testing.T) {
	var counters Counters

	counters.ArtifactSaved()
	counters.ArtifactSaved()
	counters.ArtifactWritten()
	counters.FileSkipped()

	snapshot := counters.Snapshot()
	if snapshot.SavedArtifacts != 2 {
		t.Errorf("SavedArtifacts = %d, want 2", snapshot.SavedArtifacts)
	}
	if snapshot.WrittenArtifacts != 1 {
		t.Errorf("WrittenArtifacts = %d, want 1", snapshot.WrittenArtifacts)
	}
	if snapshot.SkippedFiles != 1 {
		t.Errorf("SkippedFiles = %d, want 1", snapshot.SkippedFiles)
	}
}

func TestCountersConcurrent(t *testing.T) {
	var counters Counters

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < perWorker; n++ {
				counters.ArtifactSaved()
			}
		}()
	}
	wg.Wait()

	if got := counters.Snapshot().SavedArtifacts; got != workers*perWorker {
		t.Errorf("SavedArtifacts = %d, want %d", got, workers*perWorker)
	}
}
