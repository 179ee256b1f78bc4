// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bureau-foundation/kernelbundle/lib/cachedir"
)

func sampleBundle() []Group {
	return []Group{
		{
			KernelHash: "abc123",
			Device:     0,
			Artifacts: []Artifact{
				{Filename: "kernel.ptx", Payload: bytes.Repeat([]byte{0xAB}, 500)},
				{Filename: "kernel.json", Payload: []byte(`{"num_warps":4}`)},
			},
		},
		{
			KernelHash: "def456",
			Device:     1,
			Artifacts: []Artifact{
				{Filename: "kernel.cubin", Payload: []byte{0x7F, 'E', 'L', 'F'}},
			},
		},
	}
}

func TestWriteBundleToOverrideDirectory(t *testing.T) {
	override := stageContext(t)

	bundler := newTestBundler(t)
	if err := bundler.WriteBundle(sampleBundle()); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	// Override layout: <override>/<kernel_hash>/<filename>, no
	// device segment even for device 1.
	ptx, err := os.ReadFile(filepath.Join(override, "abc123", "kernel.ptx"))
	if err != nil {
		t.Fatalf("reading replayed kernel.ptx: %v", err)
	}
	if len(ptx) != 500 {
		t.Errorf("kernel.ptx is %d bytes, want 500", len(ptx))
	}

	if _, err := os.Stat(filepath.Join(override, "def456", "kernel.cubin")); err != nil {
		t.Errorf("kernel.cubin not at override path: %v", err)
	}
	if _, err := os.Stat(filepath.Join(override, "def456", "1")); err == nil {
		t.Error("override layout must not contain a device segment")
	}

	if got := bundler.Counters().Snapshot().WrittenArtifacts; got != 3 {
		t.Errorf("WrittenArtifacts counter = %d, want 3", got)
	}
}

func TestWriteBundleToDefaultRoot(t *testing.T) {
	t.Setenv(cachedir.StagingEnv, "")
	root := t.TempDir()

	bundler := New(Options{
		Enabled:   true,
		CacheRoot: root,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err := bundler.WriteBundle(sampleBundle()); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	// Default layout: <root>/triton/<kernel_hash>/<device>/<filename>.
	tests := []string{
		filepath.Join(root, "triton", "abc123", "0", "kernel.ptx"),
		filepath.Join(root, "triton", "abc123", "0", "kernel.json"),
		filepath.Join(root, "triton", "def456", "1", "kernel.cubin"),
	}
	for _, path := range tests {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected artifact at %s: %v", path, err)
		}
	}
}

func TestWriteBundleUsesResolverWithoutConfiguredRoot(t *testing.T) {
	t.Setenv(cachedir.StagingEnv, "")
	resolverRoot := t.TempDir()
	t.Setenv(cachedir.RootEnv, resolverRoot)

	bundler := newTestBundler(t)
	if err := bundler.WriteBundle(sampleBundle()[:1]); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	if _, err := os.Stat(filepath.Join(resolverRoot, "triton", "abc123", "0", "kernel.ptx")); err != nil {
		t.Errorf("artifact not under resolver root: %v", err)
	}
}

func TestWriteBundleRejectsTraversalNames(t *testing.T) {
	override := stageContext(t)

	// Decoded bundles are untrusted input; names that escape the
	// base directory must fail the whole write.
	crafted := []Group{
		{
			KernelHash: "abc123",
			Device:     0,
			Artifacts:  []Artifact{{Filename: "../escape.ptx", Payload: []byte("x")}},
		},
	}

	bundler := newTestBundler(t)
	if err := bundler.WriteBundle(crafted); err == nil {
		t.Fatal("WriteBundle should reject a traversal filename")
	}
	if _, err := os.Stat(filepath.Join(override, "escape.ptx")); err == nil {
		t.Error("traversal filename escaped the kernel directory")
	}

	for _, hash := range []string{"../outside", "a/b", ".", "..", ""} {
		crafted := []Group{{
			KernelHash: hash,
			Device:     0,
			Artifacts:  []Artifact{{Filename: "kernel.ptx", Payload: []byte("x")}},
		}}
		if err := bundler.WriteBundle(crafted); err == nil {
			t.Errorf("WriteBundle accepted kernel hash %q", hash)
		}
	}
}

func TestWriteBundleOverwritesExisting(t *testing.T) {
	override := stageContext(t)

	stale := filepath.Join(override, "abc123")
	if err := os.MkdirAll(stale, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(stale, "kernel.ptx"), []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	bundler := newTestBundler(t)
	if err := bundler.WriteBundle(sampleBundle()[:1]); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	replayed, err := os.ReadFile(filepath.Join(stale, "kernel.ptx"))
	if err != nil {
		t.Fatal(err)
	}
	if len(replayed) != 500 {
		t.Errorf("stale artifact not overwritten: %d bytes", len(replayed))
	}
}

func TestWriteBundleDisabled(t *testing.T) {
	override := stageContext(t)

	bundler := New(Options{Enabled: false})
	if err := bundler.WriteBundle(sampleBundle()); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	entries, err := os.ReadDir(override)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("disabled WriteBundle created %d entries", len(entries))
	}
}

func TestWriteThenCollectRoundTrip(t *testing.T) {
	// Replay a bundle into an override directory, then point a fresh
	// episode at it and collect: the result must reproduce the
	// original filenames and byte-identical payloads.
	stageContext(t)

	original := sampleBundle()

	bundler := newTestBundler(t)
	if err := bundler.WriteBundle(original); err != nil {
		t.Fatalf("WriteBundle: %v", err)
	}

	session := bundler.BeginCompile()
	for _, group := range original {
		session.Put(group.KernelHash, group.Device)
	}

	collected, _ := bundler.Collect()
	if len(collected) != len(original) {
		t.Fatalf("collected %d groups, want %d", len(collected), len(original))
	}

	for i, want := range original {
		got := collected[i]
		if got.KernelHash != want.KernelHash || got.Device != want.Device {
			t.Errorf("group %d identity = (%s, %d), want (%s, %d)",
				i, got.KernelHash, got.Device, want.KernelHash, want.Device)
		}

		wantByName := make(map[string][]byte)
		for _, artifact := range want.Artifacts {
			wantByName[artifact.Filename] = artifact.Payload
		}
		if len(got.Artifacts) != len(wantByName) {
			t.Errorf("group %d: %d artifacts, want %d", i, len(got.Artifacts), len(wantByName))
		}
		for _, artifact := range got.Artifacts {
			if !bytes.Equal(artifact.Payload, wantByName[artifact.Filename]) {
				t.Errorf("group %d artifact %s: payload differs after round trip",
					i, artifact.Filename)
			}
		}
	}
}
