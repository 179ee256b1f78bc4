// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cachedir resolves the filesystem locations the bundling
// pipeline reads from and writes to.
//
// Two locations matter:
//
//   - The staging directory ([Staging]): the per-run directory where
//     the kernel compiler places each kernel's outputs while
//     compiling. The compiler driver exports it as TRITON_CACHE_DIR
//     before any kernel is registered. When set at replay time it
//     doubles as an override destination: a caller who sets it is
//     assumed to have scoped it (per invocation, per job), so replay
//     uses it verbatim with no device partitioning.
//
//   - The cache root ([Root]): the default persistent location used
//     for replay when no staging override is set. Shared across runs
//     and devices, so replay partitions it further by kernel hash and
//     device ordinal.
package cachedir

import (
	"os"
	"os/user"
	"path/filepath"
)

// StagingEnv is the environment key naming the per-run kernel staging
// directory. The name matches what the Triton compiler itself honors,
// so pointing both at the same directory requires no glue.
const StagingEnv = "TRITON_CACHE_DIR"

// RootEnv overrides the default cache root. Unlike StagingEnv it only
// moves the root; replay still partitions beneath it.
const RootEnv = "KERNELBUNDLE_CACHE_DIR"

// Staging returns the per-run staging directory and whether it is
// set. Callers that require the staging context (entry registration)
// treat an unset value as a caller contract violation; callers that
// merely prefer it (bundle replay) fall back to Root.
func Staging() (string, bool) {
	dir := os.Getenv(StagingEnv)
	return dir, dir != ""
}

// Root returns the default cache root: RootEnv when set, otherwise a
// per-user directory under the system temp dir. Per-user keeps cache
// entries from colliding (and fighting over permissions) on shared
// machines.
func Root() string {
	if dir := os.Getenv(RootEnv); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "kernelbundle_"+username())
}

func username() string {
	if current, err := user.Current(); err == nil && current.Username != "" {
		return current.Username
	}
	// Static builds without cgo can fail user lookup; the USER
	// variable is the conventional fallback.
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "unknown"
}
