// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bureau-foundation/kernelbundle/lib/cachedir"
)

// defaultSubdir is the fixed subfolder appended to the default cache
// root so bundled kernels never mix with other tenants of the root.
const defaultSubdir = "triton"

// WriteBundle replays a bundle's artifacts onto the filesystem so a
// later compilation finds them where the compiler expects staged
// kernels. No-op when bundling is disabled.
//
// The base directory is the staging-directory context when set: a
// caller who configured one has already scoped it (per invocation,
// per job), so artifacts land at <staging>/<kernel_hash>/<filename>
// with no further partitioning. Without an override the default
// cache root is shared across runs and devices, so artifacts land at
// <root>/triton/<kernel_hash>/<device>/<filename> to keep kernels
// compiled for different devices from colliding.
//
// Kernel hashes and artifact filenames must be single path
// components; a bundle carrying traversal names (separators, dot
// entries) fails before the offending name touches the filesystem.
// Writes are independent per artifact and overwrite existing files.
// There is no multi-file transaction: a partial bundle on crash is
// acceptable because the cache is never a source of truth. Write
// failures propagate: the target is a cache location under the
// caller's control, so an unwritable target is a real fault.
func (b *Bundler) WriteBundle(bundle []Group) error {
	if !b.enabled {
		return nil
	}

	baseDir, custom := cachedir.Staging()
	if !custom {
		root := b.cacheRoot
		if root == "" {
			root = cachedir.Root()
		}
		baseDir = filepath.Join(root, defaultSubdir)
	}

	for _, group := range bundle {
		// Collection only ever produces single path components, but
		// bundles also arrive through DecodeBundle from files the
		// caller did not author. Names that traverse out of the base
		// directory are rejected, not sanitized.
		if !isPathComponent(group.KernelHash) {
			return fmt.Errorf("invalid kernel hash %q: not a single path component", group.KernelHash)
		}

		directory := filepath.Join(baseDir, group.KernelHash)
		if !custom {
			// Shared default root: separate kernels by device.
			directory = filepath.Join(directory, strconv.Itoa(group.Device))
		}
		if err := os.MkdirAll(directory, 0o755); err != nil {
			return fmt.Errorf("creating kernel directory %s: %w", directory, err)
		}

		for _, artifact := range group.Artifacts {
			if !isPathComponent(artifact.Filename) {
				return fmt.Errorf("invalid artifact filename %q in kernel %s: not a single path component",
					artifact.Filename, group.KernelHash)
			}
			filePath := filepath.Join(directory, artifact.Filename)
			if err := os.WriteFile(filePath, artifact.Payload, 0o644); err != nil {
				return fmt.Errorf("writing artifact %s: %w", filePath, err)
			}
			b.counters.ArtifactWritten()
		}
	}

	return nil
}

// isPathComponent reports whether name is a plain file name: non-empty,
// no separators, and not a dot entry.
func isPathComponent(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
