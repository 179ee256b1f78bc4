// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bundle implements the kernel artifact bundling core: during
// one compilation episode it accumulates references to the binary
// outputs of individually compiled device kernels, gathers those
// outputs from disk into an in-memory portable bundle, and can replay
// a bundle back onto disk for a later compilation to reuse. An
// external caching layer stores and retrieves bundles without knowing
// anything about compiler internals, only filenames and raw payloads
// keyed by kernel hash and device ordinal.
//
// The package is organized around one episode lifecycle:
//
//   - Registration: [Bundler.BeginCompile] opens an episode and
//     returns a [Session]. Compilation workers call [Session.Put] for
//     each kernel they finish; entries are keyed by (kernel hash,
//     device, staging directory) and duplicate registrations collapse.
//     Put is safe for concurrent use; opening and closing the episode
//     are not, and need a caller-enforced barrier.
//
//   - Collection: [Bundler.Collect] drains the session and reads each
//     entry's staged output files into [Group] values. Collection
//     isolates per-file failures: one unreadable artifact is logged
//     and skipped, its siblings and every other entry still collect.
//     A missing entry directory is expected (the kernel never
//     compiled, or the stage was cleared) and contributes nothing.
//
//   - Replay: [Bundler.WriteBundle] writes a bundle's artifacts back
//     to disk. A staging-directory override is used verbatim; the
//     default cache root is additionally partitioned by device
//     ordinal so devices sharing one root never collide.
//
//   - Transport: [EncodeBundle] and [DecodeBundle] convert a bundle
//     to and from a self-describing byte container (deterministic
//     CBOR body, transparent compression, BLAKE3 integrity digest)
//     so the external cache can treat bundles as opaque blobs.
//
// Artifact payloads are never interpreted, deduplicated, or
// transformed beyond transparent compression in the portable
// container; replay writes the exact bytes collection read. Nothing
// here is transactional: a bundle is a best-effort cache entry, and
// every artifact is re-derivable by recompiling its kernel.
//
// Whether bundling is active is decided once, when the [Bundler] is
// constructed (see lib/config). A disabled Bundler turns every
// operation into an inert no-op.
package bundle
