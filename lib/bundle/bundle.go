// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

// Entry identifies one compiled kernel awaiting collection. Entries
// are comparable values: the registry collapses duplicate
// registrations by structural equality.
type Entry struct {
	// KernelHash is the content hash the compiler assigned to the
	// kernel. It names the subdirectory of Directory holding the
	// kernel's output files, and later the replay target directory.
	KernelHash string

	// Device is the accelerator ordinal the kernel was compiled for.
	Device int

	// Directory is the staging root under which the kernel's
	// compiled outputs were placed, captured from the staging
	// context at registration time.
	Directory string
}

// Artifact is one output file belonging to a compiled kernel. The
// payload is opaque: stored, transported, and written back verbatim.
type Artifact struct {
	Filename string `cbor:"filename"`
	Payload  []byte `cbor:"payload"`
}

// Group is the set of artifacts collected for one kernel on one
// device. Groups are created only by collection and are immutable
// once produced; a group always holds at least one artifact (entries
// with no readable artifacts are never materialized).
type Group struct {
	KernelHash string     `cbor:"kernel_hash"`
	Device     int        `cbor:"device"`
	Artifacts  []Artifact `cbor:"artifacts"`
}
