// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"log/slog"
	"sync"

	"github.com/bureau-foundation/kernelbundle/lib/cachedir"
	"github.com/bureau-foundation/kernelbundle/lib/metrics"
)

// Options configures a Bundler.
type Options struct {
	// Enabled is the resolved enablement decision. Resolve it once
	// at construction (config.BundlingEnabled) rather than
	// re-querying configuration on every operation. A disabled
	// Bundler makes every operation an inert no-op.
	Enabled bool

	// CacheRoot overrides the default replay cache root. Empty means
	// cachedir.Root(). The staging-directory context, when set, takes
	// precedence over both during replay.
	CacheRoot string

	// Logger receives per-file skip diagnostics during collection.
	// Nil means slog.Default().
	Logger *slog.Logger

	// Counters receives artifact-traffic increments. Nil allocates a
	// private set, which keeps call sites unconditional.
	Counters *metrics.Counters
}

// Bundler coordinates kernel artifact bundling for one process. It
// owns at most one active episode at a time; overlapping episodes
// would corrupt the attribution of entries and are a programming
// error.
type Bundler struct {
	enabled   bool
	cacheRoot string
	logger    *slog.Logger
	counters  *metrics.Counters

	// mu guards the active-session pointer. It serializes
	// BeginCompile against Collect; it deliberately does not make
	// either safe to run concurrently with Put (see Session).
	mu      sync.Mutex
	session *Session
}

// New creates a Bundler.
func New(options Options) *Bundler {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	counters := options.Counters
	if counters == nil {
		counters = &metrics.Counters{}
	}
	return &Bundler{
		enabled:   options.Enabled,
		cacheRoot: options.CacheRoot,
		logger:    logger,
		counters:  counters,
	}
}

// Enabled reports the enablement decision the Bundler was constructed
// with.
func (b *Bundler) Enabled() bool {
	return b.enabled
}

// Counters returns the Bundler's instrumentation counters.
func (b *Bundler) Counters() *metrics.Counters {
	return b.counters
}

// BeginCompile opens a compilation episode and returns its Session.
// Returns nil when bundling is disabled; a nil Session accepts Put
// calls as no-ops, so callers register kernels unconditionally.
//
// Panics if an episode is already active. Overlapping episodes mean
// two compilations would blend their entries, silently attributing
// kernels to the wrong bundle; failing loudly here is the contract.
func (b *Bundler) BeginCompile() *Session {
	if !b.enabled {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session != nil {
		panic("bundle: BeginCompile called while an episode is already active; " +
			"every episode must be drained by Collect before the next begins")
	}

	b.session = &Session{seen: make(map[Entry]struct{})}
	return b.session
}

// Session is the entry registry for one compilation episode. It is
// created by [Bundler.BeginCompile] and consumed by [Bundler.Collect].
//
// Put may be called concurrently from independent compilation
// workers: insertion is atomic at single-key granularity. Draining is
// not synchronized against Put: the caller must ensure all Put calls
// for an episode have completed before ending it.
type Session struct {
	mu    sync.Mutex
	seen  map[Entry]struct{}
	order []Entry
}

// Put registers one compiled kernel with the episode. The staging
// directory is captured from the cache-directory context at call
// time, so kernels staged under different runs land in distinct
// entries. Registering the same kernel twice under an unchanged
// context is a no-op.
//
// A nil receiver (bundling disabled, or no episode in progress) is a
// no-op. Panics if the staging context is not established: the
// compiler driver sets it unconditionally before compiling, so its
// absence is caller misuse, not a runtime condition.
func (s *Session) Put(kernelHash string, device int) {
	if s == nil {
		return
	}

	directory, ok := cachedir.Staging()
	if !ok {
		panic("bundle: Put called without " + cachedir.StagingEnv +
			" set; establish the staging context before registering kernels")
	}

	entry := Entry{KernelHash: kernelHash, Device: device, Directory: directory}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, duplicate := s.seen[entry]; duplicate {
		return
	}
	s.seen[entry] = struct{}{}
	s.order = append(s.order, entry)
}

// Len returns the number of distinct entries registered so far. Like
// draining, it must not race with Put.
func (s *Session) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// take detaches the session from the Bundler and returns the entries
// in insertion order. Exactly one Collect consumes each session.
func (b *Bundler) take() []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	session := b.session
	b.session = nil
	if session == nil {
		return nil
	}
	return session.order
}
