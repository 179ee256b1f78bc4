// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package accel provides thin pass-through bindings to the accelerator
// runtime hosting the compiled kernels. The bundling core itself never
// talks to a device; it only needs device ordinals for path
// partitioning. These bindings exist for the embedding compilation
// service, which selects the device a kernel is compiled for and
// reports that ordinal to the bundler.
//
// Two implementations are provided: [SysfsRuntime] enumerates GPU
// devices from /sys/class/drm on Linux, and [StubRuntime] reports no
// devices for hosts without accelerators (CI, unit tests, CPU-only
// builds).
package accel

import (
	"fmt"
	"log/slog"
)

// Runtime is the device surface the compilation service needs:
// enumeration, selection, and a completion barrier. Implementations
// are process-local; device selection is not shared across processes.
type Runtime interface {
	// DeviceCount returns the number of accelerator devices visible
	// to this process. Zero when no accelerator is available.
	DeviceCount() int

	// CurrentDevice returns the ordinal of the currently selected
	// device. The initial selection is device 0.
	CurrentDevice() int

	// SetDevice selects the device subsequent kernels compile for.
	// Returns an error for ordinals outside [0, DeviceCount).
	SetDevice(device int) error

	// Synchronize blocks until all outstanding work on the given
	// device completes. Pass -1 for the current device.
	Synchronize(device int) error
}

// IsAvailable reports whether the runtime has at least one device.
func IsAvailable(r Runtime) bool {
	return r.DeviceCount() > 0
}

// StubRuntime is a Runtime for hosts without accelerators. It reports
// zero devices and rejects every selection.
type StubRuntime struct{}

// NewStubRuntime creates a StubRuntime. It logs once at Info level to
// document that no accelerator runtime is present.
func NewStubRuntime(logger *slog.Logger) *StubRuntime {
	logger.Info("accel: no accelerator runtime available, device operations are stubs")
	return &StubRuntime{}
}

// DeviceCount returns 0.
func (*StubRuntime) DeviceCount() int { return 0 }

// CurrentDevice returns 0, the conventional default ordinal.
func (*StubRuntime) CurrentDevice() int { return 0 }

// SetDevice always fails: there is no device to select.
func (*StubRuntime) SetDevice(device int) error {
	return fmt.Errorf("no accelerator devices available (requested device %d)", device)
}

// Synchronize is a no-op: with no devices there is no outstanding work.
func (*StubRuntime) Synchronize(int) error { return nil }
