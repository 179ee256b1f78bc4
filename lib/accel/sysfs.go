// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package accel

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// SysfsRuntime enumerates accelerator devices by walking
// /sys/class/drm/card* and keeps the current-device selection as
// process-local state. It carries no driver handle, so Synchronize is
// a barrier in name only: kernels compiled through an external
// toolchain have already completed by the time their artifacts reach
// the staging directory, and this runtime exists to give the bundler
// stable device ordinals, not to schedule work.
type SysfsRuntime struct {
	devices []string // sysfs card paths, sorted for stable ordinals

	mu      sync.Mutex
	current int
}

// NewSysfsRuntime creates a SysfsRuntime reading from the real /sys
// filesystem.
func NewSysfsRuntime() *SysfsRuntime {
	return newSysfsRuntimeFrom("/sys")
}

// newSysfsRuntimeFrom creates a SysfsRuntime with a custom sysfs root
// for testing with synthetic filesystems.
func newSysfsRuntimeFrom(sysRoot string) *SysfsRuntime {
	drmBase := filepath.Join(sysRoot, "class/drm")
	entries, err := os.ReadDir(drmBase)
	if err != nil {
		// No DRM subsystem (container, non-Linux CI). Zero devices.
		return &SysfsRuntime{}
	}

	var devices []string
	for _, entry := range entries {
		if isCardDevice(entry.Name()) {
			devices = append(devices, filepath.Join(drmBase, entry.Name()))
		}
	}
	sort.Strings(devices)

	return &SysfsRuntime{devices: devices}
}

// isCardDevice returns true for DRM card device names (card0, card1, ...)
// but not connectors (card0-DP-1) or render nodes (renderD128).
func isCardDevice(name string) bool {
	if !strings.HasPrefix(name, "card") {
		return false
	}
	suffix := name[4:]
	if len(suffix) == 0 {
		return false
	}
	for _, character := range suffix {
		if character < '0' || character > '9' {
			return false
		}
	}
	return true
}

// DeviceCount returns the number of DRM card devices found.
func (r *SysfsRuntime) DeviceCount() int {
	return len(r.devices)
}

// CurrentDevice returns the currently selected device ordinal.
func (r *SysfsRuntime) CurrentDevice() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// SetDevice selects the device subsequent kernels compile for.
func (r *SysfsRuntime) SetDevice(device int) error {
	if device < 0 || device >= len(r.devices) {
		return fmt.Errorf("device %d out of range (have %d devices)", device, len(r.devices))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = device
	return nil
}

// Synchronize validates the ordinal and returns. See the type comment
// for why there is no work to wait on.
func (r *SysfsRuntime) Synchronize(device int) error {
	if device == -1 {
		return nil
	}
	if device < 0 || device >= len(r.devices) {
		return fmt.Errorf("device %d out of range (have %d devices)", device, len(r.devices))
	}
	return nil
}
