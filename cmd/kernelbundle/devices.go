// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/kernelbundle/lib/accel"
)

// detectRuntime returns the sysfs-backed accelerator runtime when the
// host has visible devices, and the zero-device stub otherwise.
func detectRuntime(logger *slog.Logger) accel.Runtime {
	if runtime := accel.NewSysfsRuntime(); accel.IsAvailable(runtime) {
		return runtime
	}
	return accel.NewStubRuntime(logger)
}

// runDevices lists the accelerator devices visible to this host, the
// same view pack uses to pick a default device index.
func runDevices(args []string) error {
	flags := flag.NewFlagSet("devices", flag.ExitOnError)
	var verbose bool
	flags.BoolVar(&verbose, "verbose", false, "enable debug logging")
	flags.Parse(args)

	runtime := detectRuntime(newLogger(verbose))
	count := runtime.DeviceCount()
	if count == 0 {
		fmt.Println("no accelerator devices visible")
		return nil
	}

	current := runtime.CurrentDevice()
	for device := 0; device < count; device++ {
		marker := " "
		if device == current {
			marker = "*"
		}
		fmt.Printf("%s device %d\n", marker, device)
	}
	return nil
}
