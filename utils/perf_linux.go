//go:build linux
// +build linux

package utils

import (
	"fmt"

	"github.com/hodgesds/perf-utils"
)

// ProfileSolve runs f under a hardware CPU cycle counter when available.
// If perf events are not usable (permissions, container), f runs unprofiled.
func ProfileSolve(f func() error) (cycles uint64, err error) {
	profileValue, perr := perf.CPUInstructions(func() error {
		return f()
	})
	if perr != nil {
		// perf unavailable, fall back to a plain call
		return 0, f()
	}
	if profileValue != nil {
		cycles = profileValue.Value
	}
	return
}

// PrintPerf reports instruction counts in the driver's progress-line format.
func PrintPerf(label string, cycles uint64) {
	if cycles == 0 {
		return
	}
	fmt.Printf("%s: %d instructions\n", label, cycles)
}
