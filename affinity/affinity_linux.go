//go:build linux
// +build linux

// File: affinity/affinity_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux thread affinity via sched_setaffinity on the calling thread.

package affinity

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func setAffinityPlatform(cpuID int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	// pid 0 targets the calling thread.
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.Wrapf(err, "affinity: pinning to cpu %d", cpuID)
	}
	return nil
}
