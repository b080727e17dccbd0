//go:build !linux
// +build !linux

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
//
// No-op affinity for platforms without a supported pinning syscall.

package affinity

func setAffinityPlatform(cpuID int) error {
	return nil
}
