// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral API for CPU affinity. Platform-specific implementations
// live in separate files (affinity_linux.go, affinity_stub.go) guarded by
// build tags.

package affinity

// SetAffinity pins the current OS thread to a given logical CPU on supported
// platforms. The caller must hold runtime.LockOSThread for the pin to stick.
// On unsupported platforms it is a no-op.
func SetAffinity(cpuID int) error {
	return setAffinityPlatform(cpuID)
}
