//go:build linux
// +build linux

// File: topology/topology_linux.go
// Author: momentics <momentics@gmail.com>
//
// Linux topology discovery via /sys/devices/system.

package topology

const sysfsRoot = "/sys/devices/system"

func detectPlatform() (*Topology, error) {
	return detectFromSysfs(sysfsRoot)
}
