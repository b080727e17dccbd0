//go:build !linux
// +build !linux

// File: topology/topology_stub.go
// Author: momentics <momentics@gmail.com>
//
// Fallback topology for platforms without sysfs: a single NUMA node where
// every online CPU is treated as its own physical core.

package topology

import "runtime"

func detectPlatform() (*Topology, error) {
	n := runtime.NumCPU()
	cores := make([]CPUCore, 0, n)
	for i := 0; i < n; i++ {
		cores = append(cores, CPUCore{Node: 0, PhysicalThread: uint32(i)})
	}
	return New(cores)
}
