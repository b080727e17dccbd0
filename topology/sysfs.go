// File: topology/sysfs.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// sysfs-based topology discovery. Kept platform-neutral (plain file reads
// against an arbitrary root) so the parser is testable everywhere; only the
// default root in topology_linux.go is Linux-specific.

package topology

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/tide999/corobase/api"
)

// detectFromSysfs reads a sysfs-style tree rooted at root, expecting
// node/nodeK/cpulist and cpu/cpuN/topology/thread_siblings_list entries.
// The first CPU of a siblings list is the core's primary hardware thread;
// the rest are its hyperthread siblings.
func detectFromSysfs(root string) (*Topology, error) {
	nodeDir := filepath.Join(root, "node")
	entries, err := os.ReadDir(nodeDir)
	if err != nil {
		return nil, errors.Wrap(err, "topology: reading NUMA node directory")
	}

	var nodeIDs []int
	nodeCPUs := make(map[int][]int)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !strings.HasPrefix(name, "node") {
			continue
		}
		nodeID, err := strconv.Atoi(strings.TrimPrefix(name, "node"))
		if err != nil {
			continue
		}
		data, err := os.ReadFile(filepath.Join(nodeDir, name, "cpulist"))
		if err != nil {
			return nil, errors.Wrapf(err, "topology: reading cpulist of node %d", nodeID)
		}
		cpus, err := parseCPUList(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, errors.Wrapf(err, "topology: node %d cpulist", nodeID)
		}
		nodeIDs = append(nodeIDs, nodeID)
		nodeCPUs[nodeID] = cpus
	}
	if len(nodeIDs) == 0 {
		return nil, api.ErrNoTopology
	}
	sort.Ints(nodeIDs)

	var cores []CPUCore
	for _, nodeID := range nodeIDs {
		nodeCores, err := coresOfNode(root, nodeID, nodeCPUs[nodeID])
		if err != nil {
			return nil, err
		}
		cores = append(cores, nodeCores...)
	}
	return New(cores)
}

// coresOfNode merges the node's CPUs into per-core descriptors using each
// CPU's thread_siblings_list.
func coresOfNode(root string, nodeID int, cpus []int) ([]CPUCore, error) {
	byPrimary := make(map[int]*CPUCore)
	var primaries []int
	for _, cpu := range cpus {
		path := filepath.Join(root, "cpu", "cpu"+strconv.Itoa(cpu), "topology", "thread_siblings_list")
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "topology: reading siblings of cpu %d", cpu)
		}
		siblings, err := parseCPUList(strings.TrimSpace(string(data)))
		if err != nil || len(siblings) == 0 {
			return nil, errors.Wrapf(api.ErrNoTopology, "cpu %d reports no siblings", cpu)
		}
		primary := siblings[0]
		core, ok := byPrimary[primary]
		if !ok {
			core = &CPUCore{Node: uint32(nodeID), PhysicalThread: uint32(primary)}
			byPrimary[primary] = core
			primaries = append(primaries, primary)
		}
		if cpu != primary {
			core.AddLogical(uint32(cpu))
		}
	}
	sort.Ints(primaries)
	out := make([]CPUCore, 0, len(primaries))
	for _, primary := range primaries {
		core := byPrimary[primary]
		sort.Slice(core.LogicalThreads, func(i, j int) bool {
			return core.LogicalThreads[i] < core.LogicalThreads[j]
		})
		out = append(out, *core)
	}
	return out, nil
}

// parseCPUList parses the kernel's cpulist format, e.g. "0-3,8,10-11".
func parseCPUList(list string) ([]int, error) {
	var cpus []int
	if list == "" {
		return cpus, nil
	}
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(lo)
			if err != nil {
				return nil, errors.Wrapf(err, "bad cpu range %q", part)
			}
			end, err := strconv.Atoi(hi)
			if err != nil || end < start {
				return nil, errors.Errorf("bad cpu range %q", part)
			}
			for i := start; i <= end; i++ {
				cpus = append(cpus, i)
			}
			continue
		}
		cpu, err := strconv.Atoi(part)
		if err != nil {
			return nil, errors.Wrapf(err, "bad cpu id %q", part)
		}
		cpus = append(cpus, cpu)
	}
	return cpus, nil
}
