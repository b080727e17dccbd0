// File: topology/topology.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Platform-neutral CPU/NUMA topology model. Discovery is platform-specific
// (topology_linux.go, topology_stub.go) and runs once per process; the
// resulting Topology is immutable.

package topology

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/tide999/corobase/api"
)

// CPUCore describes one physical CPU core: its NUMA node, the OS id of its
// primary hardware thread, and the OS ids of its sibling hyperthreads.
type CPUCore struct {
	Node           uint32
	PhysicalThread uint32
	LogicalThreads []uint32
}

// AddLogical appends a sibling hardware thread to the core.
func (c *CPUCore) AddLogical(id uint32) {
	c.LogicalThreads = append(c.LogicalThreads, id)
}

// Topology is the machine map built once at startup. Cores are ordered by
// node, then by primary-thread OS id; the order is stable and doubles as
// the core index within its node.
type Topology struct {
	cores []CPUCore
	nodes int
}

// New builds a Topology from an explicit core list. It rejects an empty
// list and any node with zero cores, since pools cannot be built for them.
func New(cores []CPUCore) (*Topology, error) {
	if len(cores) == 0 {
		return nil, api.ErrNoTopology
	}
	maxNode := uint32(0)
	for i := range cores {
		if cores[i].Node > maxNode {
			maxNode = cores[i].Node
		}
	}
	seen := make([]bool, maxNode+1)
	for i := range cores {
		seen[cores[i].Node] = true
	}
	for node, ok := range seen {
		if !ok {
			return nil, errors.Wrapf(api.ErrNoTopology, "node %d has no cores", node)
		}
	}
	return &Topology{cores: cores, nodes: int(maxNode) + 1}, nil
}

// Cores returns every discovered physical core.
func (t *Topology) Cores() []CPUCore { return t.cores }

// Nodes returns the number of NUMA nodes.
func (t *Topology) Nodes() int { return t.nodes }

// NodeCores returns the cores belonging to one NUMA node, in discovery order.
func (t *Topology) NodeCores(node int) []CPUCore {
	var out []CPUCore
	for i := range t.cores {
		if int(t.cores[i].Node) == node {
			out = append(out, t.cores[i])
		}
	}
	return out
}

var (
	detectOnce sync.Once
	detected   *Topology
	detectErr  error
)

// DetectCPUCores enumerates every online OS CPU, resolves its NUMA node and
// whether it is a core's primary thread or a sibling, and returns the
// process-wide Topology. Discovery runs exactly once; later calls return
// the cached result.
func DetectCPUCores() (*Topology, error) {
	detectOnce.Do(func() {
		detected, detectErr = detectPlatform()
	})
	return detected, detectErr
}
