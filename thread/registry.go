// File: thread/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Registry of per-node pools. Built once from the detected topology and a
// validated config; passed by handle to whatever needs workers — there is
// no ambient global registry.

package thread

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/tide999/corobase/api"
	"github.com/tide999/corobase/topology"
)

// Config sizes the registry. Nodes selects how many NUMA nodes to build
// pools for (0 means every detected node); MaxPerNode caps each pool
// (0 means MaxThreadsPerNode).
type Config struct {
	Nodes      int
	MaxPerNode int
}

func (c Config) validate(topo *topology.Topology) (Config, error) {
	if c.Nodes == 0 {
		c.Nodes = topo.Nodes()
	}
	if c.MaxPerNode == 0 {
		c.MaxPerNode = MaxThreadsPerNode
	}
	if c.Nodes < 0 || c.Nodes > topo.Nodes() {
		return c, errors.Wrapf(api.ErrInvalidConfig, "%d nodes requested, %d detected", c.Nodes, topo.Nodes())
	}
	if c.MaxPerNode < 0 || c.MaxPerNode > MaxThreadsPerNode {
		return c, errors.Wrapf(api.ErrInvalidConfig, "max %d threads per node, ceiling is %d", c.MaxPerNode, MaxThreadsPerNode)
	}
	return c, nil
}

// Registry owns one NodePool per configured NUMA node. It is never resized
// after construction.
type Registry struct {
	pools []*NodePool

	allocs atomic.Uint64
	misses atomic.Uint64
}

// NewRegistry builds pools for cfg.Nodes nodes out of the detected
// topology. A node without capacity is fatal: the engine cannot run
// without a valid placement map.
func NewRegistry(topo *topology.Topology, cfg Config) (*Registry, error) {
	cfg, err := cfg.validate(topo)
	if err != nil {
		return nil, err
	}
	r := &Registry{pools: make([]*NodePool, cfg.Nodes)}
	for node := 0; node < cfg.Nodes; node++ {
		pool, err := newNodePool(uint16(node), topo.NodeCores(node), cfg.MaxPerNode)
		if err != nil {
			return nil, err
		}
		r.pools[node] = pool
	}
	return r, nil
}

// Nodes returns the number of pools.
func (r *Registry) Nodes() int { return len(r.pools) }

// Pool returns the pool of one node.
func (r *Registry) Pool(node int) *NodePool { return r.pools[node] }

// HasUnits reports whether any pool holds at least one unit of the
// requested kind. A no-SMT machine has no logical units at all, so
// consumers pinned to one kind should check before committing to it.
func (r *Registry) HasUnits(physical bool) bool {
	for _, p := range r.pools {
		for _, t := range p.threads {
			if t.physical == physical {
				return true
			}
		}
	}
	return false
}

// GetThreadOnNode claims one unit of the requested kind from a specific node.
func (r *Registry) GetThreadOnNode(node int, physical bool) *Thread {
	t := r.pools[node].GetThread(physical)
	r.account(t != nil)
	return t
}

// GetThread claims one unit of the requested kind from any node, scanning
// nodes in a fixed 0..N-1 order and taking the first hit. No cross-node
// fairness is promised.
func (r *Registry) GetThread(physical bool) *Thread {
	for _, p := range r.pools {
		if t := p.GetThread(physical); t != nil {
			r.account(true)
			return t
		}
	}
	r.account(false)
	return nil
}

// GetThreadGroupOnNode claims a whole physical core from a specific node.
func (r *Registry) GetThreadGroupOnNode(node int) ([]*Thread, bool) {
	group, ok := r.pools[node].GetThreadGroup()
	r.account(ok)
	return group, ok
}

// GetThreadGroup claims a whole physical core from any node, first fit.
func (r *Registry) GetThreadGroup() ([]*Thread, bool) {
	for _, p := range r.pools {
		if group, ok := p.GetThreadGroup(); ok {
			r.account(true)
			return group, true
		}
	}
	r.account(false)
	return nil, false
}

// PutThread routes a unit back to its own node's pool.
func (r *Registry) PutThread(t *Thread) {
	r.pools[t.node].PutThread(t)
}

// PutThreadGroup releases every member of a claimed group.
func (r *Registry) PutThreadGroup(group []*Thread) {
	for _, t := range group {
		r.PutThread(t)
	}
}

// AllocCount returns the number of successful acquisitions.
func (r *Registry) AllocCount() uint64 { return r.allocs.Load() }

// MissCount returns the number of acquisitions that found nothing free.
func (r *Registry) MissCount() uint64 { return r.misses.Load() }

func (r *Registry) account(hit bool) {
	if hit {
		r.allocs.Add(1)
	} else {
		r.misses.Add(1)
	}
}

// Shutdown asks every unit on every node to exit. Units finish their
// current task first; the call does not wait for them.
func (r *Registry) Shutdown() {
	for _, p := range r.pools {
		p.destroy()
	}
}
