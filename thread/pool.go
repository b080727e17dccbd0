// File: thread/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Per-node worker pool: a fixed array of Threads plus a single uint64
// bitmap (bit i set = unit i allocated). The bitmap is the sole arbiter of
// ownership and is only ever mutated by compare-and-swap, never a mutex.

package thread

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/tide999/corobase/topology"
)

// MaxThreadsPerNode is the hard capacity ceiling of one node's pool,
// enforced by the bitmap width.
const MaxThreadsPerNode = 64

// NodePool owns every worker unit of one NUMA node. Units are laid out with
// each physical thread immediately followed by its sibling logical threads,
// which is what makes contiguous group claims possible.
type NodePool struct {
	node    uint16
	threads []*Thread
	bitmap  atomic.Uint64
}

func newNodePool(node uint16, cores []topology.CPUCore, maxPerNode int) (*NodePool, error) {
	p := &NodePool{node: node}
	for coreIdx, core := range cores {
		if len(p.threads) >= maxPerNode {
			break
		}
		p.threads = append(p.threads,
			newThread(node, uint16(coreIdx), core.PhysicalThread, true, len(p.threads)))
		for _, sibling := range core.LogicalThreads {
			if len(p.threads) >= maxPerNode {
				break
			}
			p.threads = append(p.threads,
				newThread(node, uint16(coreIdx), sibling, false, len(p.threads)))
		}
	}
	if len(p.threads) == 0 {
		return nil, fmt.Errorf("thread: node %d has no capacity", node)
	}
	return p, nil
}

// Node returns the pool's NUMA node id.
func (p *NodePool) Node() uint16 { return p.node }

// Capacity returns the pool's total unit count.
func (p *NodePool) Capacity() int { return len(p.threads) }

// InUse returns the number of currently allocated units.
func (p *NodePool) InUse() int { return bits.OnesCount64(p.bitmap.Load()) }

// GetThread claims one free unit of the requested kind. Among free units
// the lowest index wins. Returns nil when no matching unit is free at scan
// time; a release that lands mid-scan may be missed, which is fine — the
// caller retries. The CAS-retry loop never surfaces to the caller.
func (p *NodePool) GetThread(physical bool) *Thread {
	n := len(p.threads)
	for {
		b := p.bitmap.Load()
		pos := -1
		for i := 0; i < n; i++ {
			if b&(1<<uint(i)) != 0 {
				continue
			}
			if p.threads[i].physical != physical {
				continue
			}
			pos = i
			break
		}
		if pos < 0 {
			return nil
		}
		if p.bitmap.CompareAndSwap(b, b|1<<uint(pos)) {
			return p.threads[pos]
		}
	}
}

// GetThreadGroup claims an entire physical core: one free physical unit and
// every sibling logical unit that follows it in the array. The whole bit
// range is claimed in a single CAS, so a group is either taken completely
// or not at all. Returns nil, false when no fully-free group exists.
func (p *NodePool) GetThreadGroup() ([]*Thread, bool) {
	n := len(p.threads)
scan:
	for {
		b := p.bitmap.Load()
		for i := 0; i < n; i++ {
			if !p.threads[i].physical {
				continue
			}
			j := i + 1
			for j < n && !p.threads[j].physical {
				j++
			}
			var group uint64
			for k := i; k < j; k++ {
				group |= 1 << uint(k)
			}
			if b&group != 0 {
				// Some member is busy; skip past this core.
				i = j - 1
				continue
			}
			if !p.bitmap.CompareAndSwap(b, b|group) {
				continue scan
			}
			return p.threads[i:j:j], true
		}
		return nil, false
	}
}

// PutThread returns a unit to the free set via an atomic bit clear. The
// caller must have observed task completion first; releasing a unit that is
// still running, or one this pool does not own, is a programming error.
func (p *NodePool) PutThread(t *Thread) {
	if t.node != p.node || t.poolIdx >= len(p.threads) || p.threads[t.poolIdx] != t {
		panic(fmt.Sprintf("thread: PutThread of foreign unit (node %d) into pool %d", t.node, p.node))
	}
	if t.state.Load() == stateHasWork {
		panic(fmt.Sprintf("thread: PutThread of busy unit node %d cpu %d", t.node, t.sysCPU))
	}
	mask := uint64(1) << uint(t.poolIdx)
	// Atomic AND returning the old value (atomic.Uint64.And needs Go 1.23;
	// this CAS loop is the documented equivalent).
	var old uint64
	for {
		old = p.bitmap.Load()
		if p.bitmap.CompareAndSwap(old, old&^mask) {
			break
		}
	}
	if old&mask == 0 {
		panic(fmt.Sprintf("thread: double release of unit node %d cpu %d", t.node, t.sysCPU))
	}
}

// destroy shuts down every unit in the pool.
func (p *NodePool) destroy() {
	for _, t := range p.threads {
		t.Destroy()
	}
}
