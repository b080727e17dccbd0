// File: thread/thread.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker execution unit: one long-lived, CPU-pinned OS thread driven by a
// three-state cooperative state machine. Task producers hand work to a unit
// through StartTask and detect completion by spinning on the state word;
// the kernel scheduler is never involved on the hot path.

package thread

import (
	"fmt"
	"log"
	"runtime"
	"sync/atomic"

	"github.com/tide999/corobase/affinity"
	"github.com/tide999/corobase/api"
)

// Run states of a worker unit. The steady cycle is NoWork -> HasWork ->
// NoWork; Sleeping is an idle sub-state entered only when the unit is
// configured to block instead of spin while idle.
const (
	stateHasWork  uint32 = 1
	stateSleeping uint32 = 2
	stateNoWork   uint32 = 3
)

// joinSpinBudget bounds pure spinning in Join before yielding the caller's
// OS thread back to the scheduler.
const joinSpinBudget = 1 << 10

// Thread is one worker unit bound to a specific NUMA node and CPU. It is
// created by a NodePool, lives until Destroy, and is reused across jobs;
// ownership between jobs is tracked solely by the pool's bitmap.
type Thread struct {
	node     uint16
	core     uint16
	sysCPU   uint32
	physical bool
	poolIdx  int

	state         atomic.Uint32
	shutdown      atomic.Bool
	sleepWhenIdle atomic.Bool

	// Task slot. Single-writer: only the current owner installs a task,
	// and only between observing NoWork and the unit observing HasWork.
	task  api.Task
	input any

	// trigger wakes a Sleeping unit. Buffered so a wake issued before the
	// unit parks is never lost.
	trigger chan struct{}

	// stopped is closed when the idle loop exits.
	stopped chan struct{}
}

var _ api.TaskRunner = (*Thread)(nil)

func newThread(node, core uint16, sysCPU uint32, physical bool, poolIdx int) *Thread {
	t := &Thread{
		node:     node,
		core:     core,
		sysCPU:   sysCPU,
		physical: physical,
		poolIdx:  poolIdx,
		trigger:  make(chan struct{}, 1),
		stopped:  make(chan struct{}),
	}
	t.state.Store(stateNoWork)
	go t.idleLoop()
	return t
}

// Node returns the NUMA node the unit is bound to.
func (t *Thread) Node() uint16 { return t.node }

// Core returns the unit's core index within its node.
func (t *Thread) Core() uint16 { return t.core }

// SysCPU returns the OS-assigned CPU id the unit is pinned to.
func (t *Thread) SysCPU() uint32 { return t.sysCPU }

// IsPhysical reports whether the unit is a core's primary hardware thread.
func (t *Thread) IsPhysical() bool { return t.physical }

// SetSleepWhenIdle selects the idle strategy: block on the wake trigger
// instead of spinning. Only the current owner may flip this.
func (t *Thread) SetSleepWhenIdle(sleep bool) { t.sleepWhenIdle.Store(sleep) }

// idleLoop is the unit's perpetual loop: wait for a task, run it once,
// return to waiting. It exits when the shutdown flag is observed while no
// task is pending.
func (t *Thread) idleLoop() {
	defer close(t.stopped)
	runtime.LockOSThread()
	if err := affinity.SetAffinity(int(t.sysCPU)); err != nil {
		log.Printf("thread: node %d cpu %d: %v", t.node, t.sysCPU, err)
	}
	for {
		switch t.state.Load() {
		case stateHasWork:
			t.task(t.input)
			t.task = nil
			t.input = nil
			t.state.Store(stateNoWork)
		case stateNoWork:
			if t.shutdown.Load() {
				return
			}
			if t.sleepWhenIdle.Load() && t.state.CompareAndSwap(stateNoWork, stateSleeping) {
				if t.shutdown.Load() {
					// Destroy ran between the shutdown check above and
					// the transition into Sleeping; it saw NoWork and
					// deposited no wake. Back out instead of parking.
					t.state.Store(stateNoWork)
					return
				}
				for t.state.Load() == stateSleeping {
					<-t.trigger
				}
				continue
			}
			runtime.Gosched()
		default:
			// Sleeping is only ever left via StartTask or Destroy, which
			// move the state themselves; nothing to do here.
			runtime.Gosched()
		}
	}
}

// StartTask installs a task and its opaque input and hands the unit to its
// idle loop. The unit must be in NoWork or Sleeping; any other state means
// two owners are driving one unit and aborts.
func (t *Thread) StartTask(task api.Task, input any) {
	if t.shutdown.Load() {
		panic(fmt.Sprintf("thread: StartTask on node %d cpu %d after shutdown", t.node, t.sysCPU))
	}
	if t.state.Load() == stateHasWork {
		panic(fmt.Sprintf("thread: StartTask on busy unit node %d cpu %d", t.node, t.sysCPU))
	}
	t.task = task
	t.input = input
	for {
		if t.state.CompareAndSwap(stateNoWork, stateHasWork) {
			return
		}
		if t.state.CompareAndSwap(stateSleeping, stateHasWork) {
			// The unit is parked (or about to park) on the trigger; the
			// buffered send is retained until it looks, so the wake
			// cannot be missed.
			select {
			case t.trigger <- struct{}{}:
			default:
			}
			return
		}
		if s := t.state.Load(); s == stateHasWork {
			panic(fmt.Sprintf("thread: StartTask on busy unit node %d cpu %d", t.node, t.sysCPU))
		}
		runtime.Gosched()
	}
}

// Join spins until the unit leaves HasWork. It never touches the wake
// trigger; completion detection stays on the spinning hot path.
func (t *Thread) Join() {
	for spins := 0; t.state.Load() == stateHasWork; spins++ {
		if spins >= joinSpinBudget {
			runtime.Gosched()
		}
	}
}

// TryJoin reports whether the unit has finished its current task.
func (t *Thread) TryJoin() bool {
	return t.state.Load() != stateHasWork
}

// Destroy requests shutdown. The idle loop observes the flag once the
// current task (if any) finishes; a Sleeping unit is woken so it can exit.
// There is no preemption: long-running tasks must cooperate.
func (t *Thread) Destroy() {
	t.shutdown.Store(true)
	if t.state.CompareAndSwap(stateSleeping, stateNoWork) {
		select {
		case t.trigger <- struct{}{}:
		default:
		}
	}
}
