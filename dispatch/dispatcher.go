// File: dispatch/dispatcher.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Dispatcher feeds jobs onto impersonated worker threads. Submissions land
// in a lock-free ring with an unbounded FIFO behind it for overflow; a
// single dispatch loop impersonates free units, starts jobs, and reaps
// finished runners so their units flow back to the pools. FIFO order, no
// priorities.

package dispatch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/tide999/corobase/api"
	"github.com/tide999/corobase/thread"
)

// idleWait is how long the dispatch loop naps when there is nothing to do.
const idleWait = 50 * time.Microsecond

// Stats is a point-in-time view of dispatcher progress.
type Stats struct {
	Submitted uint64
	Completed uint64
	Pending   int
}

// Dispatcher runs submitted jobs on worker threads of one kind. Callers
// must not race Submit against Close: jobs submitted before Close returns
// are all executed.
type Dispatcher struct {
	registry      *thread.Registry
	physical      bool
	sleepWhenIdle bool

	ring *MPMCQueue[api.Job]

	mu       sync.Mutex
	overflow *queue.Queue

	closed    atomic.Bool
	wg        sync.WaitGroup
	submitted atomic.Uint64
	completed atomic.Uint64
}

// NewDispatcher starts a dispatcher drawing units of the given kind from
// the registry. ringSize bounds the fast submission path; overflow beyond
// it is queued FIFO without bound. A registry with no units of the
// requested kind (logical units on a no-SMT machine) is rejected up
// front: a dispatcher that can never place a job would accept work and
// then hang its own Close.
func NewDispatcher(registry *thread.Registry, physical, sleepWhenIdle bool, ringSize int) (*Dispatcher, error) {
	if !registry.HasUnits(physical) {
		return nil, ErrNoUnitsOfKind
	}
	if ringSize <= 0 {
		ringSize = 256
	}
	d := &Dispatcher{
		registry:      registry,
		physical:      physical,
		sleepWhenIdle: sleepWhenIdle,
		ring:          NewMPMCQueue[api.Job](ringSize),
		overflow:      queue.New(),
	}
	d.wg.Add(1)
	go d.run()
	return d, nil
}

// Submit enqueues one job. It never blocks; overflow is parked in the FIFO.
func (d *Dispatcher) Submit(job api.Job) error {
	if job == nil {
		return ErrNilJob
	}
	if d.closed.Load() {
		return ErrDispatcherClosed
	}
	d.submitted.Add(1)
	if d.ring.Push(job) {
		return nil
	}
	d.mu.Lock()
	d.overflow.Add(job)
	d.mu.Unlock()
	return nil
}

// Close stops intake and waits until every accepted job has run and every
// held unit is back in its pool. Safe to call from several goroutines;
// every call returns only after the drain has finished.
func (d *Dispatcher) Close() {
	d.closed.Store(true)
	d.wg.Wait()
}

// Stats returns dispatch progress counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Submitted: d.submitted.Load(),
		Completed: d.completed.Load(),
		Pending:   d.pending(),
	}
}

func (d *Dispatcher) pending() int {
	d.mu.Lock()
	n := d.overflow.Length()
	d.mu.Unlock()
	return n + d.ring.Len()
}

// next pulls the oldest queued job, preferring the ring.
func (d *Dispatcher) next() (api.Job, bool) {
	if job, ok := d.ring.Pop(); ok {
		return job, true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.overflow.Length() == 0 {
		return nil, false
	}
	return d.overflow.Remove().(api.Job), true
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	var active []*thread.Runner
	var held api.Job
	for {
		// Reap finished runners first: their units are what the next
		// impersonation attempt will claim.
		live := active[:0]
		for _, r := range active {
			if r.TryJoin() {
				d.completed.Add(1)
			} else {
				live = append(live, r)
			}
		}
		active = live

		if held == nil {
			held, _ = d.next()
		}
		if held == nil {
			if d.closed.Load() && len(active) == 0 && d.pending() == 0 {
				return
			}
			time.Sleep(idleWait)
			continue
		}

		r := thread.NewRunner(d.registry, held, d.physical)
		if !r.TryImpersonate(d.sleepWhenIdle) {
			// Pool exhausted. Keep the job and retry after the next reap;
			// nap only if nothing of ours can free a unit.
			if len(active) == 0 {
				time.Sleep(idleWait)
			}
			continue
		}
		r.Start()
		active = append(active, r)
		held = nil
	}
}
