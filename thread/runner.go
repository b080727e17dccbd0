// File: thread/runner.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Runner is the caller-facing handle over one job: it impersonates a free
// worker unit, starts the job on it, and joins/releases it. Task-producing
// code deals with Runner only, never with Thread directly.

package thread

import (
	"github.com/tide999/corobase/api"
)

// Runner binds one api.Job to at most one acquired worker unit. It is
// transient and caller-owned: create one per logical job, defer Close.
type Runner struct {
	registry *Registry
	job      api.Job
	me       *Thread
	physical bool
}

// NewRunner creates an unbound Runner that will request units of the given
// kind from the registry.
func NewRunner(registry *Registry, job api.Job, physical bool) *Runner {
	return &Runner{registry: registry, job: job, physical: physical}
}

// TryImpersonate requests one free unit of the Runner's kind from any node
// and binds it. Returns false when the pool is exhausted — the bounded pool
// is the system's only admission control, so the caller retries or gives
// up. Impersonating twice on one Runner is a programming error.
func (r *Runner) TryImpersonate(sleepWhenIdle bool) bool {
	if r.me != nil {
		panic("thread: Runner already impersonated")
	}
	r.me = r.registry.GetThread(r.physical)
	if r.me == nil {
		return false
	}
	if r.me.physical != r.physical {
		panic("thread: allocated unit is not the requested kind")
	}
	r.me.SetSleepWhenIdle(sleepWhenIdle)
	return true
}

// Start installs the job on the bound unit. The Runner must be impersonated.
func (r *Runner) Start() {
	r.StartWith(nil)
}

// StartWith is Start with an opaque input delivered to the job.
func (r *Runner) StartWith(input any) {
	if r.me == nil {
		panic("thread: Start on Runner without a bound unit")
	}
	r.me.StartTask(r.job.Run, input)
}

// Join blocks until the job finishes, then returns the unit to its pool and
// clears the binding.
func (r *Runner) Join() {
	if r.me == nil {
		panic("thread: Join on Runner without a bound unit")
	}
	r.me.Join()
	r.registry.PutThread(r.me)
	r.me = nil
}

// Wait blocks until the job finishes but keeps the unit bound, so another
// task can be started on it.
func (r *Runner) Wait() {
	if r.me == nil {
		panic("thread: Wait on Runner without a bound unit")
	}
	r.me.Join()
}

// TryWait reports completion without blocking or releasing.
func (r *Runner) TryWait() bool {
	if r.me == nil {
		panic("thread: TryWait on Runner without a bound unit")
	}
	return r.me.TryJoin()
}

// TryJoin is the non-blocking Join: on completion it releases the unit and
// clears the binding, returning true.
func (r *Runner) TryJoin() bool {
	if r.me == nil {
		panic("thread: TryJoin on Runner without a bound unit")
	}
	if !r.me.TryJoin() {
		return false
	}
	r.registry.PutThread(r.me)
	r.me = nil
	return true
}

// IsImpersonated reports whether the Runner currently holds a unit.
func (r *Runner) IsImpersonated() bool { return r.me != nil }

// Close joins and releases a still-bound unit so no unit leaks across a
// job's lifetime, even on early-return paths. Safe to call when unbound.
func (r *Runner) Close() {
	if r.me != nil {
		r.Join()
	}
}
