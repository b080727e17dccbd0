package thread

import (
	"sync/atomic"
	"testing"
	"time"
)

// blockingJob runs until its gate is closed.
type blockingJob struct {
	gate    chan struct{}
	started chan struct{}
	runs    atomic.Int32
}

func newBlockingJob() *blockingJob {
	return &blockingJob{gate: make(chan struct{}), started: make(chan struct{})}
}

func (j *blockingJob) Run(input any) {
	close(j.started)
	<-j.gate
	j.runs.Add(1)
}

// countJob just counts invocations.
type countJob struct {
	runs atomic.Int32
}

func (j *countJob) Run(input any) { j.runs.Add(1) }

func TestRunnerLifecycle(t *testing.T) {
	r := testRegistry(t, 1, 2, 0)
	job := &countJob{}
	runner := NewRunner(r, job, true)

	if runner.IsImpersonated() {
		t.Fatal("fresh Runner claims to hold a unit")
	}
	if !runner.TryImpersonate(false) {
		t.Fatal("TryImpersonate failed with a free pool")
	}
	if !runner.IsImpersonated() {
		t.Fatal("TryImpersonate succeeded but Runner holds nothing")
	}
	runner.Start()
	runner.Join()

	if job.runs.Load() != 1 {
		t.Errorf("job ran %d times, want 1", job.runs.Load())
	}
	if runner.IsImpersonated() {
		t.Error("Join did not clear the binding")
	}
	if r.Pool(0).InUse() != 0 {
		t.Error("Join did not release the unit")
	}
}

func TestRunnerBackpressure(t *testing.T) {
	r := testRegistry(t, 1, 1, 0)

	first := NewRunner(r, &countJob{}, true)
	if !first.TryImpersonate(false) {
		t.Fatal("first impersonation failed")
	}
	second := NewRunner(r, &countJob{}, true)
	if second.TryImpersonate(false) {
		t.Fatal("second impersonation succeeded on an exhausted pool")
	}
	first.Join()
	if !second.TryImpersonate(false) {
		t.Fatal("impersonation failed after the unit was released")
	}
	second.Join()
}

func TestRunnerWaitKeepsUnitBound(t *testing.T) {
	r := testRegistry(t, 1, 1, 0)
	job := &countJob{}
	runner := NewRunner(r, job, true)
	if !runner.TryImpersonate(false) {
		t.Fatal("impersonation failed")
	}
	runner.Start()
	runner.Wait()

	if !runner.IsImpersonated() {
		t.Error("Wait released the unit")
	}
	// The bound unit accepts another task.
	runner.Start()
	runner.Join()
	if job.runs.Load() != 2 {
		t.Errorf("job ran %d times, want 2", job.runs.Load())
	}
}

func TestRunnerTryJoin(t *testing.T) {
	r := testRegistry(t, 1, 1, 0)
	job := newBlockingJob()
	runner := NewRunner(r, job, true)
	if !runner.TryImpersonate(false) {
		t.Fatal("impersonation failed")
	}
	runner.Start()
	<-job.started

	if runner.TryJoin() {
		t.Fatal("TryJoin succeeded while the job is blocked")
	}
	close(job.gate)
	waitUntil(t, time.Second, runner.TryJoin)
	if runner.IsImpersonated() {
		t.Error("successful TryJoin did not clear the binding")
	}
	if r.Pool(0).InUse() != 0 {
		t.Error("successful TryJoin did not release the unit")
	}
}

func TestRunnerCloseReleasesBoundUnit(t *testing.T) {
	r := testRegistry(t, 1, 1, 0)
	runner := NewRunner(r, &countJob{}, true)
	if !runner.TryImpersonate(false) {
		t.Fatal("impersonation failed")
	}
	runner.Start()
	runner.Close()

	if runner.IsImpersonated() || r.Pool(0).InUse() != 0 {
		t.Error("Close left the unit bound or busy")
	}
	// Close is safe on an unbound Runner.
	runner.Close()
}

func TestRunnerSleepWhenIdle(t *testing.T) {
	r := testRegistry(t, 1, 1, 0)
	job := &countJob{}
	runner := NewRunner(r, job, true)
	if !runner.TryImpersonate(true) {
		t.Fatal("impersonation failed")
	}
	// Give the unit time to park, then make sure it still takes work.
	time.Sleep(2 * time.Millisecond)
	runner.Start()
	runner.Join()
	if job.runs.Load() != 1 {
		t.Errorf("job ran %d times, want 1", job.runs.Load())
	}
}

func TestRunnerDoubleImpersonatePanics(t *testing.T) {
	r := testRegistry(t, 1, 2, 0)
	runner := NewRunner(r, &countJob{}, true)
	if !runner.TryImpersonate(false) {
		t.Fatal("impersonation failed")
	}
	defer func() {
		runner.Close()
		if recover() == nil {
			t.Error("double TryImpersonate did not panic")
		}
	}()
	runner.TryImpersonate(false)
}

func TestRunnerStartWithoutUnitPanics(t *testing.T) {
	r := testRegistry(t, 1, 1, 0)
	runner := NewRunner(r, &countJob{}, true)
	defer func() {
		if recover() == nil {
			t.Error("Start without a bound unit did not panic")
		}
	}()
	runner.Start()
}

func TestRunnerRequestedKindIsHonored(t *testing.T) {
	r := testRegistry(t, 1, 2, 1)

	phys := NewRunner(r, &countJob{}, true)
	if !phys.TryImpersonate(false) {
		t.Fatal("physical impersonation failed")
	}
	defer phys.Close()

	logical := NewRunner(r, &countJob{}, false)
	if !logical.TryImpersonate(false) {
		t.Fatal("logical impersonation failed")
	}
	defer logical.Close()
}
