// File: api/task.go
// Author: momentics <momentics@gmail.com>
//
// Task submission contract between task producers and worker threads.

package api

// Task is the unit of work handed to a worker thread. The input pointer is
// opaque: the core never inspects it, it is delivered verbatim to the task.
type Task func(input any)

// Job is the capability a caller-defined type implements to run on an
// impersonated worker thread. The receiver carries whatever state the job
// needs; Run is invoked exactly once per dispatch.
type Job interface {
	Run(input any)
}

// TaskRunner is implemented by execution units that accept one task at a
// time and expose completion detection.
type TaskRunner interface {
	// StartTask installs a task and its input. The unit must be idle;
	// starting a task on a busy unit is a programming error.
	StartTask(task Task, input any)

	// Join spins until the current task has finished.
	Join()

	// TryJoin reports whether the unit has finished its current task.
	TryJoin() bool
}
