// File: thread/id.go
// Author: momentics <momentics@gmail.com>
//
// Process-wide identity service: a monotonically increasing id lazily
// assigned to the calling goroutine on first request and stable for its
// lifetime. Consumed by unrelated subsystems (transaction-id allocation),
// not by this package's own workers.

package thread

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// nextThreadID equals the total number of ids handed out so far; it never
// decreases.
var nextThreadID atomic.Uint64

// threadIDs maps goroutine id -> assigned id. Entries are never removed;
// callers are expected to be long-lived engine threads.
var threadIDs sync.Map

// MyID returns the caller's process-wide id, assigning one on first use.
func MyID() uint64 {
	gid := goroutineID()
	if v, ok := threadIDs.Load(gid); ok {
		return v.(uint64)
	}
	id := nextThreadID.Add(1) - 1
	actual, _ := threadIDs.LoadOrStore(gid, id)
	return actual.(uint64)
}

var stackPrefix = []byte("goroutine ")

// goroutineID extracts the runtime's goroutine id from the stack header
// ("goroutine N [running]:").
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := bytes.TrimPrefix(buf[:n], stackPrefix)
	if i := bytes.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	id, err := strconv.ParseUint(string(s), 10, 64)
	if err != nil {
		panic("thread: cannot parse goroutine id from stack header")
	}
	return id
}
