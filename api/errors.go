// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error values shared across the thread-management core.

package api

import "fmt"

// Common errors used across the library.
var (
	// ErrNoFreeThread reports that no worker of the requested kind is
	// currently free. It is the back-pressure signal: callers retry later.
	ErrNoFreeThread = fmt.Errorf("no free worker thread available")

	// ErrNoTopology reports that CPU/NUMA discovery found nothing usable.
	ErrNoTopology = fmt.Errorf("no usable CPU topology detected")

	// ErrInvalidConfig reports a rejected registry configuration.
	ErrInvalidConfig = fmt.Errorf("invalid thread registry configuration")
)
