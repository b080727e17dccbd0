// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for the dispatch module.

package dispatch

import "errors"

var (
	// ErrDispatcherClosed indicates the dispatcher has been shut down.
	ErrDispatcherClosed = errors.New("dispatcher is closed")

	// ErrNilJob indicates a nil job was submitted.
	ErrNilJob = errors.New("nil job")

	// ErrNoUnitsOfKind indicates the registry holds no worker units of the
	// kind the dispatcher was configured for, so no job could ever run.
	ErrNoUnitsOfKind = errors.New("no worker units of the requested kind")
)
