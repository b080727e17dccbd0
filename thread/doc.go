// File: thread/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Worker-thread management core: fixed per-NUMA-node pools of long-lived,
// CPU-pinned execution units with lock-free bitmap allocation.
//
// Provides:
//   - Thread: one pinned OS thread with a cooperative task state machine
//   - NodePool: bitmap-arbitrated ownership of one node's units, including
//     whole-physical-core group claims for cache locality
//   - Registry: node-aware and node-agnostic acquire/release entry points
//   - Runner: the impersonation handle ordinary task producers use
//   - MyID: the process-wide caller identity service
//
// Allocation never blocks and never takes a mutex; exhaustion is reported
// to the caller as the system's back-pressure signal.
package thread
