// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics and introspection layer over the worker-thread core.
//
// Provides concurrent-safe telemetry primitives including:
//   - A dynamic key/value metrics registry with snapshot reads
//   - Pool occupancy capture from a thread.Registry
//   - A prometheus.Collector sampling bitmaps at scrape time
package control
