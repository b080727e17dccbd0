// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for the thread core.
// Exposes counters in a thread-safe map with dynamic registration.

package control

import (
	"fmt"
	"sync"
	"time"

	"github.com/tide999/corobase/thread"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// CapturePools records per-node occupancy and registry-level allocation
// counters into the metrics map.
func (mr *MetricsRegistry) CapturePools(reg *thread.Registry) {
	for node := 0; node < reg.Nodes(); node++ {
		pool := reg.Pool(node)
		mr.Set(fmt.Sprintf("threads.node%d.in_use", node), pool.InUse())
		mr.Set(fmt.Sprintf("threads.node%d.capacity", node), pool.Capacity())
	}
	mr.Set("threads.allocs", reg.AllocCount())
	mr.Set("threads.misses", reg.MissCount())
}
