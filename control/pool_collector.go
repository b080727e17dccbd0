// control/pool_collector.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collector over a thread.Registry: per-node occupancy gauges
// plus allocation hit/miss counters.

package control

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tide999/corobase/thread"
)

// PoolCollector implements prometheus.Collector by sampling the registry's
// bitmaps and counters at scrape time.
type PoolCollector struct {
	registry *thread.Registry

	inUse    *prometheus.Desc
	capacity *prometheus.Desc
	allocs   *prometheus.Desc
	misses   *prometheus.Desc
}

// NewPoolCollector creates a collector over the given registry.
func NewPoolCollector(registry *thread.Registry) *PoolCollector {
	return &PoolCollector{
		registry: registry,
		inUse: prometheus.NewDesc(
			"corobase_threads_in_use",
			"Worker units currently allocated on the node.",
			[]string{"node"}, nil),
		capacity: prometheus.NewDesc(
			"corobase_threads_capacity",
			"Total worker units of the node's pool.",
			[]string{"node"}, nil),
		allocs: prometheus.NewDesc(
			"corobase_thread_allocs_total",
			"Successful worker acquisitions.",
			nil, nil),
		misses: prometheus.NewDesc(
			"corobase_thread_misses_total",
			"Worker acquisitions that found no free unit.",
			nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.inUse
	ch <- c.capacity
	ch <- c.allocs
	ch <- c.misses
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	for node := 0; node < c.registry.Nodes(); node++ {
		pool := c.registry.Pool(node)
		label := strconv.Itoa(node)
		ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue,
			float64(pool.InUse()), label)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue,
			float64(pool.Capacity()), label)
	}
	ch <- prometheus.MustNewConstMetric(c.allocs, prometheus.CounterValue,
		float64(c.registry.AllocCount()))
	ch <- prometheus.MustNewConstMetric(c.misses, prometheus.CounterValue,
		float64(c.registry.MissCount()))
}
