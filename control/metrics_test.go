package control_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/tide999/corobase/control"
	"github.com/tide999/corobase/thread"
	"github.com/tide999/corobase/topology"
)

func newTestRegistry(t *testing.T) *thread.Registry {
	t.Helper()
	cores := []topology.CPUCore{
		{Node: 0, PhysicalThread: 0, LogicalThreads: []uint32{1}},
		{Node: 0, PhysicalThread: 2, LogicalThreads: []uint32{3}},
	}
	topo, err := topology.New(cores)
	require.NoError(t, err)
	registry, err := thread.NewRegistry(topo, thread.Config{})
	require.NoError(t, err)
	t.Cleanup(registry.Shutdown)
	return registry
}

func TestMetricsRegistrySnapshot(t *testing.T) {
	mr := control.NewMetricsRegistry()
	mr.Set("a", 1)
	mr.Set("a", 2)
	mr.Set("b", "x")

	snap := mr.GetSnapshot()
	require.Equal(t, 2, snap["a"])
	require.Equal(t, "x", snap["b"])

	// Snapshots are copies, not views.
	snap["a"] = 99
	require.Equal(t, 2, mr.GetSnapshot()["a"])
}

func TestCapturePools(t *testing.T) {
	registry := newTestRegistry(t)
	u := registry.GetThread(true)
	require.NotNil(t, u)

	mr := control.NewMetricsRegistry()
	mr.CapturePools(registry)
	snap := mr.GetSnapshot()

	require.Equal(t, 1, snap["threads.node0.in_use"])
	require.Equal(t, 4, snap["threads.node0.capacity"])
	require.Equal(t, uint64(1), snap["threads.allocs"])
	require.Equal(t, uint64(0), snap["threads.misses"])

	registry.PutThread(u)
	mr.CapturePools(registry)
	require.Equal(t, 0, mr.GetSnapshot()["threads.node0.in_use"])
}

func TestPoolCollector(t *testing.T) {
	registry := newTestRegistry(t)
	c := control.NewPoolCollector(registry)

	// One node: in_use + capacity gauges, plus the two counters.
	require.Equal(t, 4, testutil.CollectAndCount(c))

	u := registry.GetThread(true)
	require.NotNil(t, u)
	expected := `
# HELP corobase_threads_in_use Worker units currently allocated on the node.
# TYPE corobase_threads_in_use gauge
corobase_threads_in_use{node="0"} 1
`
	require.NoError(t, testutil.CollectAndCompare(c,
		strings.NewReader(expected), "corobase_threads_in_use"))

	registry.PutThread(u)
	expected = `
# HELP corobase_threads_in_use Worker units currently allocated on the node.
# TYPE corobase_threads_in_use gauge
corobase_threads_in_use{node="0"} 0
`
	require.NoError(t, testutil.CollectAndCompare(c,
		strings.NewReader(expected), "corobase_threads_in_use"))
}
