// File: cmd/threadctl/main.go
// Author: momentics <momentics@gmail.com>
//
// Operational CLI over the worker-thread core: inspect the detected
// CPU/NUMA topology and stress the allocator/dispatch path.

package main

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/tide999/corobase/control"
	"github.com/tide999/corobase/dispatch"
	"github.com/tide999/corobase/thread"
	"github.com/tide999/corobase/topology"
)

func main() {
	root := &cobra.Command{
		Use:   "threadctl",
		Short: "Inspect and exercise the corobase worker-thread core",
	}
	root.AddCommand(topologyCmd(), stressCmd())
	if err := root.Execute(); err != nil {
		log.Fatalf("threadctl: %v", err)
	}
}

func topologyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topology",
		Short: "Print the detected CPU/NUMA topology",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := topology.DetectCPUCores()
			if err != nil {
				return errors.Wrap(err, "detecting topology")
			}
			fmt.Fprintf(os.Stdout, "nodes: %d, physical cores: %d\n", topo.Nodes(), len(topo.Cores()))
			for _, core := range topo.Cores() {
				fmt.Fprintf(os.Stdout, "node %d core: physical cpu%d siblings %v\n",
					core.Node, core.PhysicalThread, core.LogicalThreads)
			}
			return nil
		},
	}
}

type countJob struct {
	counter *atomic.Uint64
}

func (j *countJob) Run(input any) {
	j.counter.Add(1)
}

func stressCmd() *cobra.Command {
	var (
		jobs     int
		physical bool
		sleep    bool
	)
	cmd := &cobra.Command{
		Use:   "stress",
		Short: "Run acquire/dispatch/release cycles across all nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := topology.DetectCPUCores()
			if err != nil {
				return errors.Wrap(err, "detecting topology")
			}
			registry, err := thread.NewRegistry(topo, thread.Config{})
			if err != nil {
				return errors.Wrap(err, "building registry")
			}
			defer registry.Shutdown()

			var counter atomic.Uint64
			d, err := dispatch.NewDispatcher(registry, physical, sleep, 1024)
			if err != nil {
				return errors.Wrap(err, "starting dispatcher")
			}
			start := time.Now()
			for i := 0; i < jobs; i++ {
				if err := d.Submit(&countJob{counter: &counter}); err != nil {
					return errors.Wrap(err, "submitting job")
				}
			}
			d.Close()
			elapsed := time.Since(start)

			if got := counter.Load(); got != uint64(jobs) {
				return errors.Errorf("ran %d of %d jobs", got, jobs)
			}
			mr := control.NewMetricsRegistry()
			mr.CapturePools(registry)
			fmt.Fprintf(os.Stdout, "ran %d jobs in %s\n", jobs, elapsed)
			for k, v := range mr.GetSnapshot() {
				fmt.Fprintf(os.Stdout, "%s = %v\n", k, v)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&jobs, "jobs", 10000, "number of jobs to dispatch")
	cmd.Flags().BoolVar(&physical, "physical", true, "request physical units")
	cmd.Flags().BoolVar(&sleep, "sleep", false, "workers sleep instead of spin while idle")
	return cmd
}
