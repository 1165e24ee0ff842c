// Copyright 2023 SCION Association
// Copyright 2026 The tlsync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

// Package processmetrics exports the scheduling statistics of the process:
// the CPU time its threads spent running and the time they were runnable but
// waiting for a core. The difference to the wall time multiplied by the
// number of cores estimates the CPU time the process was granted.
//
// On other platforms Init does nothing.
package processmetrics

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/procfs"

	"github.com/tlsync/tlsync/pkg/private/prom"
	"github.com/tlsync/tlsync/pkg/private/serrors"
)

var (
	runningTime = prometheus.NewDesc(
		prometheus.BuildFQName(prom.Namespace, "process", "running_seconds_total"),
		"CPU time the threads of the process spent running.",
		nil, nil,
	)
	runnableTime = prometheus.NewDesc(
		prometheus.BuildFQName(prom.Namespace, "process", "runnable_seconds_total"),
		"CPU time the threads of the process spent waiting for a core.",
		nil, nil,
	)
	maxProcs = prometheus.NewDesc(
		prometheus.BuildFQName(prom.Namespace, "process", "maxprocs_threads"),
		"The current runtime.GOMAXPROCS setting.",
		nil, nil,
	)
	threadListUpdates = prometheus.NewDesc(
		prometheus.BuildFQName(prom.Namespace, "process", "thread_list_updates_total"),
		"Number of times the collector reloaded the thread list.",
		nil, nil,
	)
)

type collector struct {
	mu       sync.Mutex
	pid      int
	taskDir  *os.File
	threads  procfs.Procs
	count    uint64
	reloads  int64
	running  uint64
	runnable uint64
}

// update sums the schedstat of all threads. The thread list is only reloaded
// when the link count of /proc/<pid>/task changes; Go never ends the threads
// it created, so a changed list implies a changed count.
func (c *collector) update() error {
	var st syscall.Stat_t
	if err := syscall.Fstat(int(c.taskDir.Fd()), &st); err != nil {
		return err
	}
	//nolint:unconvert // Nlink is uint32 on arm64.
	count := uint64(st.Nlink - 2)
	if count != c.count {
		threads, err := procfs.AllThreads(c.pid)
		if err != nil {
			return err
		}
		c.threads = threads
		c.count = count
		c.reloads++
	}
	var running, runnable uint64
	var err error
	for _, t := range c.threads {
		s, serr := t.Schedstat()
		if serr != nil {
			// The thread is gone, the others are still accurate.
			err = serr
			continue
		}
		running += s.RunningNanoseconds
		runnable += s.WaitingNanoseconds
	}
	c.running = running
	c.runnable = runnable
	return err
}

func (c *collector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c *collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.update()
	ch <- prometheus.MustNewConstMetric(runningTime, prometheus.CounterValue,
		float64(c.running)/1e9)
	ch <- prometheus.MustNewConstMetric(runnableTime, prometheus.CounterValue,
		float64(c.runnable)/1e9)
	ch <- prometheus.MustNewConstMetric(maxProcs, prometheus.GaugeValue,
		float64(runtime.GOMAXPROCS(-1)))
	ch <- prometheus.MustNewConstMetric(threadListUpdates, prometheus.CounterValue,
		float64(c.reloads))
}

// Init registers the collector with reg. Errors can be ignored, the
// process statistics are then missing.
func Init(reg prometheus.Registerer) error {
	pid := os.Getpid()
	dir := filepath.Join(procfs.DefaultMountPoint, strconv.Itoa(pid), "task")
	taskDir, err := os.Open(dir)
	if err != nil {
		return serrors.Wrap("opening task directory", err, "pid", pid)
	}
	c := &collector{pid: pid, taskDir: taskDir}
	if err := c.update(); err != nil {
		taskDir.Close()
		return serrors.Wrap("reading schedstat", err)
	}
	if err := reg.Register(c); err != nil {
		taskDir.Close()
		return serrors.Wrap("registering collector", err)
	}
	return nil
}
