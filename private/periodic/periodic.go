// Copyright 2018 Anapaya Systems
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

// Package periodic runs a task at a fixed period until it is stopped.
package periodic

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/pkg/private/prom"
)

// Event types reported through Metrics.Events.
const (
	EventStop    = "stop"
	EventKill    = "kill"
	EventTrigger = "triggered"
)

// Task is a task that is run periodically.
type Task interface {
	// Run runs the task. The context is cancelled when the task times out or
	// the runner is killed.
	Run(context.Context)
	// Name returns the task name. It is used in logs and as metric label.
	Name() string
}

// Metrics contains the metrics of a Runner. All fields are optional.
type Metrics struct {
	Events    func(string) metrics.Counter
	Runtime   metrics.Gauge
	StartTime metrics.Gauge
	Period    metrics.Gauge
}

// NewMetrics creates prometheus metrics for the task with the given name.
func NewMetrics(name string, opts ...metrics.Option) *Metrics {
	f := metrics.ApplyOptions(opts...).Auto()
	sub := strings.ReplaceAll(name, "-", "_")
	events := f.NewCounterVec(prometheus.CounterOpts{
		Namespace: prom.Namespace,
		Subsystem: sub,
		Name:      "periodic_events_total",
		Help:      "Total number of events of the periodic task.",
	}, []string{"event_type"})
	return &Metrics{
		Events: func(e string) metrics.Counter {
			return events.WithLabelValues(e)
		},
		Runtime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: prom.Namespace,
			Subsystem: sub,
			Name:      "periodic_runtime_duration_seconds",
			Help:      "Duration of the last run of the periodic task.",
		}),
		StartTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: prom.Namespace,
			Subsystem: sub,
			Name:      "periodic_runtime_timestamp_seconds",
			Help:      "Start time of the last run of the periodic task.",
		}),
		Period: f.NewGauge(prometheus.GaugeOpts{
			Namespace: prom.Namespace,
			Subsystem: sub,
			Name:      "periodic_period_duration_seconds",
			Help:      "Period of the periodic task.",
		}),
	}
}

func (m *Metrics) event(e string) {
	if m == nil || m.Events == nil {
		return
	}
	metrics.CounterInc(m.Events(e))
}

func (m *Metrics) runtime(d time.Duration) {
	if m != nil {
		metrics.GaugeSet(m.Runtime, d.Seconds())
	}
}

func (m *Metrics) startTime(t time.Time) {
	if m != nil {
		metrics.GaugeSet(m.StartTime, float64(t.Unix()))
	}
}

func (m *Metrics) period(d time.Duration) {
	if m != nil {
		metrics.GaugeSet(m.Period, d.Seconds())
	}
}

// Runner runs a task periodically.
type Runner struct {
	task         Task
	ticker       *time.Ticker
	timeout      time.Duration
	stop         chan struct{}
	loopFinished chan struct{}
	ctx          context.Context
	cancelF      context.CancelFunc
	trigger      chan struct{}
	stopOnce     sync.Once
	metric       *Metrics
}

// Start creates and starts a new Runner to run the given task periodically.
// The timeout is used for the context timeout of the task. The timeout can be
// larger than the periodicity of the task. That means if a tasks takes a long
// time it will be immediately retriggered.
func Start(task Task, period, timeout time.Duration) *Runner {
	return StartWithMetrics(task, nil, period, timeout)
}

// StartWithMetrics is like Start and additionally reports to metric.
func StartWithMetrics(task Task, metric *Metrics, period, timeout time.Duration) *Runner {
	ctx, cancelF := context.WithCancel(context.Background())
	logger := log.New("task", task.Name())
	ctx = log.CtxWith(ctx, logger)
	r := &Runner{
		task:         task,
		ticker:       time.NewTicker(period),
		timeout:      timeout,
		stop:         make(chan struct{}),
		loopFinished: make(chan struct{}),
		ctx:          ctx,
		cancelF:      cancelF,
		trigger:      make(chan struct{}),
		metric:       metric,
	}
	logger.Info("Starting periodic task", "period", period, "timeout", timeout)
	r.metric.period(period)
	go func() {
		defer log.HandlePanic()
		r.runLoop()
	}()
	return r
}

// Stop stops the periodic execution of the Runner. If the task is currently
// running this method blocks until it is done.
func (r *Runner) Stop() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		r.ticker.Stop()
		close(r.stop)
		<-r.loopFinished
		r.cancelF()
		r.metric.event(EventStop)
	})
}

// Kill is like stop but it also cancels the context of the current running
// method.
func (r *Runner) Kill() {
	if r == nil {
		return
	}
	r.stopOnce.Do(func() {
		r.ticker.Stop()
		close(r.stop)
		r.cancelF()
		<-r.loopFinished
		r.metric.event(EventKill)
	})
}

// TriggerRun triggers the periodic task to run now. This does not impact the
// normal periodicity of this task. That means if the task runs every minute
// and we call TriggerRun at 0:30 the task also runs at 1:00. If the task is
// currently running, TriggerRun blocks until the run is done and the trigger
// was picked up.
func (r *Runner) TriggerRun() {
	select {
	case <-r.stop:
	case r.trigger <- struct{}{}:
		r.metric.event(EventTrigger)
	}
}

func (r *Runner) runLoop() {
	defer close(r.loopFinished)
	defer log.FromCtx(r.ctx).Info("Stopped periodic task")
	r.onTick()
	for {
		select {
		case <-r.stop:
			return
		case <-r.ticker.C:
			r.onTick()
		case <-r.trigger:
			r.onTick()
		}
	}
}

func (r *Runner) onTick() {
	select {
	case <-r.stop:
		return
	default:
	}
	start := time.Now()
	r.metric.startTime(start)
	ctx, cancelF := context.WithTimeout(r.ctx, r.timeout)
	defer cancelF()
	r.task.Run(ctx)
	r.metric.runtime(time.Since(start))
}

// Func implements Task for a plain function.
type Func struct {
	TaskName string
	Task     func(context.Context)
}

// Run runs the function.
func (f Func) Run(ctx context.Context) {
	f.Task(ctx)
}

// Name returns the task name.
func (f Func) Name() string {
	return f.TaskName
}
