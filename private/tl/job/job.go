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

// Package job runs refresh cycles. A cycle analyzes the configured lists of
// lists, applies the changes of their pointers to the cache, analyzes the
// trust lists derived from them together with the configured trust lists,
// evaluates the alerts, synchronizes the certificate store and cleans the
// cache.
//
// At most one cycle runs at a time. The summary of the last cycle can be
// read at any time.
package job

import (
	"context"
	"sync"
	"time"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/certstore"
	"github.com/tlsync/tlsync/private/storage/history"
	"github.com/tlsync/tlsync/private/tl/alert"
	"github.com/tlsync/tlsync/private/tl/analysis"
	"github.com/tlsync/tlsync/private/tl/cache"
	"github.com/tlsync/tlsync/private/tl/cachecleaner"
	"github.com/tlsync/tlsync/private/tl/changes"
	"github.com/tlsync/tlsync/private/tl/derive"
	tlmetrics "github.com/tlsync/tlsync/private/tl/metrics"
	"github.com/tlsync/tlsync/private/tl/summary"
	"github.com/tlsync/tlsync/private/tl/synchronizer"
	"github.com/tlsync/tlsync/private/tracing"
)

// DefaultWorkers is the number of concurrent analyses if none is configured.
const DefaultWorkers = 8

var (
	// ErrDuplicateURL indicates that two sources of a stage share a URL.
	ErrDuplicateURL = serrors.New("duplicate source url")
	// ErrNoLoader indicates that the loader of the refresh mode is missing.
	ErrNoLoader = serrors.New("no loader configured")
)

// Flusher is implemented by loaders that memoize documents. The job flushes
// them at the start of every cycle.
type Flusher interface {
	Flush()
}

// Config configures a job.
type Config struct {
	LOTLs []tl.LOTLSource
	TLs   []tl.TLSource
	// OfflineLoader is used by OfflineRefresh, typically serving documents
	// persisted by earlier runs.
	OfflineLoader tl.Loader
	// OnlineLoader is used by OnlineRefresh.
	OnlineLoader tl.Loader
	Parser       tl.Parser
	Verifier     tl.Verifier
	// Strategy decides which trust lists are synchronized. Nil means
	// synchronizer.AcceptNotErrored.
	Strategy   synchronizer.Strategy
	LOTLAlerts []alert.Alert
	TLAlerts   []alert.Alert
	// CleanerPolicy enables cleaning the cache at the end of each cycle.
	CleanerPolicy *cachecleaner.Policy
	// Debug dumps the cache before synchronization and after cleaning.
	Debug bool
	// Store receives the synchronized certificates. Without a store the
	// synchronization is skipped.
	Store *certstore.Store
	// Cache holds the state across cycles. Nil creates an empty cache.
	Cache *cache.Cache
	// Workers bounds the concurrent analyses. Zero means DefaultWorkers.
	Workers int
	Metrics tlmetrics.Metrics
	// History records every cycle if set.
	History history.DB
	// Now defaults to time.Now.
	Now func() time.Time
}

// Job runs refresh cycles over one cache.
type Job struct {
	cfg   Config
	cache *cache.Cache

	// cycleMtx serializes the cycles.
	cycleMtx sync.Mutex
	cycles   uint64

	summaryMtx sync.RWMutex
	summary    *summary.Summary
	last       *Result
}

// New creates a job. The configuration is validated on every refresh.
func New(cfg Config) *Job {
	if cfg.Cache == nil {
		cfg.Cache = cache.New()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Cache.Now == nil {
		cfg.Cache.Now = cfg.Now
	}
	return &Job{cfg: cfg, cache: cfg.Cache}
}

// Cache returns the cache of the job.
func (j *Job) Cache() *cache.Cache {
	return j.cache
}

// Store returns the certificate store of the job, or nil.
func (j *Job) Store() *certstore.Store {
	return j.cfg.Store
}

// Summary returns the summary of the last cycle that reached the alerting
// stage, or nil. It does not block on a running cycle.
func (j *Job) Summary() *summary.Summary {
	j.summaryMtx.RLock()
	defer j.summaryMtx.RUnlock()
	return j.summary
}

// LastResult returns the result of the last cycle, or nil.
func (j *Job) LastResult() *Result {
	j.summaryMtx.RLock()
	defer j.summaryMtx.RUnlock()
	return j.last
}

// OfflineRefresh runs a cycle with the offline loader.
func (j *Job) OfflineRefresh(ctx context.Context) (Result, error) {
	if j.cfg.OfflineLoader == nil {
		return Result{Mode: tlmetrics.Offline}, serrors.JoinNoStack(ErrNoLoader, nil,
			"mode", tlmetrics.Offline)
	}
	return j.refresh(ctx, tlmetrics.Offline, j.cfg.OfflineLoader)
}

// OnlineRefresh runs a cycle with the online loader.
func (j *Job) OnlineRefresh(ctx context.Context) (Result, error) {
	if j.cfg.OnlineLoader == nil {
		return Result{Mode: tlmetrics.Online}, serrors.JoinNoStack(ErrNoLoader, nil,
			"mode", tlmetrics.Online)
	}
	return j.refresh(ctx, tlmetrics.Online, j.cfg.OnlineLoader)
}

func (j *Job) refresh(ctx context.Context, mode string, loader tl.Loader) (Result, error) {
	j.cycleMtx.Lock()
	defer j.cycleMtx.Unlock()

	span, ctx := tracing.CtxWith(ctx, "tl.refresh", "job")
	defer span.Finish()
	span.SetTag("mode", mode)
	j.cycles++
	ctx, logger := log.WithLabels(ctx, "mode", mode, "cycle", j.cycles)

	start := j.cfg.Now()
	r := Result{Mode: mode, Start: start}
	err := j.cycle(ctx, loader, &r)
	r.Duration = j.cfg.Now().Sub(start)

	label := resultLabel(err)
	tracing.ResultLabel(span, label)
	tracing.Error(span, err)
	metrics.CounterInc(counter2(j.cfg.Metrics.Cycles, mode, label))
	metrics.HistogramObserve(histogram1(j.cfg.Metrics.CycleDuration, mode),
		r.Duration.Seconds())
	if err == nil {
		metrics.GaugeSet(gauge1(j.cfg.Metrics.LastSuccess, mode),
			float64(j.cfg.Now().Unix()))
		logger.Info("Refresh finished", "duration", r.Duration, "lotls", len(r.LOTLs),
			"tls", len(r.TLs), "actions", len(r.Actions), "alerts", r.Alerts)
	} else {
		logger.Info("Refresh failed", "duration", r.Duration, "err", err)
	}

	j.summaryMtx.Lock()
	last := r
	j.last = &last
	j.summaryMtx.Unlock()

	j.record(ctx, r, err)
	return r, err
}

func (j *Job) cycle(ctx context.Context, loader tl.Loader, r *Result) error {
	logger := log.FromCtx(ctx)
	if f, ok := loader.(Flusher); ok {
		f.Flush()
	}

	// Validating the configuration.
	if err := checkUnique(lotlSources(j.cfg.LOTLs), tlSources(j.cfg.TLs)); err != nil {
		return err
	}

	// Stage 1: lists of lists.
	lotlKeys := make([]tl.CacheKey, 0, len(j.cfg.LOTLs))
	for _, l := range j.cfg.LOTLs {
		lotlKeys = append(lotlKeys, l.Key())
	}
	prev := changes.Take(j.cache, lotlKeys)
	var err error
	r.LOTLs, err = j.stage(ctx, lotlSources(j.cfg.LOTLs), loader)
	if err != nil {
		return serrors.Wrap("analyzing lists of lists", err)
	}

	applier := changes.Applier{Cache: j.cache}
	r.Actions = applier.Apply(ctx, prev, changes.Take(j.cache, lotlKeys))
	for _, a := range r.Actions {
		metrics.CounterInc(counter1(j.cfg.Metrics.ChangeActions, a.Type.String()))
	}

	// Stage 2: trust lists.
	tls := derive.Merge(derive.Sources(j.cache, j.cfg.LOTLs), j.cfg.TLs)
	orphans := derive.Orphans(j.cache, j.cfg.LOTLs)
	if err := checkUnique(lotlSources(j.cfg.LOTLs), tlSources(tls)); err != nil {
		logger.Info("Skipping trust list analysis", "err", err)
		r.TLStageErr = err
		tls = nil
	} else if len(tls) == 0 {
		logger.Debug("No TL to be analyzed")
	} else {
		r.TLs, err = j.stage(ctx, tlSources(tls), loader)
		if err != nil {
			return serrors.Wrap("analyzing trust lists", err)
		}
	}
	if len(orphans) > 0 {
		logger.Info("Keeping trust lists of failed lists of lists", "count", len(orphans))
	}

	// Alerting.
	s := summary.Build(j.cache, j.cfg.LOTLs, tls, j.cfg.Now())
	r.Summary = s
	j.summaryMtx.Lock()
	j.summary = s
	j.summaryMtx.Unlock()
	r.Alerts = append(alert.Evaluate(ctx, s, j.cfg.LOTLAlerts),
		alert.Evaluate(ctx, s, j.cfg.TLAlerts)...)
	for _, name := range r.Alerts {
		metrics.CounterInc(counter1(j.cfg.Metrics.AlertFirings, name))
	}

	var before string
	if j.cfg.Debug {
		before = j.dump(ctx, "Cache before synchronization")
	}

	if r.TLStageErr != nil {
		logger.Info("Skipping synchronization and cleaning, trust lists were not analyzed")
		return nil
	}

	// Synchronizing.
	if j.cfg.Store == nil {
		logger.Info("No certificate store configured, skipping synchronization")
	} else {
		syncer := synchronizer.Synchronizer{
			Cache:    j.cache,
			Store:    j.cfg.Store,
			Strategy: j.cfg.Strategy,
			Now:      j.cfg.Now,
		}
		res := syncer.Sync(ctx, syncSet(tls, orphans))
		r.Sync = &res
		metrics.GaugeSet(j.cfg.Metrics.StoreSize, float64(res.Certificates))
		if res.Changed {
			metrics.CounterInc(j.cfg.Metrics.StoreUpdates)
		}
	}

	// Cleaning.
	if j.cfg.CleanerPolicy != nil {
		cleaner := cachecleaner.Cleaner{Cache: j.cache, Policy: *j.cfg.CleanerPolicy}
		res := cleaner.Clean(ctx, j.cfg.LOTLs, tls)
		r.Clean = &res
		metrics.CounterAdd(j.cfg.Metrics.CacheRemovals, float64(len(res.Removed)))
	}
	metrics.GaugeSet(j.cfg.Metrics.CacheEntries, float64(j.cache.Len()))

	if j.cfg.Debug {
		after := j.dump(ctx, "Cache after cleaning")
		logDiff(ctx, before, after)
	}
	return nil
}

// syncSet returns the analyzed trust lists followed by the orphans that are
// not analyzed in this cycle.
func syncSet(tls, orphans []tl.TLSource) []tl.TLSource {
	if len(orphans) == 0 {
		return tls
	}
	seen := make(map[tl.CacheKey]struct{}, len(tls))
	for _, t := range tls {
		seen[t.Key()] = struct{}{}
	}
	all := append([]tl.TLSource(nil), tls...)
	for _, o := range orphans {
		if _, ok := seen[o.Key()]; !ok {
			all = append(all, o)
		}
	}
	return all
}

// checkUnique returns ErrDuplicateURL if two of the sources have the same
// cache key.
func checkUnique(groups ...[]tl.Source) error {
	seen := make(map[tl.CacheKey]string)
	for _, srcs := range groups {
		for _, src := range srcs {
			key := src.Key()
			if first, ok := seen[key]; ok {
				return serrors.JoinNoStack(ErrDuplicateURL, nil,
					"url", src.SourceURL(), "first", first)
			}
			seen[key] = src.SourceURL()
		}
	}
	return nil
}

func lotlSources(lotls []tl.LOTLSource) []tl.Source {
	srcs := make([]tl.Source, 0, len(lotls))
	for _, l := range lotls {
		srcs = append(srcs, l)
	}
	return srcs
}

func tlSources(tls []tl.TLSource) []tl.Source {
	srcs := make([]tl.Source, 0, len(tls))
	for _, t := range tls {
		srcs = append(srcs, t)
	}
	return srcs
}

func (j *Job) newTask(src tl.Source, loader tl.Loader) *analysis.Task {
	return &analysis.Task{
		Source:   src,
		Kind:     analysis.KindFor(src),
		Loader:   loader,
		Parser:   j.cfg.Parser,
		Verifier: j.cfg.Verifier,
		Cache:    j.cache,
	}
}
