// Copyright 2020 Anapaya Systems
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

// Package metrics contains the prometheus metrics of the refresh engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/pkg/private/prom"
)

// Refresh modes.
const (
	Offline = "offline"
	Online  = "online"
)

// Result types
const (
	Success = prom.Success
	Cached  = prom.Cached
	// OkSkipped is used for cycles that skipped a stage.
	OkSkipped = "ok_skipped"

	ErrCanceled  = "err_canceled"
	ErrConfig    = prom.ErrConfig
	ErrNetwork   = prom.ErrNetwork
	ErrParse     = prom.ErrParse
	ErrVerify    = prom.ErrVerify
	ErrNoLoader  = "err_no_loader"
	ErrDuplicate = "err_duplicate_url"
)

// Metrics exposes refresh related metrics as functions that return counters,
// gauges and histograms. The zero value disables all metrics.
type Metrics struct {
	Cycles           func(mode, result string) metrics.Counter
	CycleDuration    func(mode string) metrics.Histogram
	LastSuccess      func(mode string) metrics.Gauge
	Analyses         func(kind, result string) metrics.Counter
	AnalysisDuration func(kind string) metrics.Histogram
	ChangeActions    func(action string) metrics.Counter
	CacheEntries     metrics.Gauge
	CacheRemovals    metrics.Counter
	StoreSize        metrics.Gauge
	StoreUpdates     metrics.Counter
	AlertsTriggered  func(alert string) metrics.Counter
	AlertFirings     func(alert string) metrics.Counter
}

// New creates the metrics and registers them according to opts.
func New(opts ...metrics.Option) Metrics {
	auto := metrics.ApplyOptions(opts...).Auto()

	cycles := auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prom.Namespace,
			Name:      "refresh_cycles_total",
			Help:      "Number of refresh cycles",
		},
		[]string{prom.LabelMode, prom.LabelResult},
	)
	cycleDuration := auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: prom.Namespace,
			Name:      "refresh_cycle_duration_seconds",
			Help:      "Duration of refresh cycles",
			Buckets:   prom.CycleBuckets,
		},
		[]string{prom.LabelMode},
	)
	lastSuccess := auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: prom.Namespace,
			Name:      "refresh_last_success_timestamp_seconds",
			Help:      "Time of the last completed refresh cycle",
		},
		[]string{prom.LabelMode},
	)
	analyses := auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prom.Namespace,
			Name:      "analyses_total",
			Help:      "Number of analyzed documents",
		},
		[]string{prom.LabelKind, prom.LabelResult},
	)
	analysisDuration := auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: prom.Namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Duration of document analyses",
			Buckets:   prom.DefaultLatencyBuckets,
		},
		[]string{prom.LabelKind},
	)
	changeActions := auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prom.Namespace,
			Name:      "change_actions_total",
			Help:      "Number of actions applied because a list of lists changed",
		},
		[]string{"action"},
	)
	cacheEntries := auto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: prom.Namespace,
			Name:      "cache_entries",
			Help:      "Number of entries in the document cache",
		},
	)
	cacheRemovals := auto.NewCounter(
		prometheus.CounterOpts{
			Namespace: prom.Namespace,
			Name:      "cache_removals_total",
			Help:      "Number of cache entries removed by the cleaner",
		},
	)
	storeSize := auto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: prom.Namespace,
			Name:      "store_certificates",
			Help:      "Number of certificates in the certificate store",
		},
	)
	storeUpdates := auto.NewCounter(
		prometheus.CounterOpts{
			Namespace: prom.Namespace,
			Name:      "store_updates_total",
			Help:      "Number of synchronizations that changed the certificate store",
		},
	)
	alerts := auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prom.Namespace,
			Name:      "alerts_triggered_total",
			Help:      "Number of documents that triggered an alert",
		},
		[]string{prom.LabelAlert},
	)
	firings := auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: prom.Namespace,
			Name:      "alert_firings_total",
			Help:      "Number of refresh cycles in which an alert fired",
		},
		[]string{prom.LabelAlert},
	)

	return Metrics{
		Cycles: func(mode, result string) metrics.Counter {
			return cycles.WithLabelValues(mode, result)
		},
		CycleDuration: func(mode string) metrics.Histogram {
			return cycleDuration.WithLabelValues(mode)
		},
		LastSuccess: func(mode string) metrics.Gauge {
			return lastSuccess.WithLabelValues(mode)
		},
		Analyses: func(kind, result string) metrics.Counter {
			return analyses.WithLabelValues(kind, result)
		},
		AnalysisDuration: func(kind string) metrics.Histogram {
			return analysisDuration.WithLabelValues(kind)
		},
		ChangeActions: func(action string) metrics.Counter {
			return changeActions.WithLabelValues(action)
		},
		CacheEntries:  cacheEntries,
		CacheRemovals: cacheRemovals,
		StoreSize:     storeSize,
		StoreUpdates:  storeUpdates,
		AlertsTriggered: func(alert string) metrics.Counter {
			return alerts.WithLabelValues(alert)
		},
		AlertFirings: func(alert string) metrics.Counter {
			return firings.WithLabelValues(alert)
		},
	}
}
