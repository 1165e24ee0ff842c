// Copyright 2016 ETH Zurich
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

// Package config describes the configuration of the tlsync daemon.
package config

import (
	"io"
	"slices"
	"time"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/private/util"
	"github.com/tlsync/tlsync/private/config"
	"github.com/tlsync/tlsync/private/env"
	api "github.com/tlsync/tlsync/private/mgmtapi"
	"github.com/tlsync/tlsync/private/storage"
	"github.com/tlsync/tlsync/private/tl/alert"
	tlconfig "github.com/tlsync/tlsync/private/tl/config"
	"github.com/tlsync/tlsync/private/tl/job"
	"github.com/tlsync/tlsync/private/tl/loader"
	"github.com/tlsync/tlsync/private/tl/synchronizer"
)

const (
	// DefaultRefreshInterval is the default interval between online
	// refreshes.
	DefaultRefreshInterval = time.Hour
	// DefaultRefreshTimeout bounds a single online refresh.
	DefaultRefreshTimeout = 10 * time.Minute
)

var _ config.Config = (*Config)(nil)

// Config is the tlsync daemon configuration.
type Config struct {
	General   env.General      `toml:"general,omitempty"`
	Logging   log.Config       `toml:"log,omitempty"`
	Metrics   env.Metrics      `toml:"metrics,omitempty"`
	API       api.Config       `toml:"api,omitempty"`
	Tracing   env.Tracing      `toml:"tracing,omitempty"`
	Sources   tlconfig.Config  `toml:"sources,omitempty"`
	Loader    LoaderConfig     `toml:"loader,omitempty"`
	Job       JobConfig        `toml:"job,omitempty"`
	DocDB     storage.DBConfig `toml:"doc_db,omitempty"`
	HistoryDB storage.DBConfig `toml:"history_db,omitempty"`
}

// InitDefaults initializes the default values for all parts of the config.
func (cfg *Config) InitDefaults() {
	config.InitAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Tracing,
		&cfg.Sources,
		&cfg.Loader,
		&cfg.Job,
		cfg.DocDB.WithDefault(storage.SampleDocDB),
		cfg.HistoryDB.WithDefault(storage.SampleHistoryDB),
	)
}

// Validate validates all parts of the config.
func (cfg *Config) Validate() error {
	return config.ValidateAll(
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Tracing,
		&cfg.Sources,
		&cfg.Loader,
		&cfg.Job,
		&cfg.DocDB,
		&cfg.HistoryDB,
	)
}

// Sample generates a sample config file for the tlsync daemon.
func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteSample(dst, path, config.CtxMap{env.ID: idSample},
		&cfg.General,
		&cfg.Logging,
		&cfg.Metrics,
		&cfg.API,
		&cfg.Tracing,
		&cfg.Loader,
		&cfg.Job,
	)
	config.WriteSample(dst, path, storage.SampleCtx(storage.SampleDocDB),
		config.OverrideName(&cfg.DocDB, "doc_db"))
	config.WriteSample(dst, path, storage.SampleCtx(storage.SampleHistoryDB),
		config.OverrideName(&cfg.HistoryDB, "history_db"))
	config.WriteSample(dst, path, nil, &cfg.Sources)
}

var _ config.Config = (*LoaderConfig)(nil)

// LoaderConfig configures how documents are fetched.
type LoaderConfig struct {
	// Timeout bounds each request.
	Timeout util.DurWrap `toml:"timeout,omitempty"`
	// MaxSize is the largest accepted document in bytes.
	MaxSize int64 `toml:"max_size,omitempty"`
	// HTTP3 fetches documents over HTTP/3.
	HTTP3 bool `toml:"http3,omitempty"`
	// MemoTTL is how long a fetched document is reused for identical URLs
	// within a cycle.
	MemoTTL util.DurWrap `toml:"memo_ttl,omitempty"`
	// Dir is the directory relative file locations are resolved against.
	Dir string `toml:"dir,omitempty"`
}

func (cfg *LoaderConfig) InitDefaults() {
	initDurWrap(&cfg.Timeout, loader.DefaultTimeout)
	initDurWrap(&cfg.MemoTTL, loader.DefaultMemoTTL)
	if cfg.MaxSize == 0 {
		cfg.MaxSize = loader.DefaultMaxSize
	}
}

func (cfg *LoaderConfig) Validate() error {
	if cfg.Timeout.Duration < 0 {
		return serrors.New("timeout must not be negative", "timeout", cfg.Timeout)
	}
	if cfg.MaxSize < 0 {
		return serrors.New("max_size must not be negative", "max_size", cfg.MaxSize)
	}
	return nil
}

func (cfg *LoaderConfig) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, loaderSample)
}

func (cfg *LoaderConfig) ConfigName() string {
	return "loader"
}

var _ config.Config = (*JobConfig)(nil)

// JobConfig configures the refresh job.
type JobConfig struct {
	// Workers bounds the concurrently running analyses.
	Workers int `toml:"workers,omitempty"`
	// Interval is the time between online refreshes.
	Interval util.DurWrap `toml:"interval,omitempty"`
	// Timeout bounds one online refresh.
	Timeout util.DurWrap `toml:"timeout,omitempty"`
	// Strategy selects the documents whose certificates are trusted.
	Strategy string `toml:"strategy,omitempty"`
	// Debug dumps the cache around the synchronization.
	Debug bool `toml:"debug,omitempty"`
	// DropOrphans removes the trust lists of a failed list of lists from the
	// cache instead of retaining their last good state.
	DropOrphans bool `toml:"drop_orphans,omitempty"`
	// Alerts lists the enabled alerts. Empty enables all of them.
	Alerts []string `toml:"alerts,omitempty"`
	// DisableAlerts disables all alerts.
	DisableAlerts bool `toml:"disable_alerts,omitempty"`
}

func (cfg *JobConfig) InitDefaults() {
	if cfg.Workers == 0 {
		cfg.Workers = job.DefaultWorkers
	}
	initDurWrap(&cfg.Interval, DefaultRefreshInterval)
	initDurWrap(&cfg.Timeout, DefaultRefreshTimeout)
}

func (cfg *JobConfig) Validate() error {
	if cfg.Workers < 1 {
		return serrors.New("workers must be positive", "workers", cfg.Workers)
	}
	if cfg.Interval.Duration <= 0 {
		return serrors.New("interval must be positive", "interval", cfg.Interval)
	}
	if _, ok := synchronizer.StrategyByName(cfg.Strategy); !ok {
		return serrors.New("unknown strategy", "strategy", cfg.Strategy)
	}
	known := alert.Names()
	for _, a := range cfg.Alerts {
		if !slices.Contains(known, a) {
			return serrors.New("unknown alert", "alert", a)
		}
	}
	return nil
}

func (cfg *JobConfig) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, jobSample)
}

func (cfg *JobConfig) ConfigName() string {
	return "job"
}

func initDurWrap(w *util.DurWrap, def time.Duration) {
	if w.Duration == 0 {
		w.Duration = def
	}
}
