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

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/opentracing/opentracing-go"
	"golang.org/x/sync/errgroup"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/certstore"
	"github.com/tlsync/tlsync/pkg/tl/jwsdoc"
	"github.com/tlsync/tlsync/private/app/launcher"
	"github.com/tlsync/tlsync/private/mgmtapi"
	"github.com/tlsync/tlsync/private/periodic"
	"github.com/tlsync/tlsync/private/storage"
	"github.com/tlsync/tlsync/private/storage/docs"
	"github.com/tlsync/tlsync/private/tl/alert"
	"github.com/tlsync/tlsync/private/tl/cache"
	"github.com/tlsync/tlsync/private/tl/cachecleaner"
	"github.com/tlsync/tlsync/private/tl/job"
	"github.com/tlsync/tlsync/private/tl/loader"
	tlmetrics "github.com/tlsync/tlsync/private/tl/metrics"
	"github.com/tlsync/tlsync/private/tl/summary"
	"github.com/tlsync/tlsync/private/tl/synchronizer"
	"github.com/tlsync/tlsync/tlsyncd/config"
)

// certCacheSize bounds the parsed certificates shared across documents.
const certCacheSize = 4096

var globalCfg config.Config

func main() {
	application := launcher.Application{
		TOMLConfig: &globalCfg,
		ShortName:  "tlsync daemon",
		Main:       realMain,
	}
	application.Run()
}

func realMain(ctx context.Context) error {
	tracer, closer, err := globalCfg.Tracing.NewTracer(globalCfg.General.ID)
	if err != nil {
		return serrors.Wrap("initializing tracer", err)
	}
	defer closer.Close()
	opentracing.SetGlobalTracer(tracer)

	docDB, err := storage.NewDocumentStorage(globalCfg.DocDB)
	if err != nil {
		return serrors.Wrap("initializing document storage", err)
	}
	defer docDB.Close()
	historyDB, err := storage.NewHistoryStorage(globalCfg.HistoryDB)
	if err != nil {
		return serrors.Wrap("initializing history storage", err)
	}
	defer historyDB.Close()

	lotls, tls, err := globalCfg.Sources.Sources(globalCfg.General.ConfigDir)
	if err != nil {
		return serrors.Wrap("loading sources", err)
	}
	certs, err := jwsdoc.NewCertCache(certCacheSize)
	if err != nil {
		return serrors.Wrap("creating certificate cache", err)
	}
	// Validated by the config.
	strategy, _ := synchronizer.StrategyByName(globalCfg.Job.Strategy)
	metrics := tlmetrics.New()
	lotlAlerts, tlAlerts := newAlerts(metrics)

	store := certstore.New()
	tlCache := cache.New()
	j := job.New(job.Config{
		LOTLs:         lotls,
		TLs:           tls,
		OfflineLoader: loader.Offline{DB: docDB},
		OnlineLoader:  newOnlineLoader(docDB),
		Parser:        &jwsdoc.Parser{Certs: certs},
		Verifier:      jwsdoc.Verifier{},
		Strategy:      strategy,
		LOTLAlerts:    lotlAlerts,
		TLAlerts:      tlAlerts,
		CleanerPolicy: &cachecleaner.Policy{
			RetainOrphans: !globalCfg.Job.DropOrphans,
		},
		Debug:   globalCfg.Job.Debug,
		Store:   store,
		Cache:   tlCache,
		Workers: globalCfg.Job.Workers,
		Metrics: metrics,
		History: historyDB,
	})

	// Serve the persisted documents before reaching out to the network.
	if _, err := j.OfflineRefresh(ctx); err != nil {
		log.Info("Offline refresh failed, waiting for online refresh", "err", err)
	} else {
		log.Info("Offline refresh done", "certificates", store.Len())
	}

	runner := periodic.StartWithMetrics(
		j.RefreshTask(),
		periodic.NewMetrics("tl_refresh"),
		globalCfg.Job.Interval.Duration,
		globalCfg.Job.Timeout.Duration,
	)
	defer runner.Kill()
	log.Info("Started refresh task", "interval", globalCfg.Job.Interval)

	g, errCtx := errgroup.WithContext(ctx)
	var cleanup []func() error

	if globalCfg.API.Addr != "" {
		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
		}))
		server := mgmtapi.Server{
			Summary:   j.Summary,
			Store:     store,
			Cache:     tlCache,
			History:   historyDB,
			Refresher: runner,
			Config:    mgmtapi.ConfigHandler(&globalCfg),
			Info:      mgmtapi.InfoHandler(globalCfg.General.ID),
		}
		log.Info("Exposing API", "addr", globalCfg.API.Addr)
		s := http.Server{
			Addr:              globalCfg.API.Addr,
			Handler:           mgmtapi.HandlerFromMux(&server, r),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			defer log.HandlePanic()
			if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return serrors.Wrap("serving management API", err)
			}
			return nil
		})
		cleanup = append(cleanup, s.Close)
	}

	g.Go(func() error {
		defer log.HandlePanic()
		return globalCfg.Metrics.ServePrometheus(errCtx)
	})

	g.Go(func() error {
		defer log.HandlePanic()
		<-errCtx.Done()
		var errs []error
		for _, c := range cleanup {
			errs = append(errs, c())
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// newOnlineLoader fetches http(s) URLs from the network and file URLs from
// the file system. Every fetched document is persisted for offline refreshes.
// Identical URLs are fetched once per cycle.
func newOnlineLoader(db docs.DB) tl.Loader {
	cfg := globalCfg.Loader
	dir := cfg.Dir
	if dir == "" {
		dir = globalCfg.General.ConfigDir
	}
	mux := loader.NewMux(
		loader.NewHTTPLoader(loader.HTTPConfig{
			Timeout: cfg.Timeout.Duration,
			MaxSize: cfg.MaxSize,
			HTTP3:   cfg.HTTP3,
		}),
		loader.FileLoader{Dir: dir},
	)
	return loader.NewMemo(loader.Recording{Loader: mux, DB: db}, cfg.MemoTTL.Duration)
}

func newAlerts(m tlmetrics.Metrics) ([]alert.Alert, []alert.Alert) {
	if globalCfg.Job.DisableAlerts {
		return nil, nil
	}
	lotlHandler := alert.CompositeHandler[summary.LOTLInfo]{
		alert.LogHandler[summary.LOTLInfo]{},
		alert.MetricsHandler[summary.LOTLInfo]{Triggered: m.AlertsTriggered},
	}
	tlHandler := alert.CompositeHandler[summary.SourceInfo]{
		alert.LogHandler[summary.SourceInfo]{},
		alert.MetricsHandler[summary.SourceInfo]{Triggered: m.AlertsTriggered},
	}
	return alert.Select(alert.DefaultLOTLAlerts(lotlHandler), globalCfg.Job.Alerts),
		alert.Select(alert.DefaultTLAlerts(tlHandler, time.Now), globalCfg.Job.Alerts)
}
