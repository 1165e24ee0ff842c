// Copyright 2018 ETH Zurich, Anapaya Systems
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

// Package env contains configuration blocks and initialization code shared
// by tlsync applications. If something is specific to one app, it belongs to
// that app and not here.
package env

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
	"time"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	jaeger "github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/private/config"
)

const (
	// ShutdownGraceInterval is the time applications wait after issuing a
	// clean shutdown signal, before forcefully tearing down the application.
	ShutdownGraceInterval = 5 * time.Second

	// HandlerTimeout is the time after which the http handler gives up on a
	// request and returns an error instead.
	HandlerTimeout = time.Minute
)

// ID is the sample context key carrying the service ID.
const ID = "id"

func init() {
	os.Setenv("TZ", "UTC")
}

var _ config.Config = (*General)(nil)

// General contains the settings every tlsync service has.
type General struct {
	// ID is the service ID. It names the service in logs and traces.
	ID string `toml:"id,omitempty"`
	// ConfigDir for loading extra files (signer certificates, keys).
	ConfigDir string `toml:"config_dir,omitempty"`
}

func (cfg *General) InitDefaults() {}

func (cfg *General) Validate() error {
	if cfg.ID == "" {
		return serrors.New("no service id specified")
	}
	return cfg.checkDir()
}

// checkDir checks that the config dir is a directory.
func (cfg *General) checkDir() error {
	if cfg.ConfigDir != "" {
		info, err := os.Stat(cfg.ConfigDir)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return serrors.New("config_dir is not a directory", "dir", cfg.ConfigDir)
		}
	}
	return nil
}

func (cfg *General) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	config.WriteString(dst, fmt.Sprintf(generalSample, ctx[ID]))
}

func (cfg *General) ConfigName() string {
	return "general"
}

var _ config.Config = (*Metrics)(nil)

// Metrics configures the prometheus exporter.
type Metrics struct {
	config.NoValidator
	// Prometheus is the listen address of the exporter. Empty disables it.
	Prometheus string `toml:"prometheus,omitempty"`
	// Path is the HTTP path metrics are served under. (default /metrics)
	Path string `toml:"path,omitempty"`
}

func (cfg *Metrics) InitDefaults() {
	if cfg.Path == "" {
		cfg.Path = "/metrics"
	}
}

func (cfg *Metrics) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, metricsSample)
}

func (cfg *Metrics) ConfigName() string {
	return "metrics"
}

// Handler returns the handler exposing the default gatherer.
func (cfg *Metrics) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(cfg.path(), promhttp.InstrumentMetricHandler(
		prometheus.DefaultRegisterer,
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			Timeout:  HandlerTimeout,
			ErrorLog: promLogger{},
		}),
	))
	return mux
}

func (cfg *Metrics) path() string {
	if cfg.Path == "" {
		return "/metrics"
	}
	return cfg.Path
}

// ServePrometheus serves the exporter until ctx is done. It returns
// immediately if no address is configured.
func (cfg *Metrics) ServePrometheus(ctx context.Context) error {
	if cfg.Prometheus == "" {
		return nil
	}
	server := &http.Server{
		Addr:              cfg.Prometheus,
		Handler:           cfg.Handler(),
		ReadHeaderTimeout: HandlerTimeout,
	}
	log.Info("Exporting prometheus metrics", "addr", cfg.Prometheus, "path", cfg.path())
	go func() {
		defer log.HandlePanic()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGraceInterval)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			server.Close()
		}
	}()
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return serrors.Wrap("serving prometheus metrics", err, "addr", cfg.Prometheus)
	}
	return nil
}

// promLogger routes promhttp errors to the application log.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	log.Error("Prometheus handler", "msg", fmt.Sprint(v...))
}

var _ config.Config = (*Tracing)(nil)

// Tracing configures the jaeger tracer.
type Tracing struct {
	Enabled bool `toml:"enabled,omitempty"`
	// Debug samples every span and overrides SampleRate.
	Debug bool `toml:"debug,omitempty"`
	// SampleRate is the fraction of refresh cycles that are traced.
	SampleRate float64 `toml:"sample_rate,omitempty"`
	// Agent is the UDP address of the jaeger agent. (default localhost:6831)
	Agent string `toml:"agent,omitempty"`
}

func (cfg *Tracing) InitDefaults() {
	if cfg.Agent == "" {
		cfg.Agent = net.JoinHostPort(
			jaeger.DefaultUDPSpanServerHost,
			strconv.Itoa(jaeger.DefaultUDPSpanServerPort),
		)
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 0.1
	}
}

func (cfg *Tracing) Validate() error {
	if cfg.SampleRate < 0 || cfg.SampleRate > 1 {
		return serrors.New("sample_rate out of range [0, 1]", "sample_rate", cfg.SampleRate)
	}
	if _, _, err := net.SplitHostPort(cfg.Agent); err != nil {
		return serrors.Wrap("invalid agent address", err, "agent", cfg.Agent)
	}
	return nil
}

func (cfg *Tracing) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, tracingSample)
}

func (cfg *Tracing) ConfigName() string {
	return "tracing"
}

// NewTracer creates the tracer for the service id. A disabled configuration
// yields a no-op tracer, so callers never need to check Enabled.
func (cfg *Tracing) NewTracer(id string) (opentracing.Tracer, io.Closer, error) {
	sampler := &jaegercfg.SamplerConfig{
		Type:  jaeger.SamplerTypeProbabilistic,
		Param: cfg.SampleRate,
	}
	if cfg.Debug {
		sampler = &jaegercfg.SamplerConfig{Type: jaeger.SamplerTypeConst, Param: 1}
	}
	tc := jaegercfg.Configuration{
		ServiceName: id,
		Disabled:    !cfg.Enabled,
		Sampler:     sampler,
		Reporter:    &jaegercfg.ReporterConfig{LocalAgentHostPort: cfg.Agent},
	}
	return tc.NewTracer(jaegercfg.Tag("service.kind", "tlsync"))
}

// LogAppStarted logs the start of the application with its build version.
func LogAppStarted(svcType, elemID string) {
	version := "(devel)"
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		version = info.Main.Version
	}
	host, _ := os.Hostname()
	log.Info("Service started", "svc", svcType, "id", elemID, "version", version,
		"host", host, "pid", os.Getpid())
}

// LogAppStopped logs the stop of the application.
func LogAppStopped(svcType, elemID string) {
	log.Info("Service stopped", "svc", svcType, "id", elemID)
}
