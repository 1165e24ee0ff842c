// Copyright 2019 Anapaya Systems
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

package envtest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/private/config"
	"github.com/tlsync/tlsync/private/env"
)

// decodeSample writes the sample of cfg and strictly decodes it back into cfg.
func decodeSample(t *testing.T, cfg config.Config, ctx config.CtxMap) {
	t.Helper()
	var sample bytes.Buffer
	cfg.Sample(&sample, nil, ctx)
	dec := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields()
	require.NoError(t, dec.Decode(cfg))
}

func TestSamples(t *testing.T) {
	t.Run("general", func(t *testing.T) {
		var cfg env.General
		InitTestGeneral(&cfg)
		decodeSample(t, &cfg, config.CtxMap{env.ID: "tlsyncd-1"})
		CheckTestGeneral(t, &cfg, "tlsyncd-1")
	})
	t.Run("metrics", func(t *testing.T) {
		var cfg env.Metrics
		InitTestMetrics(&cfg)
		decodeSample(t, &cfg, nil)
		CheckTestMetrics(t, &cfg)
	})
	t.Run("tracing", func(t *testing.T) {
		var cfg env.Tracing
		InitTestTracing(&cfg)
		decodeSample(t, &cfg, nil)
		CheckTestTracing(t, &cfg)
	})
}

func TestValidate(t *testing.T) {
	testCases := map[string]struct {
		Config    config.Validator
		Assertion assert.ErrorAssertionFunc
	}{
		"general without id": {
			Config:    &env.General{},
			Assertion: assert.Error,
		},
		"general with id": {
			Config:    &env.General{ID: "tlsyncd-1"},
			Assertion: assert.NoError,
		},
		"general with missing dir": {
			Config:    &env.General{ID: "tlsyncd-1", ConfigDir: "/does/not/exist"},
			Assertion: assert.Error,
		},
		"general with dir": {
			Config:    &env.General{ID: "tlsyncd-1", ConfigDir: t.TempDir()},
			Assertion: assert.NoError,
		},
		"tracing defaults": {
			Config:    &env.Tracing{SampleRate: 0.1, Agent: "localhost:6831"},
			Assertion: assert.NoError,
		},
		"tracing rate above one": {
			Config:    &env.Tracing{SampleRate: 1.5, Agent: "localhost:6831"},
			Assertion: assert.Error,
		},
		"tracing agent without port": {
			Config:    &env.Tracing{SampleRate: 1, Agent: "localhost"},
			Assertion: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.Assertion(t, tc.Config.Validate())
		})
	}
}

func TestTracingDisabled(t *testing.T) {
	cfg := env.Tracing{}
	cfg.InitDefaults()
	tracer, closer, err := cfg.NewTracer("tlsyncd-1")
	require.NoError(t, err)
	require.NotNil(t, tracer)
	assert.NoError(t, closer.Close())
}

func TestMetricsHandler(t *testing.T) {
	cfg := env.Metrics{Path: "/prom"}
	srv := httptest.NewServer(cfg.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/prom")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServePrometheusDisabled(t *testing.T) {
	cfg := env.Metrics{}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, cfg.ServePrometheus(ctx))
}
