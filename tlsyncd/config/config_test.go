// Copyright 2018 ETH Zurich
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

package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"

	"github.com/tlsync/tlsync/private/env/envtest"
	apitest "github.com/tlsync/tlsync/private/mgmtapi/mgmtapitest"
	"github.com/tlsync/tlsync/private/storage"
	"github.com/tlsync/tlsync/private/tl/loader"
)

func TestConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg Config
	cfg.Sample(&sample, nil, nil)

	InitTestConfig(&cfg)
	err := toml.NewDecoder(bytes.NewReader(sample.Bytes())).DisallowUnknownFields().Decode(&cfg)
	assert.NoError(t, err)
	CheckTestConfig(t, &cfg, idSample)
}

func InitTestConfig(cfg *Config) {
	envtest.InitTestGeneral(&cfg.General)
	envtest.InitTestMetrics(&cfg.Metrics)
	envtest.InitTestTracing(&cfg.Tracing)
	apitest.InitConfig(&cfg.API)
	cfg.Job.Debug = true
	cfg.Loader.HTTP3 = true
}

func CheckTestConfig(t *testing.T, cfg *Config, id string) {
	envtest.CheckTestGeneral(t, &cfg.General, id)
	envtest.CheckTestMetrics(t, &cfg.Metrics)
	envtest.CheckTestTracing(t, &cfg.Tracing)
	apitest.CheckConfig(t, &cfg.API)

	assert.Equal(t, "info", cfg.Logging.Console.Level)
	assert.Equal(t, loader.DefaultTimeout, cfg.Loader.Timeout.Duration)
	assert.Equal(t, int64(loader.DefaultMaxSize), cfg.Loader.MaxSize)
	assert.Equal(t, loader.DefaultMemoTTL, cfg.Loader.MemoTTL.Duration)
	assert.False(t, cfg.Loader.HTTP3)

	assert.Equal(t, 8, cfg.Job.Workers)
	assert.Equal(t, DefaultRefreshInterval, cfg.Job.Interval.Duration)
	assert.Equal(t, DefaultRefreshTimeout, cfg.Job.Timeout.Duration)
	assert.Equal(t, "accept_not_errored", cfg.Job.Strategy)
	assert.False(t, cfg.Job.Debug)
	assert.Empty(t, cfg.Job.Alerts)

	assert.Equal(t, storage.DefaultDocDBPath, cfg.DocDB.Connection)
	assert.Equal(t, storage.DefaultDocRetention, cfg.DocDB.Retention.Duration)
	assert.Equal(t, storage.DefaultHistoryDBPath, cfg.HistoryDB.Connection)
	assert.Equal(t, storage.DefaultHistoryRetention, cfg.HistoryDB.Retention.Duration)

	assert.Len(t, cfg.Sources.LOTLs, 1)
	assert.NoError(t, cfg.Sources.Validate())
}

func TestInitDefaults(t *testing.T) {
	var cfg Config
	cfg.InitDefaults()
	assert.Equal(t, storage.DefaultDocDBPath, cfg.DocDB.Connection)
	assert.Equal(t, storage.DefaultHistoryDBPath, cfg.HistoryDB.Connection)
	assert.Equal(t, time.Hour, cfg.Job.Interval.Duration)
	assert.NoError(t, cfg.Job.Validate())
	assert.NoError(t, cfg.Loader.Validate())
}

func TestJobValidate(t *testing.T) {
	testCases := map[string]struct {
		Modify    func(*JobConfig)
		AssertErr assert.ErrorAssertionFunc
	}{
		"defaults": {
			Modify:    func(*JobConfig) {},
			AssertErr: assert.NoError,
		},
		"known alerts": {
			Modify: func(c *JobConfig) {
				c.Alerts = []string{"tl_expiration", "lotl_location_change"}
			},
			AssertErr: assert.NoError,
		},
		"unknown alert": {
			Modify:    func(c *JobConfig) { c.Alerts = []string{"nope"} },
			AssertErr: assert.Error,
		},
		"unknown strategy": {
			Modify:    func(c *JobConfig) { c.Strategy = "trust_everything" },
			AssertErr: assert.Error,
		},
		"no workers": {
			Modify:    func(c *JobConfig) { c.Workers = -1 },
			AssertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			var cfg JobConfig
			cfg.InitDefaults()
			tc.Modify(&cfg)
			tc.AssertErr(t, cfg.Validate())
		})
	}
}
