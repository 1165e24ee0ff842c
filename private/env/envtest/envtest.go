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

// Package envtest contains helpers to check that the env config blocks decode
// from their samples. Application config tests compose them.
package envtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tlsync/tlsync/private/env"
)

func InitTestGeneral(cfg *env.General) {}

func CheckTestGeneral(t *testing.T, cfg *env.General, id string) {
	assert.Equal(t, id, cfg.ID)
	assert.Equal(t, "/etc/tlsync", cfg.ConfigDir)
}

func InitTestMetrics(cfg *env.Metrics) {
	cfg.Prometheus = "totally_not_an_address"
	cfg.Path = "/other"
}

func CheckTestMetrics(t *testing.T, cfg *env.Metrics) {
	assert.Empty(t, cfg.Prometheus)
	assert.Equal(t, "/metrics", cfg.Path)
}

func InitTestTracing(cfg *env.Tracing) {
	cfg.Enabled = true
	cfg.Debug = true
	cfg.SampleRate = 0.5
}

func CheckTestTracing(t *testing.T, cfg *env.Tracing) {
	assert.False(t, cfg.Enabled)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 0.1, cfg.SampleRate)
	assert.Equal(t, "localhost:6831", cfg.Agent)
}
