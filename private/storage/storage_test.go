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

package storage_test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/pkg/private/util"
	"github.com/tlsync/tlsync/private/config"
	"github.com/tlsync/tlsync/private/storage"
	"github.com/tlsync/tlsync/private/storage/docs"
	"github.com/tlsync/tlsync/private/storage/history"
)

func TestDBConfigDefaults(t *testing.T) {
	var cfg storage.DBConfig
	config.InitAll(cfg.WithDefault(storage.SampleHistoryDB))
	assert.Equal(t, storage.DefaultHistoryDBPath, cfg.Connection)
	assert.Equal(t, storage.DefaultHistoryRetention, cfg.Retention.Duration)
	assert.NoError(t, cfg.Validate())

	cfg = storage.DBConfig{Connection: "/tmp/x.db", Retention: util.DurWrap{Duration: -1}}
	assert.Error(t, cfg.Validate())
}

func TestNewDocumentStorage(t *testing.T) {
	ctx := context.Background()
	d, err := storage.NewDocumentStorage(storage.DBConfig{
		Connection: filepath.Join(t.TempDir(), "docs.db"),
		Retention:  util.DurWrap{Duration: time.Hour},
	}, metrics.WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer d.Close()

	require.NoError(t, d.Put(ctx, docs.Document{
		URL: "https://example.com/tl", Raw: []byte("tl"), Fetched: time.Now(),
	}))
	got, err := d.Get(ctx, "https://example.com/tl")
	require.NoError(t, err)
	assert.Equal(t, []byte("tl"), got.Raw)
}

func TestNewHistoryStorage(t *testing.T) {
	ctx := context.Background()
	h, err := storage.NewHistoryStorage(storage.DBConfig{
		Connection: filepath.Join(t.TempDir(), "history.db"),
		Retention:  util.DurWrap{Duration: time.Hour},
	}, metrics.WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Insert(ctx, history.Record{Mode: "online", Start: time.Now()})
	require.NoError(t, err)
	recs, err := h.Latest(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestDBConfigSample(t *testing.T) {
	var sample bytes.Buffer
	var cfg storage.DBConfig
	cfg.Sample(&sample, nil, storage.SampleCtx(storage.SampleHistoryDB))

	var decoded storage.DBConfig
	require.NoError(t, config.Decode(sample.Bytes(), &decoded))
	assert.Equal(t, storage.DefaultHistoryDBPath, decoded.Connection)
	assert.Equal(t, storage.DefaultHistoryRetention, decoded.Retention.Duration)
}
