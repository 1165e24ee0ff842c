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
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/private/xtest"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/certstore"
	"github.com/tlsync/tlsync/private/mgmtapi"
	"github.com/tlsync/tlsync/private/mgmtapi/mock_mgmtapi"
	"github.com/tlsync/tlsync/private/tl/summary"
)

func newTestServer(t *testing.T, s *mgmtapi.Server) string {
	t.Helper()
	srv := httptest.NewServer(mgmtapi.Handler(s))
	t.Cleanup(srv.Close)
	return srv.URL
}

func testSummary() *summary.Summary {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fresh := summary.StateInfo{Status: "fresh", Time: created}
	return &summary.Summary{
		Created: created,
		LOTLs: []summary.LOTLInfo{{
			SourceInfo: summary.SourceInfo{
				URL:          "https://lotl.example.org/lotl.jws",
				Kind:         "lotl",
				Territory:    "EU",
				Download:     summary.DownloadInfo{StateInfo: fresh},
				Parsing:      summary.ParsingInfo{StateInfo: fresh},
				Validation:   summary.ValidationInfo{StateInfo: fresh, Indication: "valid"},
				Synchronized: false,
			},
			TLs: []summary.SourceInfo{{
				URL:       "https://at.example.org/tl.jws",
				Kind:      "tl",
				Territory: "AT",
				Download: summary.DownloadInfo{StateInfo: summary.StateInfo{
					Status: "error",
					Cause:  "connection refused",
				}},
			}},
		}},
		NumberOfProcessedLOTLs: 1,
		NumberOfProcessedTLs:   1,
	}
}

func TestSummaryCommand(t *testing.T) {
	api := newTestServer(t, &mgmtapi.Server{Summary: testSummary})

	t.Run("human", func(t *testing.T) {
		out, err := execute(t, "summary", "--api", api)
		require.NoError(t, err)
		assert.Contains(t, out, "1 lists of lists, 1 trust lists")
		assert.Contains(t, out, "https://lotl.example.org/lotl.jws")
		assert.Contains(t, out, "https://at.example.org/tl.jws")
		assert.Contains(t, out, "connection refused")
	})
	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "summary", "--api", api, "--format", "json")
		require.NoError(t, err)
		var got summary.Summary
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, testSummary(), &got)
	})
	t.Run("no summary", func(t *testing.T) {
		api := newTestServer(t, &mgmtapi.Server{})
		_, err := execute(t, "summary", "--api", api)
		assert.ErrorContains(t, err, "no summary")
	})
	t.Run("bad address", func(t *testing.T) {
		_, err := execute(t, "summary", "--api", "127.0.0.1")
		assert.Error(t, err)
	})
}

func TestCertificatesCommand(t *testing.T) {
	cert := xtest.NewSigner(t, "AT CA").Cert
	b := certstore.NewBuilder()
	b.Add(cert, certstore.Provenance{
		TLURL:     "https://at.example.org/tl.jws",
		Territory: "AT",
		Provider:  "AT provider",
		Service: tl.Service{
			Name:        "AT CA",
			Status:      tl.StatusGranted,
			StatusStart: time.Now().Add(-time.Hour),
		},
	})
	store := certstore.New()
	store.Replace(b.Build(time.Now()))
	api := newTestServer(t, &mgmtapi.Server{Store: store})
	fp := string(certstore.FingerprintOf(cert))

	t.Run("list", func(t *testing.T) {
		out, err := execute(t, "certificates", "--api", api)
		require.NoError(t, err)
		assert.Contains(t, out, fp)
		assert.Contains(t, out, "CN=AT CA")
	})
	t.Run("filtered", func(t *testing.T) {
		out, err := execute(t, "certificates", "--api", api, "--territory", "DE",
			"--format", "json")
		require.NoError(t, err)
		assert.JSONEq(t, "[]", out)
	})
	t.Run("single", func(t *testing.T) {
		out, err := execute(t, "certificates", fp, "--api", api)
		require.NoError(t, err)
		assert.Contains(t, out, "AT provider")
		assert.Contains(t, out, "https://at.example.org/tl.jws")
	})
	t.Run("unknown", func(t *testing.T) {
		_, err := execute(t, "certificates", "00ff", "--api", api)
		assert.ErrorContains(t, err, "certificate not found")
	})
}

func TestRefreshCommand(t *testing.T) {
	ctrl := gomock.NewController(t)
	refresher := mock_mgmtapi.NewMockRefresher(ctrl)
	refresher.EXPECT().TriggerRun()
	api := newTestServer(t, &mgmtapi.Server{Refresher: refresher})

	out, err := execute(t, "refresh", "--api", api)
	require.NoError(t, err)
	assert.Contains(t, out, "Refresh scheduled")
}

func TestHistoryCommandLimit(t *testing.T) {
	_, err := execute(t, "history", "--limit", "0")
	assert.Error(t, err)
}
