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

package mgmtapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/private/xtest"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/certstore"
	"github.com/tlsync/tlsync/pkg/tl/pemutil"
	"github.com/tlsync/tlsync/private/mgmtapi"
	"github.com/tlsync/tlsync/private/mgmtapi/mock_mgmtapi"
	"github.com/tlsync/tlsync/private/storage/history"
	"github.com/tlsync/tlsync/private/storage/history/mock_history"
	"github.com/tlsync/tlsync/private/tl/cache"
	"github.com/tlsync/tlsync/private/tl/summary"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testStore(t *testing.T) (*certstore.Store, []xtest.Signer) {
	a := xtest.NewSigner(t, "provider a")
	b := xtest.NewSigner(t, "provider b")
	bld := certstore.NewBuilder()
	bld.Add(a.Cert, certstore.Provenance{
		TLURL:     "https://tl/de",
		LOTLURL:   "https://lotl",
		Territory: "DE",
		Provider:  "A",
		Service: tl.Service{
			Name:        "qc",
			Type:        "qc",
			Status:      tl.StatusGranted,
			StatusStart: now.Add(-time.Hour),
		},
	})
	bld.Add(b.Cert, certstore.Provenance{
		TLURL:     "https://tl/fr",
		LOTLURL:   "https://lotl",
		Territory: "FR",
		Provider:  "B",
		Service: tl.Service{
			Name:        "ts",
			Type:        "ts",
			Status:      tl.StatusWithdrawn,
			StatusStart: now.Add(-time.Hour),
		},
	})
	s := certstore.New()
	s.Replace(bld.Build(now))
	return s, []xtest.Signer{a, b}
}

func TestAPI(t *testing.T) {
	store, signers := testStore(t)
	fpA := string(certstore.FingerprintOf(signers[0].Cert))

	testCases := map[string]struct {
		Handler     func(t *testing.T, ctrl *gomock.Controller) http.Handler
		Method      string
		RequestURL  string
		Status      int
		ContentType string
		Check       func(t *testing.T, body []byte)
	}{
		"summary": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{
					Summary: func() *summary.Summary {
						return &summary.Summary{Created: now, NumberOfProcessedLOTLs: 1}
					},
				})
			},
			RequestURL:  "/summary",
			Status:      http.StatusOK,
			ContentType: "application/json",
			Check: func(t *testing.T, body []byte) {
				var s summary.Summary
				require.NoError(t, json.Unmarshal(body, &s))
				assert.Equal(t, 1, s.NumberOfProcessedLOTLs)
				assert.True(t, now.Equal(s.Created))
			},
		},
		"summary before first cycle": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{
					Summary: func() *summary.Summary { return nil },
				})
			},
			RequestURL:  "/summary",
			Status:      http.StatusNotFound,
			ContentType: "application/problem+json",
		},
		"certificates": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{
					Store: store,
					Now:   func() time.Time { return now },
				})
			},
			RequestURL:  "/certificates",
			Status:      http.StatusOK,
			ContentType: "application/json",
			Check: func(t *testing.T, body []byte) {
				var certs []mgmtapi.Certificate
				require.NoError(t, json.Unmarshal(body, &certs))
				require.Len(t, certs, 2)
				trusted := map[string]bool{}
				for _, c := range certs {
					trusted[c.Provenance[0].Provider] = c.Trusted
				}
				assert.Equal(t, map[string]bool{"A": true, "B": false}, trusted)
			},
		},
		"certificates by territory": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{Store: store})
			},
			RequestURL:  "/certificates?territory=de",
			Status:      http.StatusOK,
			ContentType: "application/json",
			Check: func(t *testing.T, body []byte) {
				var certs []mgmtapi.Certificate
				require.NoError(t, json.Unmarshal(body, &certs))
				require.Len(t, certs, 1)
				assert.Equal(t, fpA, certs[0].Fingerprint)
				assert.Equal(t, "https://tl/de", certs[0].Provenance[0].TL)
			},
		},
		"certificates empty store": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{Store: certstore.New()})
			},
			RequestURL:  "/certificates",
			Status:      http.StatusOK,
			ContentType: "application/json",
			Check: func(t *testing.T, body []byte) {
				assert.JSONEq(t, "[]", string(body))
			},
		},
		"certificate": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{Store: store})
			},
			RequestURL:  "/certificates/" + strings.ToUpper(fpA),
			Status:      http.StatusOK,
			ContentType: "application/json",
			Check: func(t *testing.T, body []byte) {
				var c mgmtapi.Certificate
				require.NoError(t, json.Unmarshal(body, &c))
				assert.Equal(t, fpA, c.Fingerprint)
				assert.Equal(t, "CN=provider a", c.Subject)
			},
		},
		"certificate blob": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{Store: store})
			},
			RequestURL:  "/certificates/" + fpA + "/blob",
			Status:      http.StatusOK,
			ContentType: "application/x-pem-file",
			Check: func(t *testing.T, body []byte) {
				certs, err := pemutil.ParseCerts(body)
				require.NoError(t, err)
				assert.Equal(t, signers[0].Cert, certs[0])
			},
		},
		"certificate unknown": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{Store: store})
			},
			RequestURL:  "/certificates/abcd",
			Status:      http.StatusNotFound,
			ContentType: "application/problem+json",
		},
		"cache": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				c := cache.New()
				c.WriteDownload(tl.NewCacheKey("https://tl/de"), []byte("raw"), nil)
				return mgmtapi.Handler(&mgmtapi.Server{Cache: c})
			},
			RequestURL:  "/cache",
			Status:      http.StatusOK,
			ContentType: "text/plain",
			Check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "https://tl/de")
			},
		},
		"history": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				db := mock_history.NewMockDB(ctrl)
				db.EXPECT().Latest(gomock.Any(), 2).Return([]history.Record{
					{ID: 2, Mode: "online", Start: now, Duration: time.Second,
						Summary: []byte(`{"processed_lotls":1}`)},
					{ID: 1, Mode: "offline", Start: now.Add(-time.Hour), Err: "boom"},
				}, nil)
				return mgmtapi.Handler(&mgmtapi.Server{History: db})
			},
			RequestURL:  "/history?limit=2&summary=true",
			Status:      http.StatusOK,
			ContentType: "application/json",
			Check: func(t *testing.T, body []byte) {
				var recs []mgmtapi.HistoryRecord
				require.NoError(t, json.Unmarshal(body, &recs))
				require.Len(t, recs, 2)
				assert.Equal(t, int64(2), recs[0].ID)
				assert.Equal(t, "1s", recs[0].Duration)
				assert.JSONEq(t, `{"processed_lotls":1}`, string(recs[0].Summary))
				assert.Equal(t, "boom", recs[1].Error)
			},
		},
		"history default limit": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				db := mock_history.NewMockDB(ctrl)
				db.EXPECT().Latest(gomock.Any(), mgmtapi.DefaultHistoryLimit).Return(nil, nil)
				return mgmtapi.Handler(&mgmtapi.Server{History: db})
			},
			RequestURL:  "/history",
			Status:      http.StatusOK,
			ContentType: "application/json",
			Check: func(t *testing.T, body []byte) {
				assert.JSONEq(t, "[]", string(body))
			},
		},
		"history malformed limit": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{History: mock_history.NewMockDB(ctrl)})
			},
			RequestURL:  "/history?limit=x",
			Status:      http.StatusBadRequest,
			ContentType: "application/problem+json",
		},
		"history error": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				db := mock_history.NewMockDB(ctrl)
				db.EXPECT().Latest(gomock.Any(), gomock.Any()).Return(nil, serrors.New("internal"))
				return mgmtapi.Handler(&mgmtapi.Server{History: db})
			},
			RequestURL:  "/history",
			Status:      http.StatusInternalServerError,
			ContentType: "application/problem+json",
			Check: func(t *testing.T, body []byte) {
				var p mgmtapi.Problem
				require.NoError(t, json.Unmarshal(body, &p))
				assert.Equal(t, http.StatusInternalServerError, p.Status)
				assert.Contains(t, p.Detail, "internal")
			},
		},
		"refresh": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				r := mock_mgmtapi.NewMockRefresher(ctrl)
				r.EXPECT().TriggerRun()
				return mgmtapi.Handler(&mgmtapi.Server{Refresher: r})
			},
			Method:     http.MethodPost,
			RequestURL: "/refresh",
			Status:     http.StatusAccepted,
		},
		"refresh wrong method": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{Refresher: mock_mgmtapi.NewMockRefresher(ctrl)})
			},
			RequestURL: "/refresh",
			Status:     http.StatusMethodNotAllowed,
		},
		"config": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{
					Config: mgmtapi.ConfigHandler(mgmtapi.Config{Addr: ":1234"}),
				})
			},
			RequestURL:  "/config",
			Status:      http.StatusOK,
			ContentType: "text/plain",
			Check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "addr")
				assert.Contains(t, string(body), ":1234")
			},
		},
		"info": {
			Handler: func(t *testing.T, ctrl *gomock.Controller) http.Handler {
				return mgmtapi.Handler(&mgmtapi.Server{Info: mgmtapi.InfoHandler("tlsync-1")})
			},
			RequestURL:  "/info",
			Status:      http.StatusOK,
			ContentType: "text/plain",
			Check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "tlsync-1")
			},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			method := tc.Method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, tc.RequestURL, nil)
			rr := httptest.NewRecorder()
			tc.Handler(t, ctrl).ServeHTTP(rr, req)

			assert.Equal(t, tc.Status, rr.Result().StatusCode)
			if tc.ContentType != "" {
				assert.Equal(t, tc.ContentType, rr.Header().Get("Content-Type"))
			}
			if tc.Check != nil {
				tc.Check(t, rr.Body.Bytes())
			}
		})
	}
}
