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

package tl_test

import (
	"crypto/x509"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/tl"
)

func TestParseKind(t *testing.T) {
	for _, k := range []tl.Kind{tl.KindLOTL, tl.KindTL} {
		got, err := tl.ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := tl.ParseKind("xml")
	assert.Error(t, err)
}

func TestParsedListCounts(t *testing.T) {
	cert := &x509.Certificate{}
	p := &tl.ParsedList{
		Pointers: []tl.Pointer{
			{Location: "a", Kind: tl.KindTL},
			{Location: "b", Kind: tl.KindLOTL},
			{Location: "c", Kind: tl.KindTL},
		},
		Providers: []tl.Provider{
			{Name: "p1", Services: []tl.Service{
				{Name: "s1", Certificates: []*x509.Certificate{cert, cert}},
				{Name: "s2", Certificates: []*x509.Certificate{cert}},
			}},
			{Name: "p2", Services: []tl.Service{{Name: "s3"}}},
		},
	}
	assert.Len(t, p.TLPointers(), 2)
	assert.Equal(t, 3, p.CertificateCount())
	assert.Equal(t, 3, p.ServiceCount())

	var nilList *tl.ParsedList
	assert.Nil(t, nilList.TLPointers())
	assert.Zero(t, nilList.CertificateCount())
}

func TestParsedListExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testCases := map[string]struct {
		NextUpdate time.Time
		Expired    bool
	}{
		"no next update": {},
		"future":         {NextUpdate: now.Add(time.Hour)},
		"past":           {NextUpdate: now.Add(-time.Hour), Expired: true},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			p := &tl.ParsedList{NextUpdate: tc.NextUpdate}
			assert.Equal(t, tc.Expired, p.Expired(now))
		})
	}
}

func TestServiceStatusAt(t *testing.T) {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := tl.Service{
		Status:      tl.StatusWithdrawn,
		StatusStart: t0.AddDate(2, 0, 0),
		History: []tl.ServiceState{
			{Status: tl.StatusGranted, StatusStart: t0},
		},
	}
	assert.Equal(t, "", svc.StatusAt(t0.Add(-time.Second)))
	assert.Equal(t, tl.StatusGranted, svc.StatusAt(t0.AddDate(1, 0, 0)))
	assert.Equal(t, tl.StatusWithdrawn, svc.StatusAt(t0.AddDate(3, 0, 0)))
	assert.False(t, svc.IsGranted())
}

func TestIndicationString(t *testing.T) {
	assert.Equal(t, "valid", tl.Valid.String())
	assert.Equal(t, "invalid", tl.Invalid.String())
	assert.Equal(t, "not_checked", tl.NotChecked.String())
	assert.True(t, tl.ValidationResult{Indication: tl.Valid}.Valid())
}
