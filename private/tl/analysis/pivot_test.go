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

package analysis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/private/xtest"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/tltest"
	"github.com/tlsync/tlsync/private/tl/analysis"
	"github.com/tlsync/tlsync/private/tl/cache"
)

const (
	lotlURL   = "https://lotl.example/lotl"
	pivot1URL = "https://lotl.example/pivot-1"
	pivot2URL = "https://lotl.example/pivot-2"
)

type pivotSigners struct {
	configured, intermediate, current, attacker xtest.Signer
}

func newPivotSigners(t *testing.T) pivotSigners {
	return pivotSigners{
		configured:   xtest.NewSigner(t, "configured"),
		intermediate: xtest.NewSigner(t, "intermediate"),
		current:      xtest.NewSigner(t, "current"),
		attacker:     xtest.NewSigner(t, "attacker"),
	}
}

// pivot builds a historical list of lists declaring next as its signers.
func pivot(t *testing.T, next, signedBy xtest.Signer, seq int) []byte {
	p := tltest.LOTL(xtest.Certs(next))
	p.Sequence = seq
	return tltest.Sign(t, p, signedBy)
}

func liveLOTL(t *testing.T, signedBy xtest.Signer, pivots ...string) []byte {
	p := tltest.LOTL(xtest.Certs(signedBy))
	p.Sequence = 10
	p.Pivots = pivots
	return tltest.Sign(t, p, signedBy)
}

func TestPivotContinuity(t *testing.T) {
	s := newPivotSigners(t)

	testCases := map[string]struct {
		Prepare      func(t *testing.T, l *tltest.Loader)
		PivotSupport bool
		Validation   cache.Status
		SignedBy     *xtest.Signer
		Cause        error
		PivotStates  map[string]cache.Status
	}{
		"unchanged signers": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(pivot1URL, pivot(t, s.configured, s.configured, 1))
				l.Set(lotlURL, liveLOTL(t, s.configured, pivot1URL))
			},
			PivotSupport: true,
			Validation:   cache.Fresh,
			SignedBy:     &s.configured,
			PivotStates:  map[string]cache.Status{pivot1URL: cache.Empty},
		},
		"one pivot": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(pivot1URL, pivot(t, s.current, s.configured, 1))
				l.Set(lotlURL, liveLOTL(t, s.current, pivot1URL))
			},
			PivotSupport: true,
			Validation:   cache.Fresh,
			SignedBy:     &s.current,
			PivotStates:  map[string]cache.Status{pivot1URL: cache.Fresh},
		},
		"two pivots": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(pivot1URL, pivot(t, s.intermediate, s.configured, 1))
				l.Set(pivot2URL, pivot(t, s.current, s.intermediate, 2))
				l.Set(lotlURL, liveLOTL(t, s.current, pivot2URL, pivot1URL))
			},
			PivotSupport: true,
			Validation:   cache.Fresh,
			SignedBy:     &s.current,
			PivotStates: map[string]cache.Status{
				pivot1URL: cache.Fresh,
				pivot2URL: cache.Fresh,
			},
		},
		"two pivots in wrong order": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(pivot1URL, pivot(t, s.intermediate, s.configured, 1))
				l.Set(pivot2URL, pivot(t, s.current, s.intermediate, 2))
				l.Set(lotlURL, liveLOTL(t, s.current, pivot1URL, pivot2URL))
			},
			PivotSupport: true,
			Validation:   cache.Error,
			Cause:        tl.ErrPivotChainBroken,
			PivotStates:  map[string]cache.Status{pivot2URL: cache.Error},
		},
		"forged pivot": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(pivot1URL, pivot(t, s.attacker, s.attacker, 1))
				l.Set(lotlURL, liveLOTL(t, s.attacker, pivot1URL))
			},
			PivotSupport: true,
			Validation:   cache.Error,
			Cause:        tl.ErrPivotChainBroken,
			PivotStates:  map[string]cache.Status{pivot1URL: cache.Error},
		},
		"broken link": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(pivot1URL, pivot(t, s.intermediate, s.configured, 1))
				l.Set(pivot2URL, pivot(t, s.current, s.attacker, 2))
				l.Set(lotlURL, liveLOTL(t, s.current, pivot2URL, pivot1URL))
			},
			PivotSupport: true,
			Validation:   cache.Error,
			Cause:        tl.ErrPivotChainBroken,
			PivotStates: map[string]cache.Status{
				pivot1URL: cache.Fresh,
				pivot2URL: cache.Error,
			},
		},
		"pivot unavailable": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.SetErr(pivot1URL, errors.New("not found"))
				l.Set(lotlURL, liveLOTL(t, s.current, pivot1URL))
			},
			PivotSupport: true,
			Validation:   cache.Error,
			Cause:        tl.ErrPivotChainBroken,
		},
		"pivots ignored without support": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(pivot1URL, pivot(t, s.current, s.configured, 1))
				l.Set(lotlURL, liveLOTL(t, s.current, pivot1URL))
			},
			Validation: cache.Error,
			Cause:      tl.ErrSignatureInvalid,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			l := tltest.NewLoader()
			tc.Prepare(t, l)
			c := cache.New()
			src := tl.LOTLSource{
				URL:          lotlURL,
				PivotSupport: tc.PivotSupport,
				Signers:      xtest.Certs(s.configured),
			}
			r := newTask(src, l, c).Run(context.Background())
			assert.Equal(t, cache.Fresh, r.Parsing, "the live document always parses")
			assert.Equal(t, tc.Validation, r.Validation)

			snap, ok := c.Snapshot(src.Key())
			require.True(t, ok)
			if tc.SignedBy != nil {
				assert.True(t, snap.Validation.Result.SigningCertificate.Equal(tc.SignedBy.Cert))
			}
			if tc.Cause != nil {
				assert.ErrorIs(t, snap.Validation.Cause, tc.Cause)
			}
			if !tc.PivotSupport {
				assert.Equal(t, 1, c.Len(), "pivots must not be loaded")
				assert.Zero(t, l.Calls(pivot1URL))
			}
			for url, status := range tc.PivotStates {
				ps, ok := c.Snapshot(tl.NewCacheKey(url))
				require.True(t, ok, url)
				assert.Equal(t, status, ps.Validation.Status, url)
			}
		})
	}
}

func TestPivotUsesCachedContent(t *testing.T) {
	s := newPivotSigners(t)
	l := tltest.NewLoader()
	l.Set(pivot1URL, pivot(t, s.current, s.configured, 1))
	l.Set(lotlURL, liveLOTL(t, s.current, pivot1URL))
	c := cache.New()
	src := tl.LOTLSource{URL: lotlURL, PivotSupport: true, Signers: xtest.Certs(s.configured)}
	task := newTask(src, l, c)
	require.Equal(t, cache.Fresh, task.Run(context.Background()).Validation)

	// The pivot location goes down and the live document must be revalidated.
	l.SetErr(pivot1URL, errors.New("timeout"))
	c.ExpireValidation(src.Key())
	r := task.Run(context.Background())
	assert.Equal(t, cache.Fresh, r.Validation)
	assert.Equal(t, []tl.CacheKey{tl.NewCacheKey(pivot1URL)}, r.Pivots)
	ps, _ := c.Snapshot(tl.NewCacheKey(pivot1URL))
	assert.Equal(t, cache.Error, ps.Download.Status)
}

func TestPivotAwareKind(t *testing.T) {
	src := tl.LOTLSource{URL: lotlURL, PivotSupport: true}
	assert.Equal(t, analysis.PivotAware, newTask(src, nil, cache.New()).Kind)
}
