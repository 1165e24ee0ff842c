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
	"crypto/x509"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/private/xtest"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/jwsdoc"
	"github.com/tlsync/tlsync/pkg/tl/mock_tl"
	"github.com/tlsync/tlsync/pkg/tl/tltest"
	"github.com/tlsync/tlsync/private/tl/analysis"
	"github.com/tlsync/tlsync/private/tl/cache"
)

const tlURL = "https://at.example/tl"

func newTask(src tl.Source, loader tl.Loader, c *cache.Cache) *analysis.Task {
	return &analysis.Task{
		Source:   src,
		Kind:     analysis.KindFor(src),
		Loader:   loader,
		Parser:   &jwsdoc.Parser{},
		Verifier: jwsdoc.Verifier{},
		Cache:    c,
	}
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, analysis.Plain, analysis.KindFor(tl.TLSource{}))
	assert.Equal(t, analysis.Plain, analysis.KindFor(tl.LOTLSource{}))
	assert.Equal(t, analysis.PivotAware, analysis.KindFor(tl.LOTLSource{PivotSupport: true}))
}

func TestRun(t *testing.T) {
	signer := xtest.NewSigner(t, "tl signer")
	other := xtest.NewSigner(t, "other")
	ca := xtest.NewSigner(t, "ca")

	testCases := map[string]struct {
		Prepare    func(t *testing.T, l *tltest.Loader)
		Source     tl.TLSource
		Download   cache.Status
		Parsing    cache.Status
		Validation cache.Status
		Indication tl.Indication
		Cause      error
	}{
		"valid": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(tlURL, tltest.Sign(t, tltest.TL("AT", ca.Cert), signer))
			},
			Source:     tl.TLSource{URL: tlURL, Signers: xtest.Certs(signer)},
			Download:   cache.Fresh,
			Parsing:    cache.Fresh,
			Validation: cache.Fresh,
			Indication: tl.Valid,
		},
		"download error": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.SetErr(tlURL, errors.New("connection refused"))
			},
			Source:   tl.TLSource{URL: tlURL, Signers: xtest.Certs(signer)},
			Download: cache.Error,
		},
		"garbage": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(tlURL, []byte("garbage"))
			},
			Source:     tl.TLSource{URL: tlURL, Signers: xtest.Certs(signer)},
			Download:   cache.Fresh,
			Parsing:    cache.Error,
			Validation: cache.Error,
		},
		"unexpected kind": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(tlURL, tltest.Sign(t, tltest.LOTL(nil), signer))
			},
			Source:     tl.TLSource{URL: tlURL, Signers: xtest.Certs(signer)},
			Download:   cache.Fresh,
			Parsing:    cache.Error,
			Validation: cache.Fresh,
			Indication: tl.Valid,
		},
		"wrong signer": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(tlURL, tltest.Sign(t, tltest.TL("AT", ca.Cert), other))
			},
			Source:     tl.TLSource{URL: tlURL, Signers: xtest.Certs(signer)},
			Download:   cache.Fresh,
			Parsing:    cache.Fresh,
			Validation: cache.Error,
			Indication: tl.Invalid,
			Cause:      tl.ErrSignatureInvalid,
		},
		"no signers": {
			Prepare: func(t *testing.T, l *tltest.Loader) {
				l.Set(tlURL, tltest.Sign(t, tltest.TL("AT", ca.Cert), signer))
			},
			Source:     tl.TLSource{URL: tlURL},
			Download:   cache.Fresh,
			Parsing:    cache.Fresh,
			Validation: cache.Error,
			Indication: tl.NotChecked,
			Cause:      tl.ErrNoSigners,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			l := tltest.NewLoader()
			tc.Prepare(t, l)
			c := cache.New()
			r := newTask(tc.Source, l, c).Run(context.Background())
			assert.Equal(t, tc.Download, r.Download)
			assert.Equal(t, tc.Parsing, r.Parsing)
			assert.Equal(t, tc.Validation, r.Validation)

			s, ok := c.Snapshot(tc.Source.Key())
			require.True(t, ok)
			assert.Equal(t, tc.Indication, s.Validation.Result.Indication)
			if tc.Cause != nil {
				assert.ErrorIs(t, s.Validation.Cause, tc.Cause)
			}
		})
	}
}

func TestRunAppliesServiceFilter(t *testing.T) {
	signer := xtest.NewSigner(t, "tl signer")
	ca := xtest.NewSigner(t, "ca")
	l := tltest.NewLoader()
	l.Set(tlURL, tltest.Sign(t, tltest.TL("AT", ca.Cert), signer))
	c := cache.New()
	src := tl.TLSource{
		URL:           tlURL,
		Signers:       xtest.Certs(signer),
		ServiceFilter: tl.ServiceTypeFilter("TSA"),
	}
	newTask(src, l, c).Run(context.Background())
	s, _ := c.Snapshot(src.Key())
	require.NotNil(t, s.Parsing.Result)
	assert.Zero(t, s.Parsing.Result.CertificateCount())
}

func TestRunReusesUnchangedContent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := xtest.NewSigner(t, "tl signer")
	src := tl.TLSource{URL: tlURL, Signers: xtest.Certs(signer)}
	raw := []byte("v1")
	loader := mock_tl.NewMockLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), tlURL).Return(raw, nil).Times(4)
	parser := mock_tl.NewMockParser(ctrl)
	parser.EXPECT().Parse(raw).Return(tltest.TL("AT"), nil).Times(1)
	verifier := mock_tl.NewMockVerifier(ctrl)
	verifier.EXPECT().Verify(raw, src.Signers).
		Return(tl.ValidationResult{Indication: tl.Valid}, nil).Times(2)

	c := cache.New()
	task := &analysis.Task{
		Source:   src,
		Loader:   loader,
		Parser:   parser,
		Verifier: verifier,
		Cache:    c,
	}
	assert.False(t, task.Run(context.Background()).Reused)
	assert.True(t, task.Run(context.Background()).Reused)

	// Forced re-validation re-runs the signature check on the cached parse.
	require.True(t, c.ExpireValidation(src.Key()))
	r := task.Run(context.Background())
	assert.False(t, r.Reused)
	assert.Equal(t, cache.Fresh, r.Validation)
	assert.True(t, task.Run(context.Background()).Reused)
}

func TestRunRecoversPanics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	signer := xtest.NewSigner(t, "tl signer")
	loader := mock_tl.NewMockLoader(ctrl)
	loader.EXPECT().Load(gomock.Any(), gomock.Any()).Return([]byte("x"), nil)
	parser := mock_tl.NewMockParser(ctrl)
	parser.EXPECT().Parse(gomock.Any()).DoAndReturn(func([]byte) (*tl.ParsedList, error) {
		panic("boom")
	})
	verifier := mock_tl.NewMockVerifier(ctrl)
	verifier.EXPECT().Verify(gomock.Any(), gomock.Any()).DoAndReturn(
		func([]byte, []*x509.Certificate) (tl.ValidationResult, error) {
			panic("boom")
		})

	c := cache.New()
	task := &analysis.Task{
		Source:   tl.TLSource{URL: tlURL, Signers: xtest.Certs(signer)},
		Loader:   loader,
		Parser:   parser,
		Verifier: verifier,
		Cache:    c,
	}
	r := task.Run(context.Background())
	assert.Equal(t, cache.Error, r.Parsing)
	assert.Equal(t, cache.Error, r.Validation)
	s, _ := c.Snapshot(task.Source.Key())
	assert.Contains(t, s.Parsing.Cause.Error(), "recovered from panic")
}
