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

// Package tltest provides helpers to build signed trust documents and serve
// them from memory in tests.
package tltest

import (
	"context"
	"crypto/x509"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/private/xtest"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/jwsdoc"
)

// ErrNotFound is returned by Loader for unknown URLs.
var ErrNotFound = serrors.New("document not found")

// Issued is the issue time of the documents built by this package.
var Issued = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// Sign encodes p and signs it with signer.
func Sign(t testing.TB, p *tl.ParsedList, signer xtest.Signer) []byte {
	t.Helper()
	raw, err := jwsdoc.Sign(jwsdoc.NewDocument(p), signer.Key)
	require.NoError(t, err)
	return raw
}

// LOTL builds a list of lists that declares signers and points to ptrs.
func LOTL(signers []*x509.Certificate, ptrs ...tl.Pointer) *tl.ParsedList {
	return &tl.ParsedList{
		Kind:       tl.KindLOTL,
		Territory:  "EU",
		Sequence:   1,
		Issued:     Issued,
		NextUpdate: Issued.AddDate(1, 0, 0),
		Signers:    signers,
		Pointers:   ptrs,
	}
}

// Pointer builds a pointer to the trust list at location.
func Pointer(location, territory string, signers ...*x509.Certificate) tl.Pointer {
	return tl.Pointer{
		Location:  location,
		Kind:      tl.KindTL,
		Territory: territory,
		MimeType:  jwsdoc.MimeType,
		Signers:   signers,
	}
}

// TL builds a trust list with one provider and one granted service listing
// certs.
func TL(territory string, certs ...*x509.Certificate) *tl.ParsedList {
	return &tl.ParsedList{
		Kind:       tl.KindTL,
		Territory:  territory,
		Sequence:   1,
		Issued:     Issued,
		NextUpdate: Issued.AddDate(1, 0, 0),
		Providers: []tl.Provider{{
			Name: territory + " provider",
			Services: []tl.Service{{
				Name:         territory + " CA",
				Type:         "CA/QC",
				Status:       tl.StatusGranted,
				StatusStart:  Issued.AddDate(-1, 0, 0),
				Certificates: certs,
			}},
		}},
	}
}

// Loader serves documents from memory. It is safe for concurrent use.
type Loader struct {
	mu    sync.Mutex
	docs  map[string][]byte
	errs  map[string]error
	calls map[string]int
}

// NewLoader returns an empty loader.
func NewLoader() *Loader {
	return &Loader{
		docs:  make(map[string][]byte),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// Set serves raw at url.
func (l *Loader) Set(url string, raw []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.docs[url] = raw
	delete(l.errs, url)
}

// SetErr makes loads of url fail with err.
func (l *Loader) SetErr(url string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs[url] = err
}

// Delete stops serving url.
func (l *Loader) Delete(url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.docs, url)
	delete(l.errs, url)
}

// Calls returns how often url was loaded.
func (l *Loader) Calls(url string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[url]
}

// TotalCalls returns the number of loads of any url.
func (l *Loader) TotalCalls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		n += c
	}
	return n
}

// Load implements tl.Loader.
func (l *Loader) Load(ctx context.Context, url string) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls[url]++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := l.errs[url]; ok {
		return nil, err
	}
	raw, ok := l.docs[url]
	if !ok {
		return nil, serrors.JoinNoStack(ErrNotFound, nil, "url", url)
	}
	return append([]byte(nil), raw...), nil
}
