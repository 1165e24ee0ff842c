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

// Package loader contains the transports that fetch trust documents.
//
// HTTPLoader fetches over HTTP(S), optionally over HTTP/3. FileLoader reads
// local files. Mux dispatches on the URL scheme. Memo deduplicates fetches of
// the same URL within one refresh cycle. Recording persists every successful
// fetch into the document database and Offline serves the persisted bytes.
package loader

import (
	"context"
	"net/url"
	"strings"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
)

var (
	// ErrUnsupportedScheme indicates that no loader handles the URL scheme.
	ErrUnsupportedScheme = serrors.New("unsupported url scheme")
	// ErrStatus indicates a non-successful HTTP status.
	ErrStatus = serrors.New("unexpected http status")
	// ErrTooLarge indicates a document exceeding the size limit.
	ErrTooLarge = serrors.New("document too large")
)

// Mux dispatches to a loader based on the URL scheme. URLs without a scheme
// are dispatched to the loader registered for the empty scheme.
type Mux map[string]tl.Loader

// NewMux returns a mux that serves http and https with h and file URLs as
// well as plain paths with f. Nil loaders are not registered.
func NewMux(h, f tl.Loader) Mux {
	m := Mux{}
	if h != nil {
		m["http"] = h
		m["https"] = h
	}
	if f != nil {
		m["file"] = f
		m[""] = f
	}
	return m
}

// Load implements tl.Loader.
func (m Mux) Load(ctx context.Context, rawURL string) ([]byte, error) {
	scheme := schemeOf(rawURL)
	l, ok := m[scheme]
	if !ok {
		return nil, serrors.JoinNoStack(ErrUnsupportedScheme, nil,
			"scheme", scheme, "url", rawURL)
	}
	return l.Load(ctx, rawURL)
}

func schemeOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	// Windows style drive letters parse as a one letter scheme.
	if len(u.Scheme) == 1 {
		return ""
	}
	return strings.ToLower(u.Scheme)
}
