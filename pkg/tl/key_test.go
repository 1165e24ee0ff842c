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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tlsync/tlsync/pkg/tl"
)

func TestNewCacheKey(t *testing.T) {
	testCases := map[string]struct {
		Input string
		Want  tl.CacheKey
	}{
		"plain": {
			Input: "https://example.org/lotl.jws",
			Want:  "https://example.org/lotl.jws",
		},
		"whitespace": {
			Input: "  https://example.org/lotl.jws\n",
			Want:  "https://example.org/lotl.jws",
		},
		"scheme and host case": {
			Input: "HTTPS://Example.ORG/Lotl.jws",
			Want:  "https://example.org/Lotl.jws",
		},
		"file path": {
			Input: "/var/lib/tlsync/lotl.jws",
			Want:  "/var/lib/tlsync/lotl.jws",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Want, tl.NewCacheKey(tc.Input))
		})
	}
}

func TestSourceKeysCollide(t *testing.T) {
	a := tl.LOTLSource{URL: "https://EXAMPLE.org/list"}
	b := tl.TLSource{URL: " https://example.org/list"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, tl.KindLOTL, a.Kind())
	assert.Equal(t, tl.KindTL, b.Kind())
}
