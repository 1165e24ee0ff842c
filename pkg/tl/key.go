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

package tl

import (
	"net/url"
	"strings"
)

// CacheKey identifies the cache entry of one document. It is derived from the
// document URL only.
type CacheKey string

// NewCacheKey derives the cache key of rawURL. Surrounding whitespace is
// removed and the scheme and host are lower-cased, so URLs that only differ in
// those respects share a key.
func NewCacheKey(rawURL string) CacheKey {
	s := strings.TrimSpace(rawURL)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return CacheKey(s)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return CacheKey(u.String())
}

func (k CacheKey) String() string {
	return string(k)
}
