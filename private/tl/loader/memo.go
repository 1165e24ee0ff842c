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

package loader

import (
	"context"
	"time"

	cache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/tlsync/tlsync/pkg/tl"
)

// DefaultMemoTTL bounds how long a memoized document is served.
const DefaultMemoTTL = time.Minute

// Memo memoizes successful loads for a short time and collapses concurrent
// loads of the same URL into one. Failures are not memoized. Call Flush at
// the start of a refresh cycle so that every cycle fetches each URL once.
type Memo struct {
	loader tl.Loader
	cache  *cache.Cache
	group  singleflight.Group
}

// NewMemo wraps l. A ttl of zero uses DefaultMemoTTL.
func NewMemo(l tl.Loader, ttl time.Duration) *Memo {
	if ttl == 0 {
		ttl = DefaultMemoTTL
	}
	return &Memo{
		loader: l,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Load implements tl.Loader.
func (m *Memo) Load(ctx context.Context, url string) ([]byte, error) {
	if raw, ok := m.cache.Get(url); ok {
		return raw.([]byte), nil
	}
	res, err, _ := m.group.Do(url, func() (any, error) {
		if raw, ok := m.cache.Get(url); ok {
			return raw, nil
		}
		raw, err := m.loader.Load(ctx, url)
		if err != nil {
			return nil, err
		}
		m.cache.SetDefault(url, raw)
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return res.([]byte), nil
}

// Flush drops all memoized documents.
func (m *Memo) Flush() {
	m.cache.Flush()
}

// Len returns the number of memoized documents.
func (m *Memo) Len() int {
	return m.cache.ItemCount()
}
