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

// Package cachecleaner evicts cache entries of documents that are no longer
// part of the source graph.
package cachecleaner

import (
	"context"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/private/tl/cache"
	"github.com/tlsync/tlsync/private/tl/derive"
)

// Policy configures the cleaner.
type Policy struct {
	// RetainOrphans keeps the entries of the trust lists recorded in the last
	// good parse of a list of lists whose current parse failed.
	RetainOrphans bool
}

// DefaultPolicy is the policy used when none is configured.
var DefaultPolicy = Policy{RetainOrphans: true}

// Result describes one cleaning.
type Result struct {
	Removed  []tl.CacheKey
	Unmarked []tl.CacheKey
}

// Cleaner removes entries outside the live set. It must only run when no
// analysis is in progress.
type Cleaner struct {
	Cache  *cache.Cache
	Policy Policy
}

// LiveSet returns the keys that must be kept: the lists of lists, the given
// trust lists, the pivots referenced by the lists of lists and, if the policy
// says so, the orphaned trust lists of lists of lists that failed to parse.
func (c *Cleaner) LiveSet(lotls []tl.LOTLSource, tls []tl.TLSource) map[tl.CacheKey]struct{} {
	live := make(map[tl.CacheKey]struct{}, len(lotls)+len(tls))
	for _, l := range lotls {
		live[l.Key()] = struct{}{}
		if snap, ok := c.Cache.Snapshot(l.Key()); ok && snap.Parsing.Result != nil {
			for _, p := range snap.Parsing.Result.Pivots {
				live[tl.NewCacheKey(p)] = struct{}{}
			}
		}
	}
	for _, t := range tls {
		live[t.Key()] = struct{}{}
	}
	if c.Policy.RetainOrphans {
		for _, t := range derive.Orphans(c.Cache, lotls) {
			live[t.Key()] = struct{}{}
		}
	}
	return live
}

// Clean removes every entry that is not live, whether marked for deletion or
// not. A marked entry that is live again is unmarked.
func (c *Cleaner) Clean(ctx context.Context, lotls []tl.LOTLSource,
	tls []tl.TLSource) Result {

	logger := log.FromCtx(ctx)
	live := c.LiveSet(lotls, tls)
	var r Result
	for _, key := range c.Cache.Keys() {
		snap, ok := c.Cache.Snapshot(key)
		if !ok {
			continue
		}
		if _, isLive := live[key]; !isLive {
			c.Cache.Remove(key)
			r.Removed = append(r.Removed, key)
			logger.Debug("Removed cache entry", "key", key,
				"marked_for_deletion", snap.ToBeDeleted)
			continue
		}
		if snap.ToBeDeleted {
			c.Cache.Unmark(key)
			r.Unmarked = append(r.Unmarked, key)
		}
	}
	return r
}
