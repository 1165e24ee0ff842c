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

// Package changes detects structural changes of lists of lists between two
// refresh cycles and propagates them to the cache entries of the trust lists
// they point to.
package changes

import (
	"context"
	"fmt"
	"sort"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/certstore"
	"github.com/tlsync/tlsync/private/tl/cache"
)

// Snapshot holds the fresh parses of lists of lists at one point in time.
// It must not be modified after it was taken.
type Snapshot map[tl.CacheKey]*tl.ParsedList

// Take records the fresh parses of the given keys. Keys without a fresh parse
// are omitted.
func Take(c *cache.Cache, keys []tl.CacheKey) Snapshot {
	s := make(Snapshot, len(keys))
	for _, k := range keys {
		snap, ok := c.Snapshot(k)
		if !ok || snap.Parsing.Status != cache.Fresh || snap.Parsing.Result == nil {
			continue
		}
		s[k] = snap.Parsing.Result
	}
	return s
}

// ActionType is the kind of change applied to a trust list entry.
type ActionType uint8

const (
	// MarkForDeletion is applied when a pointer disappeared.
	MarkForDeletion ActionType = iota + 1
	// ExpireValidation is applied when the signers of a pointer changed.
	ExpireValidation
)

func (t ActionType) String() string {
	switch t {
	case MarkForDeletion:
		return "mark_for_deletion"
	case ExpireValidation:
		return "expire_validation"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// Action is one change decided by the applier.
type Action struct {
	Type ActionType
	// LOTL is the list of lists whose change caused the action.
	LOTL tl.CacheKey
	// Key is the entry the action applies to.
	Key tl.CacheKey
	// Applied is false if the entry was not in the cache.
	Applied bool
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s (lotl %s, applied %t)", a.Type, a.Key, a.LOTL, a.Applied)
}

// Applier compares snapshots and updates the cache.
type Applier struct {
	Cache *cache.Cache
}

// Apply compares the pointers of every list of lists present in both
// snapshots. A trust list that is no longer pointed to is marked for
// deletion. A trust list whose expected signers changed has its validation
// expired, so that its signature is checked again with the new signers even
// if its content did not change. Pointers that are new in next need no
// action. The actions are returned in a deterministic order.
func (a *Applier) Apply(ctx context.Context, prev, next Snapshot) []Action {
	logger := log.FromCtx(ctx)
	lotls := make([]tl.CacheKey, 0, len(next))
	for k := range next {
		if _, ok := prev[k]; ok {
			lotls = append(lotls, k)
		}
	}
	sort.Slice(lotls, func(i, j int) bool { return lotls[i] < lotls[j] })

	var actions []Action
	for _, lotl := range lotls {
		before, after := signerSets(prev[lotl]), signerSets(next[lotl])
		for _, key := range sortedKeys(before) {
			var act Action
			nextSigners, ok := after[key]
			switch {
			case !ok:
				act = Action{Type: MarkForDeletion, LOTL: lotl, Key: key,
					Applied: a.Cache.MarkForDeletion(key)}
			case !equalSets(before[key], nextSigners):
				act = Action{Type: ExpireValidation, LOTL: lotl, Key: key,
					Applied: a.Cache.ExpireValidation(key)}
			default:
				continue
			}
			logger.Debug("Applied list of lists change", "action", act.Type, "lotl", lotl,
				"key", key, "applied", act.Applied)
			actions = append(actions, act)
		}
	}
	return actions
}

type fingerprintSet map[certstore.Fingerprint]struct{}

func signerSets(p *tl.ParsedList) map[tl.CacheKey]fingerprintSet {
	sets := make(map[tl.CacheKey]fingerprintSet)
	for _, ptr := range p.TLPointers() {
		key := tl.NewCacheKey(ptr.Location)
		set, ok := sets[key]
		if !ok {
			set = make(fingerprintSet, len(ptr.Signers))
			sets[key] = set
		}
		for _, c := range ptr.Signers {
			set[certstore.FingerprintOf(c)] = struct{}{}
		}
	}
	return sets
}

func equalSets(a, b fingerprintSet) bool {
	if len(a) != len(b) {
		return false
	}
	for fp := range a {
		if _, ok := b[fp]; !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[tl.CacheKey]fingerprintSet) []tl.CacheKey {
	keys := make([]tl.CacheKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
