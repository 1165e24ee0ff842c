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

// Package synchronizer merges the accepted content of the cache into the
// certificate store.
package synchronizer

import (
	"context"
	"time"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/certstore"
	"github.com/tlsync/tlsync/private/tl/cache"
)

// Result describes one synchronization.
type Result struct {
	Accepted []tl.CacheKey
	Rejected []tl.CacheKey
	// Certificates is the number of distinct certificates in the store.
	Certificates int
	// Changed is set if the content of the store changed.
	Changed bool
}

// Synchronizer replaces the content of the store with the certificates of
// the accepted trust lists.
type Synchronizer struct {
	Cache *cache.Cache
	Store *certstore.Store
	// Strategy defaults to AcceptNotErrored.
	Strategy Strategy
	// Now defaults to time.Now.
	Now func() time.Time
}

// Sync builds the full replacement set from the trust lists of srcs that are
// not marked for deletion and accepted by the strategy, and installs it in
// one swap. Rejected entries stay in the cache.
func (s *Synchronizer) Sync(ctx context.Context, srcs []tl.TLSource) Result {
	logger := log.FromCtx(ctx)
	strategy := s.Strategy
	if strategy == nil {
		strategy = AcceptNotErrored
	}
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}

	var r Result
	b := certstore.NewBuilder()
	seen := make(map[tl.CacheKey]struct{}, len(srcs))
	for _, src := range srcs {
		key := src.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		snap, ok := s.Cache.Snapshot(key)
		if !ok {
			continue
		}
		if snap.ToBeDeleted || !strategy.Accept(snap, now) {
			s.Cache.SetSynchronized(key, false)
			r.Rejected = append(r.Rejected, key)
			logger.Debug("Trust list not synchronized", "url", src.URL,
				"marked_for_deletion", snap.ToBeDeleted,
				"download", snap.Download.Status, "parsing", snap.Parsing.Status,
				"validation", snap.Validation.Status)
			continue
		}
		add(b, src, snap.Parsing.Result)
		s.Cache.SetSynchronized(key, true)
		r.Accepted = append(r.Accepted, key)
	}
	snapshot := b.Build(now)
	r.Changed = s.Store.Replace(snapshot)
	r.Certificates = snapshot.Len()
	logger.Debug("Synchronized certificate store", "accepted", len(r.Accepted),
		"rejected", len(r.Rejected), "certificates", r.Certificates, "changed", r.Changed)
	return r
}

func add(b *certstore.Builder, src tl.TLSource, p *tl.ParsedList) {
	territory := src.Territory
	if territory == "" {
		territory = p.Territory
	}
	for _, prov := range p.Providers {
		for _, svc := range prov.Services {
			for _, cert := range svc.Certificates {
				b.Add(cert, certstore.Provenance{
					TLURL:     src.URL,
					LOTLURL:   src.Parent,
					Territory: territory,
					Provider:  prov.Name,
					Service:   svc,
				})
			}
		}
	}
}
