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

// Package derive builds the trust list sources of a cycle from the lists of
// lists analyzed in the same cycle.
package derive

import (
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/private/tl/cache"
)

// Sources returns the trust list sources pointed to by the fresh parses of
// the given lists of lists, in the order of the pointers. A list of lists
// whose current parse is not fresh contributes nothing. The pointers were
// already narrowed by the pointer filter of the list of lists during analysis.
//
// Fresh means the document parsed. Its signature may still be invalid, in
// which case the derived trust lists are analyzed but their own validation
// decides whether they are synchronized.
func Sources(c *cache.Cache, lotls []tl.LOTLSource) []tl.TLSource {
	var srcs []tl.TLSource
	for _, lotl := range lotls {
		snap, ok := c.Snapshot(lotl.Key())
		if !ok || snap.Parsing.Status != cache.Fresh {
			continue
		}
		srcs = append(srcs, fromPointers(lotl, snap.Parsing.Result)...)
	}
	return srcs
}

func fromPointers(lotl tl.LOTLSource, p *tl.ParsedList) []tl.TLSource {
	var srcs []tl.TLSource
	for _, ptr := range p.TLPointers() {
		srcs = append(srcs, tl.TLSource{
			URL:           ptr.Location,
			Signers:       ptr.Signers,
			ServiceFilter: lotl.ServiceFilter,
			Parent:        lotl.URL,
			Territory:     ptr.Territory,
		})
	}
	return srcs
}

// Orphans returns the trust list sources recorded in the last good parse of
// the lists of lists whose current parse is not fresh. They are not analyzed,
// but their cache entries are kept and synchronized until the list of lists
// parses again.
func Orphans(c *cache.Cache, lotls []tl.LOTLSource) []tl.TLSource {
	var srcs []tl.TLSource
	for _, lotl := range lotls {
		snap, ok := c.Snapshot(lotl.Key())
		if !ok || snap.Parsing.Status == cache.Fresh || snap.Parsing.Result == nil {
			continue
		}
		srcs = append(srcs, fromPointers(lotl, snap.Parsing.Result)...)
	}
	return srcs
}

// Merge returns the derived sources followed by the configured ones.
func Merge(derived, configured []tl.TLSource) []tl.TLSource {
	all := make([]tl.TLSource, 0, len(derived)+len(configured))
	all = append(all, derived...)
	return append(all, configured...)
}
