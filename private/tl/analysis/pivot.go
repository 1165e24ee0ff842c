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

package analysis

import (
	"context"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
)

// validateWithPivots validates the live document raw of key through the
// pivot chain. Pivots are listed newest first and are all loaded into the
// cache under their own keys. The chain is then walked from the oldest pivot
// on, starting from the configured signers: each pivot must validate against
// the currently trusted set, after which the signers it declares become
// trusted. The live document is tried with the configured set and after each
// adopted set, and accepted with the first one that validates it.
//
// A pivot that cannot be parsed or validated breaks the chain. If no
// reachable set validates the live document, its validation is an error.
func (t *Task) validateWithPivots(ctx context.Context, key tl.CacheKey, raw []byte,
	pivots []string) []tl.CacheKey {

	keys := make([]tl.CacheKey, len(pivots))
	docs := make([]document, len(pivots))
	for i, url := range pivots {
		keys[i] = tl.NewCacheKey(url)
		t.Cache.GetOrCreate(keys[i])
		docs[i] = t.fetchAndParse(ctx, keys[i], url, tl.KindLOTL, nil, true)
	}

	trusted := t.Source.ExpectedSigners()
	res, err := t.verify(raw, trusted)
	if err == nil {
		t.Cache.WriteValidation(key, res, nil)
		return keys
	}
	for i := len(docs) - 1; i >= 0; i-- {
		url := pivots[i]
		if docs[i].parsed == nil {
			err = serrors.JoinNoStack(tl.ErrPivotChainBroken, nil,
				"pivot", url, "reason", "pivot not available")
			break
		}
		pres, perr := t.verify(docs[i].raw, trusted)
		t.Cache.WriteValidation(keys[i], pres, perr)
		if perr != nil {
			err = serrors.JoinNoStack(tl.ErrPivotChainBroken, perr, "pivot", url)
			break
		}
		trusted = docs[i].parsed.Signers
		if res, err = t.verify(raw, trusted); err == nil {
			t.Cache.WriteValidation(key, res, nil)
			return keys
		}
	}
	t.Cache.WriteValidation(key, res, err)
	return keys
}
