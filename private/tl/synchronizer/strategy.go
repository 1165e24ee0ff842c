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

package synchronizer

import (
	"time"

	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/private/tl/cache"
)

// Strategy decides whether the content of a cache entry may be merged into
// the certificate store.
type Strategy interface {
	Accept(snap cache.Snapshot, now time.Time) bool
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc func(snap cache.Snapshot, now time.Time) bool

// Accept calls f.
func (f StrategyFunc) Accept(snap cache.Snapshot, now time.Time) bool {
	return f(snap, now)
}

var (
	// AcceptNotErrored accepts entries that have a parse and none of whose
	// sub-states is in error. It is the default strategy.
	AcceptNotErrored Strategy = StrategyFunc(acceptNotErrored)
	// AcceptAll accepts every entry that has a parse, regardless of errors.
	AcceptAll Strategy = StrategyFunc(acceptAll)
	// ExpirationAndSignature accepts entries whose list is not past its next
	// update and whose signature was found valid.
	ExpirationAndSignature Strategy = StrategyFunc(expirationAndSignature)
)

// StrategyByName returns the strategy with the given configuration name.
func StrategyByName(name string) (Strategy, bool) {
	switch name {
	case "", "accept_not_errored":
		return AcceptNotErrored, true
	case "accept_all":
		return AcceptAll, true
	case "expiration_and_signature":
		return ExpirationAndSignature, true
	default:
		return nil, false
	}
}

func acceptAll(snap cache.Snapshot, _ time.Time) bool {
	return snap.Parsing.Result != nil
}

func acceptNotErrored(snap cache.Snapshot, _ time.Time) bool {
	return snap.Parsing.Result != nil &&
		snap.Download.Status != cache.Error &&
		snap.Parsing.Status != cache.Error &&
		snap.Validation.Status != cache.Error
}

func expirationAndSignature(snap cache.Snapshot, now time.Time) bool {
	return snap.Parsing.Result != nil &&
		!snap.Parsing.Result.Expired(now) &&
		snap.Validation.Status == cache.Fresh &&
		snap.Validation.Result.Indication == tl.Valid
}
