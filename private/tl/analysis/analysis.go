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

// Package analysis contains the unit of work of a refresh cycle: fetching,
// parsing and validating one trust document and recording the outcome in the
// cache.
//
// A task never fails. Every error is recorded as the cause of the affected
// sub-state of the cache entry, so that one failing source cannot affect
// others.
package analysis

import (
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/private/tl/cache"
)

// Kind selects how the signature of a document is validated.
type Kind uint8

const (
	// Plain validates the document against the expected signers of its
	// source.
	Plain Kind = iota
	// PivotAware additionally follows the pivots of a list of lists to prove
	// that a changed signer set is reachable from the configured one.
	PivotAware
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case PivotAware:
		return "pivot_aware"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// KindFor returns the analysis kind for src.
func KindFor(src tl.Source) Kind {
	if l, ok := src.(tl.LOTLSource); ok && l.PivotSupport {
		return PivotAware
	}
	return Plain
}

// Result summarizes what a task did. It is used for logging and metrics; the
// authoritative outcome is in the cache.
type Result struct {
	Key        tl.CacheKey
	Kind       Kind
	Download   cache.Status
	Parsing    cache.Status
	Validation cache.Status
	// Reused is set if the content did not change and the cached parse and
	// validation were kept.
	Reused bool
	// Pivots are the cache keys of the pivots loaded by the task.
	Pivots   []tl.CacheKey
	Duration time.Duration
}

// Task analyzes one source.
type Task struct {
	Source   tl.Source
	Kind     Kind
	Loader   tl.Loader
	Parser   tl.Parser
	Verifier tl.Verifier
	Cache    *cache.Cache
}

// Run fetches, parses and validates the document of the source and records
// the outcome in the cache.
func (t *Task) Run(ctx context.Context) Result {
	start := time.Now()
	key := t.Source.Key()
	logger := log.FromCtx(ctx)
	r := Result{Key: key, Kind: t.Kind}

	t.Cache.GetOrCreate(key)
	d := t.fetchAndParse(ctx, key, t.Source.SourceURL(), t.Source.Kind(), t.Source.Filter,
		false)
	switch {
	case !d.downloaded:
	case d.unchanged && reusable(d.prev.Validation.Status):
		r.Reused = true
	case t.Kind == PivotAware && d.parsed != nil && len(d.parsed.Pivots) > 0:
		r.Pivots = t.validateWithPivots(ctx, key, d.raw, d.parsed.Pivots)
	default:
		t.validate(key, d.raw, t.Source.ExpectedSigners())
	}

	if s, ok := t.Cache.Snapshot(key); ok {
		r.Download = s.Download.Status
		r.Parsing = s.Parsing.Status
		r.Validation = s.Validation.Status
	}
	r.Duration = time.Since(start)
	logger.Debug("Analyzed source", "url", t.Source.SourceURL(), "kind", t.Kind,
		"download", r.Download, "parsing", r.Parsing, "validation", r.Validation,
		"reused", r.Reused, "duration", r.Duration)
	return r
}

// reusable reports whether a validation outcome may be kept for unchanged
// content.
func reusable(s cache.Status) bool {
	return s == cache.Fresh || s == cache.Error
}

type document struct {
	prev       cache.Snapshot
	raw        []byte
	parsed     *tl.ParsedList
	downloaded bool
	unchanged  bool
}

// fetchAndParse loads the document at url and parses it unless its content
// is unchanged and a fresh parse is cached. If useCached is set, a failed
// download falls back to the last good content.
func (t *Task) fetchAndParse(ctx context.Context, key tl.CacheKey, url string, kind tl.Kind,
	filter func(*tl.ParsedList) *tl.ParsedList, useCached bool) document {

	prev, _ := t.Cache.Snapshot(key)
	d := document{prev: prev}

	raw, err := t.load(ctx, url)
	if err != nil {
		t.Cache.WriteDownload(key, nil, serrors.Wrap("loading document", err, "url", url))
		if useCached && prev.Download.Raw != nil && prev.Parsing.Result != nil {
			d.raw, d.parsed, d.downloaded, d.unchanged = prev.Download.Raw,
				prev.Parsing.Result, true, true
		}
		return d
	}
	t.Cache.WriteDownload(key, raw, nil)
	d.raw, d.downloaded = raw, true

	if prev.Download.Digest == cache.Digest(raw) && prev.Parsing.Status == cache.Fresh &&
		prev.Parsing.Result != nil {

		d.parsed, d.unchanged = prev.Parsing.Result, true
		return d
	}

	parsed, err := t.parse(raw)
	if err == nil && parsed.Kind != kind {
		err = serrors.JoinNoStack(tl.ErrUnexpectedKind, nil,
			"expected", kind, "actual", parsed.Kind)
	}
	if err != nil {
		t.Cache.WriteParsing(key, nil, serrors.Wrap("parsing document", err, "url", url))
		return d
	}
	if filter != nil {
		parsed = filter(parsed)
	}
	t.Cache.WriteParsing(key, parsed, nil)
	d.parsed = parsed
	return d
}

func (t *Task) validate(key tl.CacheKey, raw []byte, signers []*x509.Certificate) bool {
	res, err := t.verify(raw, signers)
	t.Cache.WriteValidation(key, res, err)
	return err == nil
}

func (t *Task) load(ctx context.Context, url string) (raw []byte, err error) {
	defer recoverTo(&err, "loader")
	return t.Loader.Load(ctx, url)
}

func (t *Task) parse(raw []byte) (p *tl.ParsedList, err error) {
	defer recoverTo(&err, "parser")
	p, err = t.Parser.Parse(raw)
	if err == nil && p == nil {
		err = serrors.New("parser returned no result")
	}
	return p, err
}

func (t *Task) verify(raw []byte, signers []*x509.Certificate) (res tl.ValidationResult,
	err error) {

	defer recoverTo(&err, "verifier")
	if len(signers) == 0 {
		return tl.ValidationResult{}, tl.ErrNoSigners
	}
	res, err = t.Verifier.Verify(raw, signers)
	if err != nil {
		return res, serrors.WrapNoStack("verifying signature", err)
	}
	if !res.Valid() {
		return res, serrors.JoinNoStack(tl.ErrSignatureInvalid, nil,
			"indication", res.Indication)
	}
	return res, nil
}

func recoverTo(err *error, component string) {
	if r := recover(); r != nil {
		*err = serrors.New("recovered from panic", "component", component, "value", r)
	}
}
