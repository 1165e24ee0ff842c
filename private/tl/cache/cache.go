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

// Package cache contains the cache of trust documents. Each entry tracks the
// download, parsing and validation state of one document independently.
//
// Sub-states are immutable values published through atomic pointers. A write
// replaces a whole sub-state, so concurrent readers (summaries, debug dumps)
// never observe a half-written entry. Each key is written by at most one
// analysis task per cycle, so no per-entry lock is needed. The mutex of the
// cache only guards the key map.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tlsync/tlsync/pkg/tl"
)

// Status is the status of a sub-state.
type Status uint8

const (
	// Empty means the sub-state was never computed.
	Empty Status = iota
	// Fresh means the sub-state was computed successfully in its last run.
	Fresh
	// Error means the last computation failed. The cause is recorded.
	Error
	// Expired means the sub-state must be recomputed even if the input did
	// not change.
	Expired
)

func (s Status) String() string {
	switch s {
	case Empty:
		return "empty"
	case Fresh:
		return "fresh"
	case Error:
		return "error"
	case Expired:
		return "expired"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// DownloadState is the state of the raw document. On error, the content of
// the last successful download is kept.
type DownloadState struct {
	Status      Status
	Raw         []byte
	Digest      string
	Time        time.Time
	LastSuccess time.Time
	Cause       error
}

// ParsingState is the state of the parsed document. On error, the result of
// the last successful parse is kept.
type ParsingState struct {
	Status      Status
	Result      *tl.ParsedList
	Time        time.Time
	LastSuccess time.Time
	Cause       error
}

// ValidationState is the state of the signature check.
type ValidationState struct {
	Status      Status
	Result      tl.ValidationResult
	Time        time.Time
	LastSuccess time.Time
	Cause       error
}

// Digest computes the content digest of a raw document.
func Digest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Entry is the cache entry of one document.
type Entry struct {
	download     atomic.Pointer[DownloadState]
	parsing      atomic.Pointer[ParsingState]
	validation   atomic.Pointer[ValidationState]
	toBeDeleted  atomic.Bool
	synchronized atomic.Bool
}

func newEntry() *Entry {
	e := &Entry{}
	e.download.Store(&DownloadState{})
	e.parsing.Store(&ParsingState{})
	e.validation.Store(&ValidationState{})
	return e
}

// Download returns the current download state.
func (e *Entry) Download() DownloadState { return *e.download.Load() }

// Parsing returns the current parsing state.
func (e *Entry) Parsing() ParsingState { return *e.parsing.Load() }

// Validation returns the current validation state.
func (e *Entry) Validation() ValidationState { return *e.validation.Load() }

// ToBeDeleted reports whether the entry is marked for deletion.
func (e *Entry) ToBeDeleted() bool { return e.toBeDeleted.Load() }

// Synchronized reports whether the content of the entry is in the
// certificate store.
func (e *Entry) Synchronized() bool { return e.synchronized.Load() }

// Snapshot is a point-in-time copy of an entry. Each sub-state is consistent
// in itself; sub-states read concurrently with an analysis task may stem from
// different stages of that task.
type Snapshot struct {
	Key          tl.CacheKey
	Download     DownloadState
	Parsing      ParsingState
	Validation   ValidationState
	ToBeDeleted  bool
	Synchronized bool
}

func (e *Entry) snapshot(key tl.CacheKey) Snapshot {
	return Snapshot{
		Key:          key,
		Download:     e.Download(),
		Parsing:      e.Parsing(),
		Validation:   e.Validation(),
		ToBeDeleted:  e.ToBeDeleted(),
		Synchronized: e.Synchronized(),
	}
}

// Cache maps cache keys to entries.
type Cache struct {
	// Now is the clock used for timestamps. It defaults to time.Now.
	Now func() time.Time

	mu      sync.RWMutex
	entries map[tl.CacheKey]*Entry
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[tl.CacheKey]*Entry)}
}

func (c *Cache) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// GetOrCreate returns the entry of key, creating an empty one if needed.
func (c *Cache) GetOrCreate(key tl.CacheKey) *Entry {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return e
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e
	}
	if c.entries == nil {
		c.entries = make(map[tl.CacheKey]*Entry)
	}
	e = newEntry()
	c.entries[key] = e
	return e
}

func (c *Cache) get(key tl.CacheKey) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Snapshot returns a copy of the entry of key.
func (c *Cache) Snapshot(key tl.CacheKey) (Snapshot, bool) {
	e, ok := c.get(key)
	if !ok {
		return Snapshot{}, false
	}
	return e.snapshot(key), true
}

// Snapshots returns a copy of every entry, ordered by key.
func (c *Cache) Snapshots() []Snapshot {
	keys := c.Keys()
	snaps := make([]Snapshot, 0, len(keys))
	for _, k := range keys {
		if s, ok := c.Snapshot(k); ok {
			snaps = append(snaps, s)
		}
	}
	return snaps
}

// Keys returns all keys in ascending order.
func (c *Cache) Keys() []tl.CacheKey {
	c.mu.RLock()
	keys := make([]tl.CacheKey, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.mu.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// WriteDownload records the outcome of fetching the document of key. A nil
// cause records raw as the fresh content.
func (c *Cache) WriteDownload(key tl.CacheKey, raw []byte, cause error) {
	e := c.GetOrCreate(key)
	prev := e.download.Load()
	now := c.now()
	next := &DownloadState{Time: now, LastSuccess: prev.LastSuccess}
	if cause != nil {
		next.Status, next.Cause = Error, cause
		next.Raw, next.Digest = prev.Raw, prev.Digest
	} else {
		next.Status, next.LastSuccess = Fresh, now
		next.Raw, next.Digest = raw, Digest(raw)
	}
	e.download.Store(next)
}

// WriteParsing records the outcome of parsing the document of key.
func (c *Cache) WriteParsing(key tl.CacheKey, result *tl.ParsedList, cause error) {
	e := c.GetOrCreate(key)
	prev := e.parsing.Load()
	now := c.now()
	next := &ParsingState{Time: now, LastSuccess: prev.LastSuccess}
	if cause != nil {
		next.Status, next.Cause, next.Result = Error, cause, prev.Result
	} else {
		next.Status, next.LastSuccess, next.Result = Fresh, now, result
	}
	e.parsing.Store(next)
}

// WriteValidation records the outcome of checking the signature of the
// document of key.
func (c *Cache) WriteValidation(key tl.CacheKey, result tl.ValidationResult, cause error) {
	e := c.GetOrCreate(key)
	prev := e.validation.Load()
	now := c.now()
	next := &ValidationState{Time: now, LastSuccess: prev.LastSuccess, Result: result}
	if cause != nil {
		next.Status, next.Cause = Error, cause
	} else {
		next.Status, next.LastSuccess = Fresh, now
	}
	e.validation.Store(next)
}

// ExpireValidation forces the signature of the document of key to be checked
// again in the next analysis. It reports whether the entry exists.
func (c *Cache) ExpireValidation(key tl.CacheKey) bool {
	e, ok := c.get(key)
	if !ok {
		return false
	}
	next := *e.validation.Load()
	next.Status = Expired
	e.validation.Store(&next)
	return true
}

// MarkForDeletion flags the entry of key for removal by the cleaner. It
// reports whether the entry exists.
func (c *Cache) MarkForDeletion(key tl.CacheKey) bool {
	e, ok := c.get(key)
	if ok {
		e.toBeDeleted.Store(true)
	}
	return ok
}

// Unmark clears the deletion flag of the entry of key.
func (c *Cache) Unmark(key tl.CacheKey) {
	if e, ok := c.get(key); ok {
		e.toBeDeleted.Store(false)
	}
}

// SetSynchronized records whether the content of the entry of key is in the
// certificate store.
func (c *Cache) SetSynchronized(key tl.CacheKey, synced bool) {
	if e, ok := c.get(key); ok {
		e.synchronized.Store(synced)
	}
}

// Remove deletes the entry of key and reports whether it existed.
func (c *Cache) Remove(key tl.CacheKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	delete(c.entries, key)
	return ok
}
