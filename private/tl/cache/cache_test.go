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

package cache_test

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/private/tl/cache"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newCache() (*cache.Cache, *clock) {
	clk := &clock{now: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)}
	c := cache.New()
	c.Now = clk.Now
	return c, clk
}

const key = tl.CacheKey("https://a.example/tl")

func TestGetOrCreate(t *testing.T) {
	c, _ := newCache()
	_, ok := c.Snapshot(key)
	assert.False(t, ok)

	e := c.GetOrCreate(key)
	assert.Same(t, e, c.GetOrCreate(key))
	s, ok := c.Snapshot(key)
	require.True(t, ok)
	assert.Equal(t, cache.Empty, s.Download.Status)
	assert.Equal(t, cache.Empty, s.Parsing.Status)
	assert.Equal(t, cache.Empty, s.Validation.Status)
	assert.Equal(t, 1, c.Len())
}

func TestZeroCacheUsable(t *testing.T) {
	var c cache.Cache
	c.WriteDownload(key, []byte("x"), nil)
	assert.Equal(t, []tl.CacheKey{key}, c.Keys())
}

func TestWriteDownload(t *testing.T) {
	c, clk := newCache()
	t0 := clk.Now()
	c.WriteDownload(key, []byte("v1"), nil)
	s, _ := c.Snapshot(key)
	assert.Equal(t, cache.Fresh, s.Download.Status)
	assert.Equal(t, cache.Digest([]byte("v1")), s.Download.Digest)
	assert.Equal(t, t0, s.Download.LastSuccess)

	clk.Advance(time.Hour)
	failure := errors.New("connection refused")
	c.WriteDownload(key, nil, failure)
	s, _ = c.Snapshot(key)
	assert.Equal(t, cache.Error, s.Download.Status)
	assert.Equal(t, failure, s.Download.Cause)
	assert.Equal(t, []byte("v1"), s.Download.Raw, "last good content is kept")
	assert.Equal(t, cache.Digest([]byte("v1")), s.Download.Digest)
	assert.Equal(t, t0, s.Download.LastSuccess)
	assert.Equal(t, t0.Add(time.Hour), s.Download.Time)
}

func TestWriteParsing(t *testing.T) {
	c, _ := newCache()
	good := &tl.ParsedList{Kind: tl.KindTL, Sequence: 4}
	c.WriteParsing(key, good, nil)
	c.WriteParsing(key, nil, errors.New("malformed"))
	s, _ := c.Snapshot(key)
	assert.Equal(t, cache.Error, s.Parsing.Status)
	assert.Same(t, good, s.Parsing.Result)
	assert.EqualError(t, s.Parsing.Cause, "malformed")
}

func TestWriteValidation(t *testing.T) {
	c, clk := newCache()
	t0 := clk.Now()
	c.WriteValidation(key, tl.ValidationResult{Indication: tl.Valid}, nil)
	clk.Advance(time.Minute)
	c.WriteValidation(key, tl.ValidationResult{Indication: tl.Invalid}, tl.ErrSignatureInvalid)
	s, _ := c.Snapshot(key)
	assert.Equal(t, cache.Error, s.Validation.Status)
	assert.Equal(t, tl.Invalid, s.Validation.Result.Indication)
	assert.Equal(t, t0, s.Validation.LastSuccess)
}

func TestExpireValidation(t *testing.T) {
	c, _ := newCache()
	assert.False(t, c.ExpireValidation(key))
	assert.Zero(t, c.Len(), "expiring must not create entries")

	c.WriteDownload(key, []byte("v1"), nil)
	c.WriteParsing(key, &tl.ParsedList{Kind: tl.KindTL}, nil)
	c.WriteValidation(key, tl.ValidationResult{Indication: tl.Valid}, nil)
	before, _ := c.Snapshot(key)
	assert.True(t, c.ExpireValidation(key))
	after, _ := c.Snapshot(key)
	assert.Equal(t, cache.Expired, after.Validation.Status)
	assert.Equal(t, before.Validation.Result, after.Validation.Result)
	assert.Equal(t, before.Download, after.Download)
	assert.Equal(t, before.Parsing, after.Parsing)
}

func TestMarkForDeletion(t *testing.T) {
	c, _ := newCache()
	assert.False(t, c.MarkForDeletion(key))
	c.GetOrCreate(key)
	assert.True(t, c.MarkForDeletion(key))
	s, _ := c.Snapshot(key)
	assert.True(t, s.ToBeDeleted)
	c.Unmark(key)
	s, _ = c.Snapshot(key)
	assert.False(t, s.ToBeDeleted)

	assert.True(t, c.Remove(key))
	assert.False(t, c.Remove(key))
	assert.Zero(t, c.Len())
}

func TestKeysSorted(t *testing.T) {
	c, _ := newCache()
	for _, k := range []tl.CacheKey{"c", "a", "b"} {
		c.GetOrCreate(k)
	}
	assert.Equal(t, []tl.CacheKey{"a", "b", "c"}, c.Keys())
}

func TestDump(t *testing.T) {
	c, _ := newCache()
	c.WriteDownload(key, []byte("v1"), nil)
	c.WriteParsing(key, &tl.ParsedList{Kind: tl.KindTL, Territory: "AT", Sequence: 2}, nil)
	c.WriteValidation(key, tl.ValidationResult{}, errors.New("no signers"))
	c.SetSynchronized(key, true)

	var buf bytes.Buffer
	require.NoError(t, c.Dump(&buf))
	out := buf.String()
	assert.Contains(t, out, string(key)+"\n")
	assert.Contains(t, out, "synchronized=true")
	assert.Contains(t, out, "kind=tl territory=AT sequence=2")
	assert.Contains(t, out, `validation status=error indication=not_checked`)
	assert.Contains(t, out, `cause="no signers"`)
}

// TestConcurrentAccess exercises concurrent writers on distinct keys together
// with readers dumping the whole cache. Run with -race.
func TestConcurrentAccess(t *testing.T) {
	c, _ := newCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		k := tl.CacheKey(fmt.Sprintf("https://%d.example/tl", i))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.WriteDownload(k, []byte(fmt.Sprint(j)), nil)
				c.WriteParsing(k, &tl.ParsedList{Sequence: j}, nil)
				c.WriteValidation(k, tl.ValidationResult{Indication: tl.Valid}, nil)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			var buf bytes.Buffer
			assert.NoError(t, c.Dump(&buf))
		}
	}()
	wg.Wait()
	assert.Equal(t, 8, c.Len())
	for _, s := range c.Snapshots() {
		assert.Equal(t, 99, s.Parsing.Result.Sequence)
	}
}
