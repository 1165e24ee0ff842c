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

// Package dbtest contains the conformance tests for document databases.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/private/storage/docs"
)

const timeout = 3 * time.Second

// TestableDB extends the document DB with a method to prepare a clean
// database for each test.
type TestableDB interface {
	docs.DB
	Prepare(t *testing.T, ctx context.Context)
}

// Run should be used to test any implementation of the docs.DB interface. An
// implementation should at least have one test method that calls this
// test-suite.
func Run(t *testing.T, db TestableDB) {
	run := func(name string, test func(*testing.T, context.Context, docs.DB)) {
		t.Run(name, func(t *testing.T) {
			ctx, cancelF := context.WithTimeout(context.Background(), timeout)
			defer cancelF()
			db.Prepare(t, ctx)
			defer db.Close()
			test(t, ctx, db)
		})
	}
	run("get missing", testGetMissing)
	run("put and get", testPutGet)
	run("put replaces", testPutReplaces)
	run("delete", testDelete)
	run("urls", testURLs)
	run("delete expired", testDeleteExpired)
}

var fetched = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testGetMissing(t *testing.T, ctx context.Context, db docs.DB) {
	_, err := db.Get(ctx, "https://example.com/missing.jws")
	assert.ErrorIs(t, err, docs.ErrNotFound)
}

func testPutGet(t *testing.T, ctx context.Context, db docs.DB) {
	doc := docs.Document{
		URL:     "https://example.com/lotl.jws",
		Raw:     []byte("raw lotl"),
		Fetched: fetched,
	}
	require.NoError(t, db.Put(ctx, doc))
	got, err := db.Get(ctx, doc.URL)
	require.NoError(t, err)
	assert.Equal(t, doc.URL, got.URL)
	assert.Equal(t, doc.Raw, got.Raw)
	assert.True(t, doc.Fetched.Equal(got.Fetched))
}

func testPutReplaces(t *testing.T, ctx context.Context, db docs.DB) {
	url := "https://example.com/tl.jws"
	require.NoError(t, db.Put(ctx, docs.Document{URL: url, Raw: []byte("v1"), Fetched: fetched}))
	require.NoError(t, db.Put(ctx, docs.Document{
		URL:     url,
		Raw:     []byte("v2"),
		Fetched: fetched.Add(time.Hour),
	}))
	got, err := db.Get(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got.Raw)
	assert.True(t, fetched.Add(time.Hour).Equal(got.Fetched))
}

func testDelete(t *testing.T, ctx context.Context, db docs.DB) {
	url := "https://example.com/tl.jws"
	existed, err := db.Delete(ctx, url)
	require.NoError(t, err)
	assert.False(t, existed)

	require.NoError(t, db.Put(ctx, docs.Document{URL: url, Raw: []byte("v1"), Fetched: fetched}))
	existed, err = db.Delete(ctx, url)
	require.NoError(t, err)
	assert.True(t, existed)
	_, err = db.Get(ctx, url)
	assert.ErrorIs(t, err, docs.ErrNotFound)
}

func testURLs(t *testing.T, ctx context.Context, db docs.DB) {
	urls, err := db.URLs(ctx)
	require.NoError(t, err)
	assert.Empty(t, urls)

	for _, u := range []string{"https://b.example/tl", "https://a.example/tl"} {
		require.NoError(t, db.Put(ctx, docs.Document{URL: u, Raw: []byte(u), Fetched: fetched}))
	}
	urls, err = db.URLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example/tl", "https://b.example/tl"}, urls)
}

func testDeleteExpired(t *testing.T, ctx context.Context, db docs.DB) {
	require.NoError(t, db.Put(ctx, docs.Document{
		URL: "https://example.com/old", Raw: []byte("old"), Fetched: fetched,
	}))
	require.NoError(t, db.Put(ctx, docs.Document{
		URL: "https://example.com/new", Raw: []byte("new"), Fetched: fetched.Add(48 * time.Hour),
	}))

	n, err := db.DeleteExpired(ctx, fetched)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = db.DeleteExpired(ctx, fetched.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	urls, err := db.URLs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/new"}, urls)
}
