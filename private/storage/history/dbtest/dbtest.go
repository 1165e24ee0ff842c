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

// Package dbtest contains the conformance tests for history databases.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/private/storage/history"
)

const timeout = 3 * time.Second

// TestableDB extends the history DB with a method to prepare a clean
// database for each test.
type TestableDB interface {
	history.DB
	Prepare(t *testing.T, ctx context.Context)
}

// Run should be used to test any implementation of the history.DB interface.
func Run(t *testing.T, db TestableDB) {
	run := func(name string, test func(*testing.T, context.Context, history.DB)) {
		t.Run(name, func(t *testing.T) {
			ctx, cancelF := context.WithTimeout(context.Background(), timeout)
			defer cancelF()
			db.Prepare(t, ctx)
			defer db.Close()
			test(t, ctx, db)
		})
	}
	run("insert and latest", testInsertLatest)
	run("limit", testLimit)
	run("delete expired", testDeleteExpired)
}

var start = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func record(offset time.Duration) history.Record {
	return history.Record{
		Mode:         "online",
		Start:        start.Add(offset),
		Duration:     1500 * time.Millisecond,
		LOTLs:        1,
		TLs:          2,
		Accepted:     2,
		Certificates: 3,
		Summary:      []byte(`{"created":"2026-03-01T12:00:00Z"}`),
	}
}

func testInsertLatest(t *testing.T, ctx context.Context, db history.DB) {
	first := record(0)
	second := record(time.Hour)
	second.Err = "context canceled"
	second.Summary = nil

	id1, err := db.Insert(ctx, first)
	require.NoError(t, err)
	id2, err := db.Insert(ctx, second)
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)

	got, err := db.Latest(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	second.ID, first.ID = id2, id1
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, second.Err, got[0].Err)
	assert.True(t, second.Start.Equal(got[0].Start))
	assert.Equal(t, first.Duration, got[1].Duration)
	assert.Equal(t, first.Summary, got[1].Summary)
	assert.Equal(t, first.Certificates, got[1].Certificates)
}

func testLimit(t *testing.T, ctx context.Context, db history.DB) {
	for i := range 5 {
		_, err := db.Insert(ctx, record(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}
	got, err := db.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, start.Add(4*time.Minute).Equal(got[0].Start))
	assert.True(t, start.Add(3*time.Minute).Equal(got[1].Start))
}

func testDeleteExpired(t *testing.T, ctx context.Context, db history.DB) {
	for _, off := range []time.Duration{0, time.Hour, 2 * time.Hour} {
		_, err := db.Insert(ctx, record(off))
		require.NoError(t, err)
	}
	n, err := db.DeleteExpired(ctx, start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := db.Latest(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, start.Add(2*time.Hour).Equal(got[0].Start))
}
