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

package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/private/storage/db"
)

const schema = `CREATE TABLE kv (k TEXT PRIMARY KEY, v TEXT NOT NULL);`

func TestSqliteSetup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.NewSqlite(path, nil)
	require.NoError(t, err)
	require.NoError(t, d.Setup(schema, 1))

	_, err = d.Full.Exec(`INSERT INTO kv (k, v) VALUES ('a', 'b')`)
	require.NoError(t, err)
	var v string
	err = d.ReadOnly.QueryRowContext(context.Background(),
		`SELECT v FROM kv WHERE k = 'a'`).Scan(&v)
	require.NoError(t, err)
	assert.Equal(t, "b", v)
	require.NoError(t, d.Close())

	// Reopening with the same version succeeds, with another version fails.
	d, err = db.NewSqlite(path, nil)
	require.NoError(t, err)
	assert.NoError(t, d.Setup(schema, 1))
	assert.Error(t, d.Setup(schema, 2))
	require.NoError(t, d.Close())
}

func TestSqliteRejectsAnonymousMemory(t *testing.T) {
	_, err := db.NewSqlite("file::memory:", nil)
	assert.Error(t, err)
}

func TestSqliteInMemory(t *testing.T) {
	d, err := db.NewSqlite("file:TestSqliteInMemory", &db.SqliteConfig{InMemory: true})
	require.NoError(t, err)
	require.NoError(t, d.Setup(schema, 1))
	require.NoError(t, d.Close())
}
