// Copyright 2025 SCION Association
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

// Package db contains the sqlite plumbing shared by the sqlite backed
// databases.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"runtime"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/tlsync/tlsync/pkg/private/serrors"
)

// Reader is the read-only subset of *sql.DB.
type Reader interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Stats() sql.DBStats
}

// SqliteConfig allows configuring the sqlite database instance.
type SqliteConfig struct {
	MaxOpenReadConns int
	MaxIdleReadConns int
	// InMemory opens a named in-memory database shared by the read and write
	// pools. Used in tests.
	InMemory bool
}

// Sqlite is a sqlite database with a single connection write pool and a read
// pool.
type Sqlite struct {
	// Full can be used for any operation including transactions.
	Full *sql.DB
	// ReadOnly must only be used for reads.
	ReadOnly Reader

	read    *sql.DB
	memName string
}

// NewSqlite opens the sqlite database at path. The write pool is limited to
// one connection so that writers never contend; the read pool defaults to
// max(4, NumCPU) connections.
func NewSqlite(path string, cfg *SqliteConfig) (*Sqlite, error) {
	var c SqliteConfig
	if cfg != nil {
		c = *cfg
	}
	// With a shared cache, ":memory:" would be shared by every database in the
	// process.
	if strings.Contains(path, ":memory:") {
		return nil, serrors.New("use explicitly named memory database", "path", path)
	}
	name, hasScheme := strings.CutPrefix(path, "file:")

	params := make(url.Values)
	// Start write transactions with BEGIN IMMEDIATE so that busy_timeout is
	// honoured instead of failing with SQLITE_BUSY on lock upgrade.
	params.Add("_txlock", "immediate")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "busy_timeout(1000)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "foreign_keys(1)")
	if c.InMemory {
		registerMemoryDB(name)
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	}
	conn := path + "?" + params.Encode()
	if !hasScheme {
		conn = "file:" + conn
	}

	write, err := sql.Open("sqlite", conn)
	if err != nil {
		return nil, serrors.Wrap("opening write database", err, "path", path)
	}
	write.SetMaxOpenConns(1)
	read, err := sql.Open("sqlite", conn)
	if err != nil {
		write.Close()
		return nil, serrors.Wrap("opening read database", err, "path", path)
	}
	if c.MaxOpenReadConns == 0 {
		c.MaxOpenReadConns = max(4, runtime.NumCPU())
	}
	read.SetMaxOpenConns(c.MaxOpenReadConns)
	if c.MaxIdleReadConns != 0 {
		read.SetMaxIdleConns(c.MaxIdleReadConns)
	}
	db := &Sqlite{Full: write, ReadOnly: read, read: read}
	if c.InMemory {
		db.memName = name
	}
	return db, nil
}

// Setup applies schema if the database is new and checks the schema version
// otherwise.
func (db *Sqlite) Setup(schema string, schemaVersion int) error {
	var existing int
	if err := db.Full.QueryRow("PRAGMA user_version;").Scan(&existing); err != nil {
		return NewReadError("checking schema version", err)
	}
	switch {
	case existing == 0:
		if _, err := db.Full.Exec(schema); err != nil {
			return NewWriteError("applying schema", err)
		}
		_, err := db.Full.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
		if err != nil {
			return NewWriteError("writing schema version", err)
		}
		return nil
	case existing != schemaVersion:
		return serrors.New("database schema version mismatch",
			"expected", schemaVersion, "actual", existing)
	default:
		return nil
	}
}

// CheckpointStats are the values reported by a WAL checkpoint.
type CheckpointStats struct {
	Busy         int
	LogFrames    int
	Checkpointed int
}

// Checkpoint runs a FULL WAL checkpoint on the write pool.
func (db *Sqlite) Checkpoint(ctx context.Context) (CheckpointStats, error) {
	var s CheckpointStats
	err := db.Full.QueryRowContext(ctx, "PRAGMA wal_checkpoint(FULL);").
		Scan(&s.Busy, &s.LogFrames, &s.Checkpointed)
	if err != nil {
		return CheckpointStats{}, NewWriteError("performing checkpoint", err)
	}
	return s, nil
}

// Close closes both pools.
func (db *Sqlite) Close() error {
	var errs serrors.List
	if err := db.Full.Close(); err != nil {
		errs = append(errs, serrors.Wrap("closing write db", err))
	}
	if err := db.read.Close(); err != nil {
		errs = append(errs, serrors.Wrap("closing read db", err))
	}
	if db.memName != "" {
		unregisterMemoryDB(db.memName)
	}
	return errs.ToError()
}

// memoryDBs rejects two in-memory databases with the same name, which would
// silently share their contents.
var memoryDBs = struct {
	mtx sync.Mutex
	dbs map[string]struct{}
}{
	dbs: make(map[string]struct{}),
}

func registerMemoryDB(name string) {
	memoryDBs.mtx.Lock()
	defer memoryDBs.mtx.Unlock()
	if _, ok := memoryDBs.dbs[name]; ok {
		panic(fmt.Sprintf("memory database with name %s already exists", name))
	}
	memoryDBs.dbs[name] = struct{}{}
}

func unregisterMemoryDB(name string) {
	memoryDBs.mtx.Lock()
	defer memoryDBs.mtx.Unlock()
	delete(memoryDBs.dbs, name)
}
