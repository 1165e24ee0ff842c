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

// Package sqlite implements the refresh history database on SQLite.
package sqlite

import (
	"context"
	"time"

	"github.com/tlsync/tlsync/private/storage/db"
	"github.com/tlsync/tlsync/private/storage/history"
)

var _ history.DB = (*Backend)(nil)

// Backend implements the history database.
type Backend struct {
	db *db.Sqlite
}

// New returns a new SQLite backend opening a database at the given path. If
// no database exists a new database is created. If the schema version of the
// stored database is different from the one in schema.go, an error is
// returned.
func New(path string, cfg *db.SqliteConfig) (*Backend, error) {
	s, err := db.NewSqlite(path, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Setup(Schema, SchemaVersion); err != nil {
		s.Close()
		return nil, err
	}
	return &Backend{db: s}, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Insert stores r.
func (b *Backend) Insert(ctx context.Context, r history.Record) (int64, error) {
	const query = `INSERT INTO Refreshes
		(Mode, StartTime, Duration, LOTLs, TLs, Accepted, Rejected, Certificates, Error, Summary)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := b.db.Full.ExecContext(ctx, query,
		r.Mode, r.Start.UnixNano(), int64(r.Duration), r.LOTLs, r.TLs,
		r.Accepted, r.Rejected, r.Certificates, r.Err, r.Summary,
	)
	if err != nil {
		return 0, db.NewWriteError("inserting refresh", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, db.NewWriteError("reading refresh id", err)
	}
	return id, nil
}

// Latest returns the newest records.
func (b *Backend) Latest(ctx context.Context, limit int) ([]history.Record, error) {
	if limit <= 0 {
		limit = -1
	}
	const query = `SELECT RowID, Mode, StartTime, Duration, LOTLs, TLs, Accepted, Rejected,
		Certificates, Error, Summary FROM Refreshes ORDER BY StartTime DESC, RowID DESC LIMIT ?`
	rows, err := b.db.ReadOnly.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, db.NewReadError("querying refreshes", err)
	}
	defer rows.Close()
	var res []history.Record
	for rows.Next() {
		var r history.Record
		var start, dur int64
		err := rows.Scan(&r.ID, &r.Mode, &start, &dur, &r.LOTLs, &r.TLs, &r.Accepted,
			&r.Rejected, &r.Certificates, &r.Err, &r.Summary)
		if err != nil {
			return nil, db.NewReadError("scanning refresh", err)
		}
		r.Start = time.Unix(0, start).UTC()
		r.Duration = time.Duration(dur)
		res = append(res, r)
	}
	if err := rows.Err(); err != nil {
		return nil, db.NewReadError("iterating refreshes", err)
	}
	return res, nil
}

// DeleteExpired deletes the records started before the given time.
func (b *Backend) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	res, err := b.db.Full.ExecContext(ctx,
		`DELETE FROM Refreshes WHERE StartTime < ?`, before.UnixNano())
	if err != nil {
		return 0, db.NewWriteError("deleting expired refreshes", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, db.NewWriteError("counting deleted refreshes", err)
	}
	return int(n), nil
}
