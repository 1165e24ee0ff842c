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

// Package history defines the refresh history database. Every refresh cycle
// is recorded with its outcome and the summary it produced.
package history

import (
	"context"
	"io"
	"time"
)

// Record describes one refresh cycle.
type Record struct {
	// ID is assigned by the database on insert.
	ID       int64
	Mode     string
	Start    time.Time
	Duration time.Duration
	LOTLs    int
	TLs      int
	Accepted int
	Rejected int
	// Certificates is the size of the certificate store after the cycle.
	Certificates int
	// Err is the error message of the cycle, empty on success.
	Err string
	// Summary is the JSON encoded summary of the cycle.
	Summary []byte
}

// DB stores refresh records.
type DB interface {
	io.Closer
	// Insert stores r and returns its ID.
	Insert(ctx context.Context, r Record) (int64, error)
	// Latest returns up to limit records, newest first. A limit of zero or
	// less returns all records.
	Latest(ctx context.Context, limit int) ([]Record, error)
	// DeleteExpired removes the records started before the given time.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
