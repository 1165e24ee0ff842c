// Copyright 2020 Anapaya Systems
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

// Package storage provides factories for the application storage backends.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/private/util"
	"github.com/tlsync/tlsync/private/config"
	"github.com/tlsync/tlsync/private/periodic"
	"github.com/tlsync/tlsync/private/storage/cleaner"
	"github.com/tlsync/tlsync/private/storage/db"
	"github.com/tlsync/tlsync/private/storage/docs"
	bboltdocs "github.com/tlsync/tlsync/private/storage/docs/bbolt"
	"github.com/tlsync/tlsync/private/storage/history"
	sqlitehistory "github.com/tlsync/tlsync/private/storage/history/sqlite"
)

// Backend indicates the database backend type.
type Backend string

const (
	// BackendBbolt indicates a bbolt backend.
	BackendBbolt Backend = "bbolt"
	// BackendSqlite indicates an sqlite backend.
	BackendSqlite Backend = "sqlite"

	DefaultDocDBPath     = "/var/lib/tlsync/docs.db"
	DefaultHistoryDBPath = "/var/lib/tlsync/history.db"

	// DefaultDocRetention is how long documents that are no longer fetched
	// stay in the document database.
	DefaultDocRetention = 30 * 24 * time.Hour
	// DefaultHistoryRetention is how long refresh records are kept.
	DefaultHistoryRetention = 7 * 24 * time.Hour

	cleanInterval = 5 * time.Minute

	// Sample context keys.
	SampleConnection = "connection"
	SampleRetention  = "retention"
)

// Default samples for the databases.
var (
	SampleDocDB = DBConfig{
		Connection: DefaultDocDBPath,
		Retention:  util.DurWrap{Duration: DefaultDocRetention},
	}
	SampleHistoryDB = DBConfig{
		Connection: DefaultHistoryDBPath,
		Retention:  util.DurWrap{Duration: DefaultHistoryRetention},
	}
)

var _ (config.Config) = (*DBConfig)(nil)

// DBConfig is the configuration for the connection to a database.
type DBConfig struct {
	Connection   string `toml:"connection,omitempty"`
	MaxOpenConns int    `toml:"max_open_conns,omitempty"`
	MaxIdleConns int    `toml:"max_idle_conns,omitempty"`
	// Retention is the age after which entries are deleted. Zero disables
	// the cleanup.
	Retention util.DurWrap `toml:"retention,omitempty"`
}

type writeDefault struct {
	*DBConfig
	sample DBConfig
}

func (w writeDefault) InitDefaults() {
	if w.Connection == "" {
		w.Connection = w.sample.Connection
	}
	if w.Retention.Duration == 0 {
		w.Retention = w.sample.Retention
	}
}

// WithDefault returns a defaulter that fills the unset values of cfg from
// sample.
func (cfg *DBConfig) WithDefault(sample DBConfig) config.Defaulter {
	return writeDefault{DBConfig: cfg, sample: sample}
}

func (cfg *DBConfig) InitDefaults() {}

func (cfg *DBConfig) Validate() error {
	if cfg.Connection == "" {
		return serrors.New("connection must be set")
	}
	if cfg.Retention.Duration < 0 {
		return serrors.New("retention must not be negative", "retention", cfg.Retention)
	}
	return nil
}

// Sample writes a config sample to the writer. The connection and the
// retention are taken from the context keys "connection" and "retention" when
// present.
func (cfg *DBConfig) Sample(dst io.Writer, path config.Path, ctx config.CtxMap) {
	conn := ctx[SampleConnection]
	if conn == "" {
		conn = DefaultDocDBPath
	}
	retention := ctx[SampleRetention]
	if retention == "" {
		retention = util.FmtDuration(DefaultDocRetention)
	}
	config.WriteString(dst, fmt.Sprintf(sample, conn, retention))
}

// SampleCtx returns the sample context of a database configured like c.
func SampleCtx(c DBConfig) config.CtxMap {
	return config.CtxMap{
		SampleConnection: c.Connection,
		SampleRetention:  c.Retention.String(),
	}
}

// ConfigName is the key in the toml file.
func (cfg *DBConfig) ConfigName() string {
	return "db"
}

const sample = `# The connection string of the database. (default %q)
connection = %[1]q

# The maximum number of open connections to the database. In case of 0 the
# library default is used. (default 0)
max_open_conns = 0

# The maximum number of idle connections to the database. In case of 0 the
# library default is used. (default 0)
max_idle_conns = 0

# The age after which entries are deleted. Zero disables the cleanup.
# (default %[2]q)
retention = %[2]q
`

// NewDocumentStorage opens the document database. When a retention is
// configured a periodic task deletes documents that were not refreshed within
// the retention. Closing the returned database stops the task. The task
// metrics are registered according to opts.
func NewDocumentStorage(c DBConfig, opts ...metrics.Option) (docs.DB, error) {
	log.Info("Connecting document DB", "backend", BackendBbolt, "connection", c.Connection)
	d, err := bboltdocs.New(c.Connection, nil)
	if err != nil {
		return nil, err
	}
	if c.Retention.Duration == 0 {
		return d, nil
	}
	r := startCleaner(d.DeleteExpired, c.Retention.Duration, "docdb", opts)
	return docDBWithCleaner{DB: d, cleaner: r}, nil
}

// NewHistoryStorage opens the refresh history database with a periodic
// cleaner that deletes the records older than the retention.
func NewHistoryStorage(c DBConfig, opts ...metrics.Option) (history.DB, error) {
	log.Info("Connecting history DB", "backend", BackendSqlite, "connection", c.Connection)
	d, err := sqlitehistory.New(c.Connection, &db.SqliteConfig{
		MaxOpenReadConns: c.MaxOpenConns,
		MaxIdleReadConns: c.MaxIdleConns,
	})
	if err != nil {
		return nil, err
	}
	if c.Retention.Duration == 0 {
		return d, nil
	}
	r := startCleaner(d.DeleteExpired, c.Retention.Duration, "historydb", opts)
	return historyDBWithCleaner{DB: d, cleaner: r}, nil
}

func startCleaner(
	deleteExpired func(context.Context, time.Time) (int, error),
	retention time.Duration,
	subsystem string,
	opts []metrics.Option,
) *periodic.Runner {

	return periodic.StartWithMetrics(
		cleaner.New(
			func(ctx context.Context, now time.Time) (int, error) {
				return deleteExpired(ctx, now.Add(-retention))
			},
			subsystem,
			cleaner.Metrics{},
		),
		periodic.NewMetrics(subsystem+"_cleaner", opts...),
		cleanInterval,
		cleanInterval,
	)
}

// docDBWithCleaner stops both the database and the cleanup task on Close.
type docDBWithCleaner struct {
	docs.DB
	cleaner *periodic.Runner
}

func (d docDBWithCleaner) Close() error {
	d.cleaner.Kill()
	return d.DB.Close()
}

// historyDBWithCleaner stops both the database and the cleanup task on Close.
type historyDBWithCleaner struct {
	history.DB
	cleaner *periodic.Runner
}

func (d historyDBWithCleaner) Close() error {
	d.cleaner.Kill()
	return d.DB.Close()
}
