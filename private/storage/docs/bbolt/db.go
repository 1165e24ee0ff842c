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

// Package bbolt implements the document database on top of bbolt.
package bbolt

import (
	"bytes"
	"context"
	"encoding/binary"
	"slices"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/private/storage/db"
	"github.com/tlsync/tlsync/private/storage/docs"
)

var bucket = []byte("documents")

var _ docs.DB = (*DB)(nil)

// DB is a bbolt backed document database. Values are the fetch time as
// big-endian unix nanoseconds followed by the raw document.
type DB struct {
	db *bbolt.DB
}

// New opens or creates the database file at path.
func New(path string, opts *bbolt.Options) (*DB, error) {
	if opts == nil {
		opts = &bbolt.Options{Timeout: time.Second}
	}
	b, err := bbolt.Open(path, 0600, opts)
	if err != nil {
		return nil, serrors.Wrap("opening document db", err, "path", path)
	}
	if err := b.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		b.Close()
		return nil, db.NewWriteError("creating bucket", err)
	}
	return &DB{db: b}, nil
}

// Get returns the document stored for url.
func (d *DB) Get(ctx context.Context, url string) (docs.Document, error) {
	if err := ctx.Err(); err != nil {
		return docs.Document{}, err
	}
	var doc docs.Document
	err := d.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(url))
		if v == nil {
			return serrors.JoinNoStack(docs.ErrNotFound, nil, "url", url)
		}
		var err error
		doc, err = decode(url, v)
		return err
	})
	if err != nil {
		return docs.Document{}, err
	}
	return doc, nil
}

// Put stores doc.
func (d *DB) Put(ctx context.Context, doc docs.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.URL == "" {
		return db.NewInputDataError("empty url", nil)
	}
	err := d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(doc.URL), encode(doc))
	})
	if err != nil {
		return db.NewWriteError("storing document", err, "url", doc.URL)
	}
	return nil
}

// Delete removes the document stored for url.
func (d *DB) Delete(ctx context.Context, url string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var existed bool
	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		if b.Get([]byte(url)) == nil {
			return nil
		}
		existed = true
		return b.Delete([]byte(url))
	})
	if err != nil {
		return false, db.NewWriteError("deleting document", err, "url", url)
	}
	return existed, nil
}

// URLs returns the stored URLs. bbolt iterates keys in byte order.
func (d *DB) URLs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var urls []string
	err := d.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, _ []byte) error {
			urls = append(urls, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, db.NewReadError("listing documents", err)
	}
	return urls, nil
}

// DeleteExpired removes the documents fetched before the given time.
func (d *DB) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := d.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucket)
		var expired [][]byte
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			doc, err := decode(string(k), v)
			if err != nil {
				return err
			}
			if doc.Fetched.Before(before) {
				expired = append(expired, slices.Clone(k))
			}
		}
		for _, k := range expired {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		n = len(expired)
		return nil
	})
	if err != nil {
		return 0, db.NewWriteError("deleting expired documents", err)
	}
	return n, nil
}

// Close closes the database file.
func (d *DB) Close() error {
	return d.db.Close()
}

func encode(doc docs.Document) []byte {
	var buf bytes.Buffer
	buf.Grow(8 + len(doc.Raw))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(doc.Fetched.UnixNano()))
	buf.Write(ts[:])
	buf.Write(doc.Raw)
	return buf.Bytes()
}

func decode(url string, v []byte) (docs.Document, error) {
	if len(v) < 8 {
		return docs.Document{}, db.NewDataError("truncated value", nil, "url", url)
	}
	return docs.Document{
		URL:     url,
		Raw:     slices.Clone(v[8:]),
		Fetched: time.Unix(0, int64(binary.BigEndian.Uint64(v[:8]))).UTC(),
	}, nil
}
