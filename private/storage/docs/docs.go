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

// Package docs defines the document database. It keeps the last successfully
// fetched bytes of every trust document so that the engine can start from
// them without network access.
package docs

import (
	"context"
	"io"
	"time"

	"github.com/tlsync/tlsync/pkg/private/serrors"
)

// ErrNotFound is returned when no document is stored for a URL.
var ErrNotFound = serrors.New("document not found")

// Document is a stored trust document.
type Document struct {
	URL     string
	Raw     []byte
	Fetched time.Time
}

// DB stores the last good bytes per document URL.
type DB interface {
	io.Closer
	// Get returns the document stored for url, or an error that wraps
	// ErrNotFound.
	Get(ctx context.Context, url string) (Document, error)
	// Put stores doc, replacing any previous document with the same URL.
	Put(ctx context.Context, doc Document) error
	// Delete removes the document stored for url and reports whether it
	// existed.
	Delete(ctx context.Context, url string) (bool, error)
	// URLs returns the URLs of all stored documents in lexical order.
	URLs(ctx context.Context) ([]string, error)
	// DeleteExpired removes all documents fetched before the given time and
	// returns how many were removed.
	DeleteExpired(ctx context.Context, before time.Time) (int, error)
}
