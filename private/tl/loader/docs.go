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

package loader

import (
	"context"
	"time"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/private/storage/docs"
)

// Recording stores every successfully loaded document in the document
// database. A failure to store is logged and does not fail the load.
type Recording struct {
	Loader tl.Loader
	DB     docs.DB
	// Now defaults to time.Now.
	Now func() time.Time
}

// Load implements tl.Loader.
func (r Recording) Load(ctx context.Context, url string) ([]byte, error) {
	raw, err := r.Loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	doc := docs.Document{URL: url, Raw: raw, Fetched: now()}
	if err := r.DB.Put(ctx, doc); err != nil {
		log.FromCtx(ctx).Info("Failed to persist document", "url", url, "err", err)
	}
	return raw, nil
}

// Offline serves documents from the document database.
type Offline struct {
	DB docs.DB
}

// Load implements tl.Loader.
func (o Offline) Load(ctx context.Context, url string) ([]byte, error) {
	doc, err := o.DB.Get(ctx, url)
	if err != nil {
		return nil, serrors.Wrap("loading offline document", err, "url", url)
	}
	return doc.Raw, nil
}
