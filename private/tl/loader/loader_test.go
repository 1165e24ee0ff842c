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

package loader_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/tltest"
	"github.com/tlsync/tlsync/private/storage/docs"
	"github.com/tlsync/tlsync/private/storage/docs/bbolt"
	"github.com/tlsync/tlsync/private/tl/loader"
)

func TestHTTPLoader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/lotl":
			fmt.Fprint(w, "lotl bytes")
		case "/large":
			fmt.Fprint(w, strings.Repeat("x", 64))
		case "/slow":
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	l := &loader.HTTPLoader{Client: srv.Client(), MaxSize: 32, Timeout: 200 * time.Millisecond}
	ctx := context.Background()

	testCases := map[string]struct {
		Path      string
		Want      []byte
		ErrorIs   error
		AssertErr assert.ErrorAssertionFunc
	}{
		"ok": {
			Path:      "/lotl",
			Want:      []byte("lotl bytes"),
			AssertErr: assert.NoError,
		},
		"not found": {
			Path:      "/missing",
			ErrorIs:   loader.ErrStatus,
			AssertErr: assert.Error,
		},
		"too large": {
			Path:      "/large",
			ErrorIs:   loader.ErrTooLarge,
			AssertErr: assert.Error,
		},
		"timeout": {
			Path:      "/slow",
			ErrorIs:   context.DeadlineExceeded,
			AssertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			raw, err := l.Load(ctx, srv.URL+tc.Path)
			tc.AssertErr(t, err)
			if tc.ErrorIs != nil {
				assert.ErrorIs(t, err, tc.ErrorIs)
			}
			assert.Equal(t, tc.Want, raw)
		})
	}
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tl.jws")
	require.NoError(t, os.WriteFile(path, []byte("tl bytes"), 0600))
	ctx := context.Background()

	for name, url := range map[string]string{
		"absolute": path,
		"file url": "file://" + filepath.ToSlash(path),
		"relative": "tl.jws",
	} {
		t.Run(name, func(t *testing.T) {
			raw, err := loader.FileLoader{Dir: dir}.Load(ctx, url)
			require.NoError(t, err)
			assert.Equal(t, []byte("tl bytes"), raw)
		})
	}

	_, err := loader.FileLoader{Dir: dir}.Load(ctx, "missing.jws")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMux(t *testing.T) {
	httpL := tltest.NewLoader()
	httpL.Set("https://example.com/lotl", []byte("remote"))
	fileL := tltest.NewLoader()
	fileL.Set("/etc/tlsync/lotl", []byte("local"))
	m := loader.NewMux(httpL, fileL)
	ctx := context.Background()

	raw, err := m.Load(ctx, "https://example.com/lotl")
	require.NoError(t, err)
	assert.Equal(t, []byte("remote"), raw)

	raw, err = m.Load(ctx, "/etc/tlsync/lotl")
	require.NoError(t, err)
	assert.Equal(t, []byte("local"), raw)

	_, err = m.Load(ctx, "ftp://example.com/lotl")
	assert.ErrorIs(t, err, loader.ErrUnsupportedScheme)

	_, err = loader.NewMux(nil, fileL).Load(ctx, "https://example.com/lotl")
	assert.ErrorIs(t, err, loader.ErrUnsupportedScheme)
}

func TestMemo(t *testing.T) {
	const url = "https://example.com/tl"
	inner := tltest.NewLoader()
	inner.Set(url, []byte("tl"))
	m := loader.NewMemo(inner, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raw, err := m.Load(ctx, url)
			assert.NoError(t, err)
			assert.Equal(t, []byte("tl"), raw)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, inner.Calls(url))
	assert.Equal(t, 1, m.Len())

	m.Flush()
	_, err := m.Load(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.Calls(url))

	t.Run("errors are not memoized", func(t *testing.T) {
		const bad = "https://example.com/bad"
		inner.SetErr(bad, errors.New("boom"))
		_, err := m.Load(ctx, bad)
		assert.Error(t, err)
		_, err = m.Load(ctx, bad)
		assert.Error(t, err)
		assert.Equal(t, 2, inner.Calls(bad))
	})
}

func newDocDB(t *testing.T) docs.DB {
	db, err := bbolt.New(filepath.Join(t.TempDir(), "docs.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordingAndOffline(t *testing.T) {
	const url = "https://example.com/lotl"
	ctx := context.Background()
	db := newDocDB(t)
	fetched := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	inner := tltest.NewLoader()
	inner.Set(url, []byte("lotl"))
	inner.SetErr("https://example.com/down", errors.New("down"))
	var rec tl.Loader = loader.Recording{
		Loader: inner,
		DB:     db,
		Now:    func() time.Time { return fetched },
	}

	raw, err := rec.Load(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("lotl"), raw)
	_, err = rec.Load(ctx, "https://example.com/down")
	assert.Error(t, err)

	doc, err := db.Get(ctx, url)
	require.NoError(t, err)
	assert.True(t, fetched.Equal(doc.Fetched))

	off := loader.Offline{DB: db}
	raw, err = off.Load(ctx, url)
	require.NoError(t, err)
	assert.Equal(t, []byte("lotl"), raw)

	_, err = off.Load(ctx, "https://example.com/down")
	assert.ErrorIs(t, err, docs.ErrNotFound)
}
