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
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tlsync/tlsync/pkg/private/serrors"
)

// FileLoader reads documents from the local file system. It accepts file://
// URLs and plain paths. Relative paths are resolved against Dir.
type FileLoader struct {
	Dir string
}

// Load implements tl.Loader.
func (l FileLoader) Load(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := rawURL
	if strings.HasPrefix(strings.ToLower(rawURL), "file:") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, serrors.Wrap("parsing file url", err, "url", rawURL)
		}
		path = u.Path
		if path == "" {
			path = u.Opaque
		}
	}
	if !filepath.IsAbs(path) && l.Dir != "" {
		path = filepath.Join(l.Dir, path)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap("reading document", err, "url", rawURL)
	}
	return raw, nil
}
