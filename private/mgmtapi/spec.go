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

package mgmtapi

import (
	"context"
	_ "embed"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/tlsync/tlsync/pkg/private/serrors"
)

//go:embed spec.yml
var rawSpec []byte

const specHTML = `<!DOCTYPE html>
<html>
  <head>
    <title>tlsync management API</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
  </head>
  <body>
    <redoc spec-url="openapi.json"></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
  </body>
</html>
`

var (
	specOnce sync.Once
	spec     *openapi3.T
	specErr  error
)

// Spec returns the validated OpenAPI description of the management API.
func Spec() (*openapi3.T, error) {
	specOnce.Do(func() {
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(rawSpec)
		if err != nil {
			specErr = serrors.Wrap("loading API specification", err)
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			specErr = serrors.Wrap("validating API specification", err)
			return
		}
		spec = doc
	})
	return spec, specErr
}

// ServeSpecJSON serves the OpenAPI description in JSON format.
func ServeSpecJSON(w http.ResponseWriter, r *http.Request) {
	doc, err := Spec()
	if err != nil {
		ErrorResponse(w, Problem{
			Status: http.StatusInternalServerError,
			Title:  "specification not available",
			Detail: err.Error(),
		})
		return
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		ErrorResponse(w, Problem{
			Status: http.StatusInternalServerError,
			Title:  "encoding specification",
			Detail: err.Error(),
		})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// ServeSpecInteractive serves an HTML page rendering the OpenAPI description.
func ServeSpecInteractive(w http.ResponseWriter, r *http.Request) {
	http.ServeContent(w, r, "index.html", time.Time{}, strings.NewReader(specHTML))
}
