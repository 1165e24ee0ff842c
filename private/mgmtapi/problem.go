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
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/pelletier/go-toml/v2"
)

// Problem is an error response in the format of RFC 7807.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse writes p as application/problem+json.
func ErrorResponse(w http.ResponseWriter, p Problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	// The header is already written, nothing left to report.
	_ = enc.Encode(p)
}

// InfoHandler serves the build and process information.
func InfoHandler(id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := "(devel)"
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
			version = info.Main.Version
		}
		w.Header().Set("Content-Type", "text/plain")
		fmt.Fprintf(w, "  ID:            %s\n", id)
		fmt.Fprintf(w, "  Version:       %s\n", version)
		fmt.Fprintf(w, "  pid:           %d\n", os.Getpid())
		fmt.Fprintf(w, "  euid/egid:     %d %d\n", os.Geteuid(), os.Getegid())
		fmt.Fprintf(w, "  cmd line:      %q\n", os.Args)
	}
}

// ConfigHandler serves cfg encoded as TOML.
func ConfigHandler(cfg any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			ErrorResponse(w, Problem{
				Status: http.StatusInternalServerError,
				Title:  "unable to encode config",
				Detail: err.Error(),
			})
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write(buf.Bytes())
	}
}
