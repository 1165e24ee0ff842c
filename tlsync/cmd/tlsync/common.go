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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/private/mgmtapi"
)

const (
	formatHuman = "human"
	formatJSON  = "json"
	formatYAML  = "yaml"

	defaultAPI = "http://127.0.0.1:31152"
)

// outputFlags are shared by all commands that print results.
type outputFlags struct {
	format   string
	noColor  bool
	logLevel string
}

func (f *outputFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&f.format, "format", formatHuman,
		"Specify the output format (human|json|yaml)")
	flags.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	flags.StringVar(&f.logLevel, "log.level", "",
		"Console logging level verbosity (debug|info|error)")
}

func (f *outputFlags) validate() error {
	switch f.format {
	case formatHuman, formatJSON, formatYAML:
		return nil
	default:
		return serrors.New("format not supported", "format", f.format)
	}
}

// colored reports whether human output to w should be colored.
func (f *outputFlags) colored(w io.Writer) bool {
	if f.noColor || color.NoColor {
		return false
	}
	file, ok := w.(*os.File)
	return ok && isatty.IsTerminal(file.Fd())
}

// setupLog sets up console logging for command line tools. An empty level
// disables logging.
func setupLog(level string) error {
	if level == "" {
		return nil
	}
	cfg := log.Config{Console: log.ConsoleConfig{Level: level, Format: "human"}}
	cfg.InitDefaults()
	if err := log.Setup(cfg, log.WithOutput(os.Stderr)); err != nil {
		return serrors.Wrap("setting up logging", err)
	}
	return nil
}

// encode writes v in a machine readable format.
func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case formatYAML:
		// Round trip through JSON so the field names match the JSON tags.
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return serrors.New("output format not supported", "format", format)
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderLine(false)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeader(header)
	return table
}

// palette colors the human output.
type palette struct {
	header *color.Color
	good   *color.Color
	bad    *color.Color
	warn   *color.Color
}

func newPalette(colored bool) palette {
	noColor := color.New()
	if !colored {
		return palette{header: noColor, good: noColor, bad: noColor, warn: noColor}
	}
	p := palette{
		header: color.New(color.FgHiBlack),
		good:   color.New(color.FgGreen),
		bad:    color.New(color.FgRed),
		warn:   color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{p.header, p.good, p.bad, p.warn} {
		c.EnableColor()
	}
	return p
}

// status colors a sub-state or indication.
func (p palette) status(s string) string {
	switch s {
	case "fresh", "valid", "granted":
		return p.good.Sprint(s)
	case "error", "invalid", "withdrawn":
		return p.bad.Sprint(s)
	case "expired":
		return p.warn.Sprint(s)
	default:
		return s
	}
}

// apiClient queries the management API of a tlsync daemon.
type apiClient struct {
	base    string
	client  *http.Client
	timeout time.Duration
}

func newAPIClient(base string, timeout time.Duration) (*apiClient, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, serrors.New("invalid API address", "api", base)
	}
	return &apiClient{
		base:    strings.TrimSuffix(base, "/"),
		client:  &http.Client{},
		timeout: timeout,
	}, nil
}

// do sends the request and decodes the JSON response into v. Problem
// responses are returned as errors.
func (c *apiClient) do(ctx context.Context, method, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, nil)
	if err != nil {
		return serrors.Wrap("creating request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return serrors.Wrap("querying API", err, "url", req.URL)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		var p mgmtapi.Problem
		if err := json.NewDecoder(resp.Body).Decode(&p); err != nil || p.Title == "" {
			return serrors.New("API error", "status", resp.StatusCode)
		}
		return serrors.New(p.Title, "status", p.Status, "detail", p.Detail)
	}
	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return serrors.Wrap("decoding response", err)
	}
	return nil
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printf(w io.Writer, format string, ctx ...any) {
	fmt.Fprintf(w, format, ctx...)
}
