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

package launcher

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/private/config"
)

type testConfig struct {
	Name string `toml:"name,omitempty"`

	defaulted bool
	invalid   bool
}

func (c *testConfig) InitDefaults() { c.defaulted = true }

func (c *testConfig) Validate() error {
	if c.invalid || c.Name == "" {
		return serrors.New("name not set")
	}
	return nil
}

func (c *testConfig) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, "name = \"sample\"\n")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "app.toml")
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))
	return file
}

func TestApplicationRun(t *testing.T) {
	testCases := map[string]struct {
		Content   string
		Args      func(file string) []string
		Main      func(ctx context.Context) error
		AssertErr assert.ErrorAssertionFunc
		Ran       bool
	}{
		"main runs": {
			Content:   "name = \"test\"\n",
			Args:      func(file string) []string { return []string{"--config", file} },
			Main:      func(context.Context) error { return nil },
			AssertErr: assert.NoError,
			Ran:       true,
		},
		"main error propagates": {
			Content:   "name = \"test\"\n",
			Args:      func(file string) []string { return []string{"--config", file} },
			Main:      func(context.Context) error { return serrors.New("boom") },
			AssertErr: assert.Error,
			Ran:       true,
		},
		"missing config flag": {
			Content:   "name = \"test\"\n",
			Args:      func(string) []string { return nil },
			AssertErr: assert.Error,
		},
		"unknown field": {
			Content:   "name = \"test\"\nbogus = 1\n",
			Args:      func(file string) []string { return []string{"--config", file} },
			AssertErr: assert.Error,
		},
		"invalid config": {
			Content:   "\n",
			Args:      func(file string) []string { return []string{"--config", file} },
			AssertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			file := writeConfig(t, tc.Content)
			var ran bool
			cfg := &testConfig{}
			app := &Application{
				TOMLConfig: cfg,
				ShortName:  "test",
				Main: func(ctx context.Context) error {
					ran = true
					if tc.Main != nil {
						return tc.Main(ctx)
					}
					return nil
				},
			}
			err := app.run(tc.Args(file))
			tc.AssertErr(t, err)
			assert.Equal(t, tc.Ran, ran)
		})
	}
}

func TestApplicationDefaults(t *testing.T) {
	cfg := &testConfig{}
	app := &Application{TOMLConfig: cfg}
	require.NoError(t, app.run([]string{"--config", writeConfig(t, "name = \"x\"\n")}))
	assert.True(t, cfg.defaulted)
	assert.Equal(t, "x", cfg.Name)
}

func TestSampleConfigCommand(t *testing.T) {
	cmd := newCommandTemplate("app", "app", &testConfig{})
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"sample", "config"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), `name = "sample"`)
}
