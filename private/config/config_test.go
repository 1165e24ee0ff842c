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

package config_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/private/config"
)

type block struct {
	config.NoValidator
	config.NoDefaulter
	Name string `toml:"name"`
}

func (b *block) Sample(dst io.Writer, _ config.Path, _ config.CtxMap) {
	config.WriteString(dst, "name = \"sample\"\n")
}

func (b *block) ConfigName() string { return "block" }

type root struct {
	Block block `toml:"block"`
}

func TestWriteSampleAndDecode(t *testing.T) {
	var buf bytes.Buffer
	b := &block{}
	config.WriteSample(&buf, nil, nil, b)
	assert.Contains(t, buf.String(), "[block]")

	var r root
	require.NoError(t, config.Decode(buf.Bytes(), &r))
	assert.Equal(t, "sample", r.Block.Name)
}

func TestDecodeUnknownField(t *testing.T) {
	var r root
	err := config.Decode([]byte("[block]\nunknown = 1\n"), &r)
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cfg.toml")
	require.NoError(t, os.WriteFile(file, []byte("[block]\nname = \"x\"\n"), 0o644))
	var r root
	require.NoError(t, config.LoadFile(file, &r))
	assert.Equal(t, "x", r.Block.Name)

	assert.Error(t, config.LoadFile(filepath.Join(dir, "missing.toml"), &r))
}

func TestPathExtend(t *testing.T) {
	p := config.Path{"a"}
	q := p.Extend("b")
	assert.Equal(t, config.Path{"a"}, p)
	assert.Equal(t, config.Path{"a", "b"}, q)
}

type failing struct {
	config.NoDefaulter
	msg string
}

func (f failing) Validate() error {
	if f.msg == "" {
		return nil
	}
	return errors.New(f.msg)
}

func TestValidateAll(t *testing.T) {
	testCases := map[string]struct {
		Validators []config.Validator
		Contains   []string
	}{
		"none": {},
		"all valid": {
			Validators: []config.Validator{failing{}, &block{}},
		},
		"reports every failure": {
			Validators: []config.Validator{failing{msg: "first"}, failing{}, failing{msg: "second"}},
			Contains:   []string{"first", "second"},
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			err := config.ValidateAll(tc.Validators...)
			if len(tc.Contains) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, s := range tc.Contains {
				assert.Contains(t, err.Error(), s)
			}
		})
	}
}

func TestOverrideName(t *testing.T) {
	var buf bytes.Buffer
	config.WriteSample(&buf, config.Path{"tl"}, nil, config.OverrideName(&block{}, "other"))
	assert.Contains(t, buf.String(), "[tl.other]")
	assert.Contains(t, buf.String(), `    name = "sample"`)
}
