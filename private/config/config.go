// Copyright 2019 Anapaya Systems
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

// Package config defines the contract shared by all configuration blocks of
// tlsync applications.
//
// A block fills unset fields with InitDefaults, checks itself with Validate
// and documents itself with Sample. The sample of every block must decode
// back into the block under strict decoding and yield the defaults, which
// the envtest style tests check. Sample may panic on write errors.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/tlsync/tlsync/pkg/private/serrors"
)

// Config is a complete configuration block.
type Config interface {
	Sampler
	Validator
	Defaulter
}

type Validator interface {
	Validate() error
}

type Defaulter interface {
	InitDefaults()
}

// Sampler writes a commented TOML sample of the block to dst.
type Sampler interface {
	Sample(dst io.Writer, path Path, ctx CtxMap)
}

// TableSampler is a Sampler whose sample is written as its own TOML table
// named ConfigName.
type TableSampler interface {
	Sampler
	ConfigName() string
}

// Path is the dotted table path of a block, e.g. {"tl", "sources"}.
type Path []string

// Extend returns a copy of p with s appended. p is not modified.
func (p Path) Extend(s string) Path {
	c := make(Path, 0, len(p)+1)
	return append(append(c, p...), s)
}

// NoValidator can be embedded by blocks that accept any value.
type NoValidator struct{}

func (NoValidator) Validate() error { return nil }

// NoDefaulter can be embedded by blocks without defaults.
type NoDefaulter struct{}

func (NoDefaulter) InitDefaults() {}

// ValidateAll validates every block and reports all failures together.
func ValidateAll(validators ...Validator) error {
	var errs serrors.List
	for _, v := range validators {
		if err := v.Validate(); err != nil {
			errs = append(errs, serrors.Wrap("invalid config block", err,
				"block", blockName(v)))
		}
	}
	return errs.ToError()
}

func blockName(v any) string {
	if ts, ok := v.(TableSampler); ok {
		return ts.ConfigName()
	}
	return fmt.Sprintf("%T", v)
}

// InitAll runs InitDefaults on every block in order.
func InitAll(defaulters ...Defaulter) {
	for _, d := range defaulters {
		d.InitDefaults()
	}
}

// Decode strictly decodes TOML into cfg. Unknown keys are an error.
func Decode(raw []byte, cfg any) error {
	return toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(cfg)
}

// LoadFile reads file and decodes it with Decode.
func LoadFile(file string, cfg any) error {
	raw, err := os.ReadFile(file)
	if err != nil {
		return serrors.Wrap("reading config file", err, "file", file)
	}
	if err := Decode(raw, cfg); err != nil {
		return serrors.Wrap("decoding config file", err, "file", file)
	}
	return nil
}

type renamed struct {
	Sampler
	name string
}

func (r renamed) ConfigName() string { return r.name }

// OverrideName returns s written as the table name instead of its own
// ConfigName. It lets one block type appear several times in a sample.
func OverrideName(s Sampler, name string) Sampler {
	return renamed{Sampler: s, name: name}
}
