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

package config

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// CtxMap carries values that samples interpolate, such as the service ID.
type CtxMap map[string]string

// WriteSample writes the samples in order. A TableSampler gets a
// "[path.name]" header and its body is indented by four spaces. It panics on
// write errors.
func WriteSample(dst io.Writer, path Path, ctx CtxMap, samplers ...Sampler) {
	for _, s := range samplers {
		var body bytes.Buffer
		ts, ok := s.(TableSampler)
		if !ok {
			s.Sample(&body, path, ctx)
			mustWrite(dst, body.Bytes())
			continue
		}
		table := path.Extend(ts.ConfigName())
		ts.Sample(&body, table, ctx)
		var out bytes.Buffer
		fmt.Fprintf(&out, "\n[%s]\n", strings.Join(table, "."))
		indent(&out, &body)
		mustWrite(dst, out.Bytes())
	}
}

// WriteString writes s to dst. It panics on write errors.
func WriteString(dst io.Writer, s string) {
	mustWrite(dst, []byte(s))
}

func mustWrite(dst io.Writer, b []byte) {
	if _, err := dst.Write(b); err != nil {
		panic(fmt.Sprintf("writing config sample: %v", err))
	}
}

func indent(dst *bytes.Buffer, src io.Reader) {
	sc := bufio.NewScanner(src)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			dst.WriteString("    " + line)
		}
		dst.WriteByte('\n')
	}
}
