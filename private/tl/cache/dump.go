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

package cache

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// Dump writes a human readable representation of all entries to w. Entries
// are ordered by key so that two dumps can be compared line by line.
func (c *Cache) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, s := range c.Snapshots() {
		fmt.Fprintf(bw, "%s\n", s.Key)
		fmt.Fprintf(bw, "  marked_for_deletion=%t synchronized=%t\n", s.ToBeDeleted, s.Synchronized)

		d := s.Download
		fmt.Fprintf(bw, "  download   status=%s digest=%s time=%s last_success=%s%s\n",
			d.Status, shortDigest(d.Digest), fmtTime(d.Time), fmtTime(d.LastSuccess),
			fmtCause(d.Cause))

		p := s.Parsing
		fmt.Fprintf(bw, "  parsing    status=%s time=%s last_success=%s", p.Status,
			fmtTime(p.Time), fmtTime(p.LastSuccess))
		if r := p.Result; r != nil {
			fmt.Fprintf(bw, " kind=%s territory=%s sequence=%d pointers=%d certificates=%d",
				r.Kind, r.Territory, r.Sequence, len(r.Pointers), r.CertificateCount())
		}
		fmt.Fprintf(bw, "%s\n", fmtCause(p.Cause))

		v := s.Validation
		fmt.Fprintf(bw, "  validation status=%s indication=%s time=%s last_success=%s%s\n",
			v.Status, v.Result.Indication, fmtTime(v.Time), fmtTime(v.LastSuccess),
			fmtCause(v.Cause))
	}
	return bw.Flush()
}

func shortDigest(d string) string {
	if len(d) > 16 {
		return d[:16]
	}
	if d == "" {
		return "-"
	}
	return d
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func fmtCause(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf(" cause=%q", err.Error())
}
