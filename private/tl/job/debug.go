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

package job

import (
	"context"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/tlsync/tlsync/pkg/log"
)

// dump logs the cache at debug level and returns the dump.
func (j *Job) dump(ctx context.Context, msg string) string {
	var sb strings.Builder
	logger := log.FromCtx(ctx)
	if err := j.cache.Dump(&sb); err != nil {
		logger.Info("Failed to dump cache", "err", err)
		return ""
	}
	logger.Debug(msg, "entries", j.cache.Len(), "dump", sb.String())
	return sb.String()
}

// logDiff logs the lines that differ between two dumps.
func logDiff(ctx context.Context, before, after string) {
	d := lineDiff(before, after)
	if d == "" {
		log.FromCtx(ctx).Debug("Cache unchanged by synchronization and cleaning")
		return
	}
	log.FromCtx(ctx).Debug("Cache changed by synchronization and cleaning", "diff", d)
}

// lineDiff returns the removed lines prefixed with "-" and the added lines
// prefixed with "+", in order. It returns the empty string if both texts are
// equal.
func lineDiff(before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
