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
	"errors"
	"time"

	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/private/tl/analysis"
	"github.com/tlsync/tlsync/private/tl/cache"
	"github.com/tlsync/tlsync/private/tl/cachecleaner"
	"github.com/tlsync/tlsync/private/tl/changes"
	tlmetrics "github.com/tlsync/tlsync/private/tl/metrics"
	"github.com/tlsync/tlsync/private/tl/summary"
	"github.com/tlsync/tlsync/private/tl/synchronizer"
)

// Result describes one refresh cycle.
type Result struct {
	Mode     string
	Start    time.Time
	Duration time.Duration
	// LOTLs and TLs are the analyses of the two stages.
	LOTLs   []analysis.Result
	TLs     []analysis.Result
	Actions []changes.Action
	// TLStageErr is set if the trust list stage was skipped because the
	// derived and configured trust lists share a URL.
	TLStageErr error
	Summary    *summary.Summary
	Alerts     []string
	// Sync is nil if no store is configured.
	Sync *synchronizer.Result
	// Clean is nil if no cleaner policy is configured.
	Clean *cachecleaner.Result
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return tlmetrics.Success
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return tlmetrics.ErrCanceled
	case errors.Is(err, ErrDuplicateURL):
		return tlmetrics.ErrDuplicate
	case errors.Is(err, ErrNoLoader):
		return tlmetrics.ErrNoLoader
	default:
		return tlmetrics.ErrConfig
	}
}

func analysisLabel(r analysis.Result) string {
	switch {
	case r.Download == cache.Error:
		return tlmetrics.ErrNetwork
	case r.Parsing == cache.Error:
		return tlmetrics.ErrParse
	case r.Validation == cache.Error:
		return tlmetrics.ErrVerify
	case r.Reused:
		return tlmetrics.Cached
	default:
		return tlmetrics.Success
	}
}

func counter1(f func(string) metrics.Counter, a string) metrics.Counter {
	if f == nil {
		return nil
	}
	return f(a)
}

func counter2(f func(string, string) metrics.Counter, a, b string) metrics.Counter {
	if f == nil {
		return nil
	}
	return f(a, b)
}

func histogram1(f func(string) metrics.Histogram, a string) metrics.Histogram {
	if f == nil {
		return nil
	}
	return f(a)
}

func gauge1(f func(string) metrics.Gauge, a string) metrics.Gauge {
	if f == nil {
		return nil
	}
	return f(a)
}
