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

	"golang.org/x/sync/errgroup"

	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/private/tl/analysis"
)

// stage analyzes srcs on the worker pool and waits for all analyses to
// finish. If ctx is done, the sources not yet started are skipped and the
// context error is returned once the running analyses returned. The results
// of the analyses that ran are returned in either case.
func (j *Job) stage(ctx context.Context, srcs []tl.Source,
	loader tl.Loader) ([]analysis.Result, error) {

	results := make([]analysis.Result, len(srcs))
	ran := make([]bool, len(srcs))
	var g errgroup.Group
	g.SetLimit(j.cfg.Workers)
	for i, src := range srcs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			results[i] = j.newTask(src, loader).Run(ctx)
			ran[i] = true
			j.observe(results[i])
			return nil
		})
	}
	_ = g.Wait()

	done := results[:0]
	for i, r := range results {
		if ran[i] {
			done = append(done, r)
		}
	}
	return done, ctx.Err()
}

func (j *Job) observe(r analysis.Result) {
	kind := r.Kind.String()
	metrics.CounterInc(counter2(j.cfg.Metrics.Analyses, kind, analysisLabel(r)))
	metrics.HistogramObserve(histogram1(j.cfg.Metrics.AnalysisDuration, kind),
		r.Duration.Seconds())
}
