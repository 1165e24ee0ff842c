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
	"encoding/json"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/private/storage/history"
)

// record stores the cycle in the history database. Failures are logged.
func (j *Job) record(ctx context.Context, r Result, cycleErr error) {
	if j.cfg.History == nil {
		return
	}
	logger := log.FromCtx(ctx)
	rec := history.Record{
		Mode:     r.Mode,
		Start:    r.Start,
		Duration: r.Duration,
		LOTLs:    len(r.LOTLs),
		TLs:      len(r.TLs),
	}
	if cycleErr != nil {
		rec.Err = cycleErr.Error()
	}
	if r.Sync != nil {
		rec.Accepted = len(r.Sync.Accepted)
		rec.Rejected = len(r.Sync.Rejected)
		rec.Certificates = r.Sync.Certificates
	}
	if r.Summary != nil {
		raw, err := json.Marshal(r.Summary)
		if err != nil {
			logger.Info("Failed to encode summary", "err", err)
		}
		rec.Summary = raw
	}
	// The cycle context may be canceled already.
	if _, err := j.cfg.History.Insert(context.WithoutCancel(ctx), rec); err != nil {
		logger.Info("Failed to record refresh", "err", err)
	}
}
