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

package alert

import (
	"context"
	"fmt"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/metrics"
	"github.com/tlsync/tlsync/pkg/private/serrors"
)

// LogHandler logs the documents that triggered an alert.
type LogHandler[T Source] struct {
	// Logger defaults to the logger of the context.
	Logger log.Logger
}

// Handle logs one line per document.
func (h LogHandler[T]) Handle(ctx context.Context, alert string, infos []T) error {
	logger := h.Logger
	if logger == nil {
		logger = log.FromCtx(ctx)
	}
	for _, info := range infos {
		logger.Info("Alert triggered", "alert", alert, "url", info.SourceURL())
	}
	return nil
}

// CompositeHandler invokes every handler, also if one of them fails.
type CompositeHandler[T Source] []Handler[T]

// Handle invokes all handlers and returns their errors.
func (c CompositeHandler[T]) Handle(ctx context.Context, alert string, infos []T) error {
	var errs serrors.List
	for i, h := range c {
		if err := h.Handle(ctx, alert, infos); err != nil {
			errs = append(errs, serrors.Wrap("handler failed", err, "index", i))
		}
	}
	return errs.ToError()
}

// MetricsHandler counts the documents that triggered an alert.
type MetricsHandler[T Source] struct {
	Triggered func(alert string) metrics.Counter
}

// Handle adds the number of documents to the counter of the alert.
func (h MetricsHandler[T]) Handle(_ context.Context, alert string, infos []T) error {
	if h.Triggered == nil {
		return nil
	}
	metrics.CounterAdd(h.Triggered(alert), float64(len(infos)))
	return nil
}

// Summarize renders the documents that triggered an alert as one line, for
// example to be passed to an external notifier.
func Summarize[T Source](alert string, infos []T) string {
	urls := make([]string, 0, len(infos))
	for _, i := range infos {
		urls = append(urls, i.SourceURL())
	}
	return fmt.Sprintf("%s: %v", alert, urls)
}
