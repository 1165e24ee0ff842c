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

// Package alert evaluates conditions over the summary of a refresh cycle and
// invokes side-effecting handlers for those that hold.
package alert

import (
	"context"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/private/tl/summary"
)

// Alert is a condition over a summary with a handler.
type Alert interface {
	// Name identifies the alert in logs and metrics.
	Name() string
	// Detect reports whether the alert is triggered. It must not have side
	// effects.
	Detect(s *summary.Summary) bool
	// Handle is invoked once per cycle in which the alert is triggered.
	Handle(ctx context.Context, s *summary.Summary) error
}

// Evaluate runs every alert over s and invokes the handler of each triggered
// alert exactly once. Handler errors and panics are logged and do not stop
// the evaluation of the remaining alerts. The names of the triggered alerts
// are returned.
func Evaluate(ctx context.Context, s *summary.Summary, alerts []Alert) []string {
	logger := log.FromCtx(ctx)
	var fired []string
	for _, a := range alerts {
		triggered, err := detect(a, s)
		if err != nil {
			logger.Error("Alert detection failed", "alert", a.Name(), "err", err)
			continue
		}
		if !triggered {
			continue
		}
		fired = append(fired, a.Name())
		if err := handle(ctx, a, s); err != nil {
			logger.Error("Alert handler failed", "alert", a.Name(), "err", err)
		}
	}
	return fired
}

func detect(a Alert, s *summary.Summary) (triggered bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = serrors.New("recovered from panic", "value", r)
		}
	}()
	return a.Detect(s), nil
}

func handle(ctx context.Context, a Alert, s *summary.Summary) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = serrors.New("recovered from panic", "value", r)
		}
	}()
	return a.Handle(ctx, s)
}

// Select returns the alerts whose name is listed in names, in the order of
// alerts. An empty list selects all of them.
func Select(alerts []Alert, names []string) []Alert {
	if len(names) == 0 {
		return alerts
	}
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	var sel []Alert
	for _, a := range alerts {
		if _, ok := set[a.Name()]; ok {
			sel = append(sel, a)
		}
	}
	return sel
}

// Names returns the names of the predefined alerts.
func Names() []string {
	var names []string
	for _, a := range DefaultLOTLAlerts(nil) {
		names = append(names, a.Name())
	}
	for _, a := range DefaultTLAlerts(nil, nil) {
		names = append(names, a.Name())
	}
	return names
}
