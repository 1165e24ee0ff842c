// Copyright 2017 ETH Zurich
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

// Package prom contains label names, label values and small helpers shared by
// the prometheus metrics of tlsync.
package prom

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the prometheus namespace of all tlsync metrics.
const Namespace = "tlsync"

// Common label names.
const (
	// LabelResult is the label for result classifications.
	LabelResult = "result"
	// LabelMode is the refresh mode (offline|online).
	LabelMode = "mode"
	// LabelKind is the document kind (lotl|tl|pivot).
	LabelKind = "kind"
	// LabelStage is the analysis stage of a result.
	LabelStage = "stage"
	// LabelAlert is the name of an alert.
	LabelAlert = "alert"
)

// Common result values.
const (
	// Success is no error.
	Success = "ok_success"
	// Cached means the work was skipped because the cached result is current.
	Cached = "ok_cached"
	// ErrDB is used for db related errors.
	ErrDB = "err_db"
	// ErrInternal is an internal error.
	ErrInternal = "err_internal"
	// ErrNotClassified is an error that is not further classified.
	ErrNotClassified = "err_not_classified"
	// ErrParse is used when a document failed to parse.
	ErrParse = "err_parse"
	// ErrTimeout is a timeout error.
	ErrTimeout = "err_timeout"
	// ErrValidate is used for validation related errors.
	ErrValidate = "err_validate"
	// ErrVerify is used for signature verification errors.
	ErrVerify = "err_verify"
	// ErrNetwork is used for errors when fetching something over the network.
	ErrNetwork = "err_network"
	// ErrNotFound is used for errors where a resource is not found.
	ErrNotFound = "err_not_found"
	// ErrConfig is used when the configuration is rejected.
	ErrConfig = "err_config"
)

var (
	// DefaultLatencyBuckets 10ms, 20ms, 40ms, ... 5.12s, 10.24s.
	DefaultLatencyBuckets = []float64{0.01, 0.02, 0.04, 0.08, 0.16, 0.32, 0.64,
		1.28, 2.56, 5.12, 10.24}
	// CycleBuckets 1s, 2s, 4s, ... 256s, 512s.
	CycleBuckets = prometheus.ExponentialBuckets(1, 2, 10)
)

// ExportElementID exports the element ID as configured in the config file.
func ExportElementID(reg prometheus.Registerer, id string) {
	g := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "elem_id",
			Help:      "The element ID from the config file",
		},
		[]string{"cfg"},
	)
	SafeRegister(reg, g).(*prometheus.GaugeVec).WithLabelValues(id).Set(1)
}

// SafeRegister registers c with reg and returns the registered collector. If
// an equal collector was already registered, that one is returned. Any other
// error panics.
func SafeRegister(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

// ErrorResult classifies err as a timeout or falls back to def.
func ErrorResult(err error, def string) string {
	if err == nil {
		return Success
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return ErrTimeout
	}
	return def
}
