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

// Package metrics contains small interfaces over prometheus metrics so that
// components can be handed a metric, a test fake or nothing at all.
//
// All helper functions in this package accept nil metrics and do nothing in
// that case, so optional metrics never need to be checked by the caller.
package metrics

// Counter is satisfied by prometheus.Counter and by TestCounter.
type Counter interface {
	Add(float64)
}

// Gauge is satisfied by prometheus.Gauge and by TestGauge.
type Gauge interface {
	Set(float64)
	Add(float64)
}

// Histogram is satisfied by prometheus.Observer and by TestHistogram.
type Histogram interface {
	Observe(float64)
}

// CounterInc increases c by one.
func CounterInc(c Counter) {
	if c != nil {
		c.Add(1)
	}
}

// CounterAdd increases c by v.
func CounterAdd(c Counter, v float64) {
	if c != nil {
		c.Add(v)
	}
}

// GaugeSet sets g to v.
func GaugeSet(g Gauge, v float64) {
	if g != nil {
		g.Set(v)
	}
}

// GaugeAdd adds v to g.
func GaugeAdd(g Gauge, v float64) {
	if g != nil {
		g.Add(v)
	}
}

// HistogramObserve records v in h.
func HistogramObserve(h Histogram, v float64) {
	if h != nil {
		h.Observe(v)
	}
}
