// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package metrics

import "fmt"

// RuntimeMetrics tracks the provider runtime's own health: how often a
// fetch resolves from the query cache versus walks the candidate list,
// how long construction takes, and how often a provider's teardown
// callback reports failure.
type RuntimeMetrics struct {
	collector Collector
}

// NewRuntimeMetrics wraps a Collector with provider-runtime-specific
// recording helpers.
func NewRuntimeMetrics(collector Collector) *RuntimeMetrics {
	return &RuntimeMetrics{collector: collector}
}

// RecordFetch records a single fetch call for an operation kind, noting
// whether it resolved from the query cache.
func (m *RuntimeMetrics) RecordFetch(operation string, cacheHit bool) {
	status := "miss"
	if cacheHit {
		status = "hit"
	}
	m.collector.IncrementCounter("fetch_total", Labels{
		"operation": operation,
		"cache":     status,
	})
}

// RecordConstruction records how long a method construction (provider
// enumeration through promotion into the default store) took, and
// whether it succeeded.
func (m *RuntimeMetrics) RecordConstruction(operation string, seconds float64, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.collector.ObserveHistogram("construction_duration_seconds", seconds, Labels{
		"operation": operation,
		"result":    result,
	})
}

// RecordConstructionThrottled records an admission-control rejection of
// a construction attempt for a method id.
func (m *RuntimeMetrics) RecordConstructionThrottled(methodID uint32) {
	m.collector.IncrementCounter("construction_throttled_total", Labels{
		"method_id": fmt.Sprintf("%d", methodID),
	})
}

// RecordTeardownError records a provider's teardown callback reporting
// failure. Teardown errors are logged and swallowed by the caller, but
// still worth tracking as a signal of a misbehaving provider.
func (m *RuntimeMetrics) RecordTeardownError(provider string) {
	m.collector.IncrementCounter("provider_teardown_errors_total", Labels{
		"provider": provider,
	})
}

// SetMethodStoreSize records the current number of resolved
// implementation records held in the method store's query cache.
func (m *RuntimeMetrics) SetMethodStoreSize(size int) {
	m.collector.SetGauge("method_store_cache_size", float64(size), NoLabels())
}

// Collector returns the underlying Collector, so a caller can expose it
// through its own HTTP handler without recording through a second,
// disconnected collector instance.
func (m *RuntimeMetrics) Collector() Collector {
	return m.collector
}
