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

package observability

import (
	"context"
	"net/http"

	"github.com/sage-x-project/cryptoprov/observability/health"
	"github.com/sage-x-project/cryptoprov/observability/logging"
	"github.com/sage-x-project/cryptoprov/observability/metrics"
)

// Manager wires together the logger, metrics collector and readiness
// checks a library context exposes for its lifetime.
type Manager struct {
	logger           logging.Logger
	collector        metrics.Collector
	runtimeMetrics   *metrics.RuntimeMetrics
	readinessChecker *health.ReadinessChecker
}

// ManagerConfig configures the observability manager.
type ManagerConfig struct {
	// Name identifies the library context instance in logs and traces.
	Name string

	// Config is the observability configuration.
	Config *Config
}

// NewManager creates a new observability manager.
//
// Example:
//
//	manager, err := observability.NewManager(&observability.ManagerConfig{
//	    Name:   "libctx-default",
//	    Config: observability.DefaultConfig(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer manager.Shutdown(context.Background())
func NewManager(cfg *ManagerConfig) (*Manager, error) {
	if err := cfg.Config.Validate(); err != nil {
		return nil, err
	}

	logger := logging.NewStructuredLogger(logging.Level(cfg.Config.Logging.Level))
	logger.SetSamplingRate(cfg.Config.Logging.SamplingRate)
	logger = logger.With(logging.String("component", cfg.Name)).(*logging.StructuredLogger)

	collector := metrics.NewPrometheusCollector()
	runtimeMetrics := metrics.NewRuntimeMetrics(collector)
	readinessChecker := health.NewReadinessChecker()

	return &Manager{
		logger:           logger,
		collector:        collector,
		runtimeMetrics:   runtimeMetrics,
		readinessChecker: readinessChecker,
	}, nil
}

// NewManagerFromComponents builds a Manager around components a caller
// already constructed and is recording through — e.g. a library
// context's own RuntimeMetrics and logger — rather than standing up a
// second, disconnected Prometheus registry. This is the constructor
// libctx.NewFromConfig uses: the counters construct and the library
// context's teardown hook record through are the same ones /metrics serves.
func NewManagerFromComponents(logger logging.Logger, runtimeMetrics *metrics.RuntimeMetrics, readinessChecker *health.ReadinessChecker) *Manager {
	return &Manager{
		logger:           logger,
		collector:        runtimeMetrics.Collector(),
		runtimeMetrics:   runtimeMetrics,
		readinessChecker: readinessChecker,
	}
}

// Logger returns the logger.
func (m *Manager) Logger() logging.Logger {
	return m.logger
}

// Collector returns the metrics collector.
func (m *Manager) Collector() metrics.Collector {
	return m.collector
}

// RuntimeMetrics returns the provider-runtime metrics recorder.
func (m *Manager) RuntimeMetrics() *metrics.RuntimeMetrics {
	return m.runtimeMetrics
}

// ReadinessChecker returns the readiness checker.
func (m *Manager) ReadinessChecker() *health.ReadinessChecker {
	return m.readinessChecker
}

// AddReadinessCheck registers a dependency (e.g. a provider module's own
// health probe) with the readiness checker.
func (m *Manager) AddReadinessCheck(checker health.Checker) {
	m.readinessChecker.AddCheck(checker)
}

// HTTPHandler returns an http.Handler for exposing observability endpoints.
//
// It mounts the following endpoints:
//   - /metrics - Prometheus metrics
//   - /health/ready - Readiness probe, reflecting every check registered
//     through AddReadinessCheck
func (m *Manager) HTTPHandler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/metrics", m.collector.Handler())

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		result := m.readinessChecker.Check(r.Context())
		if result.IsHealthy() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		w.Write([]byte(string(result.Status)))
	})

	return mux
}

// Shutdown gracefully shuts down the observability manager.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info(ctx, "shutting down observability manager")
	return nil
}
