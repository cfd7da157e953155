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

// Package observability provides monitoring, logging, and tracing
// capabilities for a library context and the providers loaded into it.
//
// # Overview
//
// This package enables comprehensive observability for the provider
// runtime through:
//   - Metrics collection (Prometheus)
//   - Structured logging
//   - Distributed tracing (OpenTelemetry)
//   - Readiness checks
//
// # Metrics
//
// Collect and expose metrics for monitoring:
//
//	collector := metrics.NewPrometheusCollector()
//	runtimeMetrics := metrics.NewRuntimeMetrics(collector)
//
//	// Record a fetch that resolved from the query cache
//	runtimeMetrics.RecordFetch("digest", true)
//
//	// Expose metrics
//	http.Handle("/metrics", collector.Handler())
//
// # Logging
//
// Structured logging with context propagation:
//
//	logger := logging.NewStructuredLogger(logging.LevelInfo)
//
//	ctx := logging.WithRequestID(ctx, "req-123")
//	logger.Info(ctx, "method constructed",
//	    logging.String("provider", "builtin"),
//	    logging.Int("method_id", 0x0101),
//	)
//
// # Tracing
//
// Distributed tracing with OpenTelemetry:
//
//	shutdown, _ := tracing.InitTracing(tracing.DefaultConfig())
//	defer shutdown(ctx)
//
//	ctx, span := tracing.StartSpan(ctx, "fetch.digest")
//	defer span.End()
//
// # Readiness Checks
//
// Aggregate the health of every loaded provider into one probe:
//
//	manager, _ := observability.NewManager(&observability.ManagerConfig{
//	    Name:   "libctx-default",
//	    Config: observability.DefaultConfig(),
//	})
//	manager.AddReadinessCheck(myProviderHealthCheck)
//
//	http.Handle("/", manager.HTTPHandler())
package observability
