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

// Package config provides configuration management for a library
// context's startup: which providers to register, the default
// selection query, and the ambient observability and admission-control
// settings. It never persists method-store or name-map state — that
// state always starts empty and is rebuilt by construction.
//
// The configuration system supports two sources, with the following
// precedence:
//  1. Environment variables (prefixed with CRYPTOPROV_)
//  2. Configuration file (YAML or JSON, read through viper)
//
// # Configuration Structure
//
// The configuration is organized into sections:
//   - Providers: the provider list to register at startup
//   - DefaultQuery: the fetch query used when a caller supplies none
//   - Construction: admission-control settings for method construction
//   - Logging: structured logging configuration
//   - Metrics: Prometheus metrics exposition
//   - Tracing: OpenTelemetry tracing configuration
//
// # Usage
//
// Loading configuration:
//
//	cfg, err := config.LoadFromFile("config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Environment variable override:
//
//	export CRYPTOPROV_DEFAULT_QUERY="provider=default"
//	export CRYPTOPROV_LOGGING_LEVEL="debug"
//	export CRYPTOPROV_METRICS_ENABLED="true"
//
// # Validation
//
// All configuration is validated before use. Validation rules include:
//   - Provider names must be non-empty and unique
//   - Construction rate/burst must be non-negative
//   - Logging level must be one of debug, info, warn, error
//   - Metrics port must be between 1 and 65535 when metrics are enabled
//
// See the Config.Validate() method for complete validation rules.
package config
