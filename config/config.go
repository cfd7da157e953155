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

package config

// Config represents the complete configuration for a library context: the
// providers to load at startup, the default selection query, and the
// ambient observability and admission-control settings. None of this
// describes method-store or name-map state — that state is rebuilt from
// scratch by construction every time a library context starts.
type Config struct {
	Providers    []ProviderConfig   `json:"providers" yaml:"providers" mapstructure:"providers"`
	DefaultQuery string             `json:"default_query" yaml:"default_query" mapstructure:"default_query"`
	Construction ConstructionConfig `json:"construction" yaml:"construction" mapstructure:"construction"`
	Logging      LoggingConfig      `json:"logging" yaml:"logging" mapstructure:"logging"`
	Metrics      MetricsConfig      `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
	Tracing      TracingConfig      `json:"tracing" yaml:"tracing" mapstructure:"tracing"`
}

// ProviderConfig describes one provider to register in the library
// context at startup.
type ProviderConfig struct {
	// Name selects the factory libctx.NewFromConfig calls to build the
	// provider. It is not added as a property atom to the provider's
	// implementations.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Priority breaks ties between implementations with otherwise equal
	// property-match scores; higher wins.
	Priority int `json:"priority" yaml:"priority" mapstructure:"priority"`

	// Query is not read by libctx.NewFromConfig; implementations are
	// scored only against the property definitions their provider
	// advertises.
	Query string `json:"query" yaml:"query" mapstructure:"query"`
}

// ConstructionConfig controls the admission limiter guarding concurrent
// method construction (the provider walk that builds and promotes an
// implementation record), independent of correctness — see singleflight-based
// construction dedup in package construct.
type ConstructionConfig struct {
	// RatePerSecond is the steady-state admission rate. Zero disables
	// throttling entirely.
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second" mapstructure:"rate_per_second"`

	// Burst is the token bucket capacity.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`

	// DistributedAddr, when set, points construction admission at a
	// shared Redis-backed limiter instead of an in-process one — used
	// when multiple library context processes share an admission
	// budget against the same provider pool.
	DistributedAddr string `json:"distributed_addr" yaml:"distributed_addr" mapstructure:"distributed_addr"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level      string `json:"level" yaml:"level" mapstructure:"level"` // "debug", "info", "warn", "error"
	Format     string `json:"format" yaml:"format" mapstructure:"format"` // "json", "console"
	OutputPath string `json:"output_path" yaml:"output_path" mapstructure:"output_path"`
}

// MetricsConfig contains metrics and monitoring configuration.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Port    int    `json:"port" yaml:"port" mapstructure:"port"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	Enabled     bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Endpoint    string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName string `json:"service_name" yaml:"service_name" mapstructure:"service_name"`
}

// DefaultConfig returns a configuration with default values: a single
// unconstrained default-query fetch with no registered providers,
// moderate construction admission, and structured logging to stdout.
func DefaultConfig() *Config {
	return &Config{
		Providers:    nil,
		DefaultQuery: "",
		Construction: ConstructionConfig{
			RatePerSecond: 50,
			Burst:         10,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "cryptoprov",
		},
	}
}

// NewConfig creates a new default configuration.
// This is an alias for DefaultConfig().
func NewConfig() *Config {
	return DefaultConfig()
}
