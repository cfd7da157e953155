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

import (
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig() should not return nil")
	}

	if cfg.Construction.RatePerSecond == 0 {
		t.Error("Construction.RatePerSecond should have default value")
	}

	if cfg.Construction.Burst == 0 {
		t.Error("Construction.Burst should have default value")
	}

	if cfg.Logging.Level == "" {
		t.Error("Logging.Level should have default value")
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for default config", err)
	}
}

func TestConfig_Validate_Providers(t *testing.T) {
	tests := []struct {
		name      string
		providers []ProviderConfig
		wantErr   bool
	}{
		{
			name: "valid providers",
			providers: []ProviderConfig{
				{Name: "builtin", Priority: 100},
				{Name: "hsm", Priority: 200},
			},
			wantErr: false,
		},
		{
			name: "empty provider name",
			providers: []ProviderConfig{
				{Name: ""},
			},
			wantErr: true,
		},
		{
			name: "duplicate provider name",
			providers: []ProviderConfig{
				{Name: "builtin"},
				{Name: "builtin"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Providers = tt.providers

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Construction(t *testing.T) {
	tests := []struct {
		name         string
		construction ConstructionConfig
		wantErr      bool
	}{
		{
			name:         "valid construction",
			construction: ConstructionConfig{RatePerSecond: 50, Burst: 10},
			wantErr:      false,
		},
		{
			name:         "disabled throttling",
			construction: ConstructionConfig{RatePerSecond: 0, Burst: 0},
			wantErr:      false,
		},
		{
			name:         "negative rate",
			construction: ConstructionConfig{RatePerSecond: -1, Burst: 10},
			wantErr:      true,
		},
		{
			name:         "negative burst",
			construction: ConstructionConfig{RatePerSecond: 10, Burst: -1},
			wantErr:      true,
		},
		{
			name:         "rate without burst",
			construction: ConstructionConfig{RatePerSecond: 10, Burst: 0},
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Construction = tt.construction

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Logging(t *testing.T) {
	tests := []struct {
		name    string
		logging LoggingConfig
		wantErr bool
	}{
		{
			name:    "valid debug level",
			logging: LoggingConfig{Level: "debug", Format: "json"},
			wantErr: false,
		},
		{
			name:    "valid console format",
			logging: LoggingConfig{Level: "info", Format: "console"},
			wantErr: false,
		},
		{
			name:    "invalid level",
			logging: LoggingConfig{Level: "verbose", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			logging: LoggingConfig{Level: "info", Format: "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Logging = tt.logging

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Validate_Metrics(t *testing.T) {
	tests := []struct {
		name    string
		metrics MetricsConfig
		wantErr bool
	}{
		{
			name:    "disabled metrics skip validation",
			metrics: MetricsConfig{Enabled: false, Port: 0},
			wantErr: false,
		},
		{
			name:    "valid enabled metrics",
			metrics: MetricsConfig{Enabled: true, Port: 9090, Path: "/metrics"},
			wantErr: false,
		},
		{
			name:    "invalid port",
			metrics: MetricsConfig{Enabled: true, Port: 0, Path: "/metrics"},
			wantErr: true,
		},
		{
			name:    "empty path",
			metrics: MetricsConfig{Enabled: true, Port: 9090, Path: ""},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Metrics = tt.metrics

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
