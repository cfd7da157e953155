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

func TestConfig_Validate_ManyProviders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers = []ProviderConfig{
		{Name: "builtin", Priority: 100, Query: "fips=no"},
		{Name: "hsm", Priority: 200, Query: "fips=yes"},
		{Name: "software-fallback", Priority: 0, Query: ""},
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestConfig_Validate_TracingUnaffectedByDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tracing = TracingConfig{Enabled: false}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for disabled tracing", err)
	}
}

func TestConfig_Validate_ZeroConstructionDisablesThrottle(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Construction = ConstructionConfig{RatePerSecond: 0, Burst: 0}

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil when throttling is disabled", err)
	}
}

func TestConfig_Validate_DistributedAddrOptional(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Construction.DistributedAddr = "redis://localhost:6379/0"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil with a distributed addr set", err)
	}
}

func TestConfig_Validate_EmptyProviderListIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers = nil

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil for an empty provider list", err)
	}
}
