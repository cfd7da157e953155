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
	"fmt"
)

// Validate validates the entire configuration.
func (c *Config) Validate() error {
	if err := c.validateProviders(); err != nil {
		return err
	}

	if err := c.validateConstruction(); err != nil {
		return err
	}

	if err := c.validateLogging(); err != nil {
		return err
	}

	if err := c.validateMetrics(); err != nil {
		return err
	}

	return nil
}

// validateProviders validates the provider list.
func (c *Config) validateProviders() error {
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.Name == "" {
			return fmt.Errorf("provider name must not be empty")
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate provider name: %s", p.Name)
		}
		seen[p.Name] = true
	}

	return nil
}

// validateConstruction validates construction admission settings.
func (c *Config) validateConstruction() error {
	if c.Construction.RatePerSecond < 0 {
		return fmt.Errorf("construction rate_per_second must not be negative")
	}

	if c.Construction.Burst < 0 {
		return fmt.Errorf("construction burst must not be negative")
	}

	if c.Construction.RatePerSecond > 0 && c.Construction.Burst == 0 {
		return fmt.Errorf("construction burst must be positive when rate_per_second is set")
	}

	return nil
}

// validateLogging validates logging configuration.
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging format must be one of: json, console")
	}

	return nil
}

// validateMetrics validates metrics configuration.
func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics port must be between 1 and 65535")
	}

	if c.Metrics.Path == "" {
		return fmt.Errorf("metrics path must not be empty")
	}

	return nil
}
