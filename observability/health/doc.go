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

// Package health provides readiness checks for the providers loaded
// into a library context.
//
// # Overview
//
// A provider's own resources (an HSM session, a network-backed key
// store) can go unhealthy independently of the process that loaded it.
// This package lets a provider module register a Checker that the
// library context's readiness probe aggregates.
//
// # Readiness Probe
//
// Indicates whether every registered dependency is reachable:
//
//	readiness := health.NewReadinessChecker(
//	    myHSMHealthCheck,
//	    myKeyStoreHealthCheck,
//	)
//	result := readiness.Check(ctx)
//
// Reports degraded if any sub-check degrades, unhealthy if any
// sub-check fails outright.
//
// # Custom Health Checks
//
// Implement the Checker interface for custom checks:
//
//	type CustomCheck struct{}
//
//	func (c *CustomCheck) Name() string {
//	    return "custom"
//	}
//
//	func (c *CustomCheck) Check(ctx context.Context) health.CheckResult {
//	    return health.CheckResult{
//	        Name:   c.Name(),
//	        Status: health.StatusHealthy,
//	    }
//	}
package health
