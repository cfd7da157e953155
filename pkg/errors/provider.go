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

package errors

// Provider errors: surfaced with the provider identifier and reason code.
// Teardown errors are logged and swallowed by the caller (see
// observability/logging) rather than propagated — teardown must not abort.
var (
	// ErrProviderInitFailed indicates provider_init returned failure.
	ErrProviderInitFailed = &Error{
		Category: CategoryProvider,
		Code:     "PROVIDER_INIT_FAILED",
		Message:  "provider initialization failed",
	}

	// ErrProviderQueryFailed indicates query_operation returned failure.
	ErrProviderQueryFailed = &Error{
		Category: CategoryProvider,
		Code:     "PROVIDER_QUERY_FAILED",
		Message:  "provider query_operation failed",
	}

	// ErrProviderCircuitOpen indicates a provider's circuit breaker is
	// open and calls are being failed fast.
	ErrProviderCircuitOpen = &Error{
		Category: CategoryProvider,
		Code:     "PROVIDER_CIRCUIT_OPEN",
		Message:  "provider circuit breaker open",
	}
)

// WithProvider returns a copy of the error annotated with the reporting
// provider's name and an opaque reason code, per spec's "surfaced with a
// provider identifier and reason code" requirement.
func (e *Error) WithProvider(name string, reasonCode int) *Error {
	return e.WithDetail("provider", name).WithDetail("reason_code", reasonCode)
}
