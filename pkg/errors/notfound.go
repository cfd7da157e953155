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

// Not-found errors: fetch misses are recoverable, the caller may retry
// with different properties.
var (
	// ErrNotFound indicates no implementation matched (op, name, query).
	ErrNotFound = &Error{
		Category: CategoryNotFound,
		Code:     "NOT_FOUND",
		Message:  "no implementation matches the requested operation, name and query",
	}

	// ErrProviderNotRegistered indicates no provider is registered in the
	// library context.
	ErrProviderNotRegistered = &Error{
		Category: CategoryNotFound,
		Code:     "PROVIDER_NOT_REGISTERED",
		Message:  "provider not registered",
	}
)
