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

// Package errors provides structured error handling for the provider
// runtime.
//
// The package defines a comprehensive error system with:
//
//   - Categorized errors for different domains
//   - Rich error context with details
//   - Standard Go error wrapping support
//   - Type-safe error checking
//
// # Error Categories
//
// Errors are organized into the categories the runtime's error taxonomy
// names:
//
//   - NotFound: no implementation matches (op, name, query)
//   - Incomplete: a dispatch table fails the completeness rule
//   - Exhaustion: allocation failure
//   - Misuse: an operation was invoked in the wrong state
//   - Config: a malformed property string or unknown required parameter
//   - Provider: a provider-reported failure
//   - Internal: anything else
//
// # Creating Errors
//
// Use predefined errors:
//
//	err := errors.ErrNotFound.WithDetail("method_id", id)
//
// Or create custom errors:
//
//	err := errors.New(
//	    errors.CategoryConfig,
//	    "CUSTOM_ERROR",
//	    "custom error message",
//	)
//
// # Wrapping Errors
//
// Wrap errors to add context:
//
//	if err := parseQuery(q); err != nil {
//	    return errors.ErrInvalidProperty.
//	        WithMessage("query parse failed").
//	        Wrap(err)
//	}
//
// # Error Checking
//
// Check error types using standard Go patterns:
//
//	// Check if error matches a specific type
//	if errors.Is(err, errors.ErrNotFound) {
//	    // handle not found
//	}
//
//	// Extract error details
//	var provErr *errors.Error
//	if errors.As(err, &provErr) {
//	    log.Printf("Code: %s, Details: %v", provErr.Code, provErr.Details)
//	}
package errors
