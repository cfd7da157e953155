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

// Configuration errors: malformed property strings, unknown parameter
// keys marked required, or invalid runtime configuration.
var (
	// ErrInvalidProperty indicates a malformed property definition or
	// query string.
	ErrInvalidProperty = &Error{
		Category: CategoryConfig,
		Code:     "INVALID_PROPERTY",
		Message:  "malformed property string",
	}

	// ErrUnknownParam indicates a parameter key marked required was not
	// supplied or was not recognized.
	ErrUnknownParam = &Error{
		Category: CategoryConfig,
		Code:     "UNKNOWN_PARAM",
		Message:  "unknown or missing required parameter",
	}

	// ErrInvalidConfig indicates the runtime configuration itself failed
	// validation.
	ErrInvalidConfig = &Error{
		Category: CategoryConfig,
		Code:     "INVALID_CONFIG",
		Message:  "invalid runtime configuration",
	}
)
