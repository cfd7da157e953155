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

// Incomplete-implementation errors: a dispatch table did not satisfy the
// completeness rule for its operation kind.
var (
	// ErrIncompleteDispatch indicates a dispatch table failed the
	// completeness rule for its operation kind.
	ErrIncompleteDispatch = &Error{
		Category: CategoryIncomplete,
		Code:     "INCOMPLETE_DISPATCH",
		Message:  "dispatch table does not satisfy the completeness rule",
	}

	// ErrMissingFunction indicates a required function id slot is absent.
	ErrMissingFunction = &Error{
		Category: CategoryIncomplete,
		Code:     "MISSING_FUNCTION",
		Message:  "required function id is missing from dispatch table",
	}
)
