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

// Protocol-misuse errors: an operation was invoked in the wrong lifecycle
// state.
var (
	// ErrNotInitialized indicates update/final was called on a context
	// that never saw init.
	ErrNotInitialized = &Error{
		Category: CategoryMisuse,
		Code:     "NOT_INITIALIZED",
		Message:  "operation invoked before init",
	}

	// ErrNoPeerKey indicates derive was called before set_peer.
	ErrNoPeerKey = &Error{
		Category: CategoryMisuse,
		Code:     "NO_PEER_KEY",
		Message:  "derive called before set_peer",
	}

	// ErrBufferTooSmall indicates the caller's output buffer cannot hold
	// the result.
	ErrBufferTooSmall = &Error{
		Category: CategoryMisuse,
		Code:     "BUFFER_TOO_SMALL",
		Message:  "output buffer too small",
	}

	// ErrAlreadyFinal indicates a one-shot operation was invoked twice on
	// the same context without an intervening reset.
	ErrAlreadyFinal = &Error{
		Category: CategoryMisuse,
		Code:     "ALREADY_FINAL",
		Message:  "context already finalized",
	}

	// ErrDomainParamsMismatch indicates a keymgmt call received domain
	// parameters or a key produced by a different Manager (a different
	// provider or algorithm record) than the one invoked. The source
	// spec leaves mixing providers undefined; this runtime rejects it.
	ErrDomainParamsMismatch = &Error{
		Category: CategoryMisuse,
		Code:     "DOMAIN_PARAMS_MISMATCH",
		Message:  "domain parameters or key belong to a different implementation",
	}
)
