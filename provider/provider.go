// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package provider defines the boundary between the runtime and the
// external modules that supply algorithm implementations: the Provider
// interface providers implement, and Handle, the refcounted wrapper the
// runtime holds one of per registered provider.
package provider

import (
	"sync/atomic"

	"github.com/sage-x-project/cryptoprov/dispatch"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
)

// Algorithm is one entry of a provider's per-operation algorithm table:
// a name string (colon-separated aliases, canonical first), the
// dispatch table backing it, and the property definition describing
// what the implementation provides. NoStore signals that constructed
// records for this algorithm must never be promoted into the default
// method store or its query cache (e.g. an implementation bound to
// per-call state that cannot be shared).
type Algorithm struct {
	NameString string
	Dispatch   dispatch.Table
	Properties string
	NoStore    bool
}

// Params is a get/set parameter bag exchanged with a provider. The
// native provider ABI models parameters as a zero-terminated {key,
// type, data, len} array; the Go binding collapses that to a map, since
// Go's type system makes the tagged-union encoding unnecessary at this
// boundary.
type Params map[string]interface{}

// Provider is the interface an external module implements to supply
// algorithm tables. The runtime never calls these methods directly;
// all provider interaction is mediated through a Handle so the
// runtime's refcounting discipline applies uniformly.
type Provider interface {
	// Name is the provider's identifier, used in property default
	// definitions, priority ordering, and diagnostics.
	Name() string
	// QueryOperation returns the algorithm table for op, or nil if the
	// provider offers nothing for that operation.
	QueryOperation(op ids.OperationID) ([]Algorithm, error)
	// GetParams reads provider-level parameters (e.g. version, build
	// info). Unknown keys are silently skipped.
	GetParams(out Params) error
	// Teardown releases provider-held resources. Teardown errors are
	// logged and swallowed by the caller; teardown must not abort the
	// library context's shutdown.
	Teardown() error
}

// TeardownHook is notified when a provider's Teardown callback reports
// failure. Teardown errors are logged and swallowed; this is how the
// caller that swallows them still gets to log and count them.
type TeardownHook func(providerName string, err error)

// Handle is the runtime's refcounted wrapper around a registered
// Provider. Every implementation record carries a back-reference to
// the Handle that produced it; the provider is only torn down once its
// last implementation record is freed.
type Handle struct {
	provider   Provider
	priority   int
	refcount   int32
	onTeardown TeardownHook
}

// NewHandle wraps p with an initial reference count of 1, owned by the
// caller (typically the library context that just registered p).
func NewHandle(p Provider, priority int) *Handle {
	return &Handle{provider: p, priority: priority, refcount: 1}
}

// SetTeardownHook installs fn to run if this handle's Teardown call
// reports an error. Must be called before the handle is shared across
// goroutines (typically right after NewHandle, before the library
// context publishes it).
func (h *Handle) SetTeardownHook(fn TeardownHook) {
	h.onTeardown = fn
}

// Name returns the wrapped provider's name.
func (h *Handle) Name() string {
	return h.provider.Name()
}

// Priority is this provider's tie-break weight: higher wins ties in
// property-based selection.
func (h *Handle) Priority() int {
	return h.priority
}

// Provider returns the wrapped Provider value.
func (h *Handle) Provider() Provider {
	return h.provider
}

// QueryOperation delegates to the wrapped provider.
func (h *Handle) QueryOperation(op ids.OperationID) ([]Algorithm, error) {
	return h.provider.QueryOperation(op)
}

// Up increments the reference count and returns h, for chaining at call
// sites that hand the same handle to multiple owners.
func (h *Handle) Up() *Handle {
	atomic.AddInt32(&h.refcount, 1)
	return h
}

// Free decrements the reference count, tearing the provider down when
// it reaches zero. A teardown error is reported to the installed
// TeardownHook, if any, but otherwise swallowed: teardown must not
// abort a caller's cleanup path.
func (h *Handle) Free() {
	if atomic.AddInt32(&h.refcount, -1) == 0 {
		if err := h.provider.Teardown(); err != nil && h.onTeardown != nil {
			h.onTeardown(h.provider.Name(), err)
		}
	}
}

// RefCount reports the current reference count, for tests and
// diagnostics.
func (h *Handle) RefCount() int32 {
	return atomic.LoadInt32(&h.refcount)
}
