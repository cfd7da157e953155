// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package digest implements the digest algorithm context envelope:
// new/init/update/final lifecycle, one-shot digest, dup, reset,
// and size/block-size accessors, decoded from a provider's dispatch
// table by FromDispatch.
package digest

import (
	"context"

	"github.com/sage-x-project/cryptoprov/dispatch"
	"github.com/sage-x-project/cryptoprov/fetch"
	pkgerrors "github.com/sage-x-project/cryptoprov/pkg/errors"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/provider"
	"github.com/sage-x-project/cryptoprov/store"
)

// Provider-supplied function types, decoded out of a dispatch.Table by
// FromDispatch and type-asserted from the table's untyped Function
// field.
type (
	NewCtxFunc       func() (interface{}, error)
	InitFunc         func(state interface{}, params provider.Params) error
	UpdateFunc       func(state interface{}, data []byte) error
	FinalFunc        func(state interface{}, out []byte) (int, error)
	OneShotFunc      func(data, out []byte) (int, error)
	FreeCtxFunc      func(state interface{})
	DupCtxFunc       func(state interface{}) (interface{}, error)
	SizeFunc         func() int
	BlockSizeFunc    func() int
	SetCtxParamsFunc func(state interface{}, params provider.Params) error
	GetCtxParamsFunc func(state interface{}, params provider.Params) error
)

// VTable is the decoded, typed function table for one digest
// algorithm. Fields absent from the provider's dispatch table are nil.
type VTable struct {
	NewCtx       NewCtxFunc
	Init         InitFunc
	Update       UpdateFunc
	Final        FinalFunc
	OneShot      OneShotFunc
	FreeCtx      FreeCtxFunc
	DupCtx       DupCtxFunc
	Size         SizeFunc
	BlockSize    BlockSizeFunc
	SetCtxParams SetCtxParamsFunc
	GetCtxParams GetCtxParamsFunc
}

// FromDispatch decodes table into a VTable and enforces the digest
// completeness rule: either the full {new, init, update, final, free}
// set is present, or the single-shot digest slot is present; size is
// mandatory in both cases.
func FromDispatch(prov *provider.Handle, name string, legacyID int, table dispatch.Table) (*store.Record, error) {
	vt := &VTable{}

	if fn, ok := table.Get(dispatch.DigestNewCtx); ok {
		vt.NewCtx, _ = fn.(NewCtxFunc)
	}
	if fn, ok := table.Get(dispatch.DigestInit); ok {
		vt.Init, _ = fn.(InitFunc)
	}
	if fn, ok := table.Get(dispatch.DigestUpdate); ok {
		vt.Update, _ = fn.(UpdateFunc)
	}
	if fn, ok := table.Get(dispatch.DigestFinal); ok {
		vt.Final, _ = fn.(FinalFunc)
	}
	if fn, ok := table.Get(dispatch.DigestDigest); ok {
		vt.OneShot, _ = fn.(OneShotFunc)
	}
	if fn, ok := table.Get(dispatch.DigestFreeCtx); ok {
		vt.FreeCtx, _ = fn.(FreeCtxFunc)
	}
	if fn, ok := table.Get(dispatch.DigestDupCtx); ok {
		vt.DupCtx, _ = fn.(DupCtxFunc)
	}
	if fn, ok := table.Get(dispatch.DigestSize); ok {
		vt.Size, _ = fn.(SizeFunc)
	}
	if fn, ok := table.Get(dispatch.DigestBlockSize); ok {
		vt.BlockSize, _ = fn.(BlockSizeFunc)
	}
	if fn, ok := table.Get(dispatch.DigestSetCtxParams); ok {
		vt.SetCtxParams, _ = fn.(SetCtxParamsFunc)
	}
	if fn, ok := table.Get(dispatch.DigestGetCtxParams); ok {
		vt.GetCtxParams, _ = fn.(GetCtxParamsFunc)
	}

	full := vt.NewCtx != nil && vt.Init != nil && vt.Update != nil && vt.Final != nil && vt.FreeCtx != nil
	if !full && vt.OneShot == nil {
		return nil, pkgerrors.ErrIncompleteDispatch.WithDetail("name", name)
	}
	if vt.Size == nil {
		return nil, pkgerrors.ErrMissingFunction.WithDetail("name", name).WithDetail("slot", "size")
	}

	prov.Up()
	return store.NewRecord(0, name, legacyID, prov, nil, vt, nil), nil
}

// Fetch resolves name to a digest implementation record via the
// library context's fetch path.
func Fetch(ctx context.Context, lib fetch.Library, name, queryString string) (*store.Record, error) {
	return fetch.Fetch(ctx, lib, ids.OpDigest, name, queryString, FromDispatch)
}

// Context is the digest algorithm context envelope: new → init →
// update* → final, or the one-shot path.
type Context struct {
	rec     *store.Record
	vt      *VTable
	state   interface{}
	started bool
	final   bool
}

// New allocates a context bound to rec, taking a reference to it. The
// context owns that reference until Free or Reset releases it.
func New(rec *store.Record) (*Context, error) {
	vt, ok := rec.Up().Impl.(*VTable)
	if !ok {
		rec.Free()
		return nil, pkgerrors.New(pkgerrors.CategoryInternal, "WRONG_IMPL_TYPE", "record does not carry a digest vtable")
	}
	return &Context{rec: rec, vt: vt}, nil
}

// Init (re)initializes the context. Re-init on a finalized context is
// legal. If the context is already bound to this same implementation
// and has no per-context state attached yet, init may be called
// directly without tearing the envelope down first (the
// re-initialization fast path).
func (c *Context) Init(params provider.Params) error {
	if c.vt.Init == nil {
		c.started = true
		c.final = false
		return nil // one-shot-only implementations have nothing to (re)init
	}
	if c.state == nil {
		state, err := c.vt.NewCtx()
		if err != nil {
			return err
		}
		c.state = state
	}
	if err := c.vt.Init(c.state, params); err != nil {
		return err
	}
	c.started = true
	c.final = false
	return nil
}

// Update feeds data into the digest. Calling Update before Init fails.
func (c *Context) Update(data []byte) error {
	if !c.started {
		return pkgerrors.ErrNotInitialized
	}
	if c.final {
		return pkgerrors.ErrAlreadyFinal
	}
	if c.vt.Update == nil {
		return pkgerrors.New(pkgerrors.CategoryMisuse, "NO_STREAMING", "implementation only supports one-shot digest")
	}
	return c.vt.Update(c.state, data)
}

// Final computes the digest into out, which must be at least Size()
// bytes, and marks the context finalized.
func (c *Context) Final(out []byte) (int, error) {
	if !c.started {
		return 0, pkgerrors.ErrNotInitialized
	}
	if c.final {
		return 0, pkgerrors.ErrAlreadyFinal
	}
	if c.vt.Final == nil {
		return 0, pkgerrors.New(pkgerrors.CategoryMisuse, "NO_STREAMING", "implementation only supports one-shot digest")
	}
	n, err := c.vt.Final(c.state, out)
	if err != nil {
		return 0, err
	}
	c.final = true
	return n, nil
}

// Digest computes the one-shot digest of data into out, bypassing the
// init/update/final lifecycle entirely.
func (c *Context) Digest(data, out []byte) (int, error) {
	if c.vt.OneShot == nil {
		return 0, pkgerrors.New(pkgerrors.CategoryMisuse, "NO_ONESHOT", "implementation requires the streaming lifecycle")
	}
	return c.vt.OneShot(data, out)
}

// Size returns the digest's output size in bytes.
func (c *Context) Size() int {
	return c.vt.Size()
}

// BlockSize returns the digest's internal block size in bytes, or 0 if
// the implementation does not report one.
func (c *Context) BlockSize() int {
	if c.vt.BlockSize == nil {
		return 0
	}
	return c.vt.BlockSize()
}

// SetParams forwards reconfigurable parameters to the implementation.
func (c *Context) SetParams(params provider.Params) error {
	if c.vt.SetCtxParams == nil {
		return nil
	}
	return c.vt.SetCtxParams(c.state, params)
}

// GetParams reads parameters from the implementation.
func (c *Context) GetParams(params provider.Params) error {
	if c.vt.GetCtxParams == nil {
		return nil
	}
	return c.vt.GetCtxParams(c.state, params)
}

// Dup returns a context observationally equivalent to c at the moment
// of the call, sharing no mutable state, and bumps the implementation
// reference.
func (c *Context) Dup() (*Context, error) {
	dup := &Context{rec: c.rec.Up(), vt: c.vt, started: c.started, final: c.final}
	if c.state != nil && c.vt.DupCtx != nil {
		state, err := c.vt.DupCtx(c.state)
		if err != nil {
			dup.rec.Free()
			return nil, err
		}
		dup.state = state
	}
	return dup, nil
}

// Reset returns the envelope to the post-New state, releasing the
// per-context state and the implementation reference. The context may
// be Init'd again afterward, binding a fresh implementation reference
// via a subsequent New call — Reset does not itself re-fetch.
func (c *Context) Reset() {
	if c.state != nil && c.vt.FreeCtx != nil {
		c.vt.FreeCtx(c.state)
	}
	c.state = nil
	c.started = false
	c.final = false
	if c.rec != nil {
		c.rec.Free()
		c.rec = nil
	}
}

// Free releases the context's implementation reference. It is safe to
// call Free after Reset.
func (c *Context) Free() {
	if c.state != nil && c.vt.FreeCtx != nil {
		c.vt.FreeCtx(c.state)
		c.state = nil
	}
	if c.rec != nil {
		c.rec.Free()
		c.rec = nil
	}
}
