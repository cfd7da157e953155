// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package mac implements the message-authentication-code algorithm
// context envelope: new/init(key)/update/final lifecycle, dup, and
// size accessor, decoded from a provider's dispatch table by
// FromDispatch. MAC follows the same envelope pattern as digest but
// with a completeness rule of its own: init always
// requires a key, so a dispatch table missing the key-bearing init
// slot is incomplete regardless of whether the other streaming slots
// are present.
package mac

import (
	"context"

	"github.com/sage-x-project/cryptoprov/dispatch"
	"github.com/sage-x-project/cryptoprov/fetch"
	pkgerrors "github.com/sage-x-project/cryptoprov/pkg/errors"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/provider"
	"github.com/sage-x-project/cryptoprov/store"
)

type (
	NewCtxFunc       func() (interface{}, error)
	InitFunc         func(state interface{}, key []byte, params provider.Params) error
	UpdateFunc       func(state interface{}, data []byte) error
	FinalFunc        func(state interface{}, out []byte) (int, error)
	FreeCtxFunc      func(state interface{})
	DupCtxFunc       func(state interface{}) (interface{}, error)
	SizeFunc         func() int
	SetCtxParamsFunc func(state interface{}, params provider.Params) error
	GetCtxParamsFunc func(state interface{}, params provider.Params) error
)

// VTable is the decoded, typed function table for one MAC algorithm.
type VTable struct {
	NewCtx       NewCtxFunc
	Init         InitFunc
	Update       UpdateFunc
	Final        FinalFunc
	FreeCtx      FreeCtxFunc
	DupCtx       DupCtxFunc
	Size         SizeFunc
	SetCtxParams SetCtxParamsFunc
	GetCtxParams GetCtxParamsFunc
}

// FromDispatch decodes table into a VTable. Completeness rule:
// {new, init, update, final, free, size} must all be present — there
// is no one-shot escape hatch, since a MAC's init always requires a
// key and the envelope has no way to pass one through a pure one-shot
// slot without inventing a second signature per algorithm.
func FromDispatch(prov *provider.Handle, name string, legacyID int, table dispatch.Table) (*store.Record, error) {
	vt := &VTable{}

	if fn, ok := table.Get(dispatch.MacNewCtx); ok {
		vt.NewCtx, _ = fn.(NewCtxFunc)
	}
	if fn, ok := table.Get(dispatch.MacInit); ok {
		vt.Init, _ = fn.(InitFunc)
	}
	if fn, ok := table.Get(dispatch.MacUpdate); ok {
		vt.Update, _ = fn.(UpdateFunc)
	}
	if fn, ok := table.Get(dispatch.MacFinal); ok {
		vt.Final, _ = fn.(FinalFunc)
	}
	if fn, ok := table.Get(dispatch.MacFreeCtx); ok {
		vt.FreeCtx, _ = fn.(FreeCtxFunc)
	}
	if fn, ok := table.Get(dispatch.MacDupCtx); ok {
		vt.DupCtx, _ = fn.(DupCtxFunc)
	}
	if fn, ok := table.Get(dispatch.MacSize); ok {
		vt.Size, _ = fn.(SizeFunc)
	}
	if fn, ok := table.Get(dispatch.MacSetCtxParams); ok {
		vt.SetCtxParams, _ = fn.(SetCtxParamsFunc)
	}
	if fn, ok := table.Get(dispatch.MacGetCtxParams); ok {
		vt.GetCtxParams, _ = fn.(GetCtxParamsFunc)
	}

	complete := vt.NewCtx != nil && vt.Init != nil && vt.Update != nil && vt.Final != nil && vt.FreeCtx != nil && vt.Size != nil
	if !complete {
		return nil, pkgerrors.ErrIncompleteDispatch.WithDetail("name", name)
	}

	prov.Up()
	return store.NewRecord(0, name, legacyID, prov, nil, vt, nil), nil
}

// Fetch resolves name to a MAC implementation record.
func Fetch(ctx context.Context, lib fetch.Library, name, queryString string) (*store.Record, error) {
	return fetch.Fetch(ctx, lib, ids.OpMAC, name, queryString, FromDispatch)
}

// Context is the MAC algorithm context envelope.
type Context struct {
	rec     *store.Record
	vt      *VTable
	state   interface{}
	started bool
	final   bool
}

// New allocates a context bound to rec, taking a reference to it.
func New(rec *store.Record) (*Context, error) {
	vt, ok := rec.Up().Impl.(*VTable)
	if !ok {
		rec.Free()
		return nil, pkgerrors.New(pkgerrors.CategoryInternal, "WRONG_IMPL_TYPE", "record does not carry a MAC vtable")
	}
	return &Context{rec: rec, vt: vt}, nil
}

// Init (re)initializes the context with key. Calling Init without a
// key (nil or empty) fails: every MAC construction requires one.
func (c *Context) Init(key []byte, params provider.Params) error {
	if len(key) == 0 {
		return pkgerrors.New(pkgerrors.CategoryMisuse, "MAC_KEY_REQUIRED", "init called without a key")
	}
	if c.state == nil {
		state, err := c.vt.NewCtx()
		if err != nil {
			return err
		}
		c.state = state
	}
	if err := c.vt.Init(c.state, key, params); err != nil {
		return err
	}
	c.started, c.final = true, false
	return nil
}

// Update feeds data into the MAC.
func (c *Context) Update(data []byte) error {
	if !c.started {
		return pkgerrors.ErrNotInitialized
	}
	if c.final {
		return pkgerrors.ErrAlreadyFinal
	}
	return c.vt.Update(c.state, data)
}

// Final computes the tag into out, which must be at least Size() bytes.
func (c *Context) Final(out []byte) (int, error) {
	if !c.started {
		return 0, pkgerrors.ErrNotInitialized
	}
	if c.final {
		return 0, pkgerrors.ErrAlreadyFinal
	}
	n, err := c.vt.Final(c.state, out)
	if err != nil {
		return 0, err
	}
	c.final = true
	return n, nil
}

// Size returns the MAC's output size in bytes.
func (c *Context) Size() int {
	return c.vt.Size()
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

// Dup returns a context observationally equivalent to c, sharing no
// mutable state.
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

// Reset returns the envelope to the post-New state.
func (c *Context) Reset() {
	if c.state != nil && c.vt.FreeCtx != nil {
		c.vt.FreeCtx(c.state)
	}
	c.state, c.started, c.final = nil, false, false
	if c.rec != nil {
		c.rec.Free()
		c.rec = nil
	}
}

// Free releases the context's implementation reference.
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
