// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package keyexch implements the key-exchange algorithm context
// envelope: new/init(key)/set_peer(key)/derive lifecycle, decoded from
// a provider's dispatch table by FromDispatch. Derive follows the
// size-query convention: a nil output buffer reports the required
// length without writing or consuming the context; a buffer shorter
// than required fails without partial output.
package keyexch

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
	NewCtxFunc  func() (interface{}, error)
	InitFunc    func(state interface{}, key interface{}, params provider.Params) error
	SetPeerFunc func(state interface{}, peerKey interface{}) error
	// DeriveFunc writes the shared secret into out and returns the
	// number of bytes written. If out is nil, it must return the
	// required length without consuming context state. If len(out) is
	// shorter than required it must fail with pkgerrors.ErrBufferTooSmall
	// rather than write a truncated secret.
	DeriveFunc       func(state interface{}, out []byte) (int, error)
	FreeCtxFunc      func(state interface{})
	DupCtxFunc       func(state interface{}) (interface{}, error)
	SetCtxParamsFunc func(state interface{}, params provider.Params) error
)

// VTable is the decoded, typed function table for one key-exchange
// algorithm.
type VTable struct {
	NewCtx       NewCtxFunc
	Init         InitFunc
	SetPeer      SetPeerFunc
	Derive       DeriveFunc
	FreeCtx      FreeCtxFunc
	DupCtx       DupCtxFunc
	SetCtxParams SetCtxParamsFunc
}

// FromDispatch decodes table into a VTable. Completeness rule:
// {new, init, set_peer, derive, free} must all be present — key
// exchange has no one-shot escape hatch, since derive is meaningless
// without a prior init/set_peer pair establishing both sides of the
// exchange.
func FromDispatch(prov *provider.Handle, name string, legacyID int, table dispatch.Table) (*store.Record, error) {
	vt := &VTable{}

	if fn, ok := table.Get(dispatch.KeyexchNewCtx); ok {
		vt.NewCtx, _ = fn.(NewCtxFunc)
	}
	if fn, ok := table.Get(dispatch.KeyexchInit); ok {
		vt.Init, _ = fn.(InitFunc)
	}
	if fn, ok := table.Get(dispatch.KeyexchSetPeer); ok {
		vt.SetPeer, _ = fn.(SetPeerFunc)
	}
	if fn, ok := table.Get(dispatch.KeyexchDerive); ok {
		vt.Derive, _ = fn.(DeriveFunc)
	}
	if fn, ok := table.Get(dispatch.KeyexchFreeCtx); ok {
		vt.FreeCtx, _ = fn.(FreeCtxFunc)
	}
	if fn, ok := table.Get(dispatch.KeyexchDupCtx); ok {
		vt.DupCtx, _ = fn.(DupCtxFunc)
	}
	if fn, ok := table.Get(dispatch.KeyexchSetCtxParams); ok {
		vt.SetCtxParams, _ = fn.(SetCtxParamsFunc)
	}

	complete := vt.NewCtx != nil && vt.Init != nil && vt.SetPeer != nil && vt.Derive != nil && vt.FreeCtx != nil
	if !complete {
		return nil, pkgerrors.ErrIncompleteDispatch.WithDetail("name", name)
	}

	prov.Up()
	return store.NewRecord(0, name, legacyID, prov, nil, vt, nil), nil
}

// Fetch resolves name to a key-exchange implementation record.
func Fetch(ctx context.Context, lib fetch.Library, name, queryString string) (*store.Record, error) {
	return fetch.Fetch(ctx, lib, ids.OpKeyExch, name, queryString, FromDispatch)
}

// Context is the key-exchange algorithm context envelope.
type Context struct {
	rec      *store.Record
	vt       *VTable
	state    interface{}
	haveKey  bool
	havePeer bool
}

// New allocates a context bound to rec, taking a reference to it.
func New(rec *store.Record) (*Context, error) {
	vt, ok := rec.Up().Impl.(*VTable)
	if !ok {
		rec.Free()
		return nil, pkgerrors.New(pkgerrors.CategoryInternal, "WRONG_IMPL_TYPE", "record does not carry a keyexch vtable")
	}
	return &Context{rec: rec, vt: vt}, nil
}

// Init (re)initializes the context with the local private key.
func (c *Context) Init(key interface{}, params provider.Params) error {
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
	c.haveKey, c.havePeer = true, false
	return nil
}

// SetPeer supplies the peer's public key for the exchange.
func (c *Context) SetPeer(peerKey interface{}) error {
	if !c.haveKey {
		return pkgerrors.ErrNotInitialized
	}
	if err := c.vt.SetPeer(c.state, peerKey); err != nil {
		return err
	}
	c.havePeer = true
	return nil
}

// Derive computes the shared secret into out. A nil out reports the
// required length in the returned int without writing or consuming
// state. Derive before both Init and SetPeer fails with ErrNoPeerKey.
func (c *Context) Derive(out []byte) (int, error) {
	if !c.haveKey || !c.havePeer {
		return 0, pkgerrors.ErrNoPeerKey
	}
	return c.vt.Derive(c.state, out)
}

// SetParams forwards reconfigurable parameters (e.g. output padding)
// to the implementation.
func (c *Context) SetParams(params provider.Params) error {
	if c.vt.SetCtxParams == nil {
		return nil
	}
	return c.vt.SetCtxParams(c.state, params)
}

// Dup returns a context observationally equivalent to c, sharing no
// mutable state.
func (c *Context) Dup() (*Context, error) {
	dup := &Context{rec: c.rec.Up(), vt: c.vt, haveKey: c.haveKey, havePeer: c.havePeer}
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
	c.state, c.haveKey, c.havePeer = nil, false, false
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
