// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package cipher implements the cipher algorithm context envelope:
// new/encrypt_init|decrypt_init/update/final lifecycle,
// one-shot cipher, dup, and parameter accessors, decoded from a
// provider's dispatch table by FromDispatch.
package cipher

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
	NewCtxFunc        func() (interface{}, error)
	EncryptInitFunc   func(state interface{}, key, iv []byte, params provider.Params) error
	DecryptInitFunc   func(state interface{}, key, iv []byte, params provider.Params) error
	UpdateFunc        func(state interface{}, in []byte) ([]byte, error)
	FinalFunc         func(state interface{}) ([]byte, error)
	OneShotFunc       func(key, iv, in []byte, encrypt bool) ([]byte, error)
	FreeCtxFunc       func(state interface{})
	DupCtxFunc        func(state interface{}) (interface{}, error)
	GetParamsFunc     func(params provider.Params) error
	CtxGetParamsFunc  func(state interface{}, params provider.Params) error
	CtxSetParamsFunc  func(state interface{}, params provider.Params) error
)

// VTable is the decoded, typed function table for one cipher
// algorithm. Fields absent from the provider's dispatch table are nil.
type VTable struct {
	NewCtx       NewCtxFunc
	EncryptInit  EncryptInitFunc
	DecryptInit  DecryptInitFunc
	Update       UpdateFunc
	Final        FinalFunc
	OneShot      OneShotFunc
	FreeCtx      FreeCtxFunc
	DupCtx       DupCtxFunc
	GetParams    GetParamsFunc
	CtxGetParams CtxGetParamsFunc
	CtxSetParams CtxSetParamsFunc
}

// FromDispatch decodes table into a VTable. Either the full streaming
// set {new, encrypt_init, decrypt_init, update, final, free} or the
// single-shot cipher slot must be present.
func FromDispatch(prov *provider.Handle, name string, legacyID int, table dispatch.Table) (*store.Record, error) {
	vt := &VTable{}

	if fn, ok := table.Get(dispatch.CipherNewCtx); ok {
		vt.NewCtx, _ = fn.(NewCtxFunc)
	}
	if fn, ok := table.Get(dispatch.CipherEncryptInit); ok {
		vt.EncryptInit, _ = fn.(EncryptInitFunc)
	}
	if fn, ok := table.Get(dispatch.CipherDecryptInit); ok {
		vt.DecryptInit, _ = fn.(DecryptInitFunc)
	}
	if fn, ok := table.Get(dispatch.CipherUpdate); ok {
		vt.Update, _ = fn.(UpdateFunc)
	}
	if fn, ok := table.Get(dispatch.CipherFinal); ok {
		vt.Final, _ = fn.(FinalFunc)
	}
	if fn, ok := table.Get(dispatch.CipherCipher); ok {
		vt.OneShot, _ = fn.(OneShotFunc)
	}
	if fn, ok := table.Get(dispatch.CipherFreeCtx); ok {
		vt.FreeCtx, _ = fn.(FreeCtxFunc)
	}
	if fn, ok := table.Get(dispatch.CipherDupCtx); ok {
		vt.DupCtx, _ = fn.(DupCtxFunc)
	}
	if fn, ok := table.Get(dispatch.CipherGetParams); ok {
		vt.GetParams, _ = fn.(GetParamsFunc)
	}
	if fn, ok := table.Get(dispatch.CipherCtxGetParams); ok {
		vt.CtxGetParams, _ = fn.(CtxGetParamsFunc)
	}
	if fn, ok := table.Get(dispatch.CipherCtxSetParams); ok {
		vt.CtxSetParams, _ = fn.(CtxSetParamsFunc)
	}

	full := vt.NewCtx != nil && vt.EncryptInit != nil && vt.DecryptInit != nil && vt.Update != nil && vt.Final != nil && vt.FreeCtx != nil
	if !full && vt.OneShot == nil {
		return nil, pkgerrors.ErrIncompleteDispatch.WithDetail("name", name)
	}

	prov.Up()
	return store.NewRecord(0, name, legacyID, prov, nil, vt, nil), nil
}

// Fetch resolves name to a cipher implementation record.
func Fetch(ctx context.Context, lib fetch.Library, name, queryString string) (*store.Record, error) {
	return fetch.Fetch(ctx, lib, ids.OpCipher, name, queryString, FromDispatch)
}

// Context is the cipher algorithm context envelope.
type Context struct {
	rec       *store.Record
	vt        *VTable
	state     interface{}
	started   bool
	encrypt   bool
	finalized bool
}

// New allocates a context bound to rec, taking a reference to it.
func New(rec *store.Record) (*Context, error) {
	vt, ok := rec.Up().Impl.(*VTable)
	if !ok {
		rec.Free()
		return nil, pkgerrors.New(pkgerrors.CategoryInternal, "WRONG_IMPL_TYPE", "record does not carry a cipher vtable")
	}
	return &Context{rec: rec, vt: vt}, nil
}

// EncryptInit (re)initializes the context for encryption.
func (c *Context) EncryptInit(key, iv []byte, params provider.Params) error {
	if c.vt.EncryptInit == nil {
		return pkgerrors.New(pkgerrors.CategoryMisuse, "NO_STREAMING", "implementation only supports one-shot cipher")
	}
	if c.state == nil {
		state, err := c.vt.NewCtx()
		if err != nil {
			return err
		}
		c.state = state
	}
	if err := c.vt.EncryptInit(c.state, key, iv, params); err != nil {
		return err
	}
	c.started, c.encrypt, c.finalized = true, true, false
	return nil
}

// DecryptInit (re)initializes the context for decryption.
func (c *Context) DecryptInit(key, iv []byte, params provider.Params) error {
	if c.vt.DecryptInit == nil {
		return pkgerrors.New(pkgerrors.CategoryMisuse, "NO_STREAMING", "implementation only supports one-shot cipher")
	}
	if c.state == nil {
		state, err := c.vt.NewCtx()
		if err != nil {
			return err
		}
		c.state = state
	}
	if err := c.vt.DecryptInit(c.state, key, iv, params); err != nil {
		return err
	}
	c.started, c.encrypt, c.finalized = true, false, false
	return nil
}

// Update feeds in into the cipher, returning whatever output bytes the
// implementation has ready (block ciphers may buffer partial blocks).
func (c *Context) Update(in []byte) ([]byte, error) {
	if !c.started {
		return nil, pkgerrors.ErrNotInitialized
	}
	if c.finalized {
		return nil, pkgerrors.ErrAlreadyFinal
	}
	return c.vt.Update(c.state, in)
}

// Final flushes any buffered output and finalizes the context (e.g.
// verifying or producing an authentication tag for an AEAD cipher).
func (c *Context) Final() ([]byte, error) {
	if !c.started {
		return nil, pkgerrors.ErrNotInitialized
	}
	if c.finalized {
		return nil, pkgerrors.ErrAlreadyFinal
	}
	out, err := c.vt.Final(c.state)
	if err != nil {
		return nil, err
	}
	c.finalized = true
	return out, nil
}

// Cipher performs a one-shot encrypt or decrypt of in, bypassing the
// init/update/final lifecycle entirely.
func (c *Context) Cipher(key, iv, in []byte, encrypt bool) ([]byte, error) {
	if c.vt.OneShot == nil {
		return nil, pkgerrors.New(pkgerrors.CategoryMisuse, "NO_ONESHOT", "implementation requires the streaming lifecycle")
	}
	return c.vt.OneShot(key, iv, in, encrypt)
}

// SetParams forwards reconfigurable parameters (e.g. AEAD tag length)
// to the implementation.
func (c *Context) SetParams(params provider.Params) error {
	if c.vt.CtxSetParams == nil {
		return nil
	}
	return c.vt.CtxSetParams(c.state, params)
}

// GetParams reads per-context parameters from the implementation.
func (c *Context) GetParams(params provider.Params) error {
	if c.vt.CtxGetParams == nil {
		return nil
	}
	return c.vt.CtxGetParams(c.state, params)
}

// Dup returns a context observationally equivalent to c, sharing no
// mutable state.
func (c *Context) Dup() (*Context, error) {
	dup := &Context{rec: c.rec.Up(), vt: c.vt, started: c.started, encrypt: c.encrypt, finalized: c.finalized}
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
	c.state, c.started, c.finalized = nil, false, false
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
