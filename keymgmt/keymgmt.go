// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package keymgmt implements the key-management contract:
// import/export/generate/load/free for domain parameters
// and keys, kept as two distinct object kinds rather than a single
// init/update/final envelope, since neither domain parameters nor keys
// have a streaming lifecycle. A key may be generated from domain
// parameters produced by the same Manager; generating from domain
// parameters produced by a different provider is rejected rather than
// left undefined.
package keymgmt

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
	GenDomParamsFunc    func(params provider.Params) (interface{}, error)
	ImportDomParamsFunc func(data []byte, params provider.Params) (interface{}, error)
	ExportDomParamsFunc func(state interface{}, params provider.Params) ([]byte, error)
	FreeDomParamsFunc   func(state interface{})

	GenKeyFunc    func(domState interface{}, params provider.Params) (interface{}, error)
	ImportKeyFunc func(data []byte, params provider.Params) (interface{}, error)
	ExportKeyFunc func(state interface{}, params provider.Params) ([]byte, error)
	LoadKeyFunc   func(id string, params provider.Params) (interface{}, error)
	FreeKeyFunc   func(state interface{})
)

// VTable is the decoded, typed function table for one key-management
// algorithm. Domain-parameter functions are an optional group (some key
// types, e.g. Ed25519, have no domain parameters); key functions other
// than Load are mandatory.
type VTable struct {
	GenDomParams    GenDomParamsFunc
	ImportDomParams ImportDomParamsFunc
	ExportDomParams ExportDomParamsFunc
	FreeDomParams   FreeDomParamsFunc

	GenKey    GenKeyFunc
	ImportKey ImportKeyFunc
	ExportKey ExportKeyFunc
	LoadKey   LoadKeyFunc
	FreeKey   FreeKeyFunc
}

// FromDispatch decodes table into a VTable. Completeness rule: the key
// quartet {gen, import, export, free} must all be present (load is
// optional, since not every backend supports loading a key by id from a
// storage backend); the domain-parameter quartet {gen, import, export,
// free} must be either entirely present or entirely absent — a partial
// domain-parameter group is an incomplete implementation, since callers
// cannot safely generate parameters they cannot later free.
func FromDispatch(prov *provider.Handle, name string, legacyID int, table dispatch.Table) (*store.Record, error) {
	vt := &VTable{}

	if fn, ok := table.Get(dispatch.KeymgmtGenDomParams); ok {
		vt.GenDomParams, _ = fn.(GenDomParamsFunc)
	}
	if fn, ok := table.Get(dispatch.KeymgmtImportDomParams); ok {
		vt.ImportDomParams, _ = fn.(ImportDomParamsFunc)
	}
	if fn, ok := table.Get(dispatch.KeymgmtExportDomParams); ok {
		vt.ExportDomParams, _ = fn.(ExportDomParamsFunc)
	}
	if fn, ok := table.Get(dispatch.KeymgmtFreeDomParams); ok {
		vt.FreeDomParams, _ = fn.(FreeDomParamsFunc)
	}
	if fn, ok := table.Get(dispatch.KeymgmtGenKey); ok {
		vt.GenKey, _ = fn.(GenKeyFunc)
	}
	if fn, ok := table.Get(dispatch.KeymgmtImportKey); ok {
		vt.ImportKey, _ = fn.(ImportKeyFunc)
	}
	if fn, ok := table.Get(dispatch.KeymgmtExportKey); ok {
		vt.ExportKey, _ = fn.(ExportKeyFunc)
	}
	if fn, ok := table.Get(dispatch.KeymgmtLoadKey); ok {
		vt.LoadKey, _ = fn.(LoadKeyFunc)
	}
	if fn, ok := table.Get(dispatch.KeymgmtFreeKey); ok {
		vt.FreeKey, _ = fn.(FreeKeyFunc)
	}

	keysComplete := vt.GenKey != nil && vt.ImportKey != nil && vt.ExportKey != nil && vt.FreeKey != nil
	if !keysComplete {
		return nil, pkgerrors.ErrIncompleteDispatch.WithDetail("name", name)
	}

	domParamFns := []bool{vt.GenDomParams != nil, vt.ImportDomParams != nil, vt.ExportDomParams != nil, vt.FreeDomParams != nil}
	domParamsAllPresent, domParamsAllAbsent := true, true
	for _, present := range domParamFns {
		if present {
			domParamsAllAbsent = false
		} else {
			domParamsAllPresent = false
		}
	}
	if !domParamsAllPresent && !domParamsAllAbsent {
		return nil, pkgerrors.ErrIncompleteDispatch.WithDetail("name", name).WithDetail("reason", "partial domain-parameter function group")
	}

	prov.Up()
	return store.NewRecord(0, name, legacyID, prov, nil, vt, nil), nil
}

// Fetch resolves name to a key-management implementation record.
func Fetch(ctx context.Context, lib fetch.Library, name, queryString string) (*store.Record, error) {
	return fetch.Fetch(ctx, lib, ids.OpKeyMgmt, name, queryString, FromDispatch)
}

// Manager is the key-management envelope bound to one resolved
// implementation. Unlike the streaming operation contexts, it carries
// no per-call mutable lifecycle state: every method is a direct,
// independently-invocable call.
type Manager struct {
	rec *store.Record
	vt  *VTable
}

// New allocates a Manager bound to rec, taking a reference to it.
func New(rec *store.Record) (*Manager, error) {
	vt, ok := rec.Up().Impl.(*VTable)
	if !ok {
		rec.Free()
		return nil, pkgerrors.New(pkgerrors.CategoryInternal, "WRONG_IMPL_TYPE", "record does not carry a keymgmt vtable")
	}
	return &Manager{rec: rec, vt: vt}, nil
}

// Free releases the Manager's implementation reference. Safe to call
// after every DomainParams and Key it produced have themselves been
// freed; it does not reach into objects it already handed out.
func (m *Manager) Free() {
	if m.rec != nil {
		m.rec.Free()
		m.rec = nil
	}
}

// DomainParams is an opaque set of algorithm domain parameters produced
// by one Manager. It carries a reference to the producing implementation
// record so the provider cannot tear down while parameters derived from
// it are still alive, and so GenerateKey can verify provenance.
type DomainParams struct {
	rec   *store.Record
	vt    *VTable
	state interface{}
}

// GenerateParams generates a fresh set of domain parameters. Fails with
// a protocol-misuse error if this algorithm has no domain-parameter
// concept (the dom-param function group was entirely absent).
func (m *Manager) GenerateParams(params provider.Params) (*DomainParams, error) {
	if m.vt.GenDomParams == nil {
		return nil, pkgerrors.New(pkgerrors.CategoryMisuse, "NO_DOMAIN_PARAMS", "algorithm has no domain parameters").WithDetail("name", m.rec.Name)
	}
	state, err := m.vt.GenDomParams(params)
	if err != nil {
		return nil, err
	}
	return &DomainParams{rec: m.rec.Up(), vt: m.vt, state: state}, nil
}

// ImportParams decodes domain parameters from their exported encoding.
func (m *Manager) ImportParams(data []byte, params provider.Params) (*DomainParams, error) {
	if m.vt.ImportDomParams == nil {
		return nil, pkgerrors.New(pkgerrors.CategoryMisuse, "NO_DOMAIN_PARAMS", "algorithm has no domain parameters").WithDetail("name", m.rec.Name)
	}
	state, err := m.vt.ImportDomParams(data, params)
	if err != nil {
		return nil, err
	}
	return &DomainParams{rec: m.rec.Up(), vt: m.vt, state: state}, nil
}

// ExportParams encodes dp for storage or transmission.
func (m *Manager) ExportParams(dp *DomainParams, params provider.Params) ([]byte, error) {
	if dp.rec != m.rec {
		return nil, pkgerrors.ErrDomainParamsMismatch
	}
	return m.vt.ExportDomParams(dp.state, params)
}

// Free releases dp's backing state and its implementation reference.
func (dp *DomainParams) Free() {
	if dp.state != nil && dp.vt.FreeDomParams != nil {
		dp.vt.FreeDomParams(dp.state)
		dp.state = nil
	}
	if dp.rec != nil {
		dp.rec.Free()
		dp.rec = nil
	}
}

// Key is a generated, imported, or loaded cryptographic key, opaque to
// the core and owned by the implementation that produced it.
type Key struct {
	rec   *store.Record
	vt    *VTable
	state interface{}
}

// GenerateKey generates a key, optionally from previously generated or
// imported domain parameters. If dp is non-nil and was produced by a
// different Manager (a different provider or algorithm record) than m,
// GenerateKey rejects the call: the source spec leaves "parameters from
// a different provider" undefined, and this runtime treats mixing as a
// protocol-misuse error rather than silently passing opaque state across
// an implementation boundary that did not create it.
func (m *Manager) GenerateKey(dp *DomainParams, params provider.Params) (*Key, error) {
	var domState interface{}
	if dp != nil {
		if dp.rec != m.rec {
			return nil, pkgerrors.ErrDomainParamsMismatch
		}
		domState = dp.state
	}
	state, err := m.vt.GenKey(domState, params)
	if err != nil {
		return nil, err
	}
	return &Key{rec: m.rec.Up(), vt: m.vt, state: state}, nil
}

// ImportKey decodes a key from its exported encoding.
func (m *Manager) ImportKey(data []byte, params provider.Params) (*Key, error) {
	state, err := m.vt.ImportKey(data, params)
	if err != nil {
		return nil, err
	}
	return &Key{rec: m.rec.Up(), vt: m.vt, state: state}, nil
}

// LoadKey loads a previously stored key by id from the implementation's
// storage backend. Fails with a protocol-misuse error if the
// implementation does not support loading (the Load slot was absent).
func (m *Manager) LoadKey(id string, params provider.Params) (*Key, error) {
	if m.vt.LoadKey == nil {
		return nil, pkgerrors.New(pkgerrors.CategoryMisuse, "LOAD_UNSUPPORTED", "algorithm does not support loading keys by id").WithDetail("name", m.rec.Name)
	}
	state, err := m.vt.LoadKey(id, params)
	if err != nil {
		return nil, err
	}
	return &Key{rec: m.rec.Up(), vt: m.vt, state: state}, nil
}

// ExportKey encodes k for storage or transmission.
func (m *Manager) ExportKey(k *Key, params provider.Params) ([]byte, error) {
	if k.rec != m.rec {
		return nil, pkgerrors.ErrDomainParamsMismatch
	}
	return m.vt.ExportKey(k.state, params)
}

// State returns the key's opaque implementation-owned state, for
// callers (e.g. keyexch.Init) that need to pass a concrete key into
// another operation's envelope.
func (k *Key) State() interface{} {
	return k.state
}

// Free releases k's backing state and its implementation reference.
func (k *Key) Free() {
	if k.state != nil && k.vt.FreeKey != nil {
		k.vt.FreeKey(k.state)
		k.state = nil
	}
	if k.rec != nil {
		k.rec.Free()
		k.rec = nil
	}
}
