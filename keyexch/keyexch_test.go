// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package keyexch

import (
	"bytes"
	"crypto/ecdh"
	"crypto/rand"
	"testing"

	"github.com/sage-x-project/cryptoprov/dispatch"
	pkgerrors "github.com/sage-x-project/cryptoprov/pkg/errors"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/provider"
)

type stubProvider struct{ name string }

func (p *stubProvider) Name() string { return p.name }
func (p *stubProvider) QueryOperation(op ids.OperationID) ([]provider.Algorithm, error) {
	return nil, nil
}
func (p *stubProvider) GetParams(provider.Params) error { return nil }
func (p *stubProvider) Teardown() error                 { return nil }

func newHandle() *provider.Handle {
	return provider.NewHandle(&stubProvider{name: "builtin"}, 0)
}

type x25519State struct {
	priv *ecdh.PrivateKey
	peer *ecdh.PublicKey
}

// x25519Table builds a table backed by the real crypto/ecdh X25519
// implementation.
func x25519Table() dispatch.Table {
	return dispatch.Table{
		{FunctionID: dispatch.KeyexchNewCtx, Function: NewCtxFunc(func() (interface{}, error) {
			return &x25519State{}, nil
		})},
		{FunctionID: dispatch.KeyexchInit, Function: InitFunc(func(state interface{}, key interface{}, params provider.Params) error {
			state.(*x25519State).priv = key.(*ecdh.PrivateKey)
			return nil
		})},
		{FunctionID: dispatch.KeyexchSetPeer, Function: SetPeerFunc(func(state interface{}, peerKey interface{}) error {
			state.(*x25519State).peer = peerKey.(*ecdh.PublicKey)
			return nil
		})},
		{FunctionID: dispatch.KeyexchDerive, Function: DeriveFunc(func(state interface{}, out []byte) (int, error) {
			s := state.(*x25519State)
			secret, err := s.priv.ECDH(s.peer)
			if err != nil {
				return 0, err
			}
			if out == nil {
				return len(secret), nil
			}
			if len(out) < len(secret) {
				return 0, pkgerrors.ErrBufferTooSmall
			}
			return copy(out, secret), nil
		})},
		{FunctionID: dispatch.KeyexchFreeCtx, Function: FreeCtxFunc(func(state interface{}) {})},
	}
}

func TestFromDispatchRejectsIncompleteTable(t *testing.T) {
	table := dispatch.Table{
		{FunctionID: dispatch.KeyexchNewCtx, Function: NewCtxFunc(func() (interface{}, error) { return nil, nil })},
	}
	_, err := FromDispatch(newHandle(), "X25519", 0, table)
	if !pkgerrors.IsIncomplete(err) {
		t.Errorf("expected an incomplete-dispatch error, got %v", err)
	}
}

func TestDeriveWithoutSetPeerFails(t *testing.T) {
	rec, err := FromDispatch(newHandle(), "X25519", 0, x25519Table())
	if err != nil {
		t.Fatalf("FromDispatch: %v", err)
	}
	defer rec.Free()

	ctx, err := New(rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer ctx.Free()

	priv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	if err := ctx.Init(priv, nil); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := ctx.Derive(nil); err != pkgerrors.ErrNoPeerKey {
		t.Errorf("expected ErrNoPeerKey, got %v", err)
	}
}

func TestDeriveMatchesBothSides(t *testing.T) {
	alicePriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey alice: %v", err)
	}
	bobPriv, err := ecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey bob: %v", err)
	}

	aliceRec, _ := FromDispatch(newHandle(), "X25519", 0, x25519Table())
	defer aliceRec.Free()
	aliceCtx, _ := New(aliceRec)
	defer aliceCtx.Free()

	bobRec, _ := FromDispatch(newHandle(), "X25519", 0, x25519Table())
	defer bobRec.Free()
	bobCtx, _ := New(bobRec)
	defer bobCtx.Free()

	if err := aliceCtx.Init(alicePriv, nil); err != nil {
		t.Fatalf("alice Init: %v", err)
	}
	if err := aliceCtx.SetPeer(bobPriv.PublicKey()); err != nil {
		t.Fatalf("alice SetPeer: %v", err)
	}
	if err := bobCtx.Init(bobPriv, nil); err != nil {
		t.Fatalf("bob Init: %v", err)
	}
	if err := bobCtx.SetPeer(alicePriv.PublicKey()); err != nil {
		t.Fatalf("bob SetPeer: %v", err)
	}

	size, err := aliceCtx.Derive(nil)
	if err != nil {
		t.Fatalf("size query: %v", err)
	}

	aliceSecret := make([]byte, size)
	if _, err := aliceCtx.Derive(aliceSecret); err != nil {
		t.Fatalf("alice Derive: %v", err)
	}
	bobSecret := make([]byte, size)
	if _, err := bobCtx.Derive(bobSecret); err != nil {
		t.Fatalf("bob Derive: %v", err)
	}

	if !bytes.Equal(aliceSecret, bobSecret) {
		t.Error("derived secrets diverge between the two sides of the exchange")
	}
}

type dhLikeState struct {
	padEnabled bool
}

// dhLikeTable models a classic finite-field Diffie-Hellman derive whose
// natural big-endian encoding of the shared secret can carry a leading
// zero byte, depending on the secret's numeric value relative to the
// modulus, unlike X25519, whose fixed-width output never needs padding
// or stripping. It exists purely to exercise the "pad" contract with a
// deterministic secret.
func dhLikeTable(modulusSize int, secretWithLeadingZero []byte) dispatch.Table {
	return dispatch.Table{
		{FunctionID: dispatch.KeyexchNewCtx, Function: NewCtxFunc(func() (interface{}, error) {
			return &dhLikeState{}, nil
		})},
		{FunctionID: dispatch.KeyexchInit, Function: InitFunc(func(state interface{}, key interface{}, params provider.Params) error {
			return nil
		})},
		{FunctionID: dispatch.KeyexchSetPeer, Function: SetPeerFunc(func(state interface{}, peerKey interface{}) error {
			return nil
		})},
		{FunctionID: dispatch.KeyexchDerive, Function: DeriveFunc(func(state interface{}, out []byte) (int, error) {
			s := state.(*dhLikeState)
			stripped := secretWithLeadingZero
			for len(stripped) > 1 && stripped[0] == 0 {
				stripped = stripped[1:]
			}
			secret := stripped
			if s.padEnabled {
				secret = make([]byte, modulusSize)
				copy(secret[modulusSize-len(stripped):], stripped)
			}
			if out == nil {
				return len(secret), nil
			}
			if len(out) < len(secret) {
				return 0, pkgerrors.ErrBufferTooSmall
			}
			return copy(out, secret), nil
		})},
		{FunctionID: dispatch.KeyexchFreeCtx, Function: FreeCtxFunc(func(state interface{}) {})},
		{FunctionID: dispatch.KeyexchSetCtxParams, Function: SetCtxParamsFunc(func(state interface{}, params provider.Params) error {
			if pad, ok := params["pad"].(bool); ok {
				state.(*dhLikeState).padEnabled = pad
			}
			return nil
		})},
	}
}

func TestDerivePadding(t *testing.T) {
	const modulusSize = 16
	secretWithLeadingZero := make([]byte, modulusSize)
	secretWithLeadingZero[modulusSize-1] = 0x7f // natural encoding carries leading zero bytes

	table := dhLikeTable(modulusSize, secretWithLeadingZero)

	padded, err := FromDispatch(newHandle(), "DH-LIKE", 0, table)
	if err != nil {
		t.Fatalf("FromDispatch: %v", err)
	}
	defer padded.Free()
	paddedCtx, _ := New(padded)
	defer paddedCtx.Free()

	paddedCtx.Init("key", nil)
	paddedCtx.SetPeer("peer")
	if err := paddedCtx.SetParams(provider.Params{"pad": true}); err != nil {
		t.Fatalf("SetParams(pad=true): %v", err)
	}
	size, _ := paddedCtx.Derive(nil)
	if size != modulusSize {
		t.Fatalf("padded size = %d, want %d", size, modulusSize)
	}
	out := make([]byte, size)
	if _, err := paddedCtx.Derive(out); err != nil {
		t.Fatalf("Derive (padded): %v", err)
	}
	if out[0] != 0x00 {
		t.Errorf("padded output should start with a zero byte, got %x", out)
	}

	unpadded, err := FromDispatch(newHandle(), "DH-LIKE", 0, table)
	if err != nil {
		t.Fatalf("FromDispatch: %v", err)
	}
	defer unpadded.Free()
	unpaddedCtx, _ := New(unpadded)
	defer unpaddedCtx.Free()

	unpaddedCtx.Init("key", nil)
	unpaddedCtx.SetPeer("peer")
	if err := unpaddedCtx.SetParams(provider.Params{"pad": false}); err != nil {
		t.Fatalf("SetParams(pad=false): %v", err)
	}
	strippedSize, _ := unpaddedCtx.Derive(nil)
	if strippedSize >= modulusSize {
		t.Fatalf("stripped size = %d, want < %d", strippedSize, modulusSize)
	}
	stripped := make([]byte, strippedSize)
	if _, err := unpaddedCtx.Derive(stripped); err != nil {
		t.Fatalf("Derive (unpadded): %v", err)
	}
	if stripped[0] == 0x00 {
		t.Errorf("unpadded output should not carry a leading zero byte, got %x", stripped)
	}
}

func TestDeriveRejectsBufferTooSmall(t *testing.T) {
	alicePriv, _ := ecdh.X25519().GenerateKey(rand.Reader)
	bobPriv, _ := ecdh.X25519().GenerateKey(rand.Reader)

	rec, _ := FromDispatch(newHandle(), "X25519", 0, x25519Table())
	defer rec.Free()
	ctx, _ := New(rec)
	defer ctx.Free()

	ctx.Init(alicePriv, nil)
	ctx.SetPeer(bobPriv.PublicKey())

	tooSmall := make([]byte, 1)
	if _, err := ctx.Derive(tooSmall); err != pkgerrors.ErrBufferTooSmall {
		t.Errorf("expected ErrBufferTooSmall, got %v", err)
	}
}
