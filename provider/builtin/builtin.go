// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package builtin implements a reference Provider offering one concrete
// algorithm per operation kind: SHA-256 digest, HMAC-SHA256 mac,
// ChaCha20-Poly1305 cipher, X25519 key exchange, and Ed25519 key
// management. The core treats algorithm bodies as external
// collaborators reached only through dispatch tables; this provider is
// the concrete backend that lets a caller drive the runtime end to end
// without loading an external module.
package builtin

import (
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"hash"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	sagecrypto "github.com/sage-x-project/sage/pkg/agent/crypto"

	"github.com/sage-x-project/cryptoprov/cipher"
	"github.com/sage-x-project/cryptoprov/digest"
	"github.com/sage-x-project/cryptoprov/dispatch"
	"github.com/sage-x-project/cryptoprov/keyexch"
	"github.com/sage-x-project/cryptoprov/keymgmt"
	"github.com/sage-x-project/cryptoprov/mac"
	pkgerrors "github.com/sage-x-project/cryptoprov/pkg/errors"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/provider"
)

// Name is the provider identifier used in property defaults, priority
// ordering, and diagnostics.
const Name = "builtin"

// Provider is the reference implementation. Properties is the property
// definition string advertised for every algorithm it offers (e.g.
// "fips=no"); callers register multiple instances with different
// Properties to drive property-based selection.
type Provider struct {
	Properties string

	manager *sagecrypto.Manager
}

// New returns a builtin.Provider advertising defProperties (e.g.
// "fips=no") for every algorithm.
func New(defProperties string) *Provider {
	return &Provider{Properties: defProperties, manager: sagecrypto.NewManager()}
}

func (p *Provider) Name() string { return Name }

// GetParams reports static provider-level metadata. "version" is the
// only key this reference provider recognizes; unknown keys are
// silently skipped.
func (p *Provider) GetParams(out provider.Params) error {
	if _, ok := out["version"]; ok {
		out["version"] = "1"
	}
	return nil
}

// Teardown releases provider-held resources. The reference provider
// holds none beyond the sage crypto manager's in-memory key store.
func (p *Provider) Teardown() error { return nil }

// QueryOperation returns this provider's algorithm table for op.
func (p *Provider) QueryOperation(op ids.OperationID) ([]provider.Algorithm, error) {
	switch op {
	case ids.OpDigest:
		return []provider.Algorithm{{NameString: "SHA-256:SHA256:sha2-256", Dispatch: p.digestTable(), Properties: p.Properties}}, nil
	case ids.OpMAC:
		return []provider.Algorithm{{NameString: "HMAC-SHA256", Dispatch: p.macTable(), Properties: p.Properties}}, nil
	case ids.OpCipher:
		return []provider.Algorithm{{NameString: "ChaCha20-Poly1305", Dispatch: p.cipherTable(), Properties: p.Properties}}, nil
	case ids.OpKeyExch:
		return []provider.Algorithm{{NameString: "X25519", Dispatch: p.keyexchTable(), Properties: p.Properties}}, nil
	case ids.OpKeyMgmt:
		return []provider.Algorithm{{NameString: "ED25519", Dispatch: p.keymgmtTable(), Properties: p.Properties}}, nil
	default:
		return nil, nil
	}
}

// --- digest: SHA-256 -------------------------------------------------

func (p *Provider) digestTable() dispatch.Table {
	return dispatch.Table{
		{FunctionID: dispatch.DigestNewCtx, Function: digest.NewCtxFunc(func() (interface{}, error) {
			var h hash.Hash
			return &h, nil
		})},
		{FunctionID: dispatch.DigestInit, Function: digest.InitFunc(func(state interface{}, params provider.Params) error {
			*(state.(*hash.Hash)) = sha256.New()
			return nil
		})},
		{FunctionID: dispatch.DigestUpdate, Function: digest.UpdateFunc(func(state interface{}, data []byte) error {
			_, err := (*(state.(*hash.Hash))).Write(data)
			return err
		})},
		{FunctionID: dispatch.DigestFinal, Function: digest.FinalFunc(func(state interface{}, out []byte) (int, error) {
			sum := (*(state.(*hash.Hash))).Sum(nil)
			return copy(out, sum), nil
		})},
		{FunctionID: dispatch.DigestDigest, Function: digest.OneShotFunc(func(data, out []byte) (int, error) {
			sum := sha256.Sum256(data)
			return copy(out, sum[:]), nil
		})},
		{FunctionID: dispatch.DigestFreeCtx, Function: digest.FreeCtxFunc(func(state interface{}) {})},
		{FunctionID: dispatch.DigestDupCtx, Function: digest.DupCtxFunc(func(state interface{}) (interface{}, error) {
			// hash.Hash has no clone method; round-trip the state through
			// the encoding.BinaryMarshaler crypto/sha256 implements.
			h := (*(state.(*hash.Hash)))
			marshaler, ok := h.(interface{ MarshalBinary() ([]byte, error) })
			if !ok {
				return nil, pkgerrors.New(pkgerrors.CategoryInternal, "NO_CLONE", "digest state is not cloneable")
			}
			data, err := marshaler.MarshalBinary()
			if err != nil {
				return nil, err
			}
			clone := sha256.New()
			if u, ok := clone.(interface{ UnmarshalBinary([]byte) error }); ok {
				if err := u.UnmarshalBinary(data); err != nil {
					return nil, err
				}
			}
			return &clone, nil
		})},
		{FunctionID: dispatch.DigestSize, Function: digest.SizeFunc(func() int { return sha256.Size })},
		{FunctionID: dispatch.DigestBlockSize, Function: digest.BlockSizeFunc(func() int { return sha256.BlockSize })},
	}
}

// --- mac: HMAC-SHA256 -------------------------------------------------

func (p *Provider) macTable() dispatch.Table {
	return dispatch.Table{
		{FunctionID: dispatch.MacNewCtx, Function: mac.NewCtxFunc(func() (interface{}, error) {
			var h hash.Hash
			return &h, nil
		})},
		{FunctionID: dispatch.MacInit, Function: mac.InitFunc(func(state interface{}, key []byte, params provider.Params) error {
			*(state.(*hash.Hash)) = hmac.New(sha256.New, key)
			return nil
		})},
		{FunctionID: dispatch.MacUpdate, Function: mac.UpdateFunc(func(state interface{}, data []byte) error {
			_, err := (*(state.(*hash.Hash))).Write(data)
			return err
		})},
		{FunctionID: dispatch.MacFinal, Function: mac.FinalFunc(func(state interface{}, out []byte) (int, error) {
			sum := (*(state.(*hash.Hash))).Sum(nil)
			return copy(out, sum), nil
		})},
		{FunctionID: dispatch.MacFreeCtx, Function: mac.FreeCtxFunc(func(state interface{}) {})},
		{FunctionID: dispatch.MacSize, Function: mac.SizeFunc(func() int { return sha256.Size })},
	}
}

// --- cipher: ChaCha20-Poly1305 (one-shot AEAD) ------------------------

func (p *Provider) cipherTable() dispatch.Table {
	oneShot := func(key, iv, in []byte, encrypt bool) ([]byte, error) {
		aead, err := chacha20poly1305.New(key)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CategoryConfig, "BAD_KEY", "invalid ChaCha20-Poly1305 key").Wrap(err)
		}
		if len(iv) != aead.NonceSize() {
			return nil, pkgerrors.New(pkgerrors.CategoryConfig, "BAD_NONCE", fmt.Sprintf("nonce must be %d bytes", aead.NonceSize()))
		}
		if encrypt {
			return aead.Seal(nil, iv, in, nil), nil
		}
		out, err := aead.Open(nil, iv, in, nil)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CategoryProvider, "AEAD_OPEN_FAILED", "authentication failed").Wrap(err)
		}
		return out, nil
	}
	return dispatch.Table{
		{FunctionID: dispatch.CipherCipher, Function: cipher.OneShotFunc(oneShot)},
		{FunctionID: dispatch.CipherGetParams, Function: cipher.GetParamsFunc(func(params provider.Params) error {
			if _, ok := params["keysize"]; ok {
				params["keysize"] = chacha20poly1305.KeySize
			}
			if _, ok := params["noncesize"]; ok {
				params["noncesize"] = chacha20poly1305.NonceSize
			}
			return nil
		})},
	}
}

// --- keyexch: X25519 + HKDF -------------------------------------------

type x25519State struct {
	priv *ecdh.PrivateKey
	peer *ecdh.PublicKey
	pad  bool
}

func (p *Provider) keyexchTable() dispatch.Table {
	return dispatch.Table{
		{FunctionID: dispatch.KeyexchNewCtx, Function: keyexch.NewCtxFunc(func() (interface{}, error) {
			return &x25519State{}, nil
		})},
		{FunctionID: dispatch.KeyexchInit, Function: keyexch.InitFunc(func(state interface{}, key interface{}, params provider.Params) error {
			priv, ok := key.(*ecdh.PrivateKey)
			if !ok {
				return pkgerrors.New(pkgerrors.CategoryConfig, "BAD_KEY", "X25519 init requires an *ecdh.PrivateKey")
			}
			state.(*x25519State).priv = priv
			return nil
		})},
		{FunctionID: dispatch.KeyexchSetPeer, Function: keyexch.SetPeerFunc(func(state interface{}, peerKey interface{}) error {
			pub, ok := peerKey.(*ecdh.PublicKey)
			if !ok {
				return pkgerrors.New(pkgerrors.CategoryConfig, "BAD_PEER_KEY", "X25519 set_peer requires an *ecdh.PublicKey")
			}
			state.(*x25519State).peer = pub
			return nil
		})},
		{FunctionID: dispatch.KeyexchDerive, Function: keyexch.DeriveFunc(func(state interface{}, out []byte) (int, error) {
			s := state.(*x25519State)
			raw, err := s.priv.ECDH(s.peer)
			if err != nil {
				return 0, pkgerrors.New(pkgerrors.CategoryProvider, "ECDH_FAILED", "X25519 key agreement failed").Wrap(err)
			}
			// HKDF-SHA256 over the raw ECDH output, fixed 32-byte output.
			derived := make([]byte, 32)
			if _, err := hkdf.New(sha256.New, raw, nil, []byte("cryptoprov-keyexch-x25519")).Read(derived); err != nil {
				return 0, pkgerrors.New(pkgerrors.CategoryProvider, "HKDF_FAILED", "key derivation failed").Wrap(err)
			}
			_ = s.pad // fixed-width HKDF output never needs padding or stripping
			if out == nil {
				return len(derived), nil
			}
			if len(out) < len(derived) {
				return 0, pkgerrors.ErrBufferTooSmall
			}
			return copy(out, derived), nil
		})},
		{FunctionID: dispatch.KeyexchFreeCtx, Function: keyexch.FreeCtxFunc(func(state interface{}) {})},
		{FunctionID: dispatch.KeyexchSetCtxParams, Function: keyexch.SetCtxParamsFunc(func(state interface{}, params provider.Params) error {
			if pad, ok := params["pad"].(bool); ok {
				state.(*x25519State).pad = pad
			}
			return nil
		})},
	}
}

// --- keymgmt: Ed25519 via the sage crypto manager ---------------------
//
// generate/import/export wrap sagecrypto.Manager's key-pair operations
// with KeyFormatPEM, and load wraps LoadKeyPair so the keymgmt
// envelope's optional Load slot has a real backend. Ed25519 has no
// domain-parameter concept, so the dom-param function group is entirely
// absent (keymgmt.FromDispatch's "all or nothing" rule accepts that).

func (p *Provider) keymgmtTable() dispatch.Table {
	return dispatch.Table{
		{FunctionID: dispatch.KeymgmtGenKey, Function: keymgmt.GenKeyFunc(func(domState interface{}, params provider.Params) (interface{}, error) {
			kp, err := p.manager.GenerateKeyPair(sagecrypto.KeyTypeEd25519)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CategoryProvider, "KEYGEN_FAILED", "ed25519 key generation failed").Wrap(err)
			}
			return kp, nil
		})},
		{FunctionID: dispatch.KeymgmtImportKey, Function: keymgmt.ImportKeyFunc(func(data []byte, params provider.Params) (interface{}, error) {
			kp, err := p.manager.ImportKeyPair(data, sagecrypto.KeyFormatPEM)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CategoryConfig, "IMPORT_FAILED", "ed25519 key import failed").Wrap(err)
			}
			return kp, nil
		})},
		{FunctionID: dispatch.KeymgmtExportKey, Function: keymgmt.ExportKeyFunc(func(state interface{}, params provider.Params) ([]byte, error) {
			data, err := p.manager.ExportKeyPair(state.(sagecrypto.KeyPair), sagecrypto.KeyFormatPEM)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CategoryProvider, "EXPORT_FAILED", "ed25519 key export failed").Wrap(err)
			}
			return data, nil
		})},
		{FunctionID: dispatch.KeymgmtLoadKey, Function: keymgmt.LoadKeyFunc(func(id string, params provider.Params) (interface{}, error) {
			kp, err := p.manager.LoadKeyPair(id)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CategoryNotFound, "KEY_NOT_FOUND", "no stored key with that id").Wrap(err)
			}
			return kp, nil
		})},
		{FunctionID: dispatch.KeymgmtFreeKey, Function: keymgmt.FreeKeyFunc(func(state interface{}) {})},
	}
}

// StoreGenerated persists kp (as returned by a keymgmt.Key's State())
// into the provider's storage backend so a subsequent LoadKey(id) can
// retrieve it.
func (p *Provider) StoreGenerated(kp sagecrypto.KeyPair) error {
	return p.manager.StoreKeyPair(kp)
}
