// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package builtin

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/sage-x-project/cryptoprov/digest"
	"github.com/sage-x-project/cryptoprov/fetch"
	"github.com/sage-x-project/cryptoprov/libctx"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/provider"
	"github.com/sage-x-project/cryptoprov/store"
)

// Digest round trip against a fixed, well-known constant.
func TestDigestRoundTripMatchesKnownConstant(t *testing.T) {
	lc := libctx.New()
	defer lc.Close()
	lc.Register(New("fips=no"), 0)

	rec, err := digest.Fetch(context.Background(), lc, "SHA-256", "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer rec.Free()

	ctx, err := digest.New(rec)
	if err != nil {
		t.Fatalf("digest.New: %v", err)
	}
	defer ctx.Free()

	if err := ctx.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := ctx.Update([]byte("abc")); err != nil {
		t.Fatalf("Update: %v", err)
	}
	out := make([]byte, ctx.Size())
	n, err := ctx.Final(out)
	if err != nil {
		t.Fatalf("Final: %v", err)
	}

	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := hex.EncodeToString(out[:n]); got != want {
		t.Errorf("SHA-256(\"abc\") = %s, want %s", got, want)
	}
}

// Property selection between two fips-tagged digest implementations;
// the default query "fips=yes" must select the fips=yes-advertising
// provider even though both register "SHA-256".
func TestPropertySelectionPrefersDefaultFips(t *testing.T) {
	lc := libctx.New()
	defer lc.Close()
	lc.Register(New("fips=no"), 0)
	lc.Register(New("fips=yes"), 0)
	lc.SetDefaultProperties("fips=yes")

	rec, err := digest.Fetch(context.Background(), lc, "SHA-256", "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer rec.Free()

	if got, ok := rec.Def.Get("fips"); !ok || got != "yes" {
		t.Errorf("selected implementation fips=%q (present=%v), want \"yes\"", got, ok)
	}

	// An explicit query overriding the default must still be honored.
	rec2, err := digest.Fetch(context.Background(), lc, "SHA-256", "fips=no")
	if err != nil {
		t.Fatalf("Fetch with explicit query: %v", err)
	}
	defer rec2.Free()
	if got, ok := rec2.Def.Get("fips"); !ok || got != "no" {
		t.Errorf("selected implementation fips=%q (present=%v), want \"no\"", got, ok)
	}
}

// Dup isolation: a digest context initialized and fed "abc", then
// duplicated. Feeding the original "d" and the dup nothing further must
// produce digest("abcd") and digest("abc") respectively.
func TestDigestDupIsolation(t *testing.T) {
	lc := libctx.New()
	defer lc.Close()
	lc.Register(New("fips=no"), 0)

	rec, err := digest.Fetch(context.Background(), lc, "SHA-256", "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	defer rec.Free()

	a, err := digest.New(rec)
	if err != nil {
		t.Fatalf("digest.New: %v", err)
	}
	defer a.Free()

	if err := a.Init(nil); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := a.Update([]byte("abc")); err != nil {
		t.Fatalf("Update: %v", err)
	}

	b, err := a.Dup()
	if err != nil {
		t.Fatalf("Dup: %v", err)
	}
	defer b.Free()

	if err := a.Update([]byte("d")); err != nil {
		t.Fatalf("Update on original: %v", err)
	}

	outA := make([]byte, a.Size())
	if _, err := a.Final(outA); err != nil {
		t.Fatalf("Final a: %v", err)
	}
	outB := make([]byte, b.Size())
	if _, err := b.Final(outB); err != nil {
		t.Fatalf("Final b: %v", err)
	}

	wantA, wantB := sha256Hex(t, lc, "abcd"), sha256Hex(t, lc, "abc")
	if gotA := hex.EncodeToString(outA); gotA != wantA {
		t.Errorf("original digest = %s, want digest(\"abcd\") = %s", gotA, wantA)
	}
	if gotB := hex.EncodeToString(outB); gotB != wantB {
		t.Errorf("dup digest = %s, want digest(\"abc\") = %s", gotB, wantB)
	}
}

func sha256Hex(t *testing.T, lc *libctx.LibraryContext, s string) string {
	t.Helper()
	rec, err := digest.Fetch(context.Background(), lc, "SHA-256", "")
	if err != nil {
		t.Fatalf("Fetch (reference): %v", err)
	}
	defer rec.Free()
	ctx, err := digest.New(rec)
	if err != nil {
		t.Fatalf("digest.New (reference): %v", err)
	}
	defer ctx.Free()
	ctx.Init(nil)
	ctx.Update([]byte(s))
	out := make([]byte, ctx.Size())
	ctx.Final(out)
	return hex.EncodeToString(out)
}

// multiDigestProvider offers three independently-named digest algorithms
// sharing the real SHA-256 dispatch table, so do_all's per-algorithm (not
// per-name) counting can be exercised without depending on a second real
// hash implementation.
type multiDigestProvider struct {
	suffix string
}

func (p multiDigestProvider) Name() string { return "multi-digest-" + p.suffix }
func (p multiDigestProvider) GetParams(provider.Params) error { return nil }
func (p multiDigestProvider) Teardown() error                 { return nil }
func (p multiDigestProvider) QueryOperation(op ids.OperationID) ([]provider.Algorithm, error) {
	if op != ids.OpDigest {
		return nil, nil
	}
	backing := (&Provider{Properties: "fips=no"}).digestTable()
	names := []string{"SHA-256-A", "SHA-256-B", "SHA-256-C"}
	algos := make([]provider.Algorithm, len(names))
	for i, n := range names {
		algos[i] = provider.Algorithm{NameString: n, Dispatch: backing, Properties: "fips=no"}
	}
	return algos, nil
}

// Do-all coverage: two providers, each registering three distinct
// digest algorithms, must yield exactly six invocations, one per
// (provider, algorithm) pair, with no deduplication across providers.
func TestDoAllCoversEveryProviderAlgorithmPair(t *testing.T) {
	lc := libctx.New()
	defer lc.Close()
	lc.Register(multiDigestProvider{suffix: "p1"}, 0)
	lc.Register(multiDigestProvider{suffix: "p2"}, 0)

	seen := map[string]int{}
	err := fetch.DoAll(lc, ids.OpDigest, digest.FromDispatch, func(rec *store.Record) {
		seen[rec.Name]++
	})
	if err != nil {
		t.Fatalf("DoAll: %v", err)
	}

	total := 0
	for _, n := range seen {
		total += n
	}
	if total != 6 {
		t.Errorf("DoAll invoked the callback %d times, want 6 (2 providers x 3 digests)", total)
	}
	wantNames := []string{"SHA-256-A", "SHA-256-B", "SHA-256-C"}
	for _, name := range wantNames {
		if seen[name] != 2 {
			t.Errorf("digest %q seen %d times, want 2 (one per provider)", name, seen[name])
		}
	}
}
