// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package store implements the method store: the registry of
// constructed implementation records, keyed by method id and ranked by
// property match against a caller's query, plus an advisory query
// cache keyed on the caller's literal query string.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/sage-x-project/cryptoprov/dispatch"
	pkgerrors "github.com/sage-x-project/cryptoprov/pkg/errors"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/property"
	"github.com/sage-x-project/cryptoprov/provider"
)

// Record is a refcounted implementation record: an owning provider
// (refcounted back-edge), a canonical name, an optional legacy numeric
// id, and a decoded, operation-specific function table. Immutable after
// construction.
type Record struct {
	MethodID ids.MethodID
	Name     string
	LegacyID int
	Provider *provider.Handle
	Def      *property.Definition
	// Impl is the operation-specific decoded vtable (e.g. *digest.VTable).
	// The store never inspects it; only the owning operation package does.
	Impl interface{}

	// NoStore marks a record that must never be promoted into a default
	// store or its query cache; it may still live in a construction's
	// temporary store. Set by the constructor before any Add.
	NoStore bool

	refcount int32
	dtor     func()
}

// NewRecord constructs a Record with an initial reference count of 1,
// owned by the caller. dtor, if non-nil, runs exactly once, when the
// final reference is released.
func NewRecord(methodID ids.MethodID, name string, legacyID int, prov *provider.Handle, def *property.Definition, impl interface{}, dtor func()) *Record {
	return &Record{
		MethodID: methodID,
		Name:     name,
		LegacyID: legacyID,
		Provider: prov,
		Def:      def,
		Impl:     impl,
		refcount: 1,
		dtor:     dtor,
	}
}

// Up increments the reference count and returns r.
func (r *Record) Up() *Record {
	atomic.AddInt32(&r.refcount, 1)
	return r
}

// Free decrements the reference count, running dtor and releasing the
// owning provider reference when it reaches zero.
func (r *Record) Free() {
	if atomic.AddInt32(&r.refcount, -1) == 0 {
		if r.dtor != nil {
			r.dtor()
		}
		if r.Provider != nil {
			r.Provider.Free()
		}
	}
}

// RefCount reports the current reference count, for tests and
// diagnostics.
func (r *Record) RefCount() int32 {
	return atomic.LoadInt32(&r.refcount)
}

// Adapter decodes a provider's dispatch table for one algorithm into an
// implementation record, enforcing that operation's completeness rule.
// Every operation package (digest, cipher, mac, keyexch, keymgmt)
// supplies one.
type Adapter func(prov *provider.Handle, name string, legacyID int, table dispatch.Table) (*Record, error)

type candidate struct {
	rec   *Record
	order int
}

type cacheKey struct {
	methodID ids.MethodID
	query    string
}

// Store is the method store. A single instance backs the default store
// of a library context; method construction also allocates short-lived
// temporary instances.
type Store struct {
	mu            sync.RWMutex
	candidates    map[ids.MethodID][]*candidate
	cache         map[cacheKey]*Record
	globalQuery   string
	insertCounter int
}

// New returns an empty store.
func New() *Store {
	return &Store{
		candidates: make(map[ids.MethodID][]*candidate),
		cache:      make(map[cacheKey]*Record),
	}
}

// Add inserts rec under methodID, taking its own +1 reference — the
// store's insertion reference is independent of whatever reference the
// caller already holds.
func (s *Store) Add(methodID ids.MethodID, rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.insertCounter++
	s.candidates[methodID] = append(s.candidates[methodID], &candidate{
		rec:   rec.Up(),
		order: s.insertCounter,
	})
}

// Fetch scans candidates registered for methodID, applies property
// matching against query merged with the store's global default
// properties, and returns the best match with its reference bumped.
// Ties are broken by higher provider priority, then by insertion order
// (first-registered wins) — a single linear scan with strict
// greater-than comparisons naturally preserves first-seen-wins on
// exact ties.
func (s *Store) Fetch(methodID ids.MethodID, query *property.Query) (*Record, error) {
	s.mu.RLock()
	bucket := s.candidates[methodID]
	globalQuery := s.globalQuery
	s.mu.RUnlock()

	if len(bucket) == 0 {
		return nil, pkgerrors.ErrNotFound
	}

	merged := query
	if globalQuery != "" {
		m, err := query.MergeDefaults(globalQuery)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CategoryConfig, "INVALID_DEFAULT_PROPERTIES", err.Error())
		}
		merged = m
	}

	var best *candidate
	bestScore := -1
	for _, c := range bucket {
		ok, score := property.Match(c.rec.Def, merged)
		if !ok {
			continue
		}
		if best == nil {
			best, bestScore = c, score
			continue
		}
		if score > bestScore {
			best, bestScore = c, score
			continue
		}
		if score == bestScore {
			if c.rec.Provider.Priority() > best.rec.Provider.Priority() {
				best = c
			}
			// Equal priority: earlier insertion order (c.order < best.order)
			// already won by virtue of being visited first and never being
			// displaced by a non-strict comparison.
		}
	}

	if best == nil {
		return nil, pkgerrors.ErrNotFound
	}
	return best.rec.Up(), nil
}

// CacheGet returns the cached record for (methodID, queryStr), with its
// reference bumped, if present.
func (s *Store) CacheGet(methodID ids.MethodID, queryStr string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.cache[cacheKey{methodID, queryStr}]
	if !ok {
		return nil, false
	}
	return rec.Up(), true
}

// CacheSet populates the query cache for (methodID, queryStr), taking
// its own +1 reference. Caching is advisory: callers must not rely on a
// prior CacheSet surviving a later SetGlobalProperties call.
func (s *Store) CacheSet(methodID ids.MethodID, queryStr string, rec *Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[cacheKey{methodID, queryStr}] = rec.Up()
}

// SetGlobalProperties replaces the store's global default property
// query, invalidating the entire query cache (changing defaults can
// change which record a cached query string should resolve to).
func (s *Store) SetGlobalProperties(queryStr string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.globalQuery = queryStr
	for k, rec := range s.cache {
		rec.Free()
		delete(s.cache, k)
	}
}

// ForEach invokes fn once per candidate registered for op's method ids,
// in unspecified order. fn must not retain rec beyond the call.
func (s *Store) ForEach(op ids.OperationID, fn func(methodID ids.MethodID, rec *Record)) {
	s.mu.RLock()
	type entry struct {
		methodID ids.MethodID
		rec      *Record
	}
	var snapshot []entry
	for methodID, bucket := range s.candidates {
		_, methodOp := ids.Unpack(methodID)
		if methodOp != op {
			continue
		}
		for _, c := range bucket {
			snapshot = append(snapshot, entry{methodID, c.rec})
		}
	}
	s.mu.RUnlock()

	for _, e := range snapshot {
		fn(e.methodID, e.rec)
	}
}

// Free releases every reference the store holds: one per candidate
// insertion and one per cache entry. Safe to call once, at library
// context teardown.
func (s *Store) Free() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, bucket := range s.candidates {
		for _, c := range bucket {
			c.rec.Free()
		}
	}
	s.candidates = make(map[ids.MethodID][]*candidate)

	for k, rec := range s.cache {
		rec.Free()
		delete(s.cache, k)
	}
}
