// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package construct implements the method constructor: given an
// operation, a name, and a property query, it walks every registered
// provider's algorithm table, builds implementation records via the
// operation's adapter, and promotes the best-scoring match into the
// default method store. Concurrent construction of the same (method id, query)
// pair is collapsed by singleflight so only one caller actually walks
// the provider list; admission is throttled by an optional rate
// limiter and each provider query is guarded by a circuit breaker and
// retry (and a bulkhead when WithBulkhead is set) so one misbehaving provider cannot starve
// construction for the rest.
package construct

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sage-x-project/cryptoprov/cache"
	"github.com/sage-x-project/cryptoprov/core/resilience"
	"github.com/sage-x-project/cryptoprov/observability/metrics"
	"github.com/sage-x-project/cryptoprov/observability/tracing"
	pkgerrors "github.com/sage-x-project/cryptoprov/pkg/errors"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/property"
	"github.com/sage-x-project/cryptoprov/provider"
	"github.com/sage-x-project/cryptoprov/ratelimit"
	"github.com/sage-x-project/cryptoprov/store"
)

// Library is the subset of a library context the constructor needs:
// name resolution, the registered provider list, and the default
// method store. libctx.LibraryContext implements it.
type Library interface {
	// NameID returns the id already assigned to name (canonical or
	// alias), or interns a fresh one if name has never been seen.
	NameID(name string) ids.NameID
	// Providers returns every registered provider, in registration
	// order.
	Providers() []*provider.Handle
	// DefaultStore returns the library context's default method store.
	DefaultStore() *store.Store
}

// Option configures a Constructor.
type Option func(*Constructor)

// WithLimiter installs an admission-control limiter guarding
// construction attempts. Rejections surface as
// pkgerrors.ErrConstructionThrottled; the limiter is an efficiency
// control only and never affects which implementation is selected.
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Constructor) { c.limiter = l }
}

// WithRetryConfig overrides the retry policy guarding provider queries.
func WithRetryConfig(cfg *resilience.RetryConfig) Option {
	return func(c *Constructor) { c.retryConfig = cfg }
}

// WithCircuitBreakerConfig overrides the per-provider circuit breaker
// policy.
func WithCircuitBreakerConfig(cfg *resilience.CircuitBreakerConfig) Option {
	return func(c *Constructor) { c.breakerConfig = cfg }
}

// WithBulkhead installs a bulkhead bounding concurrent provider queries.
func WithBulkhead(b *resilience.Bulkhead) Option {
	return func(c *Constructor) { c.bulkhead = b }
}

// WithMetrics installs a RuntimeMetrics recorder: fetch cache hit/miss
// counts, construction latency and outcome, and admission-throttle
// rejections are all recorded through it.
func WithMetrics(m *metrics.RuntimeMetrics) Option {
	return func(c *Constructor) { c.metrics = m }
}

// WithHintCache installs an optional cross-process resolution-hint
// cache. On a miss, the constructor first looks up which provider
// answered the same (method id, query) pair last time and tries that
// provider alone before falling back to the full provider walk. ttl
// bounds how long a hint is trusted before a stale one (e.g. the
// provider was since deregistered) is allowed to age out.
func WithHintCache(c cache.Cache, ttl time.Duration) Option {
	return func(cn *Constructor) { cn.hintCache = c; cn.hintTTL = ttl }
}

// Constructor is the method constructor.
type Constructor struct {
	group         singleflight.Group
	limiter       ratelimit.Limiter
	breakers      sync.Map // provider name -> *resilience.CircuitBreaker
	retryConfig   *resilience.RetryConfig
	breakerConfig *resilience.CircuitBreakerConfig
	bulkhead      *resilience.Bulkhead
	metrics       *metrics.RuntimeMetrics
	hintCache     cache.Cache
	hintTTL       time.Duration
}

// New returns a Constructor. With no options, construction runs without
// admission throttling but still guards every provider query with a
// circuit breaker and retry.
func New(opts ...Option) *Constructor {
	c := &Constructor{
		retryConfig:   resilience.DefaultRetryConfig(),
		breakerConfig: resilience.DefaultCircuitBreakerConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Construct resolves (op, name, queryString) to an implementation
// record, constructing and caching it on first use. The returned
// record carries a reference the caller must Free.
func (c *Constructor) Construct(ctx context.Context, lib Library, op ids.OperationID, name, queryString string, adapter store.Adapter) (*store.Record, error) {
	if op == 0 {
		return nil, pkgerrors.New(pkgerrors.CategoryMisuse, "ZERO_OPERATION", "operation id must be non-zero")
	}

	nameID := lib.NameID(name)
	defStore := lib.DefaultStore()
	methodID := ids.Pack(nameID, op)

	if rec, ok := defStore.CacheGet(methodID, queryString); ok {
		if c.metrics != nil {
			c.metrics.RecordFetch(op.String(), true)
		}
		return rec, nil
	}

	if c.limiter != nil {
		if !c.limiter.Allow(ratelimit.MethodKeyFunc(uint32(methodID))) {
			if c.metrics != nil {
				c.metrics.RecordConstructionThrottled(uint32(methodID))
			}
			return nil, pkgerrors.ErrConstructionThrottled
		}
	}

	if c.metrics != nil {
		c.metrics.RecordFetch(op.String(), false)
	}

	start := time.Now()
	sfKey := fmt.Sprintf("%d|%s", methodID, queryString)
	var constructed *store.Record
	v, err, _ := c.group.Do(sfKey, func() (interface{}, error) {
		var rec *store.Record
		traceErr := tracing.TraceConstruction(ctx, op.String(), func(ctx context.Context) (string, error) {
			r, err := c.constructOnce(ctx, lib, defStore, op, methodID, name, queryString, adapter)
			if err != nil {
				return "", err
			}
			rec = r
			return r.Provider.Name(), nil
		})
		if traceErr != nil {
			return nil, traceErr
		}
		constructed = rec
		return rec, nil
	})
	if c.metrics != nil {
		c.metrics.RecordConstruction(op.String(), time.Since(start).Seconds(), err == nil)
	}
	if err != nil {
		return nil, err
	}

	rec := v.(*store.Record)
	if rec.NoStore {
		// A no-store record is backed by nothing but the reference
		// constructOnce handed out, which belongs to the caller that
		// executed the singleflight closure. Every other caller that
		// joined the flight builds its own.
		if constructed == rec {
			return rec, nil
		}
		return c.constructOnce(ctx, lib, defStore, op, methodID, name, queryString, adapter)
	}
	return rec.Up(), nil
}

// constructOnce performs the actual provider walk. For a promoted
// record the return value is "borrowed" — its permanent backing is the
// two references the default store and its query cache hold, so
// Construct adds exactly one caller-owned reference on top via Up. A
// no-store record is never promoted; its return value carries the one
// reference the temporary-store fetch produced, owned by the caller.
func (c *Constructor) constructOnce(ctx context.Context, lib Library, defStore *store.Store, op ids.OperationID, methodID ids.MethodID, name, queryString string, adapter store.Adapter) (*store.Record, error) {
	query, err := property.ParseQuery(queryString)
	if err != nil {
		return nil, err
	}

	if c.hintCache != nil {
		if found := c.constructFromHint(ctx, lib, defStore, op, methodID, name, queryString, query, adapter); found != nil {
			return found, nil
		}
	}

	temp := store.New()
	defer temp.Free()

	for _, h := range lib.Providers() {
		if err := c.addMatchingAlgorithms(ctx, h, op, name, adapter, methodID, temp); err != nil {
			return nil, err
		}
	}

	found, err := temp.Fetch(methodID, query)
	if err != nil {
		return nil, err
	}

	c.promote(ctx, defStore, methodID, queryString, found)
	return found, nil
}

// promote installs found into the default store and its query cache and
// records the resolution hint, then trades the caller's temporary-fetch
// reference for the store-held ones. A no-store record is left alone:
// it is never promoted and the fetch reference stays with the caller.
func (c *Constructor) promote(ctx context.Context, defStore *store.Store, methodID ids.MethodID, queryString string, found *store.Record) {
	if found.NoStore {
		return
	}
	defStore.Add(methodID, found)
	defStore.CacheSet(methodID, queryString, found)
	c.storeHint(ctx, methodID, queryString, found)
	found.Free()
}

// constructFromHint tries the single provider a prior construction
// recorded for (methodID, queryString), skipping the full provider
// walk. It returns nil (not an error) on any failure along the way —
// a missing hint, a deregistered provider, or a query the hinted
// provider no longer satisfies, so the caller falls back to the full
// walk exactly as if no hint cache were configured.
func (c *Constructor) constructFromHint(ctx context.Context, lib Library, defStore *store.Store, op ids.OperationID, methodID ids.MethodID, name, queryString string, query *property.Query, adapter store.Adapter) *store.Record {
	hint, ok := c.lookupHint(ctx, methodID, queryString)
	if !ok {
		return nil
	}
	h := findProviderByName(lib.Providers(), hint.ProviderName)
	if h == nil {
		return nil
	}

	temp := store.New()
	defer temp.Free()

	if err := c.addMatchingAlgorithms(ctx, h, op, name, adapter, methodID, temp); err != nil {
		return nil
	}
	found, err := temp.Fetch(methodID, query)
	if err != nil {
		return nil
	}

	c.promote(ctx, defStore, methodID, queryString, found)
	return found
}

// addMatchingAlgorithms queries h for op's algorithm table, builds and
// inserts a record into dest for every algorithm whose name or alias
// equals name.
func (c *Constructor) addMatchingAlgorithms(ctx context.Context, h *provider.Handle, op ids.OperationID, name string, adapter store.Adapter, methodID ids.MethodID, dest *store.Store) error {
	algos, err := c.queryProviderOperation(ctx, h, op)
	if err != nil {
		return err
	}

	for _, a := range algos {
		if !matchesName(a.NameString, name) {
			continue
		}

		rec, err := adapter(h, canonicalName(a.NameString), 0, a.Dispatch)
		if err != nil {
			return pkgerrors.Wrap(err, "constructing implementation record")
		}

		def, err := property.ParseDefinition(a.Properties)
		if err != nil {
			rec.Free()
			return err
		}
		rec.Def = def
		rec.NoStore = a.NoStore

		dest.Add(methodID, rec)
		rec.Free()
	}
	return nil
}

// lookupHint consults the hint cache for a prior resolution of
// (methodID, queryString).
func (c *Constructor) lookupHint(ctx context.Context, methodID ids.MethodID, queryString string) (cache.ResolutionHint, bool) {
	v, ok := c.hintCache.Get(ctx, cache.QueryKey(uint32(methodID), queryString))
	if !ok {
		return cache.ResolutionHint{}, false
	}
	hint, ok := v.(cache.ResolutionHint)
	return hint, ok
}

// storeHint records which provider answered (methodID, queryString),
// best-effort: a hint-cache write failure never fails construction,
// since the hint is purely an optimization for the next lookup.
func (c *Constructor) storeHint(ctx context.Context, methodID ids.MethodID, queryString string, rec *store.Record) {
	if c.hintCache == nil {
		return
	}
	_ = c.hintCache.Set(ctx, cache.QueryKey(uint32(methodID), queryString), cache.ResolutionHint{
		ProviderName:  rec.Provider.Name(),
		CanonicalName: rec.Name,
	}, c.hintTTL)
}

// findProviderByName returns the handle named name, or nil if none of
// handles matches.
func findProviderByName(handles []*provider.Handle, name string) *provider.Handle {
	for _, h := range handles {
		if h.Name() == name {
			return h
		}
	}
	return nil
}

// queryProviderOperation calls h.QueryOperation(op) guarded by a
// per-provider circuit breaker and retry policy, so one provider
// repeatedly failing cannot block construction attempts that would
// otherwise be satisfied by another registered provider.
func (c *Constructor) queryProviderOperation(ctx context.Context, h *provider.Handle, op ids.OperationID) ([]provider.Algorithm, error) {
	breaker := c.breakerFor(h.Name())

	var result []provider.Algorithm
	run := func(ctx context.Context) error {
		algos, err := h.QueryOperation(op)
		if err != nil {
			return pkgerrors.ErrProviderQueryFailed.Wrap(err).WithProvider(h.Name(), 0)
		}
		result = algos
		return nil
	}

	exec := func(ctx context.Context) error {
		return breaker.Execute(ctx, run)
	}
	if c.bulkhead != nil {
		inner := exec
		exec = func(ctx context.Context) error {
			return c.bulkhead.Execute(ctx, inner)
		}
	}

	if err := resilience.Retry(ctx, c.retryConfig, exec); err != nil {
		if errors.Is(err, resilience.ErrCircuitBreakerOpen) {
			return nil, pkgerrors.ErrProviderCircuitOpen.WithProvider(h.Name(), 0)
		}
		return nil, err
	}
	return result, nil
}

func (c *Constructor) breakerFor(providerName string) *resilience.CircuitBreaker {
	if b, ok := c.breakers.Load(providerName); ok {
		return b.(*resilience.CircuitBreaker)
	}
	b := resilience.NewCircuitBreaker(c.breakerConfig)
	actual, _ := c.breakers.LoadOrStore(providerName, b)
	return actual.(*resilience.CircuitBreaker)
}

// matchesName reports whether requested equals any of nameString's
// colon-separated aliases (canonical first), case-insensitively.
func matchesName(nameString, requested string) bool {
	requested = strings.ToLower(requested)
	for _, alias := range strings.Split(nameString, ":") {
		if strings.ToLower(alias) == requested {
			return true
		}
	}
	return false
}

// canonicalName returns the first (canonical) alias of a colon-joined
// name string.
func canonicalName(nameString string) string {
	if idx := strings.IndexByte(nameString, ':'); idx >= 0 {
		return nameString[:idx]
	}
	return nameString
}
