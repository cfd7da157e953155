// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package libctx implements the library context: the component
// singleton holder every other package resolves implementations
// through. It owns the name map, the registered provider list, the
// default method store, and the method constructor, and mediates
// teardown — closing the library context releases the method store,
// which releases every implementation, which releases its owning
// provider, which runs teardown.
package libctx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sage-x-project/cryptoprov/config"
	"github.com/sage-x-project/cryptoprov/construct"
	"github.com/sage-x-project/cryptoprov/nameid"
	"github.com/sage-x-project/cryptoprov/observability"
	"github.com/sage-x-project/cryptoprov/observability/health"
	"github.com/sage-x-project/cryptoprov/observability/logging"
	"github.com/sage-x-project/cryptoprov/observability/metrics"
	"github.com/sage-x-project/cryptoprov/observability/tracing"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/provider"
	"github.com/sage-x-project/cryptoprov/ratelimit"
	"github.com/sage-x-project/cryptoprov/store"
)

// knownOperations lists every operation kind eager alias registration
// walks at provider-registration time. Adding an operation kind here is
// required for its aliases to be indexed before first use; otherwise
// the first caller to request an alias (rather than the canonical name)
// would mint a spurious, non-aliased name id.
var knownOperations = []ids.OperationID{
	ids.OpDigest,
	ids.OpCipher,
	ids.OpMAC,
	ids.OpKeyMgmt,
	ids.OpKeyExch,
}

// LibraryContext owns the component singletons of one runtime instance.
type LibraryContext struct {
	mu              sync.RWMutex
	id              string
	names           *nameid.Map
	providers       []*provider.Handle
	defStore        *store.Store
	constructor     *construct.Constructor
	logger          logging.Logger
	metrics         *metrics.RuntimeMetrics
	manager         *observability.Manager
	tracingShutdown func(context.Context) error
	constructOpts   []construct.Option
}

// Option configures a LibraryContext constructed via New.
type Option func(*LibraryContext)

// WithLogger installs a structured logger. Defaults to an info-level
// StructuredLogger.
func WithLogger(l logging.Logger) Option {
	return func(lc *LibraryContext) { lc.logger = l }
}

// WithConstructionLimiter installs the admission-control limiter
// guarding method construction.
func WithConstructionLimiter(l ratelimit.Limiter) Option {
	return func(lc *LibraryContext) {
		lc.constructOpts = append(lc.constructOpts, construct.WithLimiter(l))
	}
}

// WithMetrics installs a RuntimeMetrics recorder, shared by the method
// constructor and by provider teardown-error reporting.
func WithMetrics(m *metrics.RuntimeMetrics) Option {
	return func(lc *LibraryContext) {
		lc.metrics = m
		lc.constructOpts = append(lc.constructOpts, construct.WithMetrics(m))
	}
}

// New returns a freshly constructed, empty library context.
func New(opts ...Option) *LibraryContext {
	lc := &LibraryContext{
		id:       uuid.New().String(),
		names:    nameid.New(),
		defStore: store.New(),
		logger:   logging.NewStructuredLogger(logging.LevelInfo),
	}
	for _, opt := range opts {
		opt(lc)
	}
	lc.constructor = construct.New(lc.constructOpts...)
	return lc
}

var (
	defaultOnce sync.Once
	defaultCtx  *LibraryContext
)

// Default returns the distinguished default instance, lazily
// initialized on first use.
func Default() *LibraryContext {
	defaultOnce.Do(func() {
		defaultCtx = New()
	})
	return defaultCtx
}

// Register adds a provider to the library context and eagerly indexes
// every canonical name and alias it advertises, across every known
// operation kind. Eager indexing (rather than discovering aliases
// lazily during construction) guarantees the "aliases share the same
// id" invariant regardless of which name — canonical or alias — a
// caller happens to ask for first.
func (lc *LibraryContext) Register(p provider.Provider, priority int) *provider.Handle {
	h := provider.NewHandle(p, priority)
	h.SetTeardownHook(lc.onProviderTeardownError)

	lc.mu.Lock()
	lc.providers = append(lc.providers, h)
	lc.mu.Unlock()

	for _, op := range knownOperations {
		algos, err := h.QueryOperation(op)
		if err != nil {
			lc.logger.Warn(context.Background(), "provider query_operation failed during registration",
				logging.String("provider", p.Name()),
				logging.String("operation", op.String()),
				logging.Error(err),
			)
			continue
		}
		for _, a := range algos {
			lc.registerAliases(a.NameString)
		}
	}

	lc.logger.Info(context.Background(), "provider registered",
		logging.String("provider", p.Name()),
		logging.Int("priority", priority),
	)
	return h
}

// onProviderTeardownError is installed as every registered provider's
// TeardownHook. Teardown errors are logged and swallowed; this is the
// logged half of that rule.
func (lc *LibraryContext) onProviderTeardownError(providerName string, err error) {
	lc.logger.Warn(context.Background(), "provider teardown failed",
		logging.String("provider", providerName),
		logging.Error(err),
	)
	if lc.metrics != nil {
		lc.metrics.RecordTeardownError(providerName)
	}
}

func (lc *LibraryContext) registerAliases(nameString string) {
	aliases := splitAliases(nameString)
	if len(aliases) == 0 {
		return
	}
	id := lc.names.Intern(aliases[0])
	for _, alias := range aliases[1:] {
		lc.names.AddAlias(id, alias)
	}
}

// splitAliases splits a colon-joined name string into its canonical
// name and aliases, dropping empty segments.
func splitAliases(nameString string) []string {
	parts := strings.Split(nameString, ":")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NameID implements construct.Library: it returns the id already
// assigned to name by eager registration, interning a fresh one if
// name was never advertised by any registered provider.
func (lc *LibraryContext) NameID(name string) ids.NameID {
	return lc.names.Intern(name)
}

// Providers implements construct.Library.
func (lc *LibraryContext) Providers() []*provider.Handle {
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	out := make([]*provider.Handle, len(lc.providers))
	copy(out, lc.providers)
	return out
}

// DefaultStore implements construct.Library.
func (lc *LibraryContext) DefaultStore() *store.Store {
	return lc.defStore
}

// Constructor implements fetch.Library.
func (lc *LibraryContext) Constructor() *construct.Constructor {
	return lc.constructor
}

// Logger returns the library context's logger.
func (lc *LibraryContext) Logger() logging.Logger {
	return lc.logger
}

// SetDefaultProperties replaces the global default property query,
// invalidating the method store's query cache.
func (lc *LibraryContext) SetDefaultProperties(queryString string) {
	lc.defStore.SetGlobalProperties(queryString)
}

// ReadinessCheck returns a health.Checker that reports the library
// context healthy only if it can actually resolve (op, name, query)
// through a live fetch, the same path any real caller takes.
func (lc *LibraryContext) ReadinessCheck(checkName string, op ids.OperationID, name, query string, adapter store.Adapter) health.Checker {
	return health.NewFetchCheck(checkName, lc, op, name, query, adapter)
}

// AddReadinessCheck registers checker with the library context's
// observability manager, if one was built (see NewFromConfig). It is a
// no-op otherwise, so callers that never enabled metrics don't need to
// guard every call site.
func (lc *LibraryContext) AddReadinessCheck(checker health.Checker) {
	if lc.manager != nil {
		lc.manager.AddReadinessCheck(checker)
	}
}

// HTTPHandler returns the /metrics and /health/ready endpoints for this
// library context, or nil if NewFromConfig never enabled metrics. The
// counters served under /metrics are the same ones construct.Constructor
// and onProviderTeardownError record through, not a second collector.
func (lc *LibraryContext) HTTPHandler() http.Handler {
	if lc.manager == nil {
		return nil
	}
	return lc.manager.HTTPHandler()
}

// Close tears the library context down: releasing the method store
// releases every implementation record, which releases its owning
// provider, which runs teardown.
func (lc *LibraryContext) Close() error {
	lc.defStore.Free()

	lc.mu.Lock()
	providers := lc.providers
	lc.providers = nil
	lc.mu.Unlock()

	for _, h := range providers {
		h.Free()
	}

	if lc.tracingShutdown != nil {
		return lc.tracingShutdown(context.Background())
	}
	return nil
}

// NewFromConfig builds a library context from cfg: it configures
// logging, metrics, tracing and the construction admission limiter per
// cfg, then registers each of cfg.Providers by looking up its factory
// in factories and calling Register with its configured priority. A
// provider named in cfg with no matching factory is a configuration
// error, not silently skipped — a missing provider changes which
// algorithms are reachable, so it must fail loudly at startup rather
// than leave a gap only discovered at first fetch.
func NewFromConfig(cfg *config.Config, factories map[string]func() provider.Provider, opts ...Option) (*LibraryContext, error) {
	allOpts := make([]Option, 0, len(opts)+2)
	logger := logging.NewZapLogger(logging.Level(cfg.Logging.Level))
	allOpts = append(allOpts, WithLogger(logger))

	if cfg.Metrics.Enabled {
		allOpts = append(allOpts, WithMetrics(metrics.NewRuntimeMetrics(metrics.NewPrometheusCollector())))
	}

	if limiter, err := buildLimiter(cfg.Construction); err != nil {
		return nil, err
	} else if limiter != nil {
		allOpts = append(allOpts, WithConstructionLimiter(limiter))
	}

	allOpts = append(allOpts, opts...)
	lc := New(allOpts...)

	if cfg.Metrics.Enabled {
		lc.manager = observability.NewManagerFromComponents(logger, lc.metrics, health.NewReadinessChecker())
	}

	if cfg.Tracing.Enabled {
		shutdown, err := tracing.InitTracing(tracing.Config{
			ServiceName:    cfg.Tracing.ServiceName,
			JaegerEndpoint: cfg.Tracing.Endpoint,
			SamplingRate:   1.0,
			Enabled:        true,
		})
		if err != nil {
			return nil, fmt.Errorf("initializing tracing: %w", err)
		}
		lc.tracingShutdown = shutdown
	}

	for _, pc := range cfg.Providers {
		factory, ok := factories[pc.Name]
		if !ok {
			return nil, fmt.Errorf("libctx: no provider factory registered for %q", pc.Name)
		}
		lc.Register(factory(), pc.Priority)
	}

	if cfg.DefaultQuery != "" {
		lc.SetDefaultProperties(cfg.DefaultQuery)
	}

	return lc, nil
}

// buildLimiter constructs the construction admission limiter cfg
// describes: a distributed Redis-backed limiter when DistributedAddr
// is set, otherwise an in-process token bucket, or nil if throttling
// is disabled (RatePerSecond == 0).
func buildLimiter(cfg config.ConstructionConfig) (ratelimit.Limiter, error) {
	if cfg.RatePerSecond <= 0 {
		return nil, nil
	}
	if cfg.DistributedAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.DistributedAddr})
		d, err := ratelimit.NewDistributed(ratelimit.DistributedConfig{
			RedisClient: client,
			KeyPrefix:   "cryptoprov:construct:",
			Limit:       cfg.Burst,
			Window:      time.Second,
			Config:      ratelimit.DefaultConfig(),
		})
		if err != nil {
			return nil, fmt.Errorf("building distributed construction limiter: %w", err)
		}
		return d, nil
	}
	return ratelimit.NewTokenBucket(ratelimit.TokenBucketConfig{
		Rate:     cfg.RatePerSecond,
		Capacity: cfg.Burst,
		Config:   ratelimit.DefaultConfig(),
	}), nil
}
