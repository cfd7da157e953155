// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package fetch implements the generic fetch and do-all entry points:
// fetch resolves a single (operation, name, query) through the
// method constructor, while do-all enumerates every algorithm a set of
// providers registers for an operation without touching the method
// store at all.
package fetch

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sage-x-project/cryptoprov/construct"
	"github.com/sage-x-project/cryptoprov/observability/tracing"
	pkgerrors "github.com/sage-x-project/cryptoprov/pkg/errors"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/property"
	"github.com/sage-x-project/cryptoprov/store"
)

// Library is the subset of a library context fetch and do-all need.
// libctx.LibraryContext implements it.
type Library interface {
	construct.Library
	// Constructor returns the library context's method constructor.
	Constructor() *construct.Constructor
}

// Fetch resolves (op, name, query) to an implementation record,
// constructing and caching it on first use. The returned record's
// reference count is incremented on success; the caller must Free it.
func Fetch(ctx context.Context, lib Library, op ids.OperationID, name, queryString string, adapter store.Adapter) (*store.Record, error) {
	if op == 0 {
		return nil, pkgerrors.New(pkgerrors.CategoryMisuse, "ZERO_OPERATION", "operation id must be non-zero")
	}

	ctx, span := tracing.StartSpan(ctx, "fetch."+op.String())
	defer span.End()
	tracing.SetAttributes(span, attribute.String("name", name), attribute.String("query", queryString))

	rec, err := lib.Constructor().Construct(ctx, lib, op, name, queryString, adapter)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return rec, nil
}

// DoAll iterates every registered algorithm of op across every
// registered provider. For each, it constructs a transient
// implementation record via adapter, invokes userFn, then releases it.
// Iteration order is unspecified; the pass is single-pass with no
// deduplication across providers — a caller with the same algorithm
// registered by two providers observes it twice. An algorithm whose
// dispatch table fails the adapter's completeness rule is skipped
// rather than aborting the whole pass, so one malformed entry cannot
// hide every other provider's algorithms.
func DoAll(lib Library, op ids.OperationID, adapter store.Adapter, userFn func(rec *store.Record)) error {
	if op == 0 {
		return pkgerrors.New(pkgerrors.CategoryMisuse, "ZERO_OPERATION", "operation id must be non-zero")
	}

	_, span := tracing.StartSpan(context.Background(), "do_all."+op.String())
	defer span.End()

	seen := 0
	for _, h := range lib.Providers() {
		algos, err := h.QueryOperation(op)
		if err != nil {
			werr := pkgerrors.ErrProviderQueryFailed.Wrap(err).WithProvider(h.Name(), 0)
			tracing.RecordError(span, werr)
			return werr
		}
		for _, a := range algos {
			rec, err := adapter(h, canonicalName(a.NameString), 0, a.Dispatch)
			if err != nil {
				continue
			}
			if def, err := property.ParseDefinition(a.Properties); err == nil {
				rec.Def = def
			}
			userFn(rec)
			rec.Free()
			seen++
		}
	}
	tracing.SetAttributes(span, attribute.Int("algorithms_visited", seen))
	return nil
}

func canonicalName(nameString string) string {
	for i := 0; i < len(nameString); i++ {
		if nameString[i] == ':' {
			return nameString[:i]
		}
	}
	return nameString
}
