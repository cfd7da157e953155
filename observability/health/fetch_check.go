// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package health

import (
	"context"

	"github.com/sage-x-project/cryptoprov/fetch"
	"github.com/sage-x-project/cryptoprov/pkg/ids"
	"github.com/sage-x-project/cryptoprov/store"
)

// FetchCheck is a readiness probe that exercises the runtime the same
// way a real caller does: it performs a fetch of a well-known
// (operation, name, query) against a library context and reports
// unhealthy if construction fails. This is the only reliable way to
// tell that the method store, the registered providers, and the
// constructor's provider walk are all still working together, as
// opposed to a check that merely confirms the process is alive.
type FetchCheck struct {
	// CheckName identifies this probe in a ReadinessChecker's results.
	CheckName string
	// Lib is the library context to probe.
	Lib fetch.Library
	// Op, AlgoName, and Query identify the well-known algorithm to fetch.
	Op       ids.OperationID
	AlgoName string
	Query    string
	// Adapter decodes the algorithm's dispatch table for this operation.
	Adapter store.Adapter
}

// NewFetchCheck returns a FetchCheck named checkName that probes lib by
// fetching (op, name, query) through adapter.
func NewFetchCheck(checkName string, lib fetch.Library, op ids.OperationID, name, query string, adapter store.Adapter) *FetchCheck {
	return &FetchCheck{
		CheckName: checkName,
		Lib:       lib,
		Op:        op,
		AlgoName:  name,
		Query:     query,
		Adapter:   adapter,
	}
}

// Name implements Checker.
func (f *FetchCheck) Name() string {
	return f.CheckName
}

// Check implements Checker: it performs the configured fetch and frees
// the resolved record immediately, since a probe only needs to observe
// that construction succeeds, not to hold the implementation.
func (f *FetchCheck) Check(ctx context.Context) CheckResult {
	rec, err := fetch.Fetch(ctx, f.Lib, f.Op, f.AlgoName, f.Query, f.Adapter)
	if err != nil {
		return CheckResult{
			Name:    f.CheckName,
			Status:  StatusUnhealthy,
			Message: err.Error(),
		}
	}
	rec.Free()
	return CheckResult{
		Name:   f.CheckName,
		Status: StatusHealthy,
	}
}
