// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

package logging

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedZap(level Level) (*ZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewZapLoggerWithCore(level, core), logs
}

func TestZapLoggerLevels(t *testing.T) {
	logger, logs := newObservedZap(LevelWarn)
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries above warn, got %d", logs.Len())
	}
	if logs.All()[0].Message != "warn message" {
		t.Errorf("unexpected first message %q", logs.All()[0].Message)
	}
}

func TestZapLoggerContextFields(t *testing.T) {
	logger, logs := newObservedZap(LevelInfo)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithProviderID(ctx, "prov-1")

	logger.Info(ctx, "constructing")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	fields := logs.All()[0].ContextMap()
	if fields["request_id"] != "req-123" {
		t.Errorf("request_id = %v", fields["request_id"])
	}
	if fields["provider_id"] != "prov-1" {
		t.Errorf("provider_id = %v", fields["provider_id"])
	}
}

func TestZapLoggerWith(t *testing.T) {
	logger, logs := newObservedZap(LevelInfo)

	child := logger.With(String("provider_id", "prov-1"))
	child.Info(context.Background(), "registered")
	child.Info(context.Background(), "torn down")

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	for _, entry := range logs.All() {
		if entry.ContextMap()["provider_id"] != "prov-1" {
			t.Errorf("entry %q missing persistent field", entry.Message)
		}
	}
}

func TestZapLoggerSetLevel(t *testing.T) {
	logger, logs := newObservedZap(LevelError)
	ctx := context.Background()

	logger.Info(ctx, "dropped")
	logger.SetLevel(LevelDebug)
	logger.Info(ctx, "kept")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	if logs.All()[0].Message != "kept" {
		t.Errorf("unexpected message %q", logs.All()[0].Message)
	}
}

func TestZapLoggerErrorField(t *testing.T) {
	logger, logs := newObservedZap(LevelInfo)

	logger.Error(context.Background(), "teardown failed", Error(errors.New("boom")))

	if logs.Len() != 1 {
		t.Fatalf("expected 1 entry, got %d", logs.Len())
	}
	if logs.All()[0].ContextMap()["error"] != "boom" {
		t.Errorf("error field = %v", logs.All()[0].ContextMap()["error"])
	}
}
