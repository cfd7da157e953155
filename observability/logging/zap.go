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
	"math/rand"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts go.uber.org/zap to the Logger interface. It is the
// production backend: library contexts built from configuration log
// through it, while tests and zero-config callers keep the dependency-
// free StructuredLogger.
type ZapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel

	mu           sync.RWMutex
	samplingRate float64
}

// NewZapLogger creates a zap-backed logger writing JSON to stdout, with
// field names matching StructuredLogger's output so the two backends
// are interchangeable downstream.
func NewZapLogger(level Level) *ZapLogger {
	atomic := zap.NewAtomicLevelAt(zapLevel(level))
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(os.Stdout), atomic)
	return &ZapLogger{base: zap.New(core), level: atomic, samplingRate: 1.0}
}

// NewZapLoggerWithCore creates a logger on a caller-supplied core. The
// core's own enabler gates output; SetLevel still adjusts the threshold
// this logger checks before handing entries to the core.
func NewZapLoggerWithCore(level Level, core zapcore.Core) *ZapLogger {
	return &ZapLogger{
		base:         zap.New(core),
		level:        zap.NewAtomicLevelAt(zapLevel(level)),
		samplingRate: 1.0,
	}
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelInfo:
		return zapcore.InfoLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelFatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapLogger) zapFields(ctx context.Context, fields []Field) []zap.Field {
	ctxFields := extractContextFields(ctx)
	out := make([]zap.Field, 0, len(ctxFields)+len(fields))
	for _, f := range ctxFields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}

// Debug logs a debug message, subject to the sampling rate.
func (l *ZapLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	if !l.level.Enabled(zapcore.DebugLevel) {
		return
	}
	l.mu.RLock()
	rate := l.samplingRate
	l.mu.RUnlock()
	if rate < 1.0 && rand.Float64() > rate {
		return
	}
	l.base.Debug(msg, l.zapFields(ctx, fields)...)
}

// Info logs an informational message.
func (l *ZapLogger) Info(ctx context.Context, msg string, fields ...Field) {
	if !l.level.Enabled(zapcore.InfoLevel) {
		return
	}
	l.base.Info(msg, l.zapFields(ctx, fields)...)
}

// Warn logs a warning message.
func (l *ZapLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	if !l.level.Enabled(zapcore.WarnLevel) {
		return
	}
	l.base.Warn(msg, l.zapFields(ctx, fields)...)
}

// Error logs an error message.
func (l *ZapLogger) Error(ctx context.Context, msg string, fields ...Field) {
	if !l.level.Enabled(zapcore.ErrorLevel) {
		return
	}
	l.base.Error(msg, l.zapFields(ctx, fields)...)
}

// Fatal logs a fatal message and exits.
func (l *ZapLogger) Fatal(ctx context.Context, msg string, fields ...Field) {
	l.base.Fatal(msg, l.zapFields(ctx, fields)...)
}

// With creates a child logger with persistent fields.
func (l *ZapLogger) With(fields ...Field) Logger {
	zfields := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zfields = append(zfields, zap.Any(f.Key, f.Value))
	}

	l.mu.RLock()
	rate := l.samplingRate
	l.mu.RUnlock()

	return &ZapLogger{
		base:         l.base.With(zfields...),
		level:        l.level,
		samplingRate: rate,
	}
}

// SetLevel sets the minimum log level.
func (l *ZapLogger) SetLevel(level Level) {
	l.level.SetLevel(zapLevel(level))
}

// SetSamplingRate sets the sampling rate for debug logs.
func (l *ZapLogger) SetSamplingRate(rate float64) {
	if rate < 0.0 {
		rate = 0.0
	}
	if rate > 1.0 {
		rate = 1.0
	}
	l.mu.Lock()
	l.samplingRate = rate
	l.mu.Unlock()
}

// Sync flushes any buffered log entries.
func (l *ZapLogger) Sync() error {
	return l.base.Sync()
}
