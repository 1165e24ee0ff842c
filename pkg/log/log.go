// Copyright 2026 The tlsync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is the structured logger used throughout tlsync. It is a thin
// key/value layer on top of zap.
//
// Messages start with a capital letter and carry context as alternating
// key/value pairs:
//
//	logger.Info("Refresh finished", "mode", "online", "duration", d)
package log

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level is a logging level.
type Level zapcore.Level

const (
	DebugLevel Level = Level(zapcore.DebugLevel)
	InfoLevel  Level = Level(zapcore.InfoLevel)
	ErrorLevel Level = Level(zapcore.ErrorLevel)
)

// Logger describes the logger interface.
type Logger interface {
	New(ctx ...any) Logger
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Enabled(lvl Level) bool
}

type logger struct {
	logger *zap.Logger
}

// New creates a logger with the given context derived from the root logger.
func New(ctx ...any) Logger {
	return &logger{logger: zap.L().With(convertCtx(ctx)...)}
}

// Root returns the root logger. It is the same as New with no context.
func Root() Logger {
	return &logger{logger: zap.L()}
}

func (l *logger) New(ctx ...any) Logger {
	return &logger{logger: l.logger.With(convertCtx(ctx)...)}
}

func (l *logger) Debug(msg string, ctx ...any) {
	l.logger.Debug(msg, convertCtx(ctx)...)
}

func (l *logger) Info(msg string, ctx ...any) {
	l.logger.Info(msg, convertCtx(ctx)...)
}

func (l *logger) Error(msg string, ctx ...any) {
	l.logger.Error(msg, convertCtx(ctx)...)
}

func (l *logger) Enabled(lvl Level) bool {
	return l.logger.Core().Enabled(zapcore.Level(lvl))
}

// WithOptions returns a copy of the logger with the zap options applied.
func (l *logger) WithOptions(opts ...zap.Option) Logger {
	return &logger{logger: l.logger.WithOptions(opts...)}
}

// Debug logs at debug level on the root logger.
func Debug(msg string, ctx ...any) {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Debug(msg, convertCtx(ctx)...)
}

// Info logs at info level on the root logger.
func Info(msg string, ctx ...any) {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Info(msg, convertCtx(ctx)...)
}

// Error logs at error level on the root logger.
func Error(msg string, ctx ...any) {
	zap.L().WithOptions(zap.AddCallerSkip(1)).Error(msg, convertCtx(ctx)...)
}

// SafeDebug logs to l only if l is not nil.
func SafeDebug(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Debug(msg, ctx...)
	}
}

// SafeInfo logs to l only if l is not nil.
func SafeInfo(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Info(msg, ctx...)
	}
}

// SafeError logs to l only if l is not nil.
func SafeError(l Logger, msg string, ctx ...any) {
	if l != nil {
		l.Error(msg, ctx...)
	}
}

// HandlePanic catches panics and logs them. The panic is then re-raised so
// that the process still terminates. It must be deferred at the top of every
// goroutine.
func HandlePanic() {
	if msg := recover(); msg != nil {
		zap.L().Error("Panic", zap.Any("msg", msg), zap.StackSkip("stack", 1))
		Flush()
		panic(msg)
	}
}

// Flush writes the logs to the underlying buffer.
func Flush() {
	_ = zap.L().Sync()
}

func convertCtx(ctx []any) []zap.Field {
	fields := make([]zap.Field, 0, len(ctx)/2)
	for i := 0; i+1 < len(ctx); i += 2 {
		key, ok := ctx[i].(string)
		if !ok {
			key = fmt.Sprint(ctx[i])
		}
		fields = append(fields, zap.Any(key, ctx[i+1]))
	}
	return fields
}
