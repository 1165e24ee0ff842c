// Copyright 2018 ETH Zurich
// Copyright 2019 ETH Zurich, Anapaya Systems
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

package log

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type loggerContextKey string

const loggerKey loggerContextKey = "logger"

// CtxWith returns a copy of ctx carrying logger. FromCtx recovers it.
func CtxWith(ctx context.Context, logger Logger) context.Context {
	if ctx == nil {
		panic("nil context")
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromCtx returns the logger carried by ctx, or the root logger. If ctx has
// an active tracing span, the returned logger also logs to that span. The
// result is never nil.
func FromCtx(ctx context.Context) Logger {
	if ctx == nil {
		return Root()
	}
	if l, ok := ctx.Value(loggerKey).(Logger); ok && l != nil {
		if _, isSpan := l.(Span); isSpan {
			return l
		}
		return attachSpan(ctx, l)
	}
	return attachSpan(ctx, Root())
}

// WithLabels returns ctx with a logger that carries the additional labels,
// and that logger.
func WithLabels(ctx context.Context, labels ...any) (context.Context, Logger) {
	logger := FromCtx(ctx).New(labels...)
	return CtxWith(ctx, logger), logger
}

func attachSpan(ctx context.Context, l Logger) Logger {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return l
	}
	if optioner, ok := l.(interface{ WithOptions(...zap.Option) Logger }); ok {
		l = optioner.WithOptions(zap.AddCallerSkip(1))
	}
	return Span{Logger: l, Span: span}
}
