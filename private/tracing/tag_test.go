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

package tracing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"

	"github.com/tlsync/tlsync/private/tracing"
)

func TestTags(t *testing.T) {
	tracer := mocktracer.New()
	span := tracer.StartSpan("refresh")
	tracing.Component(span, "job")
	tracing.ResultLabel(span, "ok_success")
	tracing.Error(span, nil)
	span.Finish()

	finished := tracer.FinishedSpans()
	assert.Len(t, finished, 1)
	assert.Equal(t, "job", finished[0].Tag("component"))
	assert.Equal(t, "ok_success", finished[0].Tag("result.label"))
	assert.Nil(t, finished[0].Tag("error"))

	span = tracer.StartSpan("refresh")
	tracing.Error(span, errors.New("boom"))
	span.Finish()
	assert.Equal(t, true, tracer.FinishedSpans()[1].Tag("error"))
}

func TestCtxWith(t *testing.T) {
	span, ctx := tracing.CtxWith(context.Background(), "refresh", "job")
	defer span.Finish()
	assert.NotNil(t, ctx)
}
