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

package util_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/private/util"
)

func TestParseDuration(t *testing.T) {
	testCases := map[string]struct {
		Input     string
		Expected  time.Duration
		assertErr assert.ErrorAssertionFunc
	}{
		"seconds":  {Input: "30s", Expected: 30 * time.Second, assertErr: assert.NoError},
		"minutes":  {Input: "5m", Expected: 5 * time.Minute, assertErr: assert.NoError},
		"days":     {Input: "2d", Expected: 48 * time.Hour, assertErr: assert.NoError},
		"weeks":    {Input: "1w", Expected: 7 * 24 * time.Hour, assertErr: assert.NoError},
		"no unit":  {Input: "10", assertErr: assert.Error},
		"compound": {Input: "1h30m", assertErr: assert.Error},
		"empty":    {Input: "", assertErr: assert.Error},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			d, err := util.ParseDuration(tc.Input)
			tc.assertErr(t, err)
			assert.Equal(t, tc.Expected, d)
		})
	}
}

func TestFmtDuration(t *testing.T) {
	assert.Equal(t, "0s", util.FmtDuration(0))
	assert.Equal(t, "90m", util.FmtDuration(90*time.Minute))
	assert.Equal(t, "1d", util.FmtDuration(24*time.Hour))
	assert.Equal(t, "1500ms", util.FmtDuration(1500*time.Millisecond))
}

func TestDurWrap(t *testing.T) {
	var d util.DurWrap
	require.NoError(t, d.UnmarshalText([]byte("10m")))
	assert.Equal(t, 10*time.Minute, d.Duration)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "10m", string(text))
}
