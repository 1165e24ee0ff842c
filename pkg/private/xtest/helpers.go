// Copyright 2018 ETH Zurich
// Copyright 2020 ETH Zurich, Anapaya Systems
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

// Package xtest contains helpers shared by the tests of many packages.
package xtest

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// UpdateGoldenFiles registers the '-update' flag for the test.
//
// This flag should be checked by golden file tests to see whether the golden
// files should be updated or not. The flag should be registered as a package
// global variable:
//
//	var update = xtest.UpdateGoldenFiles()
func UpdateGoldenFiles() *bool {
	return flag.Bool("update", false, "set to regenerate the golden files")
}

// MustWriteToFile writes b to testdata/baseName, failing the test on error.
func MustWriteToFile(t testing.TB, b []byte, baseName string) {
	t.Helper()
	err := os.WriteFile(filepath.Join("testdata", baseName), b, 0o644)
	require.NoError(t, err)
}

// MustReadFromFile reads testdata/baseName, failing the test on error.
func MustReadFromFile(t testing.TB, baseName string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", baseName))
	require.NoError(t, err)
	return b
}

// FailOnErr causes t to exit with a fatal error if err is non-nil.
func FailOnErr(t testing.TB, err error, desc ...string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", desc, err)
	}
}

// AssertReadReturnsBefore will call t.Fatalf if the first read from the
// channel doesn't happen before timeout.
func AssertReadReturnsBefore(t testing.TB, ch <-chan struct{}, timeout time.Duration) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(timeout):
		t.Fatalf("goroutine took too long to finish")
	}
}

// AssertReadDoesNotReturnBefore will call t.Fatalf if the first read from the
// channel happens before timeout.
func AssertReadDoesNotReturnBefore(t testing.TB, ch <-chan struct{}, timeout time.Duration) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("goroutine finished too quickly")
	case <-time.After(timeout):
	}
}

// AssertErrorsIs checks that errors.Is(actualErr, expectedErr) returns true, if
// expectedErr is not nil.
func AssertErrorsIs(t testing.TB, actualErr, expectedErr error) {
	t.Helper()
	assert.True(t, errors.Is(actualErr, expectedErr), "Expect '%v' to be or contain '%v'",
		actualErr, expectedErr)
}
