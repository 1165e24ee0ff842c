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

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlsync/tlsync/pkg/private/xtest"
	"github.com/tlsync/tlsync/pkg/tl/jwsdoc"
	"github.com/tlsync/tlsync/pkg/tl/pemutil"
	"github.com/tlsync/tlsync/pkg/tl/tltest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRoot("tlsync")
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name string, raw []byte) string {
	t.Helper()
	file := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(file, raw, 0o600))
	return file
}

func TestSignAndInspect(t *testing.T) {
	dir := t.TempDir()
	signer := xtest.NewSigner(t, "AT signer")
	other := xtest.NewSigner(t, "other")
	cert := xtest.NewSigner(t, "AT CA")

	payload, err := json.Marshal(jwsdoc.NewDocument(tltest.TL("AT", cert.Cert)))
	require.NoError(t, err)
	payloadFile := writeFile(t, dir, "tl.json", payload)
	rawKey, err := pemutil.EncodeKey(signer.Key)
	require.NoError(t, err)
	keyFile := writeFile(t, dir, "tl.key", rawKey)
	certFile := writeFile(t, dir, "tl.crt", pemutil.EncodeCerts(signer.Cert))
	otherFile := writeFile(t, dir, "other.crt", pemutil.EncodeCerts(other.Cert))
	docFile := filepath.Join(dir, "tl.jws")

	_, err = execute(t, "sign", payloadFile, "--key", keyFile, "--cert", certFile,
		"--out", docFile)
	require.NoError(t, err)

	t.Run("existing output", func(t *testing.T) {
		_, err := execute(t, "sign", payloadFile, "--key", keyFile, "--out", docFile)
		assert.Error(t, err)
	})
	t.Run("mismatching cert", func(t *testing.T) {
		_, err := execute(t, "sign", payloadFile, "--key", keyFile, "--cert", otherFile)
		assert.Error(t, err)
	})
	t.Run("human", func(t *testing.T) {
		out, err := execute(t, "inspect", docFile, "--signers", certFile)
		require.NoError(t, err)
		assert.Contains(t, out, "AT provider")
		assert.Contains(t, out, "AT CA")
		assert.Contains(t, out, "valid")
		assert.Contains(t, out, "CN=AT signer")
	})
	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "inspect", docFile, "--signers", certFile, "--format", "json")
		require.NoError(t, err)
		var res inspection
		require.NoError(t, json.Unmarshal([]byte(out), &res))
		assert.Equal(t, "tl", res.Document.Kind)
		assert.Equal(t, "AT", res.Document.Territory)
		require.NotNil(t, res.Signature)
		assert.Equal(t, "valid", res.Signature.Indication)
	})
	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, "inspect", docFile, "--format", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "territory: AT")
		assert.NotContains(t, out, "signature:")
	})
	t.Run("wrong signer", func(t *testing.T) {
		out, err := execute(t, "inspect", docFile, "--signers", otherFile, "--format", "json")
		assert.Error(t, err)
		assert.Contains(t, out, `"indication": "invalid"`)
	})
	t.Run("bad format", func(t *testing.T) {
		_, err := execute(t, "inspect", docFile, "--format", "xml")
		assert.Error(t, err)
	})
}

func TestCheckPayload(t *testing.T) {
	testCases := map[string]struct {
		Payload   string
		AssertErr assert.ErrorAssertionFunc
	}{
		"valid": {
			Payload:   `{"kind":"tl","sequence":1,"issued":"2026-01-01T00:00:00Z"}`,
			AssertErr: assert.NoError,
		},
		"unknown field": {
			Payload:   `{"kind":"tl","bogus":1}`,
			AssertErr: assert.Error,
		},
		"missing kind": {
			Payload:   `{"sequence":1}`,
			AssertErr: assert.Error,
		},
		"unknown kind": {
			Payload:   `{"kind":"phone_book"}`,
			AssertErr: assert.Error,
		},
		"not json": {
			Payload:   `kind = "tl"`,
			AssertErr: assert.Error,
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			tc.AssertErr(t, checkPayload([]byte(tc.Payload)))
		})
	}
}
