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

// Package pemutil reads the PEM encoded certificates and keys referenced by
// tlsync configurations.
package pemutil

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/tlsync/tlsync/pkg/private/serrors"
)

// ParseCerts parses all CERTIFICATE blocks in raw. Other blocks are rejected.
func ParseCerts(raw []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for len(raw) > 0 {
		var block *pem.Block
		block, raw = pem.Decode(raw)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			return nil, serrors.New("unsupported PEM block", "type", block.Type)
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, serrors.Wrap("parsing certificate", err, "index", len(certs))
		}
		certs = append(certs, cert)
	}
	if len(certs) == 0 {
		return nil, serrors.New("no certificate found")
	}
	return certs, nil
}

// ReadCerts reads the certificates in file.
func ReadCerts(file string) ([]*x509.Certificate, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, serrors.Wrap("reading certificate file", err, "file", file)
	}
	certs, err := ParseCerts(raw)
	if err != nil {
		return nil, serrors.Wrap("parsing certificate file", err, "file", file)
	}
	return certs, nil
}

// ParseKey parses the first PEM block in raw as a private key. PKCS#8, EC
// and PKCS#1 encodings are supported.
func ParseKey(raw []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, serrors.New("parsing input failed")
	}
	var key any
	var err error
	switch block.Type {
	case "PRIVATE KEY":
		key, err = x509.ParsePKCS8PrivateKey(block.Bytes)
	case "EC PRIVATE KEY":
		key, err = x509.ParseECPrivateKey(block.Bytes)
	case "RSA PRIVATE KEY":
		key, err = x509.ParsePKCS1PrivateKey(block.Bytes)
	default:
		return nil, serrors.New("unsupported PEM block", "type", block.Type)
	}
	if err != nil {
		return nil, serrors.Wrap("parsing private key", err)
	}
	signer, ok := key.(crypto.Signer)
	if !ok {
		return nil, serrors.New("unsupported private key type", "type", fmt.Sprintf("%T", key))
	}
	return signer, nil
}

// ReadKey reads the private key in file.
func ReadKey(file string) (crypto.Signer, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, serrors.Wrap("reading key file", err, "file", file)
	}
	key, err := ParseKey(raw)
	if err != nil {
		return nil, serrors.Wrap("parsing key file", err, "file", file)
	}
	return key, nil
}

// EncodeCerts encodes the certificates as a PEM bundle.
func EncodeCerts(certs ...*x509.Certificate) []byte {
	var out []byte
	for _, c := range certs {
		out = append(out, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: c.Raw})...)
	}
	return out
}

// EncodeKey encodes the key in PKCS#8 form.
func EncodeKey(key crypto.Signer) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, serrors.Wrap("marshalling private key", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
