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

// Package tl contains the domain model of trust lists: the source descriptors
// a job is configured with, the structure of parsed documents, and the narrow
// interfaces through which documents are loaded, parsed and verified.
//
// A list of lists (LOTL) is a document whose entries point to other trust
// lists. A trust list (TL) describes trust service providers, their services
// and the certificates those services are authorized to use.
package tl

import (
	"context"
	"crypto/x509"
	"errors"
)

// Errors recorded as causes in cache entries.
var (
	// ErrSignatureInvalid indicates that the document signature did not verify
	// against any of the expected signer certificates.
	ErrSignatureInvalid = errors.New("signature invalid")
	// ErrNoSigners indicates that a source has no expected signer certificates.
	ErrNoSigners = errors.New("no expected signer certificates")
	// ErrPivotChainBroken indicates that the signer set of a LOTL could not be
	// traced back to a trusted signer set through its pivots.
	ErrPivotChainBroken = errors.New("pivot chain broken")
	// ErrUnexpectedKind indicates that the parsed document is of another kind
	// than its source.
	ErrUnexpectedKind = errors.New("unexpected document kind")
)

// Loader fetches the raw bytes of a document. Timeouts are the loader's
// responsibility.
type Loader interface {
	Load(ctx context.Context, url string) ([]byte, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, url string) ([]byte, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

// Parser turns the raw bytes of a document into its structured form. The
// signature is not checked.
type Parser interface {
	Parse(raw []byte) (*ParsedList, error)
}

// Verifier checks the signature of a raw document against a set of expected
// signer certificates. A signature that does not verify is reported as a
// result with indication Invalid and ErrSignatureInvalid; other errors mean
// the signature could not be checked at all.
type Verifier interface {
	Verify(raw []byte, signers []*x509.Certificate) (ValidationResult, error)
}
