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

package tl

import (
	"crypto/x509"
	"fmt"
	"time"
)

// ParsedList is the structured content of a trust document. For a list of
// lists the Pointers are populated, for a trust list the Providers.
type ParsedList struct {
	Kind      Kind
	Territory string
	Sequence  int
	Issued    time.Time
	// NextUpdate is the time by which a newer version will be published. The
	// zero value means the document does not announce one.
	NextUpdate         time.Time
	DistributionPoints []string
	// SelfLocation is the URL the document declares as its own location.
	SelfLocation string
	// SignersAnnouncementURL is the location where changes of the signer set
	// are announced.
	SignersAnnouncementURL string
	// Pivots are the URLs of historical versions of a list of lists, newest
	// first.
	Pivots []string
	// Signers is the signer set the document declares. For a pivot it is the
	// set adopted by the trust chain.
	Signers   []*x509.Certificate
	Pointers  []Pointer
	Providers []Provider
}

// TLPointers returns the pointers to trust lists.
func (p *ParsedList) TLPointers() []Pointer {
	if p == nil {
		return nil
	}
	var ptrs []Pointer
	for _, ptr := range p.Pointers {
		if ptr.Kind == KindTL {
			ptrs = append(ptrs, ptr)
		}
	}
	return ptrs
}

// CertificateCount returns the number of service certificates.
func (p *ParsedList) CertificateCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, prov := range p.Providers {
		for _, svc := range prov.Services {
			n += len(svc.Certificates)
		}
	}
	return n
}

// ServiceCount returns the number of services.
func (p *ParsedList) ServiceCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, prov := range p.Providers {
		n += len(prov.Services)
	}
	return n
}

// Expired reports whether the next update of the document is before now.
func (p *ParsedList) Expired(now time.Time) bool {
	return p != nil && !p.NextUpdate.IsZero() && p.NextUpdate.Before(now)
}

// Pointer references another trust document from a list of lists.
type Pointer struct {
	Location  string
	Kind      Kind
	Territory string
	MimeType  string
	// Signers are the certificates the referenced document must be signed
	// with.
	Signers []*x509.Certificate
}

// Provider is a trust service provider listed in a trust list.
type Provider struct {
	Name       string
	TradeNames []string
	Services   []Service
}

// Service status values.
const (
	StatusGranted   = "granted"
	StatusWithdrawn = "withdrawn"
)

// Service is a trust service of a provider.
type Service struct {
	Name         string
	Type         string
	Status       string
	StatusStart  time.Time
	Certificates []*x509.Certificate
	// History lists the previous states of the service, newest first.
	History []ServiceState
}

// ServiceState is a past status of a service.
type ServiceState struct {
	Status      string
	StatusStart time.Time
}

// StatusAt returns the status of the service at time t. The empty string
// indicates that the service had no status at that time.
func (s Service) StatusAt(t time.Time) string {
	if !t.Before(s.StatusStart) {
		return s.Status
	}
	for _, h := range s.History {
		if !t.Before(h.StatusStart) {
			return h.Status
		}
	}
	return ""
}

// IsGranted reports whether the service is currently granted.
func (s Service) IsGranted() bool {
	return s.Status == StatusGranted
}

// Indication is the outcome of a signature check.
type Indication uint8

const (
	NotChecked Indication = iota
	Valid
	Invalid
)

func (i Indication) String() string {
	switch i {
	case NotChecked:
		return "not_checked"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(i))
	}
}

// ValidationResult is the result of verifying the signature of a document.
type ValidationResult struct {
	Indication Indication
	// SigningCertificate is the expected signer that produced the signature.
	// It is nil unless the indication is Valid.
	SigningCertificate *x509.Certificate
	// SigningTime is the signing time claimed by the document, if any.
	SigningTime time.Time
}

// Valid reports whether the signature is valid.
func (r ValidationResult) Valid() bool {
	return r.Indication == Valid
}
