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
)

// Kind is the kind of a trust document.
type Kind uint8

const (
	KindUnknown Kind = iota
	// KindLOTL is a list of lists.
	KindLOTL
	// KindTL is a trust list.
	KindTL
)

func (k Kind) String() string {
	switch k {
	case KindLOTL:
		return "lotl"
	case KindTL:
		return "tl"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// ParseKind parses the string representation of a kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "lotl":
		return KindLOTL, nil
	case "tl":
		return KindTL, nil
	default:
		return KindUnknown, fmt.Errorf("unknown document kind %q", s)
	}
}

// Source is the descriptor of one remote document.
type Source interface {
	// SourceURL is the location the document is fetched from.
	SourceURL() string
	// Key is the cache key of the document.
	Key() CacheKey
	// Kind is the expected document kind.
	Kind() Kind
	// ExpectedSigners are the certificates the document must be signed with.
	ExpectedSigners() []*x509.Certificate
	// Filter returns the part of a parsed document the source selects.
	Filter(*ParsedList) *ParsedList
}

// LOTLSource describes a list of lists.
type LOTLSource struct {
	URL string
	// PivotSupport enables the validation of signer changes through the
	// pivots referenced by the document.
	PivotSupport bool
	// Signers is the trusted signer set of the document.
	Signers []*x509.Certificate
	// SignersAnnouncementURL is the location where changes of the signer set
	// are officially announced. If set, a document announcing another location
	// raises an alert.
	SignersAnnouncementURL string
	// PointerFilter selects the pointers to trust lists that are followed. Nil
	// follows all of them.
	PointerFilter PointerFilter
	// ServiceFilter is inherited by the trust lists derived from this source.
	ServiceFilter ServiceFilter
}

func (s LOTLSource) SourceURL() string                    { return s.URL }
func (s LOTLSource) Key() CacheKey                        { return NewCacheKey(s.URL) }
func (s LOTLSource) Kind() Kind                           { return KindLOTL }
func (s LOTLSource) ExpectedSigners() []*x509.Certificate { return s.Signers }

// Filter drops the trust list pointers rejected by the pointer filter.
// Pointers to other lists of lists are kept as they are not followed.
func (s LOTLSource) Filter(p *ParsedList) *ParsedList {
	if p == nil || s.PointerFilter == nil {
		return p
	}
	c := *p
	c.Pointers = nil
	for _, ptr := range p.Pointers {
		if ptr.Kind != KindTL || s.PointerFilter(ptr) {
			c.Pointers = append(c.Pointers, ptr)
		}
	}
	return &c
}

// TLSource describes a trust list. It is either configured or derived from a
// pointer of a list of lists.
type TLSource struct {
	URL     string
	Signers []*x509.Certificate
	// ServiceFilter selects the services whose certificates are trusted. Nil
	// selects all of them.
	ServiceFilter ServiceFilter
	// Parent is the location of the list of lists the source was derived
	// from. It is empty for configured sources.
	Parent string
	// Territory is the territory declared by the parent pointer.
	Territory string
}

func (s TLSource) SourceURL() string                    { return s.URL }
func (s TLSource) Key() CacheKey                        { return NewCacheKey(s.URL) }
func (s TLSource) Kind() Kind                           { return KindTL }
func (s TLSource) ExpectedSigners() []*x509.Certificate { return s.Signers }

// Derived reports whether the source was derived from a list of lists.
func (s TLSource) Derived() bool {
	return s.Parent != ""
}

// Filter drops the services rejected by the service filter, and providers
// left without services.
func (s TLSource) Filter(p *ParsedList) *ParsedList {
	if p == nil || s.ServiceFilter == nil {
		return p
	}
	c := *p
	c.Providers = nil
	for _, prov := range p.Providers {
		kept := prov
		kept.Services = nil
		for _, svc := range prov.Services {
			if s.ServiceFilter(prov, svc) {
				kept.Services = append(kept.Services, svc)
			}
		}
		if len(kept.Services) > 0 {
			c.Providers = append(c.Providers, kept)
		}
	}
	return &c
}
