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

// Package certstore contains the certificate store that validators consult to
// decide which certificates are trusted. The store holds an immutable
// snapshot that is replaced as a whole, so readers never observe a partially
// applied update and never block.
package certstore

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"sort"
	"sync/atomic"
	"time"

	"github.com/tlsync/tlsync/pkg/tl"
)

// Fingerprint is the hex encoded SHA-256 digest of the DER encoding of a
// certificate.
type Fingerprint string

// FingerprintOf computes the fingerprint of cert.
func FingerprintOf(cert *x509.Certificate) Fingerprint {
	sum := sha256.Sum256(cert.Raw)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// Provenance describes where a trusted certificate was found.
type Provenance struct {
	// TLURL is the location of the trust list listing the certificate.
	TLURL string
	// LOTLURL is the location of the list of lists the trust list was derived
	// from. It is empty for configured trust lists.
	LOTLURL   string
	Territory string
	Provider  string
	Service   tl.Service
}

// Entry is a trusted certificate with every place it was found.
type Entry struct {
	Certificate *x509.Certificate
	Fingerprint Fingerprint
	Provenance  []Provenance
}

// TrustedAt reports whether any service the certificate is listed under was
// granted at time t.
func (e *Entry) TrustedAt(t time.Time) bool {
	for _, p := range e.Provenance {
		if p.Service.StatusAt(t) == tl.StatusGranted {
			return true
		}
	}
	return false
}

// Snapshot is an immutable set of trusted certificates.
type Snapshot struct {
	entries map[Fingerprint]*Entry
	sorted  []*Entry
	digest  string
	created time.Time
}

// Len returns the number of distinct certificates.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.sorted)
}

// Entries returns the entries ordered by fingerprint. The returned slice must
// not be modified.
func (s *Snapshot) Entries() []*Entry {
	if s == nil {
		return nil
	}
	return s.sorted
}

// Lookup returns the entry of cert.
func (s *Snapshot) Lookup(cert *x509.Certificate) (*Entry, bool) {
	if s == nil || cert == nil {
		return nil, false
	}
	e, ok := s.entries[FingerprintOf(cert)]
	return e, ok
}

// BySubjectKeyID returns the entries whose certificate carries the given
// subject key identifier.
func (s *Snapshot) BySubjectKeyID(skid []byte) []*Entry {
	if s == nil || len(skid) == 0 {
		return nil
	}
	var r []*Entry
	for _, e := range s.sorted {
		if bytes.Equal(e.Certificate.SubjectKeyId, skid) {
			r = append(r, e)
		}
	}
	return r
}

// Digest identifies the content of the snapshot. Two snapshots with the same
// certificates and provenance have the same digest.
func (s *Snapshot) Digest() string {
	if s == nil {
		return ""
	}
	return s.digest
}

// Created is the time the snapshot was built.
func (s *Snapshot) Created() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.created
}

// Store holds the current snapshot. The zero value is an empty store ready to
// use.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// Snapshot returns the current snapshot. It is nil before the first Replace.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Replace atomically installs snap as the current content and reports whether
// the content changed. A store without a snapshot counts as empty.
func (s *Store) Replace(snap *Snapshot) bool {
	old := s.current.Swap(snap)
	if old.Len() == 0 && snap.Len() == 0 {
		return false
	}
	return old.Digest() != snap.Digest()
}

// Len returns the number of certificates in the current snapshot.
func (s *Store) Len() int {
	return s.Snapshot().Len()
}

// Lookup looks cert up in the current snapshot.
func (s *Store) Lookup(cert *x509.Certificate) (*Entry, bool) {
	return s.Snapshot().Lookup(cert)
}

// TrustedAt reports whether cert is in the current snapshot and was granted
// at time t.
func (s *Store) TrustedAt(cert *x509.Certificate, t time.Time) bool {
	e, ok := s.Lookup(cert)
	return ok && e.TrustedAt(t)
}

// Builder collects certificates for a new snapshot. It must not be used
// concurrently.
type Builder struct {
	entries map[Fingerprint]*Entry
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[Fingerprint]*Entry)}
}

// Add records cert with its provenance. Certificates found in several places
// are merged into one entry.
func (b *Builder) Add(cert *x509.Certificate, p Provenance) {
	fp := FingerprintOf(cert)
	e, ok := b.entries[fp]
	if !ok {
		e = &Entry{Certificate: cert, Fingerprint: fp}
		b.entries[fp] = e
	}
	e.Provenance = append(e.Provenance, p)
}

// Len returns the number of distinct certificates added so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build creates the snapshot. The builder must not be used afterwards.
func (b *Builder) Build(now time.Time) *Snapshot {
	sorted := make([]*Entry, 0, len(b.entries))
	for _, e := range b.entries {
		sort.SliceStable(e.Provenance, func(i, j int) bool {
			return provenanceKey(e.Provenance[i]) < provenanceKey(e.Provenance[j])
		})
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Fingerprint < sorted[j].Fingerprint
	})
	h := sha256.New()
	for _, e := range sorted {
		h.Write([]byte(e.Fingerprint))
		for _, p := range e.Provenance {
			h.Write([]byte{0})
			h.Write([]byte(provenanceKey(p)))
		}
		h.Write([]byte{'\n'})
	}
	return &Snapshot{
		entries: b.entries,
		sorted:  sorted,
		digest:  hex.EncodeToString(h.Sum(nil)),
		created: now,
	}
}

func provenanceKey(p Provenance) string {
	return p.TLURL + "|" + p.LOTLURL + "|" + p.Territory + "|" + p.Provider + "|" +
		p.Service.Name + "|" + p.Service.Type + "|" + p.Service.Status + "|" +
		p.Service.StatusStart.UTC().Format(time.RFC3339)
}
