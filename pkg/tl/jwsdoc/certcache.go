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

package jwsdoc

import (
	"crypto/sha256"
	"crypto/x509"

	"github.com/hashicorp/golang-lru/arc/v2"

	"github.com/tlsync/tlsync/pkg/private/serrors"
)

// DefaultCertCacheSize is the default number of parsed certificates kept.
const DefaultCertCacheSize = 4096

// CertCache memoizes parsed certificates by the digest of their DER encoding.
// Trust documents of successive cycles mostly carry the same certificates, so
// they are parsed once. A nil CertCache parses every time.
type CertCache struct {
	arc *arc.ARCCache[[sha256.Size]byte, *x509.Certificate]
}

// NewCertCache creates a cache holding up to size certificates.
func NewCertCache(size int) (*CertCache, error) {
	c, err := arc.NewARC[[sha256.Size]byte, *x509.Certificate](size)
	if err != nil {
		return nil, serrors.Wrap("creating certificate cache", err, "size", size)
	}
	return &CertCache{arc: c}, nil
}

// Parse parses a DER encoded certificate.
func (c *CertCache) Parse(der []byte) (*x509.Certificate, error) {
	if c == nil {
		return x509.ParseCertificate(der)
	}
	key := sha256.Sum256(der)
	if cert, ok := c.arc.Get(key); ok {
		return cert, nil
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, err
	}
	c.arc.Add(key, cert)
	return cert, nil
}

// ParseAll parses a list of DER encoded certificates.
func (c *CertCache) ParseAll(ders [][]byte) ([]*x509.Certificate, error) {
	if len(ders) == 0 {
		return nil, nil
	}
	certs := make([]*x509.Certificate, 0, len(ders))
	for i, der := range ders {
		cert, err := c.Parse(der)
		if err != nil {
			return nil, serrors.Wrap("parsing certificate", err, "index", i)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// Len returns the number of cached certificates.
func (c *CertCache) Len() int {
	if c == nil {
		return 0
	}
	return c.arc.Len()
}
