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

// Package config describes the configured trust documents: the lists of lists
// and the trust lists that are refreshed.
package config

import (
	"crypto/x509"
	"io"
	"net/url"
	"path/filepath"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/pemutil"
	"github.com/tlsync/tlsync/private/config"
)

var _ config.Config = (*Config)(nil)

// Config lists the configured documents.
type Config struct {
	LOTLs []LOTL `toml:"lotl,omitempty"`
	TLs   []TL   `toml:"tl,omitempty"`
}

// LOTL configures a list of lists.
type LOTL struct {
	// URL is the location of the document.
	URL string `toml:"url"`
	// Signers are PEM files with the certificates the document is signed
	// with. Relative paths are resolved against the config directory.
	Signers []string `toml:"signers"`
	// PivotSupport enables following signer changes through pivots.
	PivotSupport bool `toml:"pivot_support,omitempty"`
	// SignersAnnouncementURL is the location where signer changes are
	// announced.
	SignersAnnouncementURL string `toml:"signers_announcement_url,omitempty"`
	// Territories restricts the followed trust lists. Empty follows all.
	Territories []string `toml:"territories,omitempty"`
	// MimeType restricts the followed pointers to documents of this type.
	MimeType string `toml:"mime_type,omitempty"`
	// Services selects the services of the derived trust lists.
	Services ServiceFilter `toml:"services,omitempty"`
}

// TL configures a trust list that is not reached through a list of lists.
type TL struct {
	URL      string        `toml:"url"`
	Signers  []string      `toml:"signers"`
	Services ServiceFilter `toml:"services,omitempty"`
}

// ServiceFilter selects trust services.
type ServiceFilter struct {
	// Types restricts the service types. Empty accepts all.
	Types []string `toml:"types,omitempty"`
	// GrantedOnly drops services whose current status is not granted.
	GrantedOnly bool `toml:"granted_only,omitempty"`
}

func (cfg *Config) InitDefaults() {}

// Validate checks that every document has a location and signers and that no
// location is configured twice.
func (cfg *Config) Validate() error {
	seen := make(map[tl.CacheKey]struct{})
	check := func(kind, u string, signers []string) error {
		if u == "" {
			return serrors.New("url must be set", "kind", kind)
		}
		if _, err := url.Parse(u); err != nil {
			return serrors.Wrap("invalid url", err, "kind", kind, "url", u)
		}
		if len(signers) == 0 {
			return serrors.New("signers must be set", "kind", kind, "url", u)
		}
		key := tl.NewCacheKey(u)
		if _, ok := seen[key]; ok {
			return serrors.New("url configured twice", "url", u)
		}
		seen[key] = struct{}{}
		return nil
	}
	for _, l := range cfg.LOTLs {
		if err := check("lotl", l.URL, l.Signers); err != nil {
			return err
		}
	}
	for _, t := range cfg.TLs {
		if err := check("tl", t.URL, t.Signers); err != nil {
			return err
		}
	}
	return nil
}

func (cfg *Config) Sample(dst io.Writer, path config.Path, _ config.CtxMap) {
	config.WriteString(dst, sourcesSample)
}

func (cfg *Config) ConfigName() string {
	return "sources"
}

// Sources loads the signer certificates and returns the configured sources.
// Relative signer files are resolved against dir.
func (cfg *Config) Sources(dir string) ([]tl.LOTLSource, []tl.TLSource, error) {
	lotls := make([]tl.LOTLSource, 0, len(cfg.LOTLs))
	for _, l := range cfg.LOTLs {
		signers, err := readSigners(dir, l.Signers)
		if err != nil {
			return nil, nil, serrors.Wrap("loading signers", err, "url", l.URL)
		}
		lotls = append(lotls, tl.LOTLSource{
			URL:                    l.URL,
			PivotSupport:           l.PivotSupport,
			Signers:                signers,
			SignersAnnouncementURL: l.SignersAnnouncementURL,
			PointerFilter:          l.pointerFilter(),
			ServiceFilter:          l.Services.filter(),
		})
	}
	tls := make([]tl.TLSource, 0, len(cfg.TLs))
	for _, t := range cfg.TLs {
		signers, err := readSigners(dir, t.Signers)
		if err != nil {
			return nil, nil, serrors.Wrap("loading signers", err, "url", t.URL)
		}
		tls = append(tls, tl.TLSource{
			URL:           t.URL,
			Signers:       signers,
			ServiceFilter: t.Services.filter(),
		})
	}
	return lotls, tls, nil
}

func (l LOTL) pointerFilter() tl.PointerFilter {
	var filters []tl.PointerFilter
	if len(l.Territories) > 0 {
		filters = append(filters, tl.TerritoryFilter(l.Territories...))
	}
	if l.MimeType != "" {
		filters = append(filters, tl.MimeTypeFilter(l.MimeType))
	}
	if len(filters) == 0 {
		return nil
	}
	return tl.AllPointers(filters...)
}

func (f ServiceFilter) filter() tl.ServiceFilter {
	var filters []tl.ServiceFilter
	if len(f.Types) > 0 {
		filters = append(filters, tl.ServiceTypeFilter(f.Types...))
	}
	if f.GrantedOnly {
		filters = append(filters, tl.GrantedServices)
	}
	if len(filters) == 0 {
		return nil
	}
	return tl.AllServices(filters...)
}

func readSigners(dir string, files []string) ([]*x509.Certificate, error) {
	var signers []*x509.Certificate
	for _, f := range files {
		if !filepath.IsAbs(f) && dir != "" {
			f = filepath.Join(dir, f)
		}
		certs, err := pemutil.ReadCerts(f)
		if err != nil {
			return nil, err
		}
		signers = append(signers, certs...)
	}
	return signers, nil
}
