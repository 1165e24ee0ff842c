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

// Package summary builds the read-only report of a refresh cycle from the
// cache. Summaries are served by the management API, stored in the history
// database and evaluated by alerts.
package summary

import (
	"crypto/x509"
	"time"

	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/certstore"
	"github.com/tlsync/tlsync/private/tl/cache"
)

// Summary is the report of one cycle.
type Summary struct {
	Created                time.Time    `json:"created"`
	LOTLs                  []LOTLInfo   `json:"lotls"`
	OtherTLs               []SourceInfo `json:"other_tls"`
	NumberOfProcessedLOTLs int          `json:"processed_lotls"`
	NumberOfProcessedTLs   int          `json:"processed_tls"`
}

// StateInfo describes one sub-state of a cache entry.
type StateInfo struct {
	Status      string    `json:"status"`
	Time        time.Time `json:"time,omitzero"`
	LastSuccess time.Time `json:"last_success,omitzero"`
	Cause       string    `json:"cause,omitempty"`
}

// DownloadInfo describes the download state.
type DownloadInfo struct {
	StateInfo
	Digest string `json:"digest,omitempty"`
}

// ParsingInfo describes the parsing state and the discovered entities.
type ParsingInfo struct {
	StateInfo
	Territory              string    `json:"territory,omitempty"`
	Sequence               int       `json:"sequence,omitempty"`
	Issued                 time.Time `json:"issued,omitzero"`
	NextUpdate             time.Time `json:"next_update,omitzero"`
	SelfLocation           string    `json:"self_location,omitempty"`
	SignersAnnouncementURL string    `json:"signers_announcement,omitempty"`
	Pointers               int       `json:"pointers"`
	Providers              int       `json:"providers"`
	Services               int       `json:"services"`
	Certificates           int       `json:"certificates"`
}

// ValidationInfo describes the validation state.
type ValidationInfo struct {
	StateInfo
	Indication         string    `json:"indication"`
	SigningCertificate string    `json:"signing_certificate,omitempty"`
	SigningTime        time.Time `json:"signing_time,omitzero"`
}

// SourceInfo describes one document.
type SourceInfo struct {
	URL               string         `json:"url"`
	Kind              string         `json:"kind"`
	Territory         string         `json:"territory,omitempty"`
	Download          DownloadInfo   `json:"download"`
	Parsing           ParsingInfo    `json:"parsing"`
	Validation        ValidationInfo `json:"validation"`
	MarkedForDeletion bool           `json:"marked_for_deletion,omitempty"`
	Synchronized      bool           `json:"synchronized"`
}

// SourceURL returns the location of the document.
func (i SourceInfo) SourceURL() string {
	return i.URL
}

// DownloadError reports whether the last download failed.
func (i SourceInfo) DownloadError() bool {
	return i.Download.Status == cache.Error.String()
}

// ParsingError reports whether the last parse failed.
func (i SourceInfo) ParsingError() bool {
	return i.Parsing.Status == cache.Error.String()
}

// SignatureError reports whether the signature was checked and not found
// valid.
func (i SourceInfo) SignatureError() bool {
	return i.Validation.Status == cache.Error.String()
}

// Expired reports whether the document is past its next update.
func (i SourceInfo) Expired(now time.Time) bool {
	nu := i.Parsing.NextUpdate
	return !nu.IsZero() && nu.Before(now)
}

// LOTLInfo describes a list of lists with its trust lists and pivots.
type LOTLInfo struct {
	SourceInfo
	// ExpectedSignersAnnouncementURL is the configured announcement location.
	ExpectedSignersAnnouncementURL string       `json:"expected_signers_announcement,omitempty"`
	TLs                            []SourceInfo `json:"tls"`
	Pivots                         []PivotInfo  `json:"pivots,omitempty"`
}

// LocationChanged reports whether the list of lists declares another
// location than the one it is fetched from.
func (i LOTLInfo) LocationChanged() bool {
	self := i.Parsing.SelfLocation
	return self != "" && tl.NewCacheKey(self) != tl.NewCacheKey(i.URL)
}

// SignersAnnouncementChanged reports whether the list of lists announces its
// signer changes at another location than configured.
func (i LOTLInfo) SignersAnnouncementChanged() bool {
	got := i.Parsing.SignersAnnouncementURL
	want := i.ExpectedSignersAnnouncementURL
	return want != "" && got != "" && tl.NewCacheKey(got) != tl.NewCacheKey(want)
}

// CertificateChange is the change of one signer certificate between two
// consecutive signer sets of a pivot chain.
type CertificateChange string

const (
	Added     CertificateChange = "added"
	Unchanged CertificateChange = "unchanged"
	Removed   CertificateChange = "removed"
)

// PivotInfo describes one pivot.
type PivotInfo struct {
	SourceInfo
	// Changes maps the fingerprint of each signer certificate to its change
	// relative to the signer set trusted before the pivot.
	Changes map[certstore.Fingerprint]CertificateChange `json:"changes"`
}

// Build creates the summary from the cache. tls are the trust list sources
// of the cycle, derived and configured.
func Build(c *cache.Cache, lotls []tl.LOTLSource, tls []tl.TLSource, now time.Time) *Summary {
	s := &Summary{
		Created:                now,
		NumberOfProcessedLOTLs: len(lotls),
		NumberOfProcessedTLs:   len(tls),
	}
	for _, l := range lotls {
		info := LOTLInfo{
			SourceInfo:                     sourceInfo(c, l.URL, tl.KindLOTL, ""),
			ExpectedSignersAnnouncementURL: l.SignersAnnouncementURL,
		}
		for _, t := range tls {
			if t.Parent == l.URL {
				info.TLs = append(info.TLs, sourceInfo(c, t.URL, tl.KindTL, t.Territory))
			}
		}
		info.Pivots = pivotInfos(c, l)
		s.LOTLs = append(s.LOTLs, info)
	}
	for _, t := range tls {
		if t.Parent == "" {
			s.OtherTLs = append(s.OtherTLs, sourceInfo(c, t.URL, tl.KindTL, t.Territory))
		}
	}
	return s
}

// pivotInfos reports the pivots of l newest first. The certificate changes
// are computed by walking the chain from the configured signers on.
func pivotInfos(c *cache.Cache, l tl.LOTLSource) []PivotInfo {
	snap, ok := c.Snapshot(l.Key())
	if !ok || snap.Parsing.Result == nil || len(snap.Parsing.Result.Pivots) == 0 {
		return nil
	}
	pivots := snap.Parsing.Result.Pivots
	infos := make([]PivotInfo, len(pivots))
	trusted := l.Signers
	for i := len(pivots) - 1; i >= 0; i-- {
		infos[i] = PivotInfo{SourceInfo: sourceInfo(c, pivots[i], tl.KindLOTL, "")}
		ps, ok := c.Snapshot(tl.NewCacheKey(pivots[i]))
		if !ok || ps.Parsing.Result == nil {
			continue
		}
		declared := ps.Parsing.Result.Signers
		infos[i].Changes = Changes(trusted, declared)
		trusted = declared
	}
	return infos
}

// Changes compares two signer sets.
func Changes(prev, next []*x509.Certificate) map[certstore.Fingerprint]CertificateChange {
	changes := make(map[certstore.Fingerprint]CertificateChange, len(prev)+len(next))
	for _, c := range prev {
		changes[certstore.FingerprintOf(c)] = Removed
	}
	for _, c := range next {
		fp := certstore.FingerprintOf(c)
		if _, ok := changes[fp]; ok {
			changes[fp] = Unchanged
		} else {
			changes[fp] = Added
		}
	}
	return changes
}

func sourceInfo(c *cache.Cache, url string, kind tl.Kind, territory string) SourceInfo {
	info := SourceInfo{URL: url, Kind: kind.String(), Territory: territory}
	snap, ok := c.Snapshot(tl.NewCacheKey(url))
	if !ok {
		info.Download.Status = cache.Empty.String()
		info.Parsing.Status = cache.Empty.String()
		info.Validation.Status = cache.Empty.String()
		info.Validation.Indication = tl.NotChecked.String()
		return info
	}
	info.MarkedForDeletion = snap.ToBeDeleted
	info.Synchronized = snap.Synchronized

	d := snap.Download
	info.Download = DownloadInfo{
		StateInfo: stateInfo(d.Status, d.Time, d.LastSuccess, d.Cause),
		Digest:    d.Digest,
	}

	p := snap.Parsing
	info.Parsing.StateInfo = stateInfo(p.Status, p.Time, p.LastSuccess, p.Cause)
	if r := p.Result; r != nil {
		info.Parsing.Territory = r.Territory
		info.Parsing.Sequence = r.Sequence
		info.Parsing.Issued = r.Issued
		info.Parsing.NextUpdate = r.NextUpdate
		info.Parsing.SelfLocation = r.SelfLocation
		info.Parsing.SignersAnnouncementURL = r.SignersAnnouncementURL
		info.Parsing.Pointers = len(r.TLPointers())
		info.Parsing.Providers = len(r.Providers)
		info.Parsing.Services = r.ServiceCount()
		info.Parsing.Certificates = r.CertificateCount()
		if info.Territory == "" {
			info.Territory = r.Territory
		}
	}

	v := snap.Validation
	info.Validation = ValidationInfo{
		StateInfo:   stateInfo(v.Status, v.Time, v.LastSuccess, v.Cause),
		Indication:  v.Result.Indication.String(),
		SigningTime: v.Result.SigningTime,
	}
	if sc := v.Result.SigningCertificate; sc != nil {
		info.Validation.SigningCertificate = sc.Subject.String()
	}
	return info
}

func stateInfo(s cache.Status, t, lastSuccess time.Time, cause error) StateInfo {
	info := StateInfo{Status: s.String(), Time: t, LastSuccess: lastSuccess}
	if cause != nil {
		info.Cause = cause.Error()
	}
	return info
}
