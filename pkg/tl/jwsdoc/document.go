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

// Package jwsdoc implements the trust document format: a JWS compact
// serialization whose payload is a JSON encoded Document.
package jwsdoc

import (
	"crypto/x509"
	"time"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
)

// MimeType is the media type of documents in this format.
const MimeType = "application/jose"

// Document is the JSON payload of a trust document. Certificates are carried
// as DER and encoded as standard base64.
type Document struct {
	Kind                string     `json:"kind"`
	Territory           string     `json:"territory,omitempty"`
	Sequence            int        `json:"sequence"`
	Issued              time.Time  `json:"issued"`
	NextUpdate          time.Time  `json:"next_update,omitzero"`
	DistributionPoints  []string   `json:"distribution_points,omitempty"`
	SelfLocation        string     `json:"self_location,omitempty"`
	SignersAnnouncement string     `json:"signers_announcement,omitempty"`
	Pivots              []string   `json:"pivots,omitempty"`
	Signers             [][]byte   `json:"signers,omitempty"`
	Pointers            []Pointer  `json:"pointers,omitempty"`
	Providers           []Provider `json:"providers,omitempty"`
}

// Pointer is the encoding of tl.Pointer.
type Pointer struct {
	Location  string   `json:"location"`
	Territory string   `json:"territory,omitempty"`
	MimeType  string   `json:"mime_type,omitempty"`
	Kind      string   `json:"kind"`
	Signers   [][]byte `json:"signers,omitempty"`
}

// Provider is the encoding of tl.Provider.
type Provider struct {
	Name       string    `json:"name"`
	TradeNames []string  `json:"trade_names,omitempty"`
	Services   []Service `json:"services,omitempty"`
}

// Service is the encoding of tl.Service.
type Service struct {
	Name         string         `json:"name"`
	Type         string         `json:"type"`
	Status       string         `json:"status"`
	StatusStart  time.Time      `json:"status_start"`
	Certificates [][]byte       `json:"certificates,omitempty"`
	History      []ServiceState `json:"history,omitempty"`
}

// ServiceState is the encoding of tl.ServiceState.
type ServiceState struct {
	Status      string    `json:"status"`
	StatusStart time.Time `json:"status_start"`
}

// NewDocument encodes a parsed list.
func NewDocument(p *tl.ParsedList) Document {
	d := Document{
		Kind:                p.Kind.String(),
		Territory:           p.Territory,
		Sequence:            p.Sequence,
		Issued:              p.Issued,
		NextUpdate:          p.NextUpdate,
		DistributionPoints:  p.DistributionPoints,
		SelfLocation:        p.SelfLocation,
		SignersAnnouncement: p.SignersAnnouncementURL,
		Pivots:              p.Pivots,
		Signers:             rawCerts(p.Signers),
	}
	for _, ptr := range p.Pointers {
		d.Pointers = append(d.Pointers, Pointer{
			Location:  ptr.Location,
			Territory: ptr.Territory,
			MimeType:  ptr.MimeType,
			Kind:      ptr.Kind.String(),
			Signers:   rawCerts(ptr.Signers),
		})
	}
	for _, prov := range p.Providers {
		dp := Provider{Name: prov.Name, TradeNames: prov.TradeNames}
		for _, svc := range prov.Services {
			ds := Service{
				Name:         svc.Name,
				Type:         svc.Type,
				Status:       svc.Status,
				StatusStart:  svc.StatusStart,
				Certificates: rawCerts(svc.Certificates),
			}
			for _, h := range svc.History {
				ds.History = append(ds.History, ServiceState(h))
			}
			dp.Services = append(dp.Services, ds)
		}
		d.Providers = append(d.Providers, dp)
	}
	return d
}

func rawCerts(certs []*x509.Certificate) [][]byte {
	if len(certs) == 0 {
		return nil
	}
	raw := make([][]byte, 0, len(certs))
	for _, c := range certs {
		raw = append(raw, c.Raw)
	}
	return raw
}

// decode converts the document into its parsed form.
func (d Document) decode(certs *CertCache) (*tl.ParsedList, error) {
	kind, err := tl.ParseKind(d.Kind)
	if err != nil {
		return nil, err
	}
	p := &tl.ParsedList{
		Kind:                   kind,
		Territory:              d.Territory,
		Sequence:               d.Sequence,
		Issued:                 d.Issued,
		NextUpdate:             d.NextUpdate,
		DistributionPoints:     d.DistributionPoints,
		SelfLocation:           d.SelfLocation,
		SignersAnnouncementURL: d.SignersAnnouncement,
		Pivots:                 d.Pivots,
	}
	if p.Signers, err = certs.ParseAll(d.Signers); err != nil {
		return nil, serrors.Wrap("parsing signers", err)
	}
	for i, dp := range d.Pointers {
		k, err := tl.ParseKind(dp.Kind)
		if err != nil {
			return nil, serrors.Wrap("parsing pointer", err, "index", i)
		}
		signers, err := certs.ParseAll(dp.Signers)
		if err != nil {
			return nil, serrors.Wrap("parsing pointer signers", err, "location", dp.Location)
		}
		p.Pointers = append(p.Pointers, tl.Pointer{
			Location:  dp.Location,
			Kind:      k,
			Territory: dp.Territory,
			MimeType:  dp.MimeType,
			Signers:   signers,
		})
	}
	for _, dp := range d.Providers {
		prov := tl.Provider{Name: dp.Name, TradeNames: dp.TradeNames}
		for _, ds := range dp.Services {
			sc, err := certs.ParseAll(ds.Certificates)
			if err != nil {
				return nil, serrors.Wrap("parsing service certificates", err,
					"provider", dp.Name, "service", ds.Name)
			}
			svc := tl.Service{
				Name:         ds.Name,
				Type:         ds.Type,
				Status:       ds.Status,
				StatusStart:  ds.StatusStart,
				Certificates: sc,
			}
			for _, h := range ds.History {
				svc.History = append(svc.History, tl.ServiceState(h))
			}
			prov.Services = append(prov.Services, svc)
		}
		p.Providers = append(p.Providers, prov)
	}
	return p, nil
}
