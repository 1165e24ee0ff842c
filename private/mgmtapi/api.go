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

package mgmtapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tlsync/tlsync/pkg/log"
	"github.com/tlsync/tlsync/pkg/tl/certstore"
	"github.com/tlsync/tlsync/pkg/tl/pemutil"
	"github.com/tlsync/tlsync/private/storage/history"
	"github.com/tlsync/tlsync/private/tl/cache"
	"github.com/tlsync/tlsync/private/tl/summary"
)

// DefaultHistoryLimit is the number of refresh records returned when the
// request does not specify a limit.
const DefaultHistoryLimit = 20

// Refresher schedules an out-of-band refresh.
type Refresher interface {
	TriggerRun()
}

// Server implements the management API.
type Server struct {
	// Summary returns the summary of the last cycle, nil before the first.
	Summary   func() *summary.Summary
	Store     *certstore.Store
	Cache     *cache.Cache
	History   history.DB
	Refresher Refresher
	Config    http.HandlerFunc
	Info      http.HandlerFunc
	// LogLevel serves GET and PUT of the console log level. If nil, the level
	// of the root logger is served.
	LogLevel http.Handler
	// Metrics serves the prometheus metrics. If nil, the default gatherer is
	// served.
	Metrics http.Handler
	Now     func() time.Time
}

// Handler returns the API routes of s.
func Handler(s *Server) http.Handler {
	return HandlerFromMux(s, chi.NewRouter())
}

// HandlerFromMux registers the API routes of s on r.
func HandlerFromMux(s *Server, r chi.Router) http.Handler {
	r.Get("/", ServeSpecInteractive)
	r.Get("/openapi.json", ServeSpecJSON)
	if s.Config != nil {
		r.Get("/config", s.Config)
	}
	if s.Info != nil {
		r.Get("/info", s.Info)
	}
	logLevel := s.LogLevel
	if logLevel == nil {
		logLevel = log.ConsoleLevel
	}
	r.Method(http.MethodGet, "/log/level", logLevel)
	r.Method(http.MethodPut, "/log/level", logLevel)
	m := s.Metrics
	if m == nil {
		m = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", m)

	r.Get("/summary", s.GetSummary)
	r.Get("/certificates", s.GetCertificates)
	r.Get("/certificates/{fingerprint}", s.GetCertificate)
	r.Get("/certificates/{fingerprint}/blob", s.GetCertificateBlob)
	r.Get("/cache", s.GetCache)
	r.Get("/history", s.GetHistory)
	r.Post("/refresh", s.PostRefresh)
	return r
}

// GetSummary writes the summary of the last cycle.
func (s *Server) GetSummary(w http.ResponseWriter, r *http.Request) {
	var sum *summary.Summary
	if s.Summary != nil {
		sum = s.Summary()
	}
	if sum == nil {
		ErrorResponse(w, Problem{
			Status: http.StatusNotFound,
			Title:  "no summary",
			Detail: "no refresh cycle completed yet",
		})
		return
	}
	writeJSON(w, sum)
}

// Certificate is the representation of a trusted certificate.
type Certificate struct {
	Fingerprint string       `json:"fingerprint"`
	Subject     string       `json:"subject"`
	Issuer      string       `json:"issuer"`
	NotBefore   time.Time    `json:"not_before"`
	NotAfter    time.Time    `json:"not_after"`
	Trusted     bool         `json:"trusted"`
	Provenance  []Provenance `json:"provenance"`
}

// Provenance is the representation of one place a certificate was found.
type Provenance struct {
	TL          string `json:"tl"`
	LOTL        string `json:"lotl,omitempty"`
	Territory   string `json:"territory,omitempty"`
	Provider    string `json:"provider"`
	Service     string `json:"service"`
	ServiceType string `json:"service_type,omitempty"`
	Status      string `json:"status"`
}

// GetCertificates lists the trusted certificates. The query parameters
// territory and provider filter the list.
func (s *Server) GetCertificates(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		ErrorResponse(w, Problem{
			Status: http.StatusNotFound,
			Title:  "no certificate store",
		})
		return
	}
	territory := r.URL.Query().Get("territory")
	provider := r.URL.Query().Get("provider")
	now := s.now()
	rep := []Certificate{}
	for _, e := range s.Store.Snapshot().Entries() {
		if !matches(e, territory, provider) {
			continue
		}
		rep = append(rep, certificate(e, now))
	}
	writeJSON(w, rep)
}

// GetCertificate writes one trusted certificate.
func (s *Server) GetCertificate(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, certificate(e, s.now()))
}

// GetCertificateBlob writes one trusted certificate in PEM format.
func (s *Server) GetCertificateBlob(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.Write(pemutil.EncodeCerts(e.Certificate))
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*certstore.Entry, bool) {
	fp := strings.ToLower(chi.URLParam(r, "fingerprint"))
	if s.Store != nil {
		for _, e := range s.Store.Snapshot().Entries() {
			if string(e.Fingerprint) == fp {
				return e, true
			}
		}
	}
	ErrorResponse(w, Problem{
		Status: http.StatusNotFound,
		Title:  "certificate not found",
		Detail: fp,
	})
	return nil, false
}

// GetCache writes the debug dump of the cache.
func (s *Server) GetCache(w http.ResponseWriter, r *http.Request) {
	if s.Cache == nil {
		ErrorResponse(w, Problem{
			Status: http.StatusNotFound,
			Title:  "no cache",
		})
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	if err := s.Cache.Dump(w); err != nil {
		log.FromCtx(r.Context()).Info("Failed to write cache dump", "err", err)
	}
}

// HistoryRecord is the representation of one refresh cycle.
type HistoryRecord struct {
	ID           int64           `json:"id"`
	Mode         string          `json:"mode"`
	Start        time.Time       `json:"start"`
	Duration     string          `json:"duration"`
	LOTLs        int             `json:"lotls"`
	TLs          int             `json:"tls"`
	Accepted     int             `json:"accepted"`
	Rejected     int             `json:"rejected"`
	Certificates int             `json:"certificates"`
	Error        string          `json:"error,omitempty"`
	Summary      json.RawMessage `json:"summary,omitempty"`
}

// GetHistory lists the latest refresh cycles. The query parameter limit
// bounds the number of records, summary=true includes the summaries.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		ErrorResponse(w, Problem{
			Status: http.StatusNotFound,
			Title:  "no history database",
		})
		return
	}
	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		l, err := strconv.Atoi(raw)
		if err != nil || l < 1 {
			ErrorResponse(w, Problem{
				Status: http.StatusBadRequest,
				Title:  "malformed query parameter",
				Detail: "limit must be a positive integer",
			})
			return
		}
		limit = l
	}
	withSummary := r.URL.Query().Get("summary") == "true"
	recs, err := s.History.Latest(r.Context(), limit)
	if err != nil {
		ErrorResponse(w, Problem{
			Status: http.StatusInternalServerError,
			Title:  "error reading history",
			Detail: err.Error(),
		})
		return
	}
	rep := make([]HistoryRecord, 0, len(recs))
	for _, rec := range recs {
		h := HistoryRecord{
			ID:           rec.ID,
			Mode:         rec.Mode,
			Start:        rec.Start,
			Duration:     rec.Duration.String(),
			LOTLs:        rec.LOTLs,
			TLs:          rec.TLs,
			Accepted:     rec.Accepted,
			Rejected:     rec.Rejected,
			Certificates: rec.Certificates,
			Error:        rec.Err,
		}
		if withSummary && len(rec.Summary) > 0 {
			h.Summary = json.RawMessage(rec.Summary)
		}
		rep = append(rep, h)
	}
	writeJSON(w, rep)
}

// PostRefresh schedules a refresh cycle.
func (s *Server) PostRefresh(w http.ResponseWriter, r *http.Request) {
	if s.Refresher == nil {
		ErrorResponse(w, Problem{
			Status: http.StatusServiceUnavailable,
			Title:  "refresh not available",
		})
		return
	}
	s.Refresher.TriggerRun()
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func matches(e *certstore.Entry, territory, provider string) bool {
	if territory == "" && provider == "" {
		return true
	}
	for _, p := range e.Provenance {
		if territory != "" && !strings.EqualFold(p.Territory, territory) {
			continue
		}
		if provider != "" && p.Provider != provider {
			continue
		}
		return true
	}
	return false
}

func certificate(e *certstore.Entry, now time.Time) Certificate {
	c := Certificate{
		Fingerprint: string(e.Fingerprint),
		Subject:     e.Certificate.Subject.String(),
		Issuer:      e.Certificate.Issuer.String(),
		NotBefore:   e.Certificate.NotBefore,
		NotAfter:    e.Certificate.NotAfter,
		Trusted:     e.TrustedAt(now),
		Provenance:  make([]Provenance, 0, len(e.Provenance)),
	}
	for _, p := range e.Provenance {
		c.Provenance = append(c.Provenance, Provenance{
			TL:          p.TLURL,
			LOTL:        p.LOTLURL,
			Territory:   p.Territory,
			Provider:    p.Provider,
			Service:     p.Service.Name,
			ServiceType: p.Service.Type,
			Status:      p.Service.StatusAt(now),
		})
	}
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		http.Error(w, "Unable to marshal response", http.StatusInternalServerError)
	}
}
