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

package alert

import (
	"context"
	"time"

	"github.com/tlsync/tlsync/private/tl/summary"
)

// Source is the information about one document an alert can inspect.
type Source interface {
	SourceURL() string
}

// Handler is invoked with the documents that triggered an alert.
type Handler[T Source] interface {
	Handle(ctx context.Context, alert string, infos []T) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc[T Source] func(ctx context.Context, alert string, infos []T) error

// Handle calls f.
func (f HandlerFunc[T]) Handle(ctx context.Context, alert string, infos []T) error {
	return f(ctx, alert, infos)
}

// SourceAlert is triggered if at least one document of the summary matches
// its detection.
type SourceAlert[T Source] struct {
	AlertName string
	Select    func(*summary.Summary) []T
	Detection func(T) bool
	Handler   Handler[T]
}

// Name returns the name of the alert.
func (a *SourceAlert[T]) Name() string { return a.AlertName }

// Detect reports whether any document matches.
func (a *SourceAlert[T]) Detect(s *summary.Summary) bool {
	return len(a.matches(s)) > 0
}

// Handle passes the matching documents to the handler.
func (a *SourceAlert[T]) Handle(ctx context.Context, s *summary.Summary) error {
	if a.Handler == nil {
		return nil
	}
	return a.Handler.Handle(ctx, a.AlertName, a.matches(s))
}

func (a *SourceAlert[T]) matches(s *summary.Summary) []T {
	if s == nil {
		return nil
	}
	var m []T
	for _, info := range a.Select(s) {
		if a.Detection(info) {
			m = append(m, info)
		}
	}
	return m
}

// NewLOTLAlert creates an alert over the lists of lists of a summary.
func NewLOTLAlert(name string, detection func(summary.LOTLInfo) bool,
	h Handler[summary.LOTLInfo]) *SourceAlert[summary.LOTLInfo] {

	return &SourceAlert[summary.LOTLInfo]{
		AlertName: name,
		Select:    func(s *summary.Summary) []summary.LOTLInfo { return s.LOTLs },
		Detection: detection,
		Handler:   h,
	}
}

// NewTLAlert creates an alert over all trust lists of a summary, derived and
// configured.
func NewTLAlert(name string, detection func(summary.SourceInfo) bool,
	h Handler[summary.SourceInfo]) *SourceAlert[summary.SourceInfo] {

	return &SourceAlert[summary.SourceInfo]{
		AlertName: name,
		Select:    allTLs,
		Detection: detection,
		Handler:   h,
	}
}

func allTLs(s *summary.Summary) []summary.SourceInfo {
	var tls []summary.SourceInfo
	for _, l := range s.LOTLs {
		tls = append(tls, l.TLs...)
	}
	return append(tls, s.OtherTLs...)
}

// Detections of the predefined alerts.

// LOTLLocationChange detects a list of lists declaring another location.
func LOTLLocationChange(i summary.LOTLInfo) bool { return i.LocationChanged() }

// SignersAnnouncementChange detects a list of lists announcing signer changes
// at another location than configured.
func SignersAnnouncementChange(i summary.LOTLInfo) bool {
	return i.SignersAnnouncementChanged()
}

// LOTLSignatureError detects a list of lists with a failed validation.
func LOTLSignatureError(i summary.LOTLInfo) bool { return i.SignatureError() }

// LOTLParsingError detects a list of lists that failed to parse.
func LOTLParsingError(i summary.LOTLInfo) bool { return i.ParsingError() }

// LOTLDownloadError detects a list of lists that failed to download.
func LOTLDownloadError(i summary.LOTLInfo) bool { return i.DownloadError() }

// TLSignatureError detects a trust list with a failed validation.
func TLSignatureError(i summary.SourceInfo) bool { return i.SignatureError() }

// TLParsingError detects a trust list that failed to parse.
func TLParsingError(i summary.SourceInfo) bool { return i.ParsingError() }

// TLDownloadError detects a trust list that failed to download.
func TLDownloadError(i summary.SourceInfo) bool { return i.DownloadError() }

// TLExpiration returns a detection of trust lists past their next update.
func TLExpiration(now func() time.Time) func(summary.SourceInfo) bool {
	return func(i summary.SourceInfo) bool {
		return i.Expired(now())
	}
}

// DefaultLOTLAlerts returns the predefined alerts over lists of lists, all
// sharing handler h.
func DefaultLOTLAlerts(h Handler[summary.LOTLInfo]) []Alert {
	return []Alert{
		NewLOTLAlert("lotl_location_change", LOTLLocationChange, h),
		NewLOTLAlert("signers_announcement_change", SignersAnnouncementChange, h),
		NewLOTLAlert("lotl_signature_error", LOTLSignatureError, h),
		NewLOTLAlert("lotl_parsing_error", LOTLParsingError, h),
		NewLOTLAlert("lotl_download_error", LOTLDownloadError, h),
	}
}

// DefaultTLAlerts returns the predefined alerts over trust lists, all sharing
// handler h.
func DefaultTLAlerts(h Handler[summary.SourceInfo], now func() time.Time) []Alert {
	return []Alert{
		NewTLAlert("tl_signature_error", TLSignatureError, h),
		NewTLAlert("tl_parsing_error", TLParsingError, h),
		NewTLAlert("tl_download_error", TLDownloadError, h),
		NewTLAlert("tl_expiration", TLExpiration(now), h),
	}
}
