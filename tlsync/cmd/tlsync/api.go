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

package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/private/app/command"
	"github.com/tlsync/tlsync/private/mgmtapi"
	"github.com/tlsync/tlsync/private/tl/summary"
)

// apiFlags select the daemon to query.
type apiFlags struct {
	outputFlags
	api     string
	timeout time.Duration
}

func (f *apiFlags) register(cmd *cobra.Command) {
	f.outputFlags.register(cmd.Flags())
	cmd.Flags().StringVar(&f.api, "api", defaultAPI, "Address of the management API")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 10*time.Second, "Timeout")
}

func (f *apiFlags) client() (*apiClient, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := setupLog(f.logLevel); err != nil {
		return nil, err
	}
	return newAPIClient(f.api, f.timeout)
}

func newSummary(pather command.Pather) *cobra.Command {
	var flags apiFlags
	cmd := &cobra.Command{
		Use:     "summary",
		Short:   "Display the summary of the last refresh cycle",
		Aliases: []string{"s"},
		Args:    cobra.NoArgs,
		Example: fmt.Sprintf(`  %[1]s summary
  %[1]s summary --api http://127.0.0.1:31152 --format json`, pather.CommandPath()),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			var s summary.Summary
			if err := client.do(cmd.Context(), http.MethodGet, "/summary", &s); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if flags.format != formatHuman {
				return encode(w, flags.format, s)
			}
			writeSummary(w, &s, newPalette(flags.colored(w)))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func writeSummary(w io.Writer, s *summary.Summary, p palette) {
	printf(w, "%s %s\n", p.header.Sprint("Created:"), fmtTime(s.Created))
	printf(w, "%s %d lists of lists, %d trust lists\n\n", p.header.Sprint("Processed:"),
		s.NumberOfProcessedLOTLs, s.NumberOfProcessedTLs)

	table := newTable(w, "KIND", "TERRITORY", "DOWNLOAD", "PARSING", "SIGNATURE", "SYNC", "URL")
	row := func(indent string, i summary.SourceInfo) {
		sync := "no"
		if i.Synchronized {
			sync = p.good.Sprint("yes")
		}
		if i.MarkedForDeletion {
			sync = p.warn.Sprint("deleting")
		}
		table.Append([]string{
			indent + i.Kind,
			orDash(i.Territory),
			p.status(i.Download.Status),
			p.status(i.Parsing.Status),
			p.status(i.Validation.Indication),
			sync,
			i.URL,
		})
	}
	for _, l := range s.LOTLs {
		row("", l.SourceInfo)
		for _, pivot := range l.Pivots {
			row("  ", pivot.SourceInfo)
		}
		for _, t := range l.TLs {
			row("  ", t)
		}
	}
	for _, t := range s.OtherTLs {
		row("", t)
	}
	table.Render()

	var causes []string
	collect := func(i summary.SourceInfo) {
		for _, st := range []summary.StateInfo{
			i.Download.StateInfo, i.Parsing.StateInfo, i.Validation.StateInfo,
		} {
			if st.Cause != "" {
				causes = append(causes, fmt.Sprintf("%s: %s", i.URL, st.Cause))
			}
		}
	}
	for _, l := range s.LOTLs {
		collect(l.SourceInfo)
		for _, t := range l.TLs {
			collect(t)
		}
	}
	for _, t := range s.OtherTLs {
		collect(t)
	}
	if len(causes) == 0 {
		return
	}
	printf(w, "\n%s\n", p.bad.Sprint("Errors:"))
	for _, c := range causes {
		printf(w, "  %s\n", c)
	}
}

func newCertificates(pather command.Pather) *cobra.Command {
	var flags struct {
		apiFlags
		territory string
		provider  string
	}
	cmd := &cobra.Command{
		Use:     "certificates [fingerprint]",
		Short:   "List the trusted certificates",
		Aliases: []string{"certs"},
		Args:    cobra.MaximumNArgs(1),
		Example: fmt.Sprintf(`  %[1]s certificates --territory AT
  %[1]s certificates 3f0c...e1 --format yaml`, pather.CommandPath()),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			w := cmd.OutOrStdout()
			p := newPalette(flags.colored(w))
			if len(args) == 1 {
				var c mgmtapi.Certificate
				path := "/certificates/" + url.PathEscape(strings.ToLower(args[0]))
				if err := client.do(cmd.Context(), http.MethodGet, path, &c); err != nil {
					return err
				}
				if flags.format != formatHuman {
					return encode(w, flags.format, c)
				}
				writeCertificate(w, c, p)
				return nil
			}
			q := url.Values{}
			if flags.territory != "" {
				q.Set("territory", flags.territory)
			}
			if flags.provider != "" {
				q.Set("provider", flags.provider)
			}
			path := "/certificates"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}
			var certs []mgmtapi.Certificate
			if err := client.do(cmd.Context(), http.MethodGet, path, &certs); err != nil {
				return err
			}
			if flags.format != formatHuman {
				return encode(w, flags.format, certs)
			}
			table := newTable(w, "FINGERPRINT", "SUBJECT", "NOT AFTER", "TRUSTED", "SOURCES")
			for _, c := range certs {
				trusted := p.bad.Sprint("no")
				if c.Trusted {
					trusted = p.good.Sprint("yes")
				}
				table.Append([]string{
					c.Fingerprint,
					c.Subject,
					fmtTime(c.NotAfter),
					trusted,
					strconv.Itoa(len(c.Provenance)),
				})
			}
			table.Render()
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.territory, "territory", "",
		"Only list certificates of the territory")
	cmd.Flags().StringVar(&flags.provider, "provider", "",
		"Only list certificates of the provider")
	return cmd
}

func writeCertificate(w io.Writer, c mgmtapi.Certificate, p palette) {
	field := func(k, v string) {
		printf(w, "%s %s\n", p.header.Sprintf("%-12s", k+":"), v)
	}
	field("Fingerprint", c.Fingerprint)
	field("Subject", c.Subject)
	field("Issuer", c.Issuer)
	field("Not before", fmtTime(c.NotBefore))
	field("Not after", fmtTime(c.NotAfter))
	field("Trusted", strconv.FormatBool(c.Trusted))
	printf(w, "\n")
	table := newTable(w, "TERRITORY", "PROVIDER", "SERVICE", "STATUS", "TL")
	for _, pr := range c.Provenance {
		table.Append([]string{
			orDash(pr.Territory),
			pr.Provider,
			pr.Service,
			p.status(pr.Status),
			pr.TL,
		})
	}
	table.Render()
}

func newHistory(pather command.Pather) *cobra.Command {
	var flags struct {
		apiFlags
		limit int
	}
	cmd := &cobra.Command{
		Use:     "history",
		Short:   "List the latest refresh cycles",
		Args:    cobra.NoArgs,
		Example: fmt.Sprintf(`  %[1]s history --limit 5`, pather.CommandPath()),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.limit < 1 {
				return serrors.New("limit must be positive", "limit", flags.limit)
			}
			client, err := flags.client()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			var recs []mgmtapi.HistoryRecord
			path := "/history?limit=" + strconv.Itoa(flags.limit)
			if err := client.do(cmd.Context(), http.MethodGet, path, &recs); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if flags.format != formatHuman {
				return encode(w, flags.format, recs)
			}
			p := newPalette(flags.colored(w))
			table := newTable(w, "START", "MODE", "DURATION", "ACCEPTED", "REJECTED",
				"CERTIFICATES", "ERROR")
			for _, r := range recs {
				table.Append([]string{
					fmtTime(r.Start),
					r.Mode,
					r.Duration,
					strconv.Itoa(r.Accepted),
					strconv.Itoa(r.Rejected),
					strconv.Itoa(r.Certificates),
					p.bad.Sprint(orDash(r.Error)),
				})
			}
			table.Render()
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&flags.limit, "limit", mgmtapi.DefaultHistoryLimit,
		"Maximum number of cycles that are displayed")
	return cmd
}

func newRefresh(pather command.Pather) *cobra.Command {
	var flags apiFlags
	cmd := &cobra.Command{
		Use:     "refresh",
		Short:   "Trigger an online refresh of the daemon",
		Args:    cobra.NoArgs,
		Example: fmt.Sprintf(`  %[1]s refresh`, pather.CommandPath()),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			if err := client.do(cmd.Context(), http.MethodPost, "/refresh", nil); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Refresh scheduled\n")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
