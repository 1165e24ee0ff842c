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
	"bytes"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
	"github.com/tlsync/tlsync/pkg/tl/jwsdoc"
	"github.com/tlsync/tlsync/pkg/tl/pemutil"
	"github.com/tlsync/tlsync/private/app/command"
)

// inspection is the machine readable result of the inspect command.
type inspection struct {
	Document  jwsdoc.Document `json:"document"`
	Signature *signature      `json:"signature,omitempty"`
}

type signature struct {
	Indication string    `json:"indication"`
	Signer     string    `json:"signer,omitempty"`
	Time       time.Time `json:"time,omitzero"`
	Error      string    `json:"error,omitempty"`
}

func newInspect(pather command.Pather) *cobra.Command {
	var flags struct {
		outputFlags
		signers string
	}
	cmd := &cobra.Command{
		Use:     "inspect <document>",
		Short:   "Display the content of a signed trust document",
		Args:    cobra.ExactArgs(1),
		Example: fmt.Sprintf(`  %[1]s inspect lotl.jws
  %[1]s inspect tl-at.jws --signers at-signers.pem --format json`, pather.CommandPath()),
		Long: `'inspect' parses a signed trust document and displays its content.

If signer certificates are provided, the signature of the document is checked
against them and the command fails if it is not valid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.validate(); err != nil {
				return err
			}
			if err := setupLog(flags.logLevel); err != nil {
				return err
			}
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return serrors.Wrap("reading document", err)
			}
			var signers []*x509.Certificate
			if flags.signers != "" {
				if signers, err = pemutil.ReadCerts(flags.signers); err != nil {
					return err
				}
			}
			cmd.SilenceUsage = true

			parsed, err := (&jwsdoc.Parser{}).Parse(raw)
			if err != nil {
				return serrors.Wrap("parsing document", err, "file", args[0])
			}
			res := inspection{Document: jwsdoc.NewDocument(parsed)}
			var verifyErr error
			if len(signers) > 0 {
				var v tl.ValidationResult
				v, verifyErr = jwsdoc.Verifier{}.Verify(raw, signers)
				res.Signature = &signature{
					Indication: v.Indication.String(),
					Time:       v.SigningTime,
				}
				if v.SigningCertificate != nil {
					res.Signature.Signer = v.SigningCertificate.Subject.String()
				}
				if verifyErr != nil {
					res.Signature.Error = verifyErr.Error()
				}
			}

			w := cmd.OutOrStdout()
			if flags.format != formatHuman {
				if err := encode(w, flags.format, res); err != nil {
					return err
				}
			} else {
				writeInspection(w, parsed, res.Signature, newPalette(flags.colored(w)))
			}
			if verifyErr != nil {
				return serrors.Wrap("verifying signature", verifyErr)
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().StringVar(&flags.signers, "signers", "",
		"PEM file with the expected signer certificates")
	return cmd
}

func writeInspection(w io.Writer, p *tl.ParsedList, sig *signature, c palette) {
	field := func(k, v string) {
		printf(w, "%s %s\n", c.header.Sprintf("%-22s", k+":"), v)
	}
	field("Kind", p.Kind.String())
	field("Territory", orDash(p.Territory))
	field("Sequence", strconv.Itoa(p.Sequence))
	field("Issued", fmtTime(p.Issued))
	next := fmtTime(p.NextUpdate)
	if p.Expired(time.Now()) {
		next = c.warn.Sprint(next + " (expired)")
	}
	field("Next update", next)
	field("Self location", orDash(p.SelfLocation))
	field("Signers announcement", orDash(p.SignersAnnouncementURL))
	field("Signers", strconv.Itoa(len(p.Signers)))
	if len(p.Pivots) > 0 {
		field("Pivots", strings.Join(p.Pivots, ", "))
	}
	if sig != nil {
		field("Signature", c.status(sig.Indication))
		if sig.Signer != "" {
			field("Signed by", sig.Signer)
		}
	}

	if len(p.Pointers) > 0 {
		printf(w, "\n%s\n", c.header.Sprint("Pointers:"))
		table := newTable(w, "KIND", "TERRITORY", "MIME TYPE", "SIGNERS", "LOCATION")
		for _, ptr := range p.Pointers {
			table.Append([]string{
				ptr.Kind.String(),
				orDash(ptr.Territory),
				orDash(ptr.MimeType),
				strconv.Itoa(len(ptr.Signers)),
				ptr.Location,
			})
		}
		table.Render()
	}
	if len(p.Providers) > 0 {
		printf(w, "\n%s\n", c.header.Sprint("Providers:"))
		table := newTable(w, "PROVIDER", "SERVICE", "TYPE", "STATUS", "SINCE", "CERTIFICATES")
		for _, prov := range p.Providers {
			for _, svc := range prov.Services {
				table.Append([]string{
					prov.Name,
					svc.Name,
					svc.Type,
					c.status(svc.Status),
					fmtTime(svc.StatusStart),
					strconv.Itoa(len(svc.Certificates)),
				})
			}
		}
		table.Render()
	}
}

func newSign(pather command.Pather) *cobra.Command {
	var flags struct {
		key   string
		cert  string
		out   string
		force bool
	}
	cmd := &cobra.Command{
		Use:     "sign <payload>",
		Short:   "Sign a trust document payload",
		Args:    cobra.ExactArgs(1),
		Example: fmt.Sprintf(`  %[1]s sign lotl.json --key lotl.key --out lotl.jws
  %[1]s sign tl.json --key tl.key --cert tl.crt`, pather.CommandPath()),
		Long: `'sign' signs a JSON trust document payload and writes the compact JWS.

The payload is checked to be a well formed trust document before signing. If
a certificate is provided, the signature is verified against it afterwards.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return serrors.Wrap("reading payload", err)
			}
			if err := checkPayload(payload); err != nil {
				return serrors.Wrap("checking payload", err, "file", args[0])
			}
			key, err := pemutil.ReadKey(flags.key)
			if err != nil {
				return err
			}
			var certs []*x509.Certificate
			if flags.cert != "" {
				if certs, err = pemutil.ReadCerts(flags.cert); err != nil {
					return err
				}
			}
			cmd.SilenceUsage = true

			raw, err := jwsdoc.SignPayload(payload, key)
			if err != nil {
				return err
			}
			if len(certs) > 0 {
				if _, err := (jwsdoc.Verifier{}).Verify(raw, certs[:1]); err != nil {
					return serrors.Wrap("key does not match certificate", err,
						"cert", flags.cert)
				}
			}
			if flags.out == "" {
				printf(cmd.OutOrStdout(), "%s\n", raw)
				return nil
			}
			if _, err := os.Stat(flags.out); err == nil && !flags.force {
				return serrors.New("output file exists, use --force to overwrite",
					"file", flags.out)
			}
			if err := os.WriteFile(flags.out, raw, 0o644); err != nil {
				return serrors.Wrap("writing document", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.key, "key", "", "PEM file with the signing key (required)")
	cmd.Flags().StringVar(&flags.cert, "cert", "", "PEM file with the signer certificate")
	cmd.Flags().StringVar(&flags.out, "out", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&flags.force, "force", false, "Overwrite an existing output file")
	cmd.MarkFlagRequired("key")
	return cmd
}

// checkPayload verifies that the payload decodes as a trust document.
func checkPayload(payload []byte) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	var doc jwsdoc.Document
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	if doc.Kind == "" {
		return serrors.New("kind not set")
	}
	if _, err := tl.ParseKind(doc.Kind); err != nil {
		return err
	}
	return nil
}
