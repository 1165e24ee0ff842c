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
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jws"

	"github.com/tlsync/tlsync/pkg/private/serrors"
	"github.com/tlsync/tlsync/pkg/tl"
)

var (
	_ tl.Parser   = (*Parser)(nil)
	_ tl.Verifier = (*Verifier)(nil)
)

// Parser parses trust documents. The signature is not checked.
type Parser struct {
	// Certs is an optional certificate cache.
	Certs *CertCache
}

// Parse parses the JWS and decodes its payload.
func (p *Parser) Parse(raw []byte) (*tl.ParsedList, error) {
	payload, err := payload(raw)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, serrors.Wrap("decoding payload", err)
	}
	return doc.decode(p.Certs)
}

// Verifier checks document signatures against the public keys of the
// expected signer certificates.
type Verifier struct{}

// Verify tries every expected signer with each algorithm its key supports.
// The first signer that verifies the signature is reported as the signing
// certificate.
func (Verifier) Verify(raw []byte, signers []*x509.Certificate) (tl.ValidationResult, error) {
	if len(signers) == 0 {
		return tl.ValidationResult{}, tl.ErrNoSigners
	}
	payload, err := payload(raw)
	if err != nil {
		return tl.ValidationResult{}, err
	}
	var issued struct {
		Issued time.Time `json:"issued"`
	}
	// The signing time is informational only.
	_ = json.Unmarshal(payload, &issued)

	for _, signer := range signers {
		for _, alg := range algorithms(signer.PublicKey) {
			if _, err := jws.Verify(raw, jws.WithKey(alg, signer.PublicKey)); err == nil {
				return tl.ValidationResult{
					Indication:         tl.Valid,
					SigningCertificate: signer,
					SigningTime:        issued.Issued,
				}, nil
			}
		}
	}
	return tl.ValidationResult{Indication: tl.Invalid, SigningTime: issued.Issued},
		tl.ErrSignatureInvalid
}

// Sign encodes doc and signs it with key.
func Sign(doc Document, key crypto.Signer) ([]byte, error) {
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, serrors.Wrap("encoding payload", err)
	}
	return SignPayload(payload, key)
}

// SignPayload signs an already encoded payload with key.
func SignPayload(payload []byte, key crypto.Signer) ([]byte, error) {
	algs := algorithms(key.Public())
	if len(algs) == 0 {
		return nil, serrors.New("unsupported key type", "type", keyType(key.Public()))
	}
	raw, err := jws.Sign(payload, jws.WithKey(algs[0], key))
	if err != nil {
		return nil, serrors.Wrap("signing", err, "alg", algs[0].String())
	}
	return raw, nil
}

func payload(raw []byte) ([]byte, error) {
	msg, err := jws.Parse(raw)
	if err != nil {
		return nil, serrors.Wrap("parsing JWS", err)
	}
	return msg.Payload(), nil
}

func algorithms(pub any) []jwa.SignatureAlgorithm {
	switch k := pub.(type) {
	case *ecdsa.PublicKey:
		switch k.Curve {
		case elliptic.P256():
			return []jwa.SignatureAlgorithm{jwa.ES256()}
		case elliptic.P384():
			return []jwa.SignatureAlgorithm{jwa.ES384()}
		case elliptic.P521():
			return []jwa.SignatureAlgorithm{jwa.ES512()}
		}
	case *rsa.PublicKey:
		return []jwa.SignatureAlgorithm{jwa.RS256(), jwa.PS256(), jwa.RS384(), jwa.RS512()}
	case ed25519.PublicKey:
		return []jwa.SignatureAlgorithm{jwa.EdDSA()}
	}
	return nil
}

func keyType(pub any) string {
	switch pub.(type) {
	case *ecdsa.PublicKey:
		return "ecdsa"
	case *rsa.PublicKey:
		return "rsa"
	case ed25519.PublicKey:
		return "ed25519"
	default:
		return "unknown"
	}
}
