/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cryptosuite provides the default software implementation of
// api.CryptoSuite: ECDSA P-256 keys, SHA3-256 digests and ECDSA signatures
// over those digests. HSM-backed suites can replace it through the
// interface.
package cryptosuite

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"

	"github.com/cloudflare/cfssl/helpers"
	"github.com/pkg/errors"
	"golang.org/x/crypto/sha3"
)

// SW is the software crypto suite.
type SW struct{}

// New returns the software crypto suite.
func New() *SW {
	return &SW{}
}

// GenerateKey creates a new ECDSA P-256 signing key.
func (s *SW) GenerateKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "ECDSA key generation failed")
	}
	return key, nil
}

// Hash computes the SHA3-256 digest of msg.
func (s *SW) Hash(msg []byte) []byte {
	digest := sha3.Sum256(msg)
	return digest[:]
}

// Sign signs digest with key, returning an ASN.1 encoded signature.
func (s *SW) Sign(key *ecdsa.PrivateKey, digest []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.New("signing key is nil")
	}
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest)
	if err != nil {
		return nil, errors.Wrap(err, "ECDSA signing failed")
	}
	return sig, nil
}

// Verify checks an ASN.1 encoded signature over digest against the public
// part of key.
func (s *SW) Verify(key *ecdsa.PublicKey, digest []byte, sig []byte) bool {
	if key == nil {
		return false
	}
	return ecdsa.VerifyASN1(key, digest, sig)
}

// ParseCertificate parses a PEM encoded X509 certificate.
func (s *SW) ParseCertificate(pemCert []byte) (*x509.Certificate, error) {
	cert, err := helpers.ParseCertificatePEM(pemCert)
	if err != nil {
		return nil, errors.Wrap(err, "parsing certificate PEM failed")
	}
	return cert, nil
}
