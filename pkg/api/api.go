/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package api defines the contracts between the SDK core and its external
// collaborators: the persistent key value store, the remote member services
// (identity authority), the crypto suite and the peer-side transaction
// processor. The SDK ships default implementations of each, but applications
// may substitute their own.
package api

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"

	"github.com/pkg/errors"
)

// ErrKeyValueNotFound indicates that a value for the given key was never
// stored. Implementations of KeyValueStore must return it (possibly wrapped)
// for missing keys, distinct from I/O failures.
var ErrKeyValueNotFound = errors.New("value for key not found")

// KeyValueStore is a durable key to value storage used to persist and
// restore member state across process restarts.
type KeyValueStore interface {
	// Load returns the value stored for key, or ErrKeyValueNotFound if the
	// key was never written.
	Load(key string) ([]byte, error)

	// Store sets the value for key.
	Store(key string, value []byte) error
}

// CryptoSuite supplies the signing and certificate primitives in use by the
// SDK. The active suite is derived from the configured member services.
type CryptoSuite interface {
	// GenerateKey creates a new signing key.
	GenerateKey() (*ecdsa.PrivateKey, error)

	// Hash computes the digest of msg.
	Hash(msg []byte) []byte

	// Sign signs digest with key.
	Sign(key *ecdsa.PrivateKey, digest []byte) ([]byte, error)

	// ParseCertificate parses a PEM encoded X509 certificate.
	ParseCertificate(pemCert []byte) (*x509.Certificate, error)
}

// Registrar is an enrolled identity privileged to register other identities
// with the member services.
type Registrar interface {
	Name() string
	EnrollmentCertificate() []byte
	IsEnrolled() bool
}

// Attribute is an opaque key/value pair passed along during registration.
type Attribute struct {
	Key   string
	Value string
}

// RegistrationRequest carries the information required to register a new
// identity with the member services. Affiliation, roles and attributes are
// consumed opaquely by the authority.
type RegistrationRequest struct {
	// EnrollmentID is the unique name of the identity
	EnrollmentID string
	// The identity's affiliation e.g. org1.department1
	Affiliation string
	// Roles requested for the identity (e.g. "client", "auditor")
	Roles []string
	// Optional attributes associated with this identity
	Attributes []Attribute
}

// Enrollment holds the certificate and key material issued by the member
// services when a registered identity enrolls.
type Enrollment struct {
	// Cert is the PEM encoded enrollment certificate
	Cert []byte
	// Key is the PEM encoded private key material
	Key []byte
}

// TCert is a single-use anonymous transaction credential. There is a
// 1-to-1 relationship between a TCert and a transaction.
type TCert struct {
	// Cert is the PEM encoded transaction certificate
	Cert []byte
	// PrivateKey is the signing key bound to the certificate
	PrivateKey *ecdsa.PrivateKey
}

// SignedPayload is a payload signed with a transaction credential.
type SignedPayload struct {
	Payload   []byte
	Signature []byte
	Cert      []byte
}

// MemberServices is the remote identity authority: it registers new
// identities, issues enrollment certificates and issues batches of
// anonymous transaction credentials.
type MemberServices interface {
	// Register records the identity described by req and returns its
	// one-time enrollment secret. The registrar must be an enrolled
	// identity privileged to register others.
	Register(ctx context.Context, req *RegistrationRequest, registrar Registrar) (string, error)

	// Enroll exchanges the identity's one-time secret for durable
	// enrollment certificate and key material.
	Enroll(ctx context.Context, enrollmentID string, secret string) (*Enrollment, error)

	// GetTCertBatch issues count anonymous transaction credentials for the
	// enrolled identity.
	GetTCertBatch(ctx context.Context, enrollmentID string, count int) ([]*TCert, error)

	// CryptoSuite returns the suite the authority issues material for.
	// Every implementation advertises its suite so that the SDK can adopt
	// it without inspecting concrete types.
	CryptoSuite() CryptoSuite
}

// Transaction is an opaque signed transaction ready for submission to a
// peer. The wire encoding of the payload is outside the SDK core's scope.
type Transaction struct {
	ID      string
	Payload []byte
}

// TransactionResponse is the peer's answer to a submitted transaction.
type TransactionResponse struct {
	// Endpoint is the address of the peer that accepted the transaction
	Endpoint string
	Status   int32
	Payload  []byte
}

// TransactionProcessor submits a transaction to a peer endpoint. The
// transport internals are outside the SDK core's scope and pluggable per
// peer.
type TransactionProcessor interface {
	ProcessTransaction(ctx context.Context, tx *Transaction) (*TransactionResponse, error)
}
