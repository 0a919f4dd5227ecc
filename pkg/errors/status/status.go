/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package status defines metadata for errors returned by ledger-sdk-go.
// This information may be used by SDK users to make decisions about how to
// handle certain error conditions. Status codes are divided by group, where
// each group represents the component that raised the condition.
package status

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status provides additional information about an unsuccessful operation
// performed by ledger-sdk-go.
type Status struct {
	// Group status group
	Group Group
	// Code status code
	Code Code
	// Message status message
	Message string
	// Details any additional status details
	Details []interface{}
}

// Group of status to help users infer status codes from various components
type Group int32

const (
	// UnknownStatus unknown status group
	UnknownStatus Group = iota
	// ClientStatus defines the status inferred by the SDK itself, such as
	// missing configuration or exhausted dispatch candidates
	ClientStatus
	// TransportStatus defines the status returned by the transport layer of
	// connections made to peer endpoints
	TransportStatus
	// MemberServicesStatus defines the status returned by the remote member
	// services (identity authority)
	MemberServicesStatus
	// StorageStatus defines the status returned by the persistent key value
	// store
	StorageStatus
)

// GroupName maps the groups in this package to human-readable strings
var GroupName = map[int32]string{
	0: "Unknown",
	1: "Client Status",
	2: "Transport Status",
	3: "Member Services Status",
	4: "Storage Status",
}

func (g Group) String() string {
	if s, ok := GroupName[int32(g)]; ok {
		return s
	}
	return GroupName[int32(UnknownStatus)]
}

// Code represents a status condition raised by the SDK or one of its
// collaborators.
type Code int32

const (
	// OK is returned on success.
	OK Code = iota
	// Configuration indicates that a required collaborator (store, member
	// services) was not configured before use. Never retried.
	Configuration
	// Storage indicates a persistence I/O failure, not including not-found.
	Storage
	// Authentication indicates a bad secret or credentials at enrollment.
	Authentication
	// Permission indicates registration attempted without a privileged
	// registrar.
	Permission
	// ServiceUnavailable indicates the member services were unreachable.
	// The SDK does not retry; retrying is the caller's responsibility.
	ServiceUnavailable
	// CredentialExhausted indicates no prefetched transaction credential
	// was available for signing.
	CredentialExhausted
	// Network indicates a peer probe timeout or connection failure. The
	// dispatcher recovers by trying the next peer.
	Network
	// NoPeers indicates dispatch was requested with an empty peer list.
	NoPeers
	// AllPeersExhausted indicates every peer failed its liveness probe.
	AllPeersExhausted
)

// CodeName maps the codes in this package to human-readable strings
var CodeName = map[int32]string{
	0: "OK",
	1: "CONFIGURATION",
	2: "STORAGE",
	3: "AUTHENTICATION",
	4: "PERMISSION",
	5: "SERVICE_UNAVAILABLE",
	6: "CREDENTIAL_EXHAUSTED",
	7: "NETWORK",
	8: "NO_PEERS",
	9: "ALL_PEERS_EXHAUSTED",
}

func (c Code) String() string {
	if s, ok := CodeName[int32(c)]; ok {
		return s
	}
	return "UNKNOWN"
}

func (s *Status) Error() string {
	return fmt.Sprintf("%s Code: (%d) %s. Description: %s", s.Group, s.Code, s.Code, s.Message)
}

// New returns a Status with the given parameters
func New(group Group, code Code, msg string, details []interface{}) *Status {
	return &Status{Group: group, Code: code, Message: msg, Details: details}
}

// Newf returns a Status with a formatted message
func Newf(group Group, code Code, format string, args ...interface{}) *Status {
	return New(group, code, fmt.Sprintf(format, args...), nil)
}

// FromError returns a Status representing err if available, otherwise it
// returns nil, false. Wrapped errors are unwrapped through errors.Cause.
func FromError(err error) (*Status, bool) {
	if err == nil {
		return &Status{Code: OK}, true
	}
	if s, ok := err.(*Status); ok {
		return s, true
	}
	if s, ok := errors.Cause(err).(*Status); ok {
		return s, true
	}
	return nil, false
}

// CodeOf returns the status code carried by err, OK for nil, or -1 for a
// non-nil error that carries no status.
func CodeOf(err error) Code {
	if err == nil {
		return OK
	}
	s, ok := FromError(err)
	if !ok {
		return Code(-1)
	}
	return s.Code
}
