/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package urlutil handles the peer endpoint URL schemes understood by the
// SDK: grpc:// for plaintext channels and grpcs:// for transport-secured
// channels.
package urlutil

import (
	"strings"
)

// IsTLSEnabled is a generic function that expects a URL and verifies if it
// has a prefix HTTPS or GRPCS to return true for TLS Enabled URLs or false
// otherwise
func IsTLSEnabled(url string) bool {
	tlsURL := strings.ToLower(url)
	return strings.HasPrefix(tlsURL, "https://") || strings.HasPrefix(tlsURL, "grpcs://")
}

// ToAddress is a utility function to trim the GRPC protocol prefix as it is
// not needed by GO; if the GRPC protocol is not found, the url is returned
// unchanged
func ToAddress(url string) string {
	if strings.HasPrefix(url, "grpc://") {
		return strings.TrimPrefix(url, "grpc://")
	}
	if strings.HasPrefix(url, "grpcs://") {
		return strings.TrimPrefix(url, "grpcs://")
	}
	return url
}

// HasProtocol is a utility function which verifies if protocol is provided
// in URL
func HasProtocol(url string) bool {
	return strings.Contains(url, "://")
}
