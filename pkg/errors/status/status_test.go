/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package status

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusError(t *testing.T) {
	s := Newf(TransportStatus, Network, "probe of peer '%s' failed", "grpc://localhost:7051")
	assert.Contains(t, s.Error(), "Transport Status")
	assert.Contains(t, s.Error(), "NETWORK")
	assert.Contains(t, s.Error(), "grpc://localhost:7051")
}

func TestFromError(t *testing.T) {
	s, ok := FromError(nil)
	require.True(t, ok)
	assert.Equal(t, OK, s.Code)

	orig := New(StorageStatus, Storage, "disk on fire", nil)
	s, ok = FromError(orig)
	require.True(t, ok)
	assert.Equal(t, orig, s)

	// Status recovered through pkg/errors wrapping
	wrapped := errors.Wrap(orig, "loading member 'alice' failed")
	s, ok = FromError(wrapped)
	require.True(t, ok)
	assert.Equal(t, Storage, s.Code)

	_, ok = FromError(errors.New("no status here"))
	assert.False(t, ok)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, OK, CodeOf(nil))
	assert.Equal(t, Code(-1), CodeOf(errors.New("plain")))

	err := errors.Wrap(Newf(ClientStatus, NoPeers, "no peers configured"), "dispatch failed")
	assert.Equal(t, NoPeers, CodeOf(err))
}

func TestGroupAndCodeStrings(t *testing.T) {
	assert.Equal(t, "Member Services Status", MemberServicesStatus.String())
	assert.Equal(t, "Unknown", Group(99).String())
	assert.Equal(t, "ALL_PEERS_EXHAUSTED", AllPeersExhausted.String())
	assert.Equal(t, "UNKNOWN", Code(99).String())
}
