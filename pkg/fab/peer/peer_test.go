/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/core/config"
	"github.com/securekey/ledger-sdk-go/pkg/errors/status"
	"github.com/securekey/ledger-sdk-go/pkg/fab/mocks"
)

func TestNewValidation(t *testing.T) {
	_, err := New()
	assert.Error(t, err)

	// Secured URLs require certificate material
	_, err = New(WithURL("grpcs://peer0:7051"), WithProcessor(&mocks.MockProcessor{}))
	assert.Error(t, err)

	p, err := New(
		WithURL("grpcs://peer0:7051"),
		WithPEM([]byte("fakecert")),
		WithProcessor(&mocks.MockProcessor{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "grpcs://peer0:7051", p.URL())
}

func TestNewWithOptions(t *testing.T) {
	p, err := New(
		WithURL("grpc://peer0:7051"),
		WithName("peer0"),
		WithProcessor(&mocks.MockProcessor{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "peer0", p.Name())
	assert.Equal(t, "grpc://peer0:7051", p.URL())
	assert.Equal(t, "grpc://peer0:7051", p.String())
}

func TestFromPeerConfig(t *testing.T) {
	p, err := New(
		FromPeerConfig(&config.PeerConfig{URL: "grpcs://peer1:7051", PEM: "fakecert"}),
		WithProcessor(&mocks.MockProcessor{}),
	)
	require.NoError(t, err)
	assert.Equal(t, "grpcs://peer1:7051", p.URL())
}

func TestProbeConnection(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	p, err := New(WithURL("grpc://"+lis.Addr().String()), WithProcessor(&mocks.MockProcessor{}))
	require.NoError(t, err)
	assert.NoError(t, p.ProbeConnection(context.Background(), time.Second))
}

func TestProbeConnectionRefused(t *testing.T) {
	// Grab a free port and close it so nothing is listening there
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := lis.Addr().String()
	require.NoError(t, lis.Close())

	p, err := New(WithURL("grpc://"+address), WithProcessor(&mocks.MockProcessor{}))
	require.NoError(t, err)
	err = p.ProbeConnection(context.Background(), time.Second)
	assert.Equal(t, status.Network, status.CodeOf(err))
}

func TestSendTransactionDialTimeout(t *testing.T) {
	// An endpoint that accepts TCP connections but never completes the
	// transport handshake must fail the attempt, not stall it
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()

	p, err := New(
		WithURL("grpc://"+lis.Addr().String()),
		WithDialTimeout(200*time.Millisecond),
	)
	require.NoError(t, err)
	require.NoError(t, p.ProbeConnection(context.Background(), time.Second))

	done := make(chan error, 1)
	go func() {
		_, err := p.SendTransaction(context.Background(), &api.Transaction{ID: "tx1"})
		done <- err
	}()
	select {
	case err := <-done:
		assert.Equal(t, status.Network, status.CodeOf(err))
	case <-time.After(3 * time.Second):
		t.Fatal("send to a silent endpoint did not respect the dial timeout")
	}
}

func TestSendTransaction(t *testing.T) {
	processor := &mocks.MockProcessor{Endpoint: "grpc://peer0:7051"}
	p, err := New(WithURL("grpc://peer0:7051"), WithProcessor(processor))
	require.NoError(t, err)

	tx := &api.Transaction{ID: "tx1", Payload: []byte("payload")}
	resp, err := p.SendTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "grpc://peer0:7051", resp.Endpoint)
	require.Len(t, processor.Received(), 1)
	assert.Equal(t, "tx1", processor.Received()[0].ID)
}
