/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chain

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/core/config"
	"github.com/securekey/ledger-sdk-go/pkg/errors/status"
	"github.com/securekey/ledger-sdk-go/pkg/fab/mocks"
	"github.com/securekey/ledger-sdk-go/pkg/fab/peer"
)

func testChain(t *testing.T) (*Chain, *mocks.MockMemberServices, *mocks.MockKeyValueStore) {
	c, err := New("testchain")
	require.NoError(t, err)
	services := mocks.NewMockMemberServices()
	store := mocks.NewMockKeyValueStore()
	c.SetMemberServices(services)
	c.SetKeyValueStore(store)
	return c, services, store
}

// livePeer returns a peer backed by a real TCP listener, so liveness probes
// succeed, with a mock processor standing in for the transport.
func livePeer(t *testing.T, name string) (*peer.Peer, *mocks.MockProcessor) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { lis.Close() })

	url := "grpc://" + lis.Addr().String()
	processor := &mocks.MockProcessor{Endpoint: url}
	p, err := peer.New(peer.WithURL(url), peer.WithName(name), peer.WithProcessor(processor))
	require.NoError(t, err)
	return p, processor
}

// deadPeer returns a peer whose address was listening once and is now
// closed, so liveness probes are refused.
func deadPeer(t *testing.T, name string) *peer.Peer {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	address := lis.Addr().String()
	require.NoError(t, lis.Close())

	p, err := peer.New(peer.WithURL("grpc://"+address), peer.WithName(name), peer.WithProcessor(&mocks.MockProcessor{}))
	require.NoError(t, err)
	return p
}

func TestNewValidation(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	c, err := New("testchain")
	require.NoError(t, err)
	assert.Equal(t, "testchain", c.Name())
	assert.False(t, c.SecurityEnabled())
	assert.Equal(t, 200, c.TCertBatchSize())
	assert.True(t, c.PreFetchMode())
	assert.Equal(t, 3*time.Second, c.ConnectionTimeout())
}

func TestNewWithConfig(t *testing.T) {
	configFile := `
client:
  tcert:
    batch:
      size: 50
    prefetch: false
  member:
    cache:
      size: 16
  connection:
    timeout: 500ms
  logging:
    level: info
  peers:
    - url: grpc://peer0:7051
    - url: grpc://peer1:7051
      primary: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(configFile), 0600))
	cfg, err := config.FromFile(path)
	require.NoError(t, err)

	c, err := New("testchain", WithConfig(cfg))
	require.NoError(t, err)
	assert.Equal(t, 50, c.TCertBatchSize())
	assert.False(t, c.PreFetchMode())
	assert.Equal(t, 16, c.MemberCacheSize())
	assert.Equal(t, 500*time.Millisecond, c.ConnectionTimeout())

	peers := c.Peers()
	require.Len(t, peers, 2)
	assert.Equal(t, "grpc://peer0:7051", peers[0].URL())
	assert.Equal(t, "grpc://peer1:7051", c.PrimaryPeer().URL())

	_, err = New("testchain", WithConfig(nil))
	assert.Error(t, err)
}

func TestNewWithConfigValidatesMemberServicesURL(t *testing.T) {
	write := func(t *testing.T, body string) *config.Config {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0600))
		cfg, err := config.FromFile(path)
		require.NoError(t, err)
		return cfg
	}

	// Security enabled (the default): a member services address must carry
	// a protocol
	cfg := write(t, `
client:
  memberservices:
    url: localhost:7054
`)
	_, err := New("testchain", WithConfig(cfg))
	assert.Error(t, err)

	cfg = write(t, `
client:
  memberservices:
    url: http://localhost:7054
`)
	_, err = New("testchain", WithConfig(cfg))
	assert.NoError(t, err)

	// With security disabled the address is not validated
	cfg = write(t, `
client:
  security:
    enabled: false
  memberservices:
    url: localhost:7054
`)
	_, err = New("testchain", WithConfig(cfg))
	assert.NoError(t, err)
}

func TestGetMemberRequiresConfiguration(t *testing.T) {
	c, err := New("testchain")
	require.NoError(t, err)

	_, err = c.GetMember(context.Background(), "alice")
	assert.Equal(t, status.Configuration, status.CodeOf(err))

	c.SetMemberServices(mocks.NewMockMemberServices())
	_, err = c.GetMember(context.Background(), "alice")
	assert.Equal(t, status.Configuration, status.CodeOf(err))

	c.SetKeyValueStore(mocks.NewMockKeyValueStore())
	_, err = c.GetMember(context.Background(), "alice")
	assert.NoError(t, err)
}

func TestGetMemberReturnsCachedInstance(t *testing.T) {
	c, _, _ := testChain(t)

	first, err := c.GetMember(context.Background(), "alice")
	require.NoError(t, err)
	second, err := c.GetMember(context.Background(), "alice")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := c.GetMember(context.Background(), "bob")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
}

func TestMemberSurvivesRestart(t *testing.T) {
	c, services, store := testChain(t)

	bob, err := c.Enroll(context.Background(), "bob", "bobpw")
	require.NoError(t, err)
	require.True(t, bob.IsEnrolled())

	// A fresh chain over the same store sees bob enrolled without another
	// round-trip to the authority
	enrollCalls := services.EnrollCalls
	c2, err := New("testchain")
	require.NoError(t, err)
	c2.SetMemberServices(services)
	c2.SetKeyValueStore(store)

	restored, err := c2.GetMember(context.Background(), "bob")
	require.NoError(t, err)
	assert.True(t, restored.IsEnrolled())
	assert.Equal(t, bob.EnrollmentCertificate(), restored.EnrollmentCertificate())
	assert.Equal(t, enrollCalls, services.EnrollCalls)
}

func TestRegisterAndEnrollViaChain(t *testing.T) {
	c, services, _ := testChain(t)

	admin, err := c.Enroll(context.Background(), "admin", "adminpw")
	require.NoError(t, err)
	c.SetRegistrar(admin)
	assert.Same(t, admin, c.Registrar())

	req := &api.RegistrationRequest{EnrollmentID: "alice", Affiliation: "org1"}
	alice, err := c.RegisterAndEnroll(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, alice.IsEnrolled())

	// Already enrolled: no further authority calls
	registerCalls, enrollCalls := services.RegisterCalls, services.EnrollCalls
	again, err := c.RegisterAndEnroll(context.Background(), req)
	require.NoError(t, err)
	assert.Same(t, alice, again)
	assert.Equal(t, registerCalls, services.RegisterCalls)
	assert.Equal(t, enrollCalls, services.EnrollCalls)
}

func TestRegisterWithoutRegistrar(t *testing.T) {
	c, _, _ := testChain(t)

	err := c.Register(context.Background(), &api.RegistrationRequest{EnrollmentID: "alice"})
	assert.Equal(t, status.Permission, status.CodeOf(err))

	err = c.Register(context.Background(), nil)
	assert.Equal(t, status.Configuration, status.CodeOf(err))
}

func TestPeerListManagement(t *testing.T) {
	c, err := New("testchain")
	require.NoError(t, err)
	assert.Nil(t, c.PrimaryPeer())

	p0, _ := livePeer(t, "peer0")
	p1, _ := livePeer(t, "peer1")
	c.AddPeer(p0)
	c.AddPeer(p1)
	require.Len(t, c.Peers(), 2)

	// Primary defaults to the head of the list
	assert.Same(t, p0, c.PrimaryPeer())
	require.NoError(t, c.SetPrimaryPeer(p1))
	assert.Same(t, p1, c.PrimaryPeer())

	// The primary must be on the list
	outsider, _ := livePeer(t, "outsider")
	assert.Error(t, c.SetPrimaryPeer(outsider))

	c.RemovePeer(p1)
	require.Len(t, c.Peers(), 1)
	assert.Same(t, p0, c.PrimaryPeer())

	c.SetPeers([]*peer.Peer{p1})
	require.Len(t, c.Peers(), 1)
	assert.Same(t, p1, c.PrimaryPeer())
}

func TestDispatchNoPeers(t *testing.T) {
	c, _, _ := testChain(t)

	result := <-c.Dispatch(context.Background(), &api.Transaction{ID: "tx1"})
	assert.Equal(t, status.NoPeers, status.CodeOf(result.Err))
	assert.Nil(t, result.Response)
}

func TestDispatchPrimarySuccess(t *testing.T) {
	c, _, _ := testChain(t)
	p0, processor := livePeer(t, "peer0")
	c.AddPeer(p0)

	tx := &api.Transaction{ID: "tx1", Payload: []byte("payload")}
	result := <-c.Dispatch(context.Background(), tx)
	require.NoError(t, result.Err)
	assert.Equal(t, p0.URL(), result.Peer)
	assert.Equal(t, p0.URL(), result.Response.Endpoint)
	require.Len(t, processor.Received(), 1)
	assert.Equal(t, "tx1", processor.Received()[0].ID)
}

func TestDispatchFailover(t *testing.T) {
	c, _, _ := testChain(t)
	c.SetConnectionTimeout(time.Second)

	p0 := deadPeer(t, "peer0")
	p1, processor := livePeer(t, "peer1")
	p2 := deadPeer(t, "peer2")
	c.SetPeers([]*peer.Peer{p0, p1, p2})

	progress := make(chan DispatchEvent, 4)
	result := <-c.Dispatch(context.Background(), &api.Transaction{ID: "tx1"}, WithProgress(progress))
	require.NoError(t, result.Err)
	assert.Equal(t, p1.URL(), result.Peer)
	require.Len(t, processor.Received(), 1)

	// One progress event for the dead head peer
	event := <-progress
	assert.Equal(t, p0.URL(), event.Peer)
	assert.Equal(t, status.Network, status.CodeOf(event.Err))

	// The responsive peer was rotated to the front
	got := c.Peers()
	require.Len(t, got, 3)
	assert.Same(t, p1, got[0])
	assert.Same(t, p2, got[1])
	assert.Same(t, p0, got[2])
}

func TestDispatchAllPeersExhausted(t *testing.T) {
	c, _, _ := testChain(t)
	c.SetConnectionTimeout(time.Second)

	p0 := deadPeer(t, "peer0")
	p1 := deadPeer(t, "peer1")
	c.SetPeers([]*peer.Peer{p0, p1})

	result := <-c.Dispatch(context.Background(), &api.Transaction{ID: "tx1"})
	assert.Equal(t, status.AllPeersExhausted, status.CodeOf(result.Err))

	// Failed dispatch leaves the peer order untouched
	got := c.Peers()
	require.Len(t, got, 2)
	assert.Same(t, p0, got[0])
	assert.Same(t, p1, got[1])
}

func TestPromotePeerSkipsStaleRotation(t *testing.T) {
	c, _, _ := testChain(t)

	p0, _ := livePeer(t, "peer0")
	p1, _ := livePeer(t, "peer1")
	c.SetPeers([]*peer.Peer{p0, p1})

	snapshot, version, _ := c.snapshotPeers()

	// The list is replaced while a dispatch is in flight
	p2, _ := livePeer(t, "peer2")
	c.SetPeers([]*peer.Peer{p2})

	// A rotation against the stale snapshot must not clobber the new list
	c.promotePeer(snapshot, 1, version)
	got := c.Peers()
	require.Len(t, got, 1)
	assert.Same(t, p2, got[0])

	// A rotation against the current version commits
	c.AddPeer(p0)
	c.AddPeer(p1)
	snapshot, version, _ = c.snapshotPeers()
	c.promotePeer(snapshot, 2, version)
	got = c.Peers()
	require.Len(t, got, 3)
	assert.Same(t, p1, got[0])
	assert.Same(t, p2, got[1])
	assert.Same(t, p0, got[2])
}

func TestAccessors(t *testing.T) {
	c, _, _ := testChain(t)

	c.SetTCertBatchSize(42)
	assert.Equal(t, 42, c.TCertBatchSize())

	c.SetPreFetchMode(false)
	assert.False(t, c.PreFetchMode())

	c.SetDevMode(true)
	assert.True(t, c.DevMode())

	assert.Equal(t, 256, c.MemberCacheSize())
	c.SetMemberCacheSize(8)
	assert.Equal(t, 8, c.MemberCacheSize())

	c.SetConnectionTimeout(time.Second)
	assert.Equal(t, time.Second, c.ConnectionTimeout())

	c.SetDeployWaitTime(10 * time.Second)
	assert.Equal(t, 10*time.Second, c.DeployWaitTime())

	c.SetInvokeWaitTime(15 * time.Second)
	assert.Equal(t, 15*time.Second, c.InvokeWaitTime())

	assert.True(t, c.SecurityEnabled())
	assert.NotNil(t, c.CryptoSuite())
	c.SetMemberServices(nil)
	assert.False(t, c.SecurityEnabled())
	assert.Nil(t, c.CryptoSuite())
}
