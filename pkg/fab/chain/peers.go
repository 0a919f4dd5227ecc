/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chain

import (
	"time"

	"github.com/pkg/errors"

	"github.com/securekey/ledger-sdk-go/pkg/fab/peer"
)

// Peer list order defines dispatch priority. Every mutation bumps the
// configuration version so that an in-flight dispatch never clobbers a
// newer list with a stale rotation.

// AddPeer adds a peer endpoint to the end of the chain's peer list.
func (c *Chain) AddPeer(p *peer.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers = append(c.peers, p)
	c.peersVersion++
}

// RemovePeer removes the peer with the same URL from the chain's peer list.
func (c *Chain) RemovePeer(p *peer.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.peers {
		if c.peers[i].URL() == p.URL() {
			c.peers = append(c.peers[:i], c.peers[i+1:]...)
			c.peersVersion++
			if c.primaryPeer != nil && c.primaryPeer.URL() == p.URL() {
				c.primaryPeer = nil
			}
			return
		}
	}
}

// SetPeers replaces the chain's peer list.
func (c *Chain) SetPeers(peers []*peer.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.peers = append([]*peer.Peer{}, peers...)
	c.peersVersion++
	c.primaryPeer = nil
}

// Peers returns a copy of the chain's peer list in dispatch priority order.
func (c *Chain) Peers() []*peer.Peer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*peer.Peer{}, c.peers...)
}

// SetPrimaryPeer sets the peer to prefer for queries. The peer must be on
// the chain's peer list.
func (c *Chain) SetPrimaryPeer(p *peer.Peer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.peers {
		if c.peers[i].URL() == p.URL() {
			c.primaryPeer = c.peers[i]
			return nil
		}
	}
	return errors.New("the primary peer must be on this chain's peer list")
}

// PrimaryPeer returns the primary peer, defaulting to the first peer on
// the list when none has been set, or nil for an empty list.
func (c *Chain) PrimaryPeer() *peer.Peer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.primaryPeer != nil {
		return c.primaryPeer
	}
	if len(c.peers) > 0 {
		return c.peers[0]
	}
	return nil
}

// snapshotPeers returns the current peer list together with its
// configuration version and the probe timeout, for use by an in-flight
// dispatch.
func (c *Chain) snapshotPeers() ([]*peer.Peer, uint64, time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*peer.Peer{}, c.peers...), c.peersVersion, c.connectionTimeout
}

// promotePeer rotates the dispatched snapshot so that the peer at index idx
// moves to the front, biasing future dispatches toward the last known-good
// peer. The rotation is committed only if the peer list has not been
// replaced since the snapshot was taken.
func (c *Chain) promotePeer(snapshot []*peer.Peer, idx int, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peersVersion != version {
		logger.Debugf("peer list of chain '%s' changed during dispatch, skipping rotation", c.name)
		return
	}
	rotated := make([]*peer.Peer, 0, len(snapshot))
	rotated = append(rotated, snapshot[idx:]...)
	rotated = append(rotated, snapshot[:idx]...)
	c.peers = rotated
	c.peersVersion++
}
