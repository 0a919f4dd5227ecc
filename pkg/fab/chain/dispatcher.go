/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chain

import (
	"context"
	"time"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/errors/status"
	"github.com/securekey/ledger-sdk-go/pkg/fab/peer"
)

// DispatchResult is the single terminal outcome of a dispatch: either the
// response of the peer that accepted the transaction, or the error that
// ended the dispatch.
type DispatchResult struct {
	// Peer is the URL of the peer that accepted the transaction, empty on
	// failure.
	Peer     string
	Response *api.TransactionResponse
	Err      error
}

// DispatchEvent is a non-terminal progress signal: one failed peer attempt
// during failover.
type DispatchEvent struct {
	Peer string
	Err  error
}

type dispatchOpts struct {
	progress chan<- DispatchEvent
}

// DispatchOption describes a functional parameter for Dispatch
type DispatchOption func(*dispatchOpts)

// WithProgress delivers a non-terminal DispatchEvent for every failed peer
// attempt. Events are dropped rather than blocking dispatch when the sink
// is not ready to receive.
func WithProgress(sink chan<- DispatchEvent) DispatchOption {
	return func(o *dispatchOpts) {
		o.progress = sink
	}
}

// Dispatch delivers the signed transaction to one of the chain's peers.
// Peers are attempted strictly in list order: each is probed with a
// bounded-timeout liveness connection, probe failures fail over to the
// next peer, and the first responsive peer receives the transaction. A
// responsive peer found past the head of the list is rotated to the front,
// biasing future dispatches toward the last known-good endpoint, unless
// the peer list was replaced while the dispatch was in flight.
//
// All outcomes, including the empty-peer-list case, arrive on the returned
// single-shot result channel; Dispatch never blocks the caller.
func (c *Chain) Dispatch(ctx context.Context, tx *api.Transaction, opts ...DispatchOption) <-chan DispatchResult {
	o := dispatchOpts{}
	for _, opt := range opts {
		opt(&o)
	}
	result := make(chan DispatchResult, 1)
	peers, version, timeout := c.snapshotPeers()
	go c.dispatch(ctx, tx, peers, version, timeout, o, result)
	return result
}

func (c *Chain) dispatch(ctx context.Context, tx *api.Transaction, peers []*peer.Peer, version uint64, timeout time.Duration, o dispatchOpts, result chan<- DispatchResult) {
	if len(peers) == 0 {
		result <- DispatchResult{Err: status.Newf(status.ClientStatus, status.NoPeers, "no peers configured for chain '%s'", c.name)}
		return
	}
	for i, p := range peers {
		c.metrics.PeerAttempts.Inc()
		if err := p.ProbeConnection(ctx, timeout); err != nil {
			logger.Debugf("peer '%s' failed liveness probe, failing over: %s", p.URL(), err)
			c.metrics.Failovers.Inc()
			c.notifyProgress(o, DispatchEvent{Peer: p.URL(), Err: err})
			continue
		}
		if i > 0 {
			c.promotePeer(peers, i, version)
		}
		resp, err := p.SendTransaction(ctx, tx)
		if err == nil {
			c.metrics.Dispatched.Inc()
		}
		result <- DispatchResult{Peer: p.URL(), Response: resp, Err: err}
		return
	}
	c.metrics.Exhausted.Inc()
	result <- DispatchResult{Err: status.Newf(status.TransportStatus, status.AllPeersExhausted, "none of %d peers responding", len(peers))}
}

// notifyProgress delivers a non-terminal event without ever blocking the
// dispatch loop.
func (c *Chain) notifyProgress(o dispatchOpts, event DispatchEvent) {
	if o.progress == nil {
		return
	}
	select {
	case o.progress <- event:
	default:
		logger.Debugf("progress sink full, dropping event for peer '%s'", event.Peer)
	}
}
