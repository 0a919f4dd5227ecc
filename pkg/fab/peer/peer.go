/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package peer represents a ledger-network endpoint process capable of
// accepting a submitted transaction. A peer is addressed by a grpc://
// (plaintext) or grpcs:// (transport-secured) URL; secured endpoints carry
// accompanying PEM certificate material.
package peer

import (
	"context"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/core/config"
	"github.com/securekey/ledger-sdk-go/pkg/core/config/urlutil"
	"github.com/securekey/ledger-sdk-go/pkg/errors/status"
	"github.com/securekey/ledger-sdk-go/pkg/logging"
)

var logger = logging.NewLogger("ledgersdk/peer")

// Peer is one candidate endpoint for transaction dispatch.
type Peer struct {
	name        string
	url         string
	pem         []byte
	dialTimeout time.Duration
	processor   api.TransactionProcessor
}

// Option describes a functional parameter for the New constructor
type Option func(*Peer) error

// New returns a new Peer instance
func New(opts ...Option) (*Peer, error) {
	p := &Peer{}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.url == "" {
		return nil, errors.New("failed to create peer. Missing required 'url' parameter")
	}
	if urlutil.IsTLSEnabled(p.url) && len(p.pem) == 0 {
		return nil, errors.Errorf("failed to create peer. URL '%s' requires certificate material", p.url)
	}
	if p.processor == nil {
		processor, err := newGRPCProcessor(p.url, p.pem, p.dialTimeout)
		if err != nil {
			return nil, err
		}
		p.processor = processor
	}
	return p, nil
}

// WithURL is a functional option for the peer.New constructor that
// configures the peer's URL
func WithURL(url string) Option {
	return func(p *Peer) error {
		p.url = url
		return nil
	}
}

// WithName is a functional option for the peer.New constructor that
// configures the peer's name
func WithName(name string) Option {
	return func(p *Peer) error {
		p.name = name
		return nil
	}
}

// WithPEM is a functional option for the peer.New constructor that
// configures the certificate material for a transport-secured peer
func WithPEM(pem []byte) Option {
	return func(p *Peer) error {
		p.pem = pem
		return nil
	}
}

// WithDialTimeout is a functional option for the peer.New constructor that
// bounds the connection establishment of the default transaction processor.
// A peer that accepts TCP connections but never completes the transport
// handshake fails the attempt once the timeout expires.
func WithDialTimeout(timeout time.Duration) Option {
	return func(p *Peer) error {
		p.dialTimeout = timeout
		return nil
	}
}

// WithProcessor is a functional option for the peer.New constructor that
// configures the peer's transaction processor
func WithProcessor(processor api.TransactionProcessor) Option {
	return func(p *Peer) error {
		p.processor = processor
		return nil
	}
}

// FromPeerConfig is a functional option for the peer.New constructor that
// configures a new peer from a config.PeerConfig struct
func FromPeerConfig(peerCfg *config.PeerConfig) Option {
	return func(p *Peer) error {
		p.url = peerCfg.URL
		if peerCfg.PEM != "" {
			p.pem = []byte(peerCfg.PEM)
		}
		return nil
	}
}

// Name gets the peer name.
func (p *Peer) Name() string {
	return p.name
}

// URL gets the peer URL. Required property for the instance objects.
// It returns the address of the peer.
func (p *Peer) URL() string {
	return p.url
}

func (p *Peer) String() string {
	return p.url
}

// ProbeConnection opens a bounded-timeout liveness probe connection to the
// peer's host and port. The connection is closed immediately on success: it
// is only a liveness check, not the channel used to carry the transaction
// payload.
func (p *Peer) ProbeConnection(ctx context.Context, timeout time.Duration) error {
	address := urlutil.ToAddress(p.url)
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return status.Newf(status.TransportStatus, status.Network, "probe of peer '%s' failed: %s", p.url, err)
	}
	if err := conn.Close(); err != nil {
		logger.Debugf("closing probe connection to '%s' failed: %s", p.url, err)
	}
	return nil
}

// SendTransaction forwards the transaction to the peer's transaction
// processor.
func (p *Peer) SendTransaction(ctx context.Context, tx *api.Transaction) (*api.TransactionResponse, error) {
	return p.processor.ProcessTransaction(ctx, tx)
}
