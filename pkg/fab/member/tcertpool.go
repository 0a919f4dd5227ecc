/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package member

import (
	"context"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/errors/status"
)

// lowWaterMark is the pool size at or below which a prefetch batch is
// requested: a tenth of the batch size, at least one.
func (m *Member) lowWaterMark() int {
	lw := m.tcertBatchSize / 10
	if lw < 1 {
		lw = 1
	}
	return lw
}

// NextTCert consumes one transaction credential from the pool. When the
// pool runs dry a batch is fetched synchronously so that a cold member can
// still sign; once warmed, prefetching keeps the pool topped up so the
// common case never blocks on a network round-trip.
func (m *Member) NextTCert(ctx context.Context) (*api.TCert, error) {
	m.mu.Lock()
	if m.state != Enrolled {
		m.mu.Unlock()
		return nil, status.Newf(status.MemberServicesStatus, status.Authentication, "member '%s' is not enrolled", m.name)
	}
	if len(m.tcerts) == 0 {
		m.mu.Unlock()
		batch, err := m.fetchBatch(ctx)
		if err != nil {
			return nil, status.Newf(status.ClientStatus, status.CredentialExhausted, "no transaction credential available for '%s': %s", m.name, err)
		}
		m.mu.Lock()
		m.tcerts = append(m.tcerts, batch...)
	}
	if len(m.tcerts) == 0 {
		m.mu.Unlock()
		return nil, status.Newf(status.ClientStatus, status.CredentialExhausted, "no transaction credential available for '%s'", m.name)
	}
	tc := m.tcerts[0]
	m.tcerts = m.tcerts[1:]
	if m.preFetch && len(m.tcerts) <= m.lowWaterMark() && !m.refilling {
		m.refilling = true
		go m.refill()
	}
	m.mu.Unlock()
	return tc, nil
}

// Sign signs payload with the next available transaction credential and
// the active crypto suite.
func (m *Member) Sign(ctx context.Context, payload []byte) (*api.SignedPayload, error) {
	if m.cryptoSuite == nil {
		return nil, status.Newf(status.ClientStatus, status.Configuration, "crypto suite is not configured for member '%s'", m.name)
	}
	tc, err := m.NextTCert(ctx)
	if err != nil {
		return nil, err
	}
	digest := m.cryptoSuite.Hash(payload)
	sig, err := m.cryptoSuite.Sign(tc.PrivateKey, digest)
	if err != nil {
		return nil, err
	}
	return &api.SignedPayload{Payload: payload, Signature: sig, Cert: tc.Cert}, nil
}

// refill replenishes the pool in the background. Prefetching is decoupled
// from the triggering call, so it runs under its own context.
func (m *Member) refill() {
	batch, err := m.fetchBatch(context.Background())
	m.mu.Lock()
	m.refilling = false
	if err == nil {
		m.tcerts = append(m.tcerts, batch...)
	}
	m.mu.Unlock()
	if err != nil {
		logger.Warnf("prefetching tcert batch for '%s' failed: %s", m.name, err)
	} else {
		logger.Debugf("prefetched %d tcerts for '%s'", len(batch), m.name)
	}
}

func (m *Member) fetchBatch(ctx context.Context) ([]*api.TCert, error) {
	return m.services.GetTCertBatch(ctx, m.name, m.tcertBatchSize)
}
