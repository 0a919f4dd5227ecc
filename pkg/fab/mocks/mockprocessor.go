/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mocks

import (
	"context"
	"sync"

	"github.com/securekey/ledger-sdk-go/pkg/api"
)

// MockProcessor is an api.TransactionProcessor that records the
// transactions it receives.
type MockProcessor struct {
	mu       sync.Mutex
	received []*api.Transaction

	// Endpoint is echoed into every response.
	Endpoint string
	// Err, when set, fails every ProcessTransaction.
	Err error
}

// ProcessTransaction records tx and returns a canned response.
func (p *MockProcessor) ProcessTransaction(ctx context.Context, tx *api.Transaction) (*api.TransactionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return nil, p.Err
	}
	p.received = append(p.received, tx)
	return &api.TransactionResponse{Endpoint: p.Endpoint, Status: 200}, nil
}

// Received returns the transactions processed so far.
func (p *MockProcessor) Received() []*api.Transaction {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*api.Transaction{}, p.received...)
}
