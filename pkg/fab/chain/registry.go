/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package chain

import (
	"context"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/errors/status"
	"github.com/securekey/ledger-sdk-go/pkg/fab/member"
)

// GetMember returns the member with the given name, constructing it and
// restoring any persisted state on a cache miss. A store miss is not an
// error: it yields a fresh, unregistered member.
//
// Two concurrent calls for the same name may both restore and construct;
// the last writer to the cache wins. Callers that need stricter semantics
// must serialize their own access per name.
func (c *Chain) GetMember(ctx context.Context, name string) (*member.Member, error) {
	c.mu.RLock()
	services := c.services
	store := c.store
	suite := c.cryptoSuite
	batchSize := c.tcertBatchSize
	preFetch := c.preFetchMode
	c.mu.RUnlock()

	if services == nil {
		return nil, status.Newf(status.ClientStatus, status.Configuration, "member services are not configured for chain '%s'", c.name)
	}
	if store == nil {
		return nil, status.Newf(status.ClientStatus, status.Configuration, "key value store is not configured for chain '%s'", c.name)
	}

	if cached, ok := c.members.Get(name); ok {
		return cached.(*member.Member), nil
	}

	m, err := member.New(member.Config{
		Name:           name,
		ChainName:      c.name,
		Services:       services,
		Store:          store,
		CryptoSuite:    suite,
		TCertBatchSize: batchSize,
		PreFetch:       preFetch,
	})
	if err != nil {
		return nil, err
	}
	if err := m.Restore(); err != nil {
		return nil, err
	}
	c.members.Add(name, m)
	return m, nil
}

// Register records the identity described by req with the member services,
// using the chain's registrar.
func (c *Chain) Register(ctx context.Context, req *api.RegistrationRequest) error {
	if req == nil || req.EnrollmentID == "" {
		return status.Newf(status.ClientStatus, status.Configuration, "registration request requires an enrollment ID")
	}
	m, err := c.GetMember(ctx, req.EnrollmentID)
	if err != nil {
		return err
	}
	return m.Register(ctx, req, c.registrarOrNil())
}

// Enroll drives the named member to the Enrolled state using the given
// one-time secret. Re-enrolling an already enrolled member succeeds and
// refreshes its material.
func (c *Chain) Enroll(ctx context.Context, name string, secret string) (*member.Member, error) {
	m, err := c.GetMember(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := m.Enroll(ctx, secret); err != nil {
		return nil, err
	}
	return m, nil
}

// RegisterAndEnroll registers and enrolls the identity described by req as
// a single logical unit. An already enrolled member is returned
// immediately without contacting the member services.
func (c *Chain) RegisterAndEnroll(ctx context.Context, req *api.RegistrationRequest) (*member.Member, error) {
	if req == nil || req.EnrollmentID == "" {
		return nil, status.Newf(status.ClientStatus, status.Configuration, "registration request requires an enrollment ID")
	}
	m, err := c.GetMember(ctx, req.EnrollmentID)
	if err != nil {
		return nil, err
	}
	if err := m.RegisterAndEnroll(ctx, req, c.registrarOrNil()); err != nil {
		return nil, err
	}
	return m, nil
}

// registrarOrNil converts the chain's registrar field to the api.Registrar
// interface, keeping a nil member pointer as a nil interface.
func (c *Chain) registrarOrNil() api.Registrar {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.registrar == nil {
		return nil
	}
	return c.registrar
}
