/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package member implements the identity lifecycle of the SDK. A Member
// represents one cryptographic identity recognized by the ledger network,
// moving through Unregistered -> Registered -> Enrolled against the remote
// member services, persisting its state through the key value store after
// every state-mutating operation, and holding a pool of prefetched
// anonymous transaction credentials.
package member

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/errors/status"
	"github.com/securekey/ledger-sdk-go/pkg/logging"
)

var logger = logging.NewLogger("ledgersdk/member")

// State is the lifecycle state of a member.
type State int

const (
	// Unregistered means the member is not yet known to the member services.
	Unregistered State = iota
	// Registered means the member holds a one-time enrollment secret but no
	// enrollment material yet.
	Registered
	// Enrolled means the member holds valid enrollment certificate and key
	// material.
	Enrolled
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Registered:
		return "registered"
	case Enrolled:
		return "enrolled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config carries the collaborators and settings a member is constructed
// with. All of them come from the owning chain.
type Config struct {
	// Name is the enrollment ID; immutable after construction.
	Name string
	// ChainName scopes the member's persistence key.
	ChainName string
	// Services is the remote member services the member enrolls against.
	Services api.MemberServices
	// Store persists the member's state across process restarts.
	Store api.KeyValueStore
	// CryptoSuite signs transaction payloads with pooled credentials.
	CryptoSuite api.CryptoSuite
	// TCertBatchSize is the number of credentials requested per batch.
	TCertBatchSize int
	// PreFetch requests a new batch before the pool is exhausted.
	PreFetch bool
}

// Member is one cryptographic identity and its lifecycle state. Members are
// owned by the chain's cache for the lifetime of the process; the chain is
// the only writer of that cache.
type Member struct {
	mu               sync.Mutex
	name             string
	chainName        string
	state            State
	enrollmentSecret string
	enrollment       *api.Enrollment
	affiliation      string
	roles            []string

	services       api.MemberServices
	store          api.KeyValueStore
	cryptoSuite    api.CryptoSuite
	tcertBatchSize int
	preFetch       bool

	tcerts    []*api.TCert
	refilling bool
}

// memberState is the serialized representation written through the key
// value store. The credential pool is deliberately not persisted: TCerts
// are single-use and are refetched after a restart.
type memberState struct {
	Name             string
	State            State
	EnrollmentSecret string
	EnrollmentCert   []byte
	EnrollmentKey    []byte
	Affiliation      string
	Roles            []string
}

// New constructs an in-memory member in the Unregistered state. Call
// Restore to load any previously persisted state.
func New(cfg Config) (*Member, error) {
	if cfg.Name == "" {
		return nil, errors.New("failed to create member. Missing required 'Name' parameter")
	}
	if cfg.ChainName == "" {
		return nil, errors.New("failed to create member. Missing required 'ChainName' parameter")
	}
	if cfg.Services == nil {
		return nil, status.Newf(status.ClientStatus, status.Configuration, "member services are not configured")
	}
	if cfg.Store == nil {
		return nil, status.Newf(status.ClientStatus, status.Configuration, "key value store is not configured")
	}
	if cfg.TCertBatchSize <= 0 {
		cfg.TCertBatchSize = 200
	}
	return &Member{
		name:           cfg.Name,
		chainName:      cfg.ChainName,
		state:          Unregistered,
		services:       cfg.Services,
		store:          cfg.Store,
		cryptoSuite:    cfg.CryptoSuite,
		tcertBatchSize: cfg.TCertBatchSize,
		preFetch:       cfg.PreFetch,
	}, nil
}

// Name returns the member's enrollment ID.
func (m *Member) Name() string {
	return m.name
}

// State returns the member's lifecycle state.
func (m *Member) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsRegistered returns true if the member holds an enrollment secret or
// better.
func (m *Member) IsRegistered() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state >= Registered
}

// IsEnrolled returns true if the member holds enrollment material.
func (m *Member) IsEnrolled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Enrolled
}

// EnrollmentCertificate returns the member's enrollment certificate, or nil
// when not enrolled.
func (m *Member) EnrollmentCertificate() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enrollment == nil {
		return nil
	}
	return m.enrollment.Cert
}

// Affiliation returns the affiliation recorded at registration.
func (m *Member) Affiliation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.affiliation
}

// Roles returns the roles recorded at registration.
func (m *Member) Roles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles
}

// TCertPoolSize returns the number of unused transaction credentials
// currently pooled.
func (m *Member) TCertPoolSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tcerts)
}

func (m *Member) storageKey() string {
	return fmt.Sprintf("member.%s.%s", m.chainName, m.name)
}

// Restore loads the member's persisted state from the key value store. A
// missing key is not an error: the member simply starts Unregistered.
func (m *Member) Restore() error {
	data, err := m.store.Load(m.storageKey())
	if err != nil {
		if errors.Cause(err) == api.ErrKeyValueNotFound {
			logger.Debugf("no persisted state for member '%s', starting unregistered", m.name)
			return nil
		}
		return status.Newf(status.StorageStatus, status.Storage, "loading member '%s' failed: %s", m.name, err)
	}
	var ms memberState
	if err := json.Unmarshal(data, &ms); err != nil {
		return status.Newf(status.StorageStatus, status.Storage, "persisted state of member '%s' is corrupt: %s", m.name, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = ms.State
	m.enrollmentSecret = ms.EnrollmentSecret
	m.affiliation = ms.Affiliation
	m.roles = ms.Roles
	if len(ms.EnrollmentCert) > 0 {
		m.enrollment = &api.Enrollment{Cert: ms.EnrollmentCert, Key: ms.EnrollmentKey}
	}
	logger.Debugf("restored member '%s' in state %s", m.name, m.state)
	return nil
}

// persist writes the member's current state through the key value store.
// Callers must hold m.mu.
func (m *Member) persist() error {
	ms := memberState{
		Name:             m.name,
		State:            m.state,
		EnrollmentSecret: m.enrollmentSecret,
		Affiliation:      m.affiliation,
		Roles:            m.roles,
	}
	if m.enrollment != nil {
		ms.EnrollmentCert = m.enrollment.Cert
		ms.EnrollmentKey = m.enrollment.Key
	}
	data, err := json.Marshal(&ms)
	if err != nil {
		return status.Newf(status.StorageStatus, status.Storage, "serializing member '%s' failed: %s", m.name, err)
	}
	if err := m.store.Store(m.storageKey(), data); err != nil {
		return status.Newf(status.StorageStatus, status.Storage, "persisting member '%s' failed: %s", m.name, err)
	}
	return nil
}

// Register records the member with the member services and stores the
// returned one-time enrollment secret. Registering an already registered
// member succeeds without contacting the authority. The registrar must be
// an enrolled identity privileged to register others.
func (m *Member) Register(ctx context.Context, req *api.RegistrationRequest, registrar api.Registrar) error {
	if req == nil {
		return errors.New("registration request is nil")
	}
	if req.EnrollmentID != m.name {
		return errors.Errorf("registration request enrollment ID '%s' does not match member '%s'", req.EnrollmentID, m.name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state >= Registered {
		logger.Debugf("member '%s' already registered", m.name)
		return nil
	}
	if registrar == nil || !registrar.IsEnrolled() {
		return status.Newf(status.MemberServicesStatus, status.Permission, "registration of '%s' requires an enrolled registrar", m.name)
	}
	secret, err := m.services.Register(ctx, req, registrar)
	if err != nil {
		return errors.Wrapf(err, "registration of '%s' failed", m.name)
	}
	m.enrollmentSecret = secret
	m.affiliation = req.Affiliation
	m.roles = req.Roles
	m.state = Registered
	return m.persist()
}

// Enroll exchanges the enrollment secret for durable certificate and key
// material. An empty secret falls back to the secret obtained at
// registration. Enrolling an already enrolled member succeeds and refreshes
// the enrollment material.
func (m *Member) Enroll(ctx context.Context, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if secret == "" {
		secret = m.enrollmentSecret
	}
	if secret == "" {
		return status.Newf(status.MemberServicesStatus, status.Authentication, "enrollment of '%s' requires a secret", m.name)
	}
	enrollment, err := m.services.Enroll(ctx, m.name, secret)
	if err != nil {
		return errors.Wrapf(err, "enrollment of '%s' failed", m.name)
	}
	m.enrollment = enrollment
	m.enrollmentSecret = secret
	m.state = Enrolled
	return m.persist()
}

// RegisterAndEnroll combines registration and enrollment as a single
// logical unit. An already enrolled member short-circuits to success
// without contacting the authority. A failure at either sub-step fails the
// whole operation; persisted state reflects whatever sub-steps completed.
func (m *Member) RegisterAndEnroll(ctx context.Context, req *api.RegistrationRequest, registrar api.Registrar) error {
	if m.IsEnrolled() {
		logger.Debugf("member '%s' already enrolled", m.name)
		return nil
	}
	if err := m.Register(ctx, req, registrar); err != nil {
		return err
	}
	return m.Enroll(ctx, "")
}
