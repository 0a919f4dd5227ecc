/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package chain implements the identity registry and transaction
// dispatcher of the SDK. A Chain owns the ordered list of candidate peer
// endpoints, the configured member services and key value store, an
// optional registrar identity, and a bounded cache of Member objects keyed
// by name. Applications resolve members through the chain, drive them
// through registration and enrollment, and dispatch signed transactions to
// one of the peers with failover.
package chain

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/core/config"
	"github.com/securekey/ledger-sdk-go/pkg/core/config/urlutil"
	"github.com/securekey/ledger-sdk-go/pkg/fab/member"
	"github.com/securekey/ledger-sdk-go/pkg/fab/peer"
	"github.com/securekey/ledger-sdk-go/pkg/logging"
	"github.com/securekey/ledger-sdk-go/pkg/metrics"
)

var logger = logging.NewLogger("ledgersdk/chain")

const (
	defaultTCertBatchSize    = 200
	defaultMemberCacheSize   = 256
	defaultConnectionTimeout = 3 * time.Second
	defaultWaitTime          = 30 * time.Second
)

// Chain is the identity registry and dispatch orchestrator. All methods
// are safe for concurrent use; the peer list, member cache and collaborator
// references are guarded by one mutex. Two concurrent GetMember calls for
// the same name are not serialized against each other: both may construct
// and restore a member, and the last writer to the cache wins.
type Chain struct {
	mu   sync.RWMutex
	name string

	peers        []*peer.Peer
	peersVersion uint64
	primaryPeer  *peer.Peer

	members *lru.Cache

	services    api.MemberServices
	cryptoSuite api.CryptoSuite
	store       api.KeyValueStore
	registrar   *member.Member

	tcertBatchSize    int
	preFetchMode      bool
	devMode           bool
	memberCacheSize   int
	connectionTimeout time.Duration
	deployWaitTime    time.Duration
	invokeWaitTime    time.Duration

	metrics *metrics.DispatchMetrics
}

// Option describes a functional parameter for the New constructor
type Option func(*Chain) error

// New returns a chain with the given name. The name is immutable and only
// meaningful to the client.
func New(name string, opts ...Option) (*Chain, error) {
	if name == "" {
		return nil, errors.New("failed to create chain. Missing required 'name' parameter")
	}
	c := &Chain{
		name:              name,
		tcertBatchSize:    defaultTCertBatchSize,
		preFetchMode:      true,
		memberCacheSize:   defaultMemberCacheSize,
		connectionTimeout: defaultConnectionTimeout,
		deployWaitTime:    defaultWaitTime,
		invokeWaitTime:    defaultWaitTime,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.members == nil {
		cache, err := lru.New(c.memberCacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "creating member cache failed")
		}
		c.members = cache
	}
	if c.metrics == nil {
		c.metrics = metrics.NewDispatchMetrics(nil)
	}
	logger.Debugf("constructed chain '%s'", name)
	return c, nil
}

// WithConfig is a functional option for the chain.New constructor that
// applies SDK configuration: batching, timeouts, member cache bound,
// logging level and configured peers.
func WithConfig(cfg *config.Config) Option {
	return func(c *Chain) error {
		if cfg == nil {
			return errors.New("config is nil")
		}
		if cfg.SecurityEnabled() {
			if url := cfg.MemberServicesURL(); url != "" && !urlutil.HasProtocol(url) {
				return errors.Errorf("member services URL '%s' is missing a protocol", url)
			}
		} else {
			logger.Warnf("identity security is disabled in configuration for chain '%s'", c.name)
		}
		c.tcertBatchSize = cfg.TCertBatchSize()
		c.preFetchMode = cfg.TCertPrefetch()
		c.connectionTimeout = cfg.ConnectionTimeout()
		c.deployWaitTime = cfg.DeployWaitTime()
		c.invokeWaitTime = cfg.InvokeWaitTime()
		if err := logging.SetLevel(cfg.LoggingLevel()); err != nil {
			return err
		}
		c.memberCacheSize = cfg.MemberCacheSize()
		cache, err := lru.New(c.memberCacheSize)
		if err != nil {
			return errors.Wrap(err, "creating member cache failed")
		}
		c.members = cache
		peerCfgs, err := cfg.Peers()
		if err != nil {
			return err
		}
		for i := range peerCfgs {
			p, err := peer.New(
				peer.FromPeerConfig(&peerCfgs[i]),
				peer.WithDialTimeout(c.connectionTimeout),
			)
			if err != nil {
				return err
			}
			c.peers = append(c.peers, p)
			if peerCfgs[i].Primary {
				c.primaryPeer = p
			}
		}
		return nil
	}
}

// WithMetricsRegisterer is a functional option for the chain.New
// constructor that registers the chain's dispatch metrics with r.
func WithMetricsRegisterer(r prometheus.Registerer) Option {
	return func(c *Chain) error {
		c.metrics = metrics.NewDispatchMetrics(r)
		return nil
	}
}

// Name returns the chain name.
func (c *Chain) Name() string {
	return c.name
}

// SecurityEnabled returns true iff member services are configured.
func (c *Chain) SecurityEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services != nil
}

// SetMemberServices sets the remote member services and re-derives the
// active crypto suite from the authority's advertised suite.
func (c *Chain) SetMemberServices(services api.MemberServices) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services = services
	if services != nil {
		c.cryptoSuite = services.CryptoSuite()
	} else {
		c.cryptoSuite = nil
	}
}

// MemberServices returns the configured member services.
func (c *Chain) MemberServices() api.MemberServices {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services
}

// CryptoSuite returns the active crypto suite, derived from the configured
// member services.
func (c *Chain) CryptoSuite() api.CryptoSuite {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cryptoSuite
}

// SetKeyValueStore sets the persistent store used to save and restore
// member state.
func (c *Chain) SetKeyValueStore(store api.KeyValueStore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store = store
}

// KeyValueStore returns the configured persistent store.
func (c *Chain) KeyValueStore() api.KeyValueStore {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

// SetRegistrar sets the member privileged to register other identities.
func (c *Chain) SetRegistrar(registrar *member.Member) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrar = registrar
}

// Registrar returns the configured registrar member.
func (c *Chain) Registrar() *member.Member {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registrar
}

// SetTCertBatchSize sets the number of anonymous credentials requested per
// prefetch batch. Applies to members constructed after the change.
func (c *Chain) SetTCertBatchSize(batchSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tcertBatchSize = batchSize
}

// TCertBatchSize returns the tcert batch size.
func (c *Chain) TCertBatchSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tcertBatchSize
}

// SetPreFetchMode sets whether credential batches are requested proactively
// before exhaustion. Applies to members constructed after the change.
func (c *Chain) SetPreFetchMode(preFetch bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preFetchMode = preFetch
}

// PreFetchMode returns whether prefetching is enabled.
func (c *Chain) PreFetchMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.preFetchMode
}

// SetMemberCacheSize resizes the bounded member cache. Shrinking evicts the
// least recently used members; their state remains in the store.
func (c *Chain) SetMemberCacheSize(size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memberCacheSize = size
	c.members.Resize(size)
}

// MemberCacheSize returns the bound of the member cache.
func (c *Chain) MemberCacheSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.memberCacheSize
}

// SetDevMode alters deployment addressing semantics for development
// networks.
func (c *Chain) SetDevMode(devMode bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.devMode = devMode
}

// DevMode returns whether dev mode is enabled.
func (c *Chain) DevMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.devMode
}

// SetConnectionTimeout sets the bounded timeout applied to each peer
// liveness probe.
func (c *Chain) SetConnectionTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectionTimeout = timeout
}

// ConnectionTimeout returns the per-probe connection timeout.
func (c *Chain) ConnectionTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connectionTimeout
}

// SetDeployWaitTime sets the legacy polling budget for callers waiting on
// off-band deploy confirmation. Passive configuration.
func (c *Chain) SetDeployWaitTime(waitTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deployWaitTime = waitTime
}

// DeployWaitTime returns the deploy wait time.
func (c *Chain) DeployWaitTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.deployWaitTime
}

// SetInvokeWaitTime sets the legacy polling budget for callers waiting on
// off-band invoke confirmation. Passive configuration.
func (c *Chain) SetInvokeWaitTime(waitTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invokeWaitTime = waitTime
}

// InvokeWaitTime returns the invoke wait time.
func (c *Chain) InvokeWaitTime() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.invokeWaitTime
}
