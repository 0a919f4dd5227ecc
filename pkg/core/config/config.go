/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package config reads SDK configuration from a YAML file (or defaults)
// through viper. Configuration covers the member services endpoint, peer
// endpoints, transaction credential batching, connection timeouts and
// logging.
package config

import (
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/securekey/ledger-sdk-go/pkg/logging"
)

var logger = logging.NewLogger("ledgersdk/config")

// PeerConfig describes one peer endpoint: its URL (grpc:// or grpcs://
// scheme), optional PEM certificate material for secured channels, and
// whether it is the primary endpoint.
type PeerConfig struct {
	URL     string
	PEM     string
	Primary bool
}

// Config provides read access to SDK configuration options.
type Config struct {
	v *viper.Viper
}

// New returns a Config carrying only the SDK defaults.
func New() *Config {
	v := viper.New()
	setDefaults(v)
	return &Config{v: v}
}

// FromFile reads in the given config file on top of the SDK defaults.
func FromFile(configFile string) (*Config, error) {
	if configFile == "" {
		return nil, errors.New("config file path is empty")
	}
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config file '%s' failed", configFile)
	}
	logger.Infof("Using config file: %s", v.ConfigFileUsed())
	return &Config{v: v}, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("client.security.enabled", true)
	v.SetDefault("client.tcert.batch.size", 200)
	v.SetDefault("client.tcert.prefetch", true)
	v.SetDefault("client.member.cache.size", 256)
	v.SetDefault("client.connection.timeout", "3s")
	v.SetDefault("client.deploy.waittime", "30s")
	v.SetDefault("client.invoke.waittime", "30s")
	v.SetDefault("client.logging.level", "info")
}

// SecurityEnabled reads whether identity security is requested. The active
// value on a chain is ultimately derived from whether member services are
// configured.
func (c *Config) SecurityEnabled() bool {
	return c.v.GetBool("client.security.enabled")
}

// TCertBatchSize reads the number of anonymous transaction credentials
// requested per prefetch batch.
func (c *Config) TCertBatchSize() int {
	return c.v.GetInt("client.tcert.batch.size")
}

// TCertPrefetch reads whether transaction credential batches are requested
// proactively before pool exhaustion.
func (c *Config) TCertPrefetch() bool {
	return c.v.GetBool("client.tcert.prefetch")
}

// MemberCacheSize reads the bound of the in-memory member cache.
func (c *Config) MemberCacheSize() int {
	return c.v.GetInt("client.member.cache.size")
}

// ConnectionTimeout reads the bounded timeout applied to each peer liveness
// probe.
func (c *Config) ConnectionTimeout() time.Duration {
	return cast.ToDuration(c.v.GetString("client.connection.timeout"))
}

// DeployWaitTime reads the legacy polling budget for callers waiting on
// off-band deploy confirmation. Passive configuration, not enforced by the
// core.
func (c *Config) DeployWaitTime() time.Duration {
	return cast.ToDuration(c.v.GetString("client.deploy.waittime"))
}

// InvokeWaitTime reads the legacy polling budget for callers waiting on
// off-band invoke confirmation. Passive configuration, not enforced by the
// core.
func (c *Config) InvokeWaitTime() time.Duration {
	return cast.ToDuration(c.v.GetString("client.invoke.waittime"))
}

// MemberServicesURL reads the member services endpoint address.
func (c *Config) MemberServicesURL() string {
	return c.v.GetString("client.memberservices.url")
}

// LoggingLevel reads the configured SDK log level.
func (c *Config) LoggingLevel() string {
	return c.v.GetString("client.logging.level")
}

// Peers reads the configured peer endpoints in priority order.
func (c *Config) Peers() ([]PeerConfig, error) {
	raw := c.v.Get("client.peers")
	if raw == nil {
		return nil, nil
	}
	var peers []PeerConfig
	if err := mapstructure.Decode(raw, &peers); err != nil {
		return nil, errors.Wrap(err, "decoding peer configuration failed")
	}
	return peers, nil
}
