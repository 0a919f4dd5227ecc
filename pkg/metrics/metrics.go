/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package metrics tracks the dispatch behavior of the SDK: peer attempts,
// failovers away from dead endpoints and fully exhausted dispatches.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	peerAttempts = prometheus.CounterOpts{
		Namespace: "dispatch",
		Name:      "peer_attempts_total",
		Help:      "The number of peer liveness probes attempted during dispatch.",
	}
	failovers = prometheus.CounterOpts{
		Namespace: "dispatch",
		Name:      "failovers_total",
		Help:      "The number of peer probes that failed and caused failover to the next peer.",
	}
	exhausted = prometheus.CounterOpts{
		Namespace: "dispatch",
		Name:      "exhausted_total",
		Help:      "The number of dispatches that exhausted every configured peer.",
	}
	dispatched = prometheus.CounterOpts{
		Namespace: "dispatch",
		Name:      "transactions_total",
		Help:      "The number of transactions forwarded to a peer.",
	}
)

// DispatchMetrics contains the metrics used by the transaction dispatcher.
type DispatchMetrics struct {
	PeerAttempts prometheus.Counter
	Failovers    prometheus.Counter
	Exhausted    prometheus.Counter
	Dispatched   prometheus.Counter
}

// NewDispatchMetrics builds a new instance of DispatchMetrics. The counters
// are registered with r when it is non-nil; passing nil keeps them
// unregistered, which is useful for short-lived chains and tests.
func NewDispatchMetrics(r prometheus.Registerer) *DispatchMetrics {
	m := &DispatchMetrics{
		PeerAttempts: prometheus.NewCounter(peerAttempts),
		Failovers:    prometheus.NewCounter(failovers),
		Exhausted:    prometheus.NewCounter(exhausted),
		Dispatched:   prometheus.NewCounter(dispatched),
	}
	if r != nil {
		r.MustRegister(m.PeerAttempts, m.Failovers, m.Exhausted, m.Dispatched)
	}
	return m
}
