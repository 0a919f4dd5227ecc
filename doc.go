/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package ledgersdk enables Go developers to build client applications for a
// permissioned distributed ledger network.
//
// Packages for end developer usage
//
// pkg/fab/chain: The main entry point of the SDK. A Chain manages member
// identities and dispatches signed transactions across the chain's peer
// endpoints with automatic failover.
//
// pkg/fab/member: Member identity lifecycle. A member is registered with the
// network's member services, enrolled for certificate material, and draws
// single-use transaction credentials from a prefetched pool.
//
// pkg/fab/peer: Peer endpoint representation, including liveness probing and
// the transport used to submit transactions.
//
// pkg/core/config: File and programmatic configuration of the SDK.
//
// pkg/api: The contracts between the SDK and its pluggable collaborators
// (member services, key value store, crypto suite, transaction processor).
//
// Basic workflow
//
//	1) Create a Chain, optionally from a configuration file.
//	2) Configure member services and a key value store on the chain.
//	3) Resolve members through chain.GetMember and drive them through
//	   registration and enrollment.
//	4) Sign a transaction payload with a member's transaction credential.
//	5) Dispatch the signed transaction; the chain probes peers in priority
//	   order and fails over until one accepts it.
package ledgersdk
