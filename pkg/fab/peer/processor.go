/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package peer

import (
	"context"
	"crypto/x509"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/securekey/ledger-sdk-go/pkg/api"
	"github.com/securekey/ledger-sdk-go/pkg/core/config/urlutil"
	"github.com/securekey/ledger-sdk-go/pkg/errors/status"
)

const transactionMethod = "/ledger.Transactions/Process"

const defaultDialTimeout = 3 * time.Second

// grpcProcessor is the default TransactionProcessor: it dials the peer over
// gRPC (TLS credentials derived from the configured PEM for grpcs://
// endpoints) and submits the opaque transaction payload with a passthrough
// codec. The payload encoding itself is outside the SDK core's scope.
type grpcProcessor struct {
	target      string
	creds       credentials.TransportCredentials
	dialTimeout time.Duration
}

func newGRPCProcessor(url string, pem []byte, dialTimeout time.Duration) (*grpcProcessor, error) {
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}
	g := &grpcProcessor{target: urlutil.ToAddress(url), dialTimeout: dialTimeout}
	if urlutil.IsTLSEnabled(url) {
		cp := x509.NewCertPool()
		if !cp.AppendCertsFromPEM(pem) {
			return nil, errors.Errorf("no certificates found in PEM material for peer '%s'", url)
		}
		g.creds = credentials.NewClientTLSFromCert(cp, "")
	} else {
		g.creds = insecure.NewCredentials()
	}
	return g, nil
}

// ProcessTransaction submits the transaction payload to the peer and
// returns its response.
func (g *grpcProcessor) ProcessTransaction(ctx context.Context, tx *api.Transaction) (*api.TransactionResponse, error) {
	if tx == nil {
		return nil, errors.New("transaction is nil")
	}
	// The blocking dial carries its own deadline so an endpoint that accepts
	// TCP but never completes the handshake cannot stall the attempt.
	dialCtx, cancel := context.WithTimeout(ctx, g.dialTimeout)
	defer cancel()
	conn, err := grpc.DialContext(dialCtx, g.target, grpc.WithTransportCredentials(g.creds), grpc.WithBlock())
	if err != nil {
		return nil, status.Newf(status.TransportStatus, status.Network, "dialing peer '%s' failed: %s", g.target, err)
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debugf("closing connection to '%s' failed: %s", g.target, err)
		}
	}()
	in := &rawMessage{data: tx.Payload}
	out := &rawMessage{}
	if err := conn.Invoke(ctx, transactionMethod, in, out, grpc.ForceCodec(rawCodec{})); err != nil {
		return nil, status.Newf(status.TransportStatus, status.Network, "sending transaction '%s' to peer '%s' failed: %s", tx.ID, g.target, err)
	}
	return &api.TransactionResponse{Endpoint: g.target, Payload: out.data}, nil
}

// rawMessage carries opaque bytes through the gRPC call path.
type rawMessage struct {
	data []byte
}

// rawCodec is a passthrough codec: the SDK core does not define the wire
// encoding of transactions, so payloads travel as raw bytes.
type rawCodec struct{}

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	msg, ok := v.(*rawMessage)
	if !ok {
		return nil, errors.Errorf("unexpected message type %T", v)
	}
	return msg.data, nil
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	msg, ok := v.(*rawMessage)
	if !ok {
		return errors.Errorf("unexpected message type %T", v)
	}
	msg.data = data
	return nil
}

func (rawCodec) Name() string {
	return "raw"
}
