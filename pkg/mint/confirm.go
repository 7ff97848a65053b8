package mint

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
)

// Confirmer opens a watch on a signature. The watch is opened before the
// transaction is sent so a fast confirmation cannot be missed.
type Confirmer interface {
	Watch(ctx context.Context, sig solana.Signature) (Confirmation, error)
}

type Confirmation interface {
	// Wait returns nil once the signature is processed without error, a
	// *ConfirmationError when it failed, or the context error
	Wait(ctx context.Context) error
	Close()
}

// WSConfirmer watches signatures over the node's websocket endpoint
type WSConfirmer struct {
	endpoint string
}

func NewWSConfirmer(endpoint string) *WSConfirmer {
	return &WSConfirmer{endpoint: endpoint}
}

func (c *WSConfirmer) Watch(ctx context.Context, sig solana.Signature) (Confirmation, error) {
	client, err := ws.Connect(ctx, c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}

	sub, err := client.SignatureSubscribe(sig, rpc.CommitmentProcessed)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to subscribe to signature %s: %w", sig, err)
	}

	return &wsConfirmation{client: client, sub: sub, sig: sig}, nil
}

type wsConfirmation struct {
	client *ws.Client
	sub    *ws.SignatureSubscription
	sig    solana.Signature
}

func (w *wsConfirmation) Wait(ctx context.Context) error {
	result, err := w.sub.Recv(ctx)
	if err != nil {
		return err
	}
	if result != nil && result.Value.Err != nil {
		return &ConfirmationError{Signature: w.sig, TxErr: result.Value.Err}
	}
	return nil
}

func (w *wsConfirmation) Close() {
	w.sub.Unsubscribe()
	w.client.Close()
}
