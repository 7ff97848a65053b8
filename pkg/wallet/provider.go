// Package wallet connects a signing wallet to the drop session. A wallet must
// be approved once interactively; after that it reconnects silently.
package wallet

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrWalletNotFound     = errors.New("no wallet configured")
	ErrConnectionDeclined = errors.New("wallet connection declined")
	ErrNotTrusted         = errors.New("wallet has not been trusted yet")
)

type ConnectOptions struct {
	// OnlyIfTrusted fails with ErrNotTrusted instead of asking for approval
	OnlyIfTrusted bool
}

// Provider is a wallet able to reveal its address and sign transactions
type Provider interface {
	Name() string
	Connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error)
	// SignTransaction adds the wallet's signature and those of cosigners,
	// such as a freshly generated mint keypair
	SignTransaction(ctx context.Context, tx *solana.Transaction, cosigners ...solana.PrivateKey) error
}

// TrustStore remembers wallets the user approved
type TrustStore interface {
	IsTrusted(ctx context.Context, address string) (bool, error)
	Trust(ctx context.Context, address string) error
}

// Approver asks the user whether a wallet may connect
type Approver interface {
	Approve(ctx context.Context, provider string, address solana.PublicKey) (bool, error)
}
