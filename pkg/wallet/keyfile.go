package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

const KeyfileProviderName = "keyfile"

// KeyfileProvider signs with a local key, given either as a base58 private
// key or as a solana-keygen JSON file
type KeyfileProvider struct {
	key      solana.PrivateKey
	trust    TrustStore
	approver Approver
}

func NewKeyfileProvider(privateKey string, keypairPath string, trust TrustStore, approver Approver) (*KeyfileProvider, error) {
	var (
		key solana.PrivateKey
		err error
	)
	switch {
	case privateKey != "":
		key, err = solana.PrivateKeyFromBase58(privateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	case keypairPath != "":
		key, err = solana.PrivateKeyFromSolanaKeygenFile(keypairPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load keypair %s: %w", keypairPath, err)
		}
	default:
		return nil, ErrWalletNotFound
	}

	return &KeyfileProvider{
		key:      key,
		trust:    trust,
		approver: approver,
	}, nil
}

func (p *KeyfileProvider) Name() string {
	return KeyfileProviderName
}

func (p *KeyfileProvider) Connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error) {
	address := p.key.PublicKey()

	trusted, err := p.trust.IsTrusted(ctx, address.String())
	if err != nil {
		return solana.PublicKey{}, err
	}
	if trusted {
		return address, nil
	}
	if opts.OnlyIfTrusted {
		return solana.PublicKey{}, ErrNotTrusted
	}

	if p.approver == nil {
		return solana.PublicKey{}, ErrConnectionDeclined
	}
	approved, err := p.approver.Approve(ctx, p.Name(), address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %v", ErrConnectionDeclined, err)
	}
	if !approved {
		return solana.PublicKey{}, ErrConnectionDeclined
	}

	if err := p.trust.Trust(ctx, address.String()); err != nil {
		return solana.PublicKey{}, err
	}
	return address, nil
}

func (p *KeyfileProvider) SignTransaction(ctx context.Context, tx *solana.Transaction, cosigners ...solana.PrivateKey) error {
	signers := append([]solana.PrivateKey{p.key}, cosigners...)

	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for _, signer := range signers {
			if signer.PublicKey().Equals(key) {
				return &signer
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
