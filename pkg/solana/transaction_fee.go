package solana

import (
	"context"
	"errors"
	"fmt"
	"time"

	solana_go "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ParsedTransactionGetter is the slice of the RPC client used for fee lookups
type ParsedTransactionGetter interface {
	GetParsedTransaction(ctx context.Context, txSig solana_go.Signature, opts *rpc.GetParsedTransactionOpts) (*rpc.GetParsedTransactionResult, error)
}

// LamportsPerSol converts lamport amounts for display
const LamportsPerSol = 1_000_000_000

// getTransaction serves nothing below confirmed, so a transaction seen at
// processed is polled until it is confirmed
const feeLookupAttempts = 10

var (
	feeRetryDelay = 500 * time.Millisecond

	errNotConfirmed = errors.New("transaction is not confirmed yet")
)

// GetTransactionFee returns the fee paid by a landed transaction, waiting
// briefly for it to reach confirmed commitment
func GetTransactionFee(ctx context.Context, node ParsedTransactionGetter, sig solana_go.Signature) (uint64, error) {
	var lastErr error
	for attempt := 0; attempt < feeLookupAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(feeRetryDelay):
			}
		}

		fee, err := lookupFee(ctx, node, sig)
		if err == nil {
			return fee, nil
		}
		if !errors.Is(err, errNotConfirmed) && !errors.Is(err, rpc.ErrNotFound) {
			return 0, err
		}
		lastErr = err
	}
	return 0, fmt.Errorf("fee of %s unavailable after %d attempts: %w", sig, feeLookupAttempts, lastErr)
}

func lookupFee(ctx context.Context, node ParsedTransactionGetter, sig solana_go.Signature) (uint64, error) {
	maxSupportedTransactionVersion := uint64(0)

	txResult, err := node.GetParsedTransaction(
		ctx,
		sig,
		&rpc.GetParsedTransactionOpts{
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxSupportedTransactionVersion,
		},
	)
	if err != nil {
		return 0, err
	}
	if txResult == nil || txResult.Meta == nil {
		return 0, errNotConfirmed
	}
	return txResult.Meta.Fee, nil
}
