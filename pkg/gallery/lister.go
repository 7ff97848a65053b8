// Package gallery backfills the images of items already minted from a candy
// machine.
package gallery

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/metadata"
)

// ProgramAccountsGetter is the slice of the RPC client the lister needs
type ProgramAccountsGetter interface {
	GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error)
}

type ImageResolver interface {
	FetchImage(ctx context.Context, metadataURI string) (string, error)
}

// ScanError is returned when the metadata scan itself fails
type ScanError struct {
	MachineID solana.PublicKey
	Err       error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("failed to scan metadata minted by %s: %v", e.MachineID, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

type Lister struct {
	node     ProgramAccountsGetter
	resolver ImageResolver
	images   *ImageList
	logger   *zap.Logger
}

func NewLister(node ProgramAccountsGetter, resolver ImageResolver, images *ImageList, logger *zap.Logger) *Lister {
	if images == nil {
		images = NewImageList()
	}
	return &Lister{
		node:     node,
		resolver: resolver,
		images:   images,
		logger:   logger,
	}
}

func (l *Lister) Images() *ImageList {
	return l.images
}

// ListMinted finds every metadata account whose first creator is machineID and
// adds its image to the list. Items that fail to decode or fetch are skipped;
// their errors are combined into the returned error next to the full list.
func (l *Lister) ListMinted(ctx context.Context, machineID solana.PublicKey) ([]string, error) {
	accounts, err := l.node.GetProgramAccountsWithOpts(ctx, sol.MetadataProgramID, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentProcessed,
		Filters:    []rpc.RPCFilter{metadata.CreatorFilter(machineID)},
	})
	if err != nil {
		return l.images.Items(), &ScanError{MachineID: machineID, Err: err}
	}

	l.logger.Info("found minted items", zap.Stringer("machine", machineID), zap.Int("count", len(accounts)))

	var errs error
	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return l.images.Items(), multierr.Append(errs, err)
		}
		if account == nil || account.Account == nil || account.Account.Data == nil {
			continue
		}

		md, err := metadata.Decode(account.Account.Data.GetBinary())
		if err != nil {
			l.logger.Warn("skipping undecodable metadata", zap.Stringer("account", account.Pubkey), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("metadata %s: %w", account.Pubkey, err))
			continue
		}

		image, err := l.resolver.FetchImage(ctx, md.URI)
		if err != nil {
			l.logger.Warn("skipping item without image", zap.Stringer("mint", md.Mint), zap.String("uri", md.URI), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("mint %s: %w", md.Mint, err))
			continue
		}

		if l.images.Add(image) {
			l.logger.Debug("added minted image", zap.Stringer("mint", md.Mint), zap.String("image", image))
		}
	}

	return l.images.Items(), errs
}
