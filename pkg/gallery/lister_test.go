package gallery

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/metadata"
)

type stubScanNode struct {
	accounts rpc.GetProgramAccountsResult
	err      error
	program  solana.PublicKey
	opts     *rpc.GetProgramAccountsOpts
}

func (n *stubScanNode) GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	n.program = publicKey
	n.opts = opts
	return n.accounts, n.err
}

type stubResolver struct {
	images map[string]string
}

func (r *stubResolver) FetchImage(ctx context.Context, metadataURI string) (string, error) {
	image, ok := r.images[metadataURI]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoImage, metadataURI)
	}
	return image, nil
}

func metadataAccount(t *testing.T, machineID solana.PublicKey, uri string) *rpc.KeyedAccount {
	t.Helper()
	data, err := metadata.Encode(&metadata.Metadata{
		Key:             metadata.KeyMetadataV1,
		UpdateAuthority: solana.NewWallet().PublicKey(),
		Mint:            solana.NewWallet().PublicKey(),
		Name:            "Candy",
		Symbol:          "CNDY",
		URI:             uri,
		Creators:        []metadata.Creator{{Address: machineID, Verified: true}},
	})
	require.NoError(t, err)
	return &rpc.KeyedAccount{
		Pubkey: solana.NewWallet().PublicKey(),
		Account: &rpc.Account{
			Owner: sol.MetadataProgramID,
			Data:  rpc.DataBytesOrJSONFromBytes(data),
		},
	}
}

func TestListMinted(t *testing.T) {
	machineID := solana.NewWallet().PublicKey()
	node := &stubScanNode{
		accounts: rpc.GetProgramAccountsResult{
			metadataAccount(t, machineID, "https://arweave.net/1.json"),
			metadataAccount(t, machineID, "https://arweave.net/2.json"),
			metadataAccount(t, machineID, "https://arweave.net/1-copy.json"),
		},
	}
	resolver := &stubResolver{images: map[string]string{
		"https://arweave.net/1.json":      "https://arweave.net/1.png",
		"https://arweave.net/2.json":      "https://arweave.net/2.png",
		"https://arweave.net/1-copy.json": "https://arweave.net/1.png",
	}}

	lister := NewLister(node, resolver, nil, zap.NewNop())
	images, err := lister.ListMinted(context.Background(), machineID)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://arweave.net/1.png", "https://arweave.net/2.png"}, images)
	assert.Equal(t, sol.MetadataProgramID, node.program)
	require.Len(t, node.opts.Filters, 1)
	assert.Equal(t, uint64(metadata.FirstCreatorOffset), node.opts.Filters[0].Memcmp.Offset)
	assert.Equal(t, machineID.Bytes(), []byte(node.opts.Filters[0].Memcmp.Bytes))
}

func TestListMintedSkipsBrokenItems(t *testing.T) {
	machineID := solana.NewWallet().PublicKey()
	broken := &rpc.KeyedAccount{
		Pubkey:  solana.NewWallet().PublicKey(),
		Account: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes([]byte{9, 9, 9})},
	}
	node := &stubScanNode{
		accounts: rpc.GetProgramAccountsResult{
			broken,
			metadataAccount(t, machineID, "https://arweave.net/gone.json"),
			metadataAccount(t, machineID, "https://arweave.net/3.json"),
		},
	}
	resolver := &stubResolver{images: map[string]string{
		"https://arweave.net/3.json": "https://arweave.net/3.png",
	}}

	images, err := NewLister(node, resolver, nil, zap.NewNop()).ListMinted(context.Background(), machineID)

	assert.Equal(t, []string{"https://arweave.net/3.png"}, images)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.ErrorIs(t, err, ErrNoImage)
}

func TestListMintedScanFailure(t *testing.T) {
	node := &stubScanNode{err: errors.New("429 too many requests")}

	images, err := NewLister(node, &stubResolver{}, nil, zap.NewNop()).ListMinted(context.Background(), solana.NewWallet().PublicKey())

	assert.Empty(t, images)
	var scanErr *ScanError
	assert.ErrorAs(t, err, &scanErr)
}
