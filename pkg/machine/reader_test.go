package machine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	sol "candy-drop/pkg/solana"
	"candy-drop/pkg/solana/candymachine"
)

type stubNode struct {
	owner solana.PublicKey
	data  []byte
	err   error
}

func (n *stubNode) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	if n.err != nil {
		return nil, n.err
	}
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Owner: n.owner,
			Data:  rpc.DataBytesOrJSONFromBytes(n.data),
		},
	}, nil
}

func encodeMachine(t *testing.T, available, redeemed uint64, goLive *int64) []byte {
	t.Helper()
	data, err := candymachine.Encode(&candymachine.CandyMachine{
		Authority: solana.NewWallet().PublicKey(),
		Wallet:    solana.NewWallet().PublicKey(),
		Config:    solana.NewWallet().PublicKey(),
		Data: candymachine.CandyMachineData{
			UUID:           "Q2Wm1a",
			Price:          1_000_000_000,
			ItemsAvailable: available,
			GoLiveDate:     goLive,
		},
		ItemsRedeemed: redeemed,
	})
	require.NoError(t, err)
	return data
}

func newTestReader(node AccountGetter) *Reader {
	return NewReader(node, sol.CandyMachineProgramID, time.UTC, zap.NewNop())
}

func TestFetchState(t *testing.T) {
	goLive := int64(1_634_567_890)
	node := &stubNode{
		owner: sol.CandyMachineProgramID,
		data:  encodeMachine(t, 100, 40, &goLive),
	}

	stats, err := newTestReader(node).FetchState(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)

	assert.Equal(t, uint64(100), stats.ItemsAvailable)
	assert.Equal(t, uint64(40), stats.ItemsRedeemed)
	assert.Equal(t, uint64(60), stats.ItemsRemaining)
	assert.Equal(t, uint64(1_000_000_000), stats.Price)
	assert.True(t, stats.GoLiveSet)
	assert.Equal(t, goLive, stats.GoLive.Unix())
	assert.Equal(t, "10/18/2021, 2:38:10 PM", stats.GoLiveDisplay)
	assert.False(t, stats.SoldOut())
	assert.True(t, stats.Live(time.Unix(goLive, 0)))
	assert.False(t, stats.Live(time.Unix(goLive-1, 0)))
}

func TestFetchStateSoldOut(t *testing.T) {
	node := &stubNode{owner: sol.CandyMachineProgramID, data: encodeMachine(t, 10, 10, nil)}

	stats, err := newTestReader(node).FetchState(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.True(t, stats.SoldOut())
	assert.False(t, stats.GoLiveSet)
	assert.Empty(t, stats.GoLiveDisplay)
	assert.True(t, stats.Live(time.Now()))
}

func TestFetchStateRemoteError(t *testing.T) {
	node := &stubNode{err: errors.New("connection refused")}

	_, err := newTestReader(node).FetchState(context.Background(), solana.NewWallet().PublicKey())

	var remote *RemoteReadError
	require.ErrorAs(t, err, &remote)
	assert.ErrorContains(t, err, "connection refused")
}

func TestFetchStateDecodeErrors(t *testing.T) {
	machineID := solana.NewWallet().PublicKey()

	tests := []struct {
		name string
		node *stubNode
	}{
		{
			name: "foreign owner",
			node: &stubNode{owner: solana.SystemProgramID, data: encodeMachine(t, 10, 1, nil)},
		},
		{
			name: "truncated",
			node: &stubNode{owner: sol.CandyMachineProgramID, data: encodeMachine(t, 10, 1, nil)[:50]},
		},
		{
			name: "redeemed exceeds available",
			node: &stubNode{owner: sol.CandyMachineProgramID, data: encodeMachine(t, 10, 11, nil)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestReader(tt.node).FetchState(context.Background(), machineID)
			var decodeErr *DecodeError
			assert.ErrorAs(t, err, &decodeErr)
		})
	}
}
