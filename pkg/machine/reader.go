// Package machine reads the supply counters and go-live instant of a candy
// machine.
package machine

import (
	"context"
	"errors"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"candy-drop/pkg/solana/candymachine"
)

// DisplayLayout renders the go-live instant the way a US-locale browser does
const DisplayLayout = "1/2/2006, 3:04:05 PM"

// AccountGetter is the slice of the RPC client the reader needs
type AccountGetter interface {
	GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error)
}

// Stats is one snapshot of a candy machine. A refresh replaces it as a whole.
type Stats struct {
	ItemsAvailable uint64
	ItemsRedeemed  uint64
	ItemsRemaining uint64
	// Price in lamports
	Price uint64
	// GoLive is only meaningful when GoLiveSet is true
	GoLive        time.Time
	GoLiveSet     bool
	GoLiveDisplay string

	Treasury solana.PublicKey
	Config   solana.PublicKey
}

func (s *Stats) SoldOut() bool {
	return s.ItemsRemaining == 0
}

// Live reports whether minting is open at now. A machine without a go-live
// date is not time gated.
func (s *Stats) Live(now time.Time) bool {
	return !s.GoLiveSet || !now.Before(s.GoLive)
}

type Reader struct {
	node      AccountGetter
	programID solana.PublicKey
	location  *time.Location
	logger    *zap.Logger
}

func NewReader(node AccountGetter, programID solana.PublicKey, location *time.Location, logger *zap.Logger) *Reader {
	if location == nil {
		location = time.Local
	}
	return &Reader{
		node:      node,
		programID: programID,
		location:  location,
		logger:    logger,
	}
}

// FetchState reads and decodes the candy machine account
func (r *Reader) FetchState(ctx context.Context, machineID solana.PublicKey) (*Stats, error) {
	result, err := r.node.GetAccountInfoWithOpts(ctx, machineID, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return nil, &RemoteReadError{MachineID: machineID, Err: err}
	}
	if result == nil || result.Value == nil || result.Value.Data == nil {
		return nil, &RemoteReadError{MachineID: machineID, Err: rpc.ErrNotFound}
	}

	account := result.Value
	if !account.Owner.Equals(r.programID) {
		return nil, &DecodeError{
			MachineID: machineID,
			Reason:    "account is owned by " + account.Owner.String(),
		}
	}

	cm, err := candymachine.Decode(account.Data.GetBinary())
	if err != nil {
		return nil, &DecodeError{MachineID: machineID, Reason: "unexpected account layout", Err: err}
	}

	stats, err := r.statsFromAccount(cm)
	if err != nil {
		return nil, &DecodeError{MachineID: machineID, Reason: "inconsistent counters", Err: err}
	}

	r.logger.Debug("fetched candy machine state",
		zap.Stringer("machine", machineID),
		zap.Uint64("available", stats.ItemsAvailable),
		zap.Uint64("redeemed", stats.ItemsRedeemed),
		zap.String("go_live", stats.GoLiveDisplay),
	)

	return stats, nil
}

var errRedeemedExceedsAvailable = errors.New("items redeemed exceeds items available")

func (r *Reader) statsFromAccount(cm *candymachine.CandyMachine) (*Stats, error) {
	if cm.ItemsRedeemed > cm.Data.ItemsAvailable {
		return nil, errRedeemedExceedsAvailable
	}

	stats := &Stats{
		ItemsAvailable: cm.Data.ItemsAvailable,
		ItemsRedeemed:  cm.ItemsRedeemed,
		ItemsRemaining: cm.Data.ItemsAvailable - cm.ItemsRedeemed,
		Price:          cm.Data.Price,
		Treasury:       cm.Wallet,
		Config:         cm.Config,
	}
	if cm.Data.GoLiveDate != nil {
		stats.GoLive = time.Unix(*cm.Data.GoLiveDate, 0).In(r.location)
		stats.GoLiveSet = true
		stats.GoLiveDisplay = stats.GoLive.Format(DisplayLayout)
	}
	return stats, nil
}
