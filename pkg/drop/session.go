// Package drop ties the wallet, the candy machine state, the gallery and the
// mint submitter into one session.
package drop

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"candy-drop/pkg/countdown"
	"candy-drop/pkg/gallery"
	"candy-drop/pkg/machine"
	"candy-drop/pkg/mint"
	"candy-drop/pkg/wallet"
)

var (
	ErrSoldOut  = errors.New("candy machine is sold out")
	ErrNotLive  = errors.New("minting has not started yet")
	ErrNoStats  = errors.New("candy machine state has not been loaded")
	ErrNotGated = errors.New("candy machine has no go-live date")
)

const (
	refreshKey = "state"
	// refreshTimeout bounds a shared read that no single caller owns
	refreshTimeout = 30 * time.Second
)

type StateReader interface {
	FetchState(ctx context.Context, machineID solana.PublicKey) (*machine.Stats, error)
}

type MintedLister interface {
	ListMinted(ctx context.Context, machineID solana.PublicKey) ([]string, error)
	Images() *gallery.ImageList
}

// Minter is implemented by *mint.Submitter
type Minter interface {
	Mint(ctx context.Context) (*mint.Receipt, error)
	OnConfirmed(hook func(ctx context.Context))
	FillAccounts(config, treasury solana.PublicKey)
	State() mint.State
}

type Session struct {
	machineID solana.PublicKey
	connector *wallet.Connector
	reader    StateReader
	lister    MintedLister
	minter    Minter
	clock     clock.Clock
	logger    *zap.Logger

	refreshes singleflight.Group

	mu    sync.RWMutex
	stats *machine.Stats
	// reads numbers every FetchState; stored is the number behind stats
	reads  uint64
	stored uint64
}

// NewSession wires the components for one candy machine. minter may be nil for
// read-only sessions.
func NewSession(machineID solana.PublicKey, connector *wallet.Connector, reader StateReader, lister MintedLister, minter Minter, clk clock.Clock, logger *zap.Logger) *Session {
	if clk == nil {
		clk = clock.New()
	}
	s := &Session{
		machineID: machineID,
		connector: connector,
		reader:    reader,
		lister:    lister,
		minter:    minter,
		clock:     clk,
		logger:    logger,
	}
	if minter != nil {
		minter.OnConfirmed(func(ctx context.Context) {
			if _, err := s.refresh(ctx, true); err != nil {
				s.logger.Warn("failed to refresh state after mint", zap.Error(err))
			}
		})
	}
	return s
}

func (s *Session) MachineID() solana.PublicKey {
	return s.machineID
}

func (s *Session) Wallet() *wallet.Connector {
	return s.connector
}

// Load auto-connects a trusted wallet, reads the candy machine and backfills
// the gallery. The three steps fail independently; their errors are combined.
func (s *Session) Load(ctx context.Context) error {
	if s.connector != nil {
		s.connector.TryAutoConnect(ctx)
	}

	var errs error
	if _, err := s.RefreshState(ctx); err != nil {
		s.logger.Error("failed to load candy machine state", zap.Error(err))
		errs = multierr.Append(errs, err)
	}
	if s.lister != nil {
		if _, err := s.lister.ListMinted(ctx, s.machineID); err != nil {
			s.logger.Warn("gallery is incomplete", zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// RefreshState reads the candy machine and replaces the held stats. Concurrent
// callers share one read. On failure the previous stats are kept.
func (s *Session) RefreshState(ctx context.Context) (*machine.Stats, error) {
	return s.refresh(ctx, false)
}

// refresh with fresh set starts a new read instead of joining one already in
// flight, so the result reflects the chain after the call began
func (s *Session) refresh(ctx context.Context, fresh bool) (*machine.Stats, error) {
	if fresh {
		s.refreshes.Forget(refreshKey)
	}

	shared := context.WithoutCancel(ctx)
	ch := s.refreshes.DoChan(refreshKey, func() (interface{}, error) {
		return s.read(shared)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*machine.Stats), nil
	}
}

// read fetches one snapshot and stores it unless a read that started later
// has already been stored
func (s *Session) read(ctx context.Context) (*machine.Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
	defer cancel()

	s.mu.Lock()
	s.reads++
	seq := s.reads
	s.mu.Unlock()

	stats, err := s.reader.FetchState(ctx, s.machineID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if seq > s.stored {
		s.stats = stats
		s.stored = seq
	} else {
		s.logger.Debug("discarding stale candy machine state", zap.Uint64("read", seq), zap.Uint64("stored", s.stored))
		stats = s.stats
	}
	s.mu.Unlock()

	if s.minter != nil {
		s.minter.FillAccounts(stats.Config, stats.Treasury)
	}
	return stats, nil
}

// Stats is the latest snapshot, nil before the first successful refresh
func (s *Session) Stats() *machine.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Gallery returns the images minted so far, in discovery order
func (s *Session) Gallery() []string {
	if s.lister == nil {
		return nil
	}
	return s.lister.Images().Items()
}

// Countdown starts a timer to the go-live instant
func (s *Session) Countdown() (*countdown.Timer, error) {
	stats := s.Stats()
	if stats == nil {
		return nil, ErrNoStats
	}
	if !stats.GoLiveSet {
		return nil, ErrNotGated
	}
	return countdown.Start(s.clock, stats.GoLive), nil
}

// Mint submits one mint when the machine is live and not sold out. Once the
// transaction is confirmed the state is refreshed before Mint returns.
func (s *Session) Mint(ctx context.Context) (*mint.Receipt, error) {
	if s.minter == nil {
		return nil, errors.New("session is read only")
	}
	stats := s.Stats()
	if stats == nil {
		var err error
		if stats, err = s.RefreshState(ctx); err != nil {
			return nil, err
		}
	}
	if stats.SoldOut() {
		return nil, ErrSoldOut
	}
	if !stats.Live(s.clock.Now()) {
		return nil, ErrNotLive
	}
	return s.minter.Mint(ctx)
}
