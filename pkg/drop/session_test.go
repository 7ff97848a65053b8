package drop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"candy-drop/pkg/gallery"
	"candy-drop/pkg/machine"
	"candy-drop/pkg/mint"
	"candy-drop/pkg/wallet"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var goLive = time.Unix(1_700_000_000, 0)

type fakeReader struct {
	mu    sync.Mutex
	calls int
	stats []*machine.Stats
	err   error
	// blockCall holds that call (1-based) until release is closed
	blockCall int
	started   chan struct{}
	release   chan struct{}
}

func (r *fakeReader) FetchState(ctx context.Context, machineID solana.PublicKey) (*machine.Stats, error) {
	r.mu.Lock()
	r.calls++
	call := r.calls
	r.mu.Unlock()

	if call == r.blockCall {
		r.started <- struct{}{}
		<-r.release
	}
	if r.err != nil {
		return nil, r.err
	}
	idx := call - 1
	if idx >= len(r.stats) {
		idx = len(r.stats) - 1
	}
	return r.stats[idx], nil
}

func (r *fakeReader) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type fakeLister struct {
	images *gallery.ImageList
	add    []string
	err    error
}

func (l *fakeLister) ListMinted(ctx context.Context, machineID solana.PublicKey) ([]string, error) {
	for _, uri := range l.add {
		l.images.Add(uri)
	}
	return l.images.Items(), l.err
}

func (l *fakeLister) Images() *gallery.ImageList {
	return l.images
}

type fakeMinter struct {
	hook     func(ctx context.Context)
	calls    int
	config   solana.PublicKey
	treasury solana.PublicKey
}

func (m *fakeMinter) Mint(ctx context.Context) (*mint.Receipt, error) {
	m.calls++
	if m.hook != nil {
		m.hook(ctx)
	}
	return &mint.Receipt{Mint: solana.NewWallet().PublicKey()}, nil
}

func (m *fakeMinter) OnConfirmed(hook func(ctx context.Context)) {
	m.hook = hook
}

func (m *fakeMinter) FillAccounts(config, treasury solana.PublicKey) {
	m.config, m.treasury = config, treasury
}

func (m *fakeMinter) State() mint.State {
	return mint.StateIdle
}

type memoryTrust struct {
	trusted map[string]bool
}

func (m *memoryTrust) IsTrusted(ctx context.Context, address string) (bool, error) {
	return m.trusted[address], nil
}

func (m *memoryTrust) Trust(ctx context.Context, address string) error {
	m.trusted[address] = true
	return nil
}

func stats(available, redeemed uint64) *machine.Stats {
	return &machine.Stats{
		ItemsAvailable: available,
		ItemsRedeemed:  redeemed,
		ItemsRemaining: available - redeemed,
		GoLive:         goLive,
		GoLiveSet:      true,
		Treasury:       solana.MustPublicKeyFromBase58("SkatebLAUZ9cmbayrLE3wWao3VuFsb1eGE3R7mCs2X2"),
		Config:         solana.MustPublicKeyFromBase58("J7cV46t2BLkoHWvmrcG1nK3wgB2D1EmHLko29bEDbnpV"),
	}
}

func trustedConnector(t *testing.T) (*wallet.Connector, solana.PublicKey) {
	t.Helper()
	key := solana.NewWallet().PrivateKey
	trust := &memoryTrust{trusted: map[string]bool{key.PublicKey().String(): true}}
	provider, err := wallet.NewKeyfileProvider(key.String(), "", trust, nil)
	require.NoError(t, err)
	return wallet.NewConnector(provider, zap.NewNop()), key.PublicKey()
}

func newMockClock(at time.Time) *clock.Mock {
	clk := clock.NewMock()
	clk.Set(at)
	return clk
}

func TestLoad(t *testing.T) {
	connector, address := trustedConnector(t)
	reader := &fakeReader{stats: []*machine.Stats{stats(10, 3)}}
	lister := &fakeLister{images: gallery.NewImageList(), add: []string{"a.png", "b.png", "a.png"}}
	minter := &fakeMinter{}

	session := NewSession(solana.NewWallet().PublicKey(), connector, reader, lister, minter, newMockClock(goLive), zap.NewNop())
	require.NoError(t, session.Load(context.Background()))

	got, ok := session.Wallet().Address()
	assert.True(t, ok)
	assert.Equal(t, address, got)

	require.NotNil(t, session.Stats())
	assert.Equal(t, uint64(7), session.Stats().ItemsRemaining)
	assert.Equal(t, []string{"a.png", "b.png"}, session.Gallery())
	assert.Equal(t, session.Stats().Treasury, minter.treasury)
	assert.Equal(t, session.Stats().Config, minter.config)
}

func TestLoadFailuresAreIndependent(t *testing.T) {
	connector := wallet.NewConnector(nil, zap.NewNop())
	readErr := &machine.RemoteReadError{Err: errors.New("node down")}
	listErr := errors.New("metadata scan failed")

	reader := &fakeReader{err: readErr}
	lister := &fakeLister{images: gallery.NewImageList(), add: []string{"a.png"}, err: listErr}

	session := NewSession(solana.NewWallet().PublicKey(), connector, reader, lister, nil, newMockClock(goLive), zap.NewNop())
	err := session.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
	assert.ErrorIs(t, err, listErr)

	_, connected := connector.Address()
	assert.False(t, connected)
	assert.Nil(t, session.Stats())
	assert.Equal(t, []string{"a.png"}, session.Gallery(), "gallery is filled even when the state read failed")
}

func TestRefreshKeepsPreviousStatsOnError(t *testing.T) {
	reader := &fakeReader{stats: []*machine.Stats{stats(10, 3)}}
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, nil, newMockClock(goLive), zap.NewNop())

	first, err := session.RefreshState(context.Background())
	require.NoError(t, err)

	reader.err = errors.New("timeout")
	_, err = session.RefreshState(context.Background())
	require.Error(t, err)
	assert.Same(t, first, session.Stats())
}

func TestRefreshIsCoalesced(t *testing.T) {
	reader := &fakeReader{
		stats:     []*machine.Stats{stats(10, 3)},
		blockCall: 1,
		started:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, nil, newMockClock(goLive), zap.NewNop())

	var wg sync.WaitGroup
	results := make([]*machine.Stats, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = session.RefreshState(context.Background())
	}()
	<-reader.started

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = session.RefreshState(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)
	close(reader.release)
	wg.Wait()

	assert.Equal(t, 1, reader.Calls())
	assert.Same(t, results[0], results[1])
}

func TestMintGating(t *testing.T) {
	tests := []struct {
		name    string
		stats   *machine.Stats
		now     time.Time
		wantErr error
	}{
		{"sold out", stats(10, 10), goLive, ErrSoldOut},
		{"not live", stats(10, 3), goLive.Add(-time.Second), ErrNotLive},
		{"live", stats(10, 3), goLive, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			connector, _ := trustedConnector(t)
			reader := &fakeReader{stats: []*machine.Stats{tt.stats}}
			minter := &fakeMinter{}
			session := NewSession(solana.NewWallet().PublicKey(), connector, reader, nil, minter, newMockClock(tt.now), zap.NewNop())

			_, err := session.Mint(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Zero(t, minter.calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, minter.calls)
		})
	}
}

func TestConfirmedMintRefreshesState(t *testing.T) {
	reader := &fakeReader{stats: []*machine.Stats{stats(10, 3), stats(10, 4)}}
	minter := &fakeMinter{}
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, minter, newMockClock(goLive), zap.NewNop())

	_, err := session.RefreshState(context.Background())
	require.NoError(t, err)

	_, err = session.Mint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, reader.Calls())
	assert.Equal(t, uint64(4), session.Stats().ItemsRedeemed)
}

func TestCountdown(t *testing.T) {
	reader := &fakeReader{stats: []*machine.Stats{stats(10, 3)}}
	clk := newMockClock(goLive.Add(-90061 * time.Second))
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, nil, clk, zap.NewNop())

	_, err := session.Countdown()
	assert.ErrorIs(t, err, ErrNoStats)

	_, err = session.RefreshState(context.Background())
	require.NoError(t, err)

	timer, err := session.Countdown()
	require.NoError(t, err)
	defer timer.Stop()

	tick := <-timer.C
	assert.False(t, tick.Elapsed)
	assert.Equal(t, "1days 1hrs 1mins 1secs", tick.Remaining.String())
}

func TestCountdownWithoutGoLive(t *testing.T) {
	ungated := stats(10, 3)
	ungated.GoLiveSet = false
	reader := &fakeReader{stats: []*machine.Stats{ungated}}
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, nil, newMockClock(goLive), zap.NewNop())

	_, err := session.RefreshState(context.Background())
	require.NoError(t, err)

	_, err = session.Countdown()
	assert.ErrorIs(t, err, ErrNotGated)
}

func TestMonitor(t *testing.T) {
	reader := &fakeReader{stats: []*machine.Stats{stats(10, 3), stats(10, 3), stats(10, 5)}}
	clk := newMockClock(goLive)
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, nil, clk, zap.NewNop())

	var updates atomic.Int32
	monitor := NewMonitor(session, 10*time.Second, func(stats *machine.Stats) {
		updates.Add(1)
	}, zap.NewNop())

	monitor.Start(context.Background())
	assert.Equal(t, 1, reader.Calls(), "first check runs before Start returns")
	assert.Equal(t, int32(1), updates.Load())

	clk.Add(10 * time.Second)
	require.Eventually(t, func() bool { return reader.Calls() == 2 }, time.Second, 5*time.Millisecond)

	clk.Add(10 * time.Second)
	require.Eventually(t, func() bool { return updates.Load() == 2 }, time.Second, 5*time.Millisecond)

	monitor.Stop()
	monitor.Stop()
	assert.Equal(t, uint64(5), session.Stats().ItemsRedeemed)
}

func TestMonitorStopsWithContext(t *testing.T) {
	reader := &fakeReader{stats: []*machine.Stats{stats(10, 3)}}
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, nil, newMockClock(goLive), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	monitor := NewMonitor(session, time.Minute, nil, zap.NewNop())
	monitor.Start(ctx)
	cancel()
	monitor.Stop()
}

func TestConfirmedMintDoesNotJoinEarlierPoll(t *testing.T) {
	reader := &fakeReader{
		stats:     []*machine.Stats{stats(10, 3), stats(10, 3), stats(10, 4)},
		blockCall: 2,
		started:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
	minter := &fakeMinter{}
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, minter, newMockClock(goLive), zap.NewNop())

	_, err := session.RefreshState(context.Background())
	require.NoError(t, err)

	// A poll that read the chain before the mint landed is still in flight
	pollDone := make(chan *machine.Stats, 1)
	go func() {
		polled, _ := session.RefreshState(context.Background())
		pollDone <- polled
	}()
	<-reader.started

	_, err = session.Mint(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, reader.Calls(), "confirmed mint starts its own read")
	assert.Equal(t, uint64(4), session.Stats().ItemsRedeemed)

	close(reader.release)
	polled := <-pollDone
	assert.Equal(t, uint64(4), polled.ItemsRedeemed, "late poll returns the newer snapshot")
	assert.Equal(t, uint64(4), session.Stats().ItemsRedeemed, "late poll does not overwrite newer state")
}

func TestRefreshCallerCancellationIsNotShared(t *testing.T) {
	reader := &fakeReader{
		stats:     []*machine.Stats{stats(10, 3)},
		blockCall: 1,
		started:   make(chan struct{}, 1),
		release:   make(chan struct{}),
	}
	session := NewSession(solana.NewWallet().PublicKey(), nil, reader, nil, nil, newMockClock(goLive), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := session.RefreshState(ctx)
		firstErr <- err
	}()
	<-reader.started

	second := make(chan *machine.Stats, 1)
	go func() {
		got, _ := session.RefreshState(context.Background())
		second <- got
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(reader.release)
	got := <-second
	require.NotNil(t, got, "joined caller is unaffected by the first caller's cancellation")
	assert.Equal(t, uint64(3), got.ItemsRedeemed)
	assert.Equal(t, 1, reader.Calls())
}
