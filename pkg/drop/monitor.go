package drop

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"candy-drop/pkg/machine"
)

// Monitor refreshes the session state on an interval
type Monitor struct {
	session   *Session
	interval  time.Duration
	clock     clock.Clock
	onUpdate  func(stats *machine.Stats)
	stopCh    chan struct{}
	stopOnce  sync.Once
	waitGroup sync.WaitGroup
	logger    *zap.Logger

	last *machine.Stats
}

// NewMonitor creates a monitor. onUpdate, when set, is called with every
// snapshot whose counters differ from the previous one.
func NewMonitor(session *Session, interval time.Duration, onUpdate func(stats *machine.Stats), logger *zap.Logger) *Monitor {
	return &Monitor{
		session:  session,
		interval: interval,
		clock:    session.clock,
		onUpdate: onUpdate,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

// Start checks right away and then polls in the background until Stop is
// called or ctx is cancelled
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info("starting candy machine monitor", zap.Duration("interval", m.interval))

	m.check(ctx)

	ticker := m.clock.Ticker(m.interval)
	m.waitGroup.Add(1)
	go func() {
		defer m.waitGroup.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.check(ctx)
			case <-m.stopCh:
				m.logger.Info("stopping candy machine monitor")
				return
			case <-ctx.Done():
				m.logger.Info("context cancelled, stopping candy machine monitor")
				return
			}
		}
	}()
}

// Stop waits for the polling goroutine to exit. Safe to call twice.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
	m.waitGroup.Wait()
}

func (m *Monitor) check(ctx context.Context) {
	stats, err := m.session.RefreshState(ctx)
	if err != nil {
		m.logger.Warn("failed to refresh candy machine state", zap.Error(err))
		return
	}

	if m.last != nil && m.last.ItemsRedeemed == stats.ItemsRedeemed && m.last.ItemsAvailable == stats.ItemsAvailable {
		m.logger.Debug("no change in candy machine state")
		return
	}
	if m.last != nil {
		m.logger.Info("candy machine state changed",
			zap.Uint64("redeemed", stats.ItemsRedeemed),
			zap.Uint64("remaining", stats.ItemsRemaining),
		)
	}
	m.last = stats

	if m.onUpdate != nil {
		m.onUpdate(stats)
	}
}
