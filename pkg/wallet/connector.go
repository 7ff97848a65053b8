package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Connector holds the address of the connected wallet, if any. Connection
// failures are logged and absorbed; callers only see whether an address is set.
type Connector struct {
	provider Provider
	logger   *zap.Logger

	mu      sync.RWMutex
	address solana.PublicKey
	ok      bool
}

// NewConnector accepts a nil provider, in which case every connect fails with
// ErrWalletNotFound
func NewConnector(provider Provider, logger *zap.Logger) *Connector {
	return &Connector{
		provider: provider,
		logger:   logger,
	}
}

// TryAutoConnect connects without prompting when the wallet was trusted before
func (c *Connector) TryAutoConnect(ctx context.Context) bool {
	address, err := c.connect(ctx, ConnectOptions{OnlyIfTrusted: true})
	if err != nil {
		if errors.Is(err, ErrNotTrusted) || errors.Is(err, ErrWalletNotFound) {
			c.logger.Debug("wallet auto-connect skipped", zap.Error(err))
		} else {
			c.logger.Warn("wallet auto-connect failed", zap.Error(err))
		}
		return false
	}
	c.logger.Info("wallet auto-connected", zap.Stringer("address", address))
	return true
}

// Connect asks the wallet for approval
func (c *Connector) Connect(ctx context.Context) (solana.PublicKey, bool) {
	address, err := c.connect(ctx, ConnectOptions{})
	if err != nil {
		c.logger.Warn("wallet connection failed", zap.Error(err))
		return solana.PublicKey{}, false
	}
	c.logger.Info("wallet connected", zap.Stringer("address", address))
	return address, true
}

func (c *Connector) connect(ctx context.Context, opts ConnectOptions) (solana.PublicKey, error) {
	if c.provider == nil {
		return solana.PublicKey{}, ErrWalletNotFound
	}

	address, err := c.provider.Connect(ctx, opts)
	if err != nil {
		return solana.PublicKey{}, err
	}

	c.mu.Lock()
	c.address = address
	c.ok = true
	c.mu.Unlock()

	return address, nil
}

func (c *Connector) Address() (solana.PublicKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.address, c.ok
}

// Signer returns the provider behind the connection, nil when disconnected
func (c *Connector) Signer() Provider {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.ok {
		return nil
	}
	return c.provider
}

func (c *Connector) Disconnect() {
	c.mu.Lock()
	c.address = solana.PublicKey{}
	c.ok = false
	c.mu.Unlock()
}
