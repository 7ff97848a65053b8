package solana

import (
	"context"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// LatestBlockhashGetter is the slice of the RPC client the cache needs
type LatestBlockhashGetter interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
}

// BlockhashCache keeps the latest blockhash for a short time so back-to-back
// transactions do not each pay for a round trip
type BlockhashCache struct {
	mu        sync.Mutex
	blockhash solana.Hash
	expiry    time.Time
	ttl       time.Duration
	now       func() time.Time
}

func NewBlockhashCache(ttl time.Duration) *BlockhashCache {
	return &BlockhashCache{
		ttl: ttl,
		now: time.Now,
	}
}

func (c *BlockhashCache) GetBlockhash(ctx context.Context, node LatestBlockhashGetter) (solana.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Before(c.expiry) {
		return c.blockhash, nil
	}
	block, err := node.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, err
	}

	c.blockhash = block.Value.Blockhash
	c.expiry = c.now().Add(c.ttl)

	return c.blockhash, nil
}

// Invalidate drops the cached value; used after a send fails with an expired blockhash
func (c *BlockhashCache) Invalidate() {
	c.mu.Lock()
	c.expiry = time.Time{}
	c.mu.Unlock()
}
