package chainclient

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/verus-tools/staking-rewards-indexer/internal/observability/metrics"
	"github.com/verus-tools/staking-rewards-indexer/internal/types"
)

type chainClientWithMetrics struct {
	chain ChainInterface
}

func NewChainClientWithMetrics(chain ChainInterface) *chainClientWithMetrics {
	return &chainClientWithMetrics{chain: chain}
}

func (c *chainClientWithMetrics) GetBlockCount(ctx context.Context) (int64, error) {
	return runChainClientMethodWithMetrics("GetBlockCount", func() (int64, error) {
		return c.chain.GetBlockCount(ctx)
	})
}

func (c *chainClientWithMetrics) GetBlockHashByHeight(ctx context.Context, height int64) (*chainhash.Hash, error) {
	return runChainClientMethodWithMetrics("GetBlockHashByHeight", func() (*chainhash.Hash, error) {
		return c.chain.GetBlockHashByHeight(ctx, height)
	})
}

func (c *chainClientWithMetrics) GetBlockByHeight(ctx context.Context, height int64) (*types.RawBlock, error) {
	return runChainClientMethodWithMetrics("GetBlockByHeight", func() (*types.RawBlock, error) {
		return c.chain.GetBlockByHeight(ctx, height)
	})
}

func (c *chainClientWithMetrics) GetBlockByHash(ctx context.Context, blockHash *chainhash.Hash) (*types.RawBlock, error) {
	return runChainClientMethodWithMetrics("GetBlockByHash", func() (*types.RawBlock, error) {
		return c.chain.GetBlockByHash(ctx, blockHash)
	})
}

func runChainClientMethodWithMetrics[T any](method string, f func() (T, error)) (T, error) {
	startTime := time.Now()
	v, err := f()
	duration := time.Since(startTime)

	metrics.RecordChainClientLatency(duration, method, err != nil)
	return v, err
}
