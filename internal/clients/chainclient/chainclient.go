package chainclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/avast/retry-go/v4"
	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/rs/zerolog/log"

	"github.com/verus-tools/staking-rewards-indexer/internal/config"
	"github.com/verus-tools/staking-rewards-indexer/internal/types"
)

// getblock verbosity level that includes full transaction detail, required
// for output-level reward extraction.
const blockVerbosityTxDetail = 2

type ChainClient struct {
	client  *rpcclient.Client
	cfg     *config.ChainConfig
	limiter *rateLimiter
}

func NewChainClient(cfg *config.ChainConfig) (*ChainClient, error) {
	c, err := rpcclient.New(cfg.ToConnConfig(), nil)
	if err != nil {
		return nil, err
	}

	return &ChainClient{
		client:  c,
		cfg:     cfg,
		limiter: newRateLimiter(cfg),
	}, nil
}

func (c *ChainClient) GetBlockCount(ctx context.Context) (int64, error) {
	callForBlockCount := func() (int64, error) {
		return c.client.GetBlockCount()
	}

	count, err := clientCallWithRetry(ctx, c, callForBlockCount)
	if err != nil {
		return 0, fmt.Errorf("failed to get block count: %w", err)
	}

	return count, nil
}

func (c *ChainClient) GetBlockHashByHeight(ctx context.Context, height int64) (*chainhash.Hash, error) {
	callForBlockHash := func() (*chainhash.Hash, error) {
		return c.client.GetBlockHash(height)
	}

	blockHash, err := clientCallWithRetry(ctx, c, callForBlockHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get block hash at height %d: %w", height, err)
	}

	return blockHash, nil
}

// GetBlockByHeight fetches the block at the given height with full
// transaction detail. The raw daemon JSON is decoded into types.RawBlock and
// left unclassified; a decode failure is a fatal error the caller must skip.
func (c *ChainClient) GetBlockByHeight(ctx context.Context, height int64) (*types.RawBlock, error) {
	blockHash, err := c.GetBlockHashByHeight(ctx, height)
	if err != nil {
		return nil, err
	}

	return c.GetBlockByHash(ctx, blockHash)
}

func (c *ChainClient) GetBlockByHash(ctx context.Context, blockHash *chainhash.Hash) (*types.RawBlock, error) {
	hashParam, err := json.Marshal(blockHash.String())
	if err != nil {
		return nil, types.NewFatalError(err)
	}
	verbosityParam, err := json.Marshal(blockVerbosityTxDetail)
	if err != nil {
		return nil, types.NewFatalError(err)
	}

	callForBlock := func() (json.RawMessage, error) {
		return c.client.RawRequest("getblock", []json.RawMessage{hashParam, verbosityParam})
	}

	rawResp, err := clientCallWithRetry(ctx, c, callForBlock)
	if err != nil {
		return nil, fmt.Errorf("failed to get block by hash %s: %w", blockHash.String(), err)
	}

	var block types.RawBlock
	if err := json.Unmarshal(rawResp, &block); err != nil {
		return nil, types.NewFatalError(fmt.Errorf("malformed getblock response for %s: %w", blockHash.String(), err))
	}
	if block.Hash == "" || len(block.Tx) == 0 {
		return nil, types.NewFatalError(fmt.Errorf("getblock response for %s is missing hash or transactions", blockHash.String()))
	}

	return &block, nil
}

// Usage exposes the rate limiter's counters for observability.
func (c *ChainClient) Usage() (requests int64, waited string) {
	total, waitedFor := c.limiter.Usage()
	return total, waitedFor.String()
}

func clientCallWithRetry[T any](
	ctx context.Context, c *ChainClient, call retry.RetryableFuncWithData[T],
) (T, error) {
	limitedCall := func() (T, error) {
		var zero T
		if err := c.limiter.Wait(ctx); err != nil {
			return zero, retry.Unrecoverable(err)
		}

		result, err := call()
		if err != nil {
			return zero, classifyRPCError(err)
		}
		return result, nil
	}

	result, err := retry.DoWithData(limitedCall,
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxRetryTimes),
		retry.Delay(c.cfg.RetryInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(types.IsTransient),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().
				Uint("attempt", n+1).
				Uint("max_attempts", c.cfg.MaxRetryTimes).
				Err(err).
				Msg("failed to call the RPC client")
		}))
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// classifyRPCError splits failures into the transient/fatal taxonomy.
// Daemon-level RPC errors and decode failures are fatal (retrying cannot
// help); everything else, network errors above all, is transient.
func classifyRPCError(err error) error {
	var alreadyClassified *types.Error
	if errors.As(err, &alreadyClassified) {
		return err
	}

	var rpcErr *btcjson.RPCError
	if errors.As(err, &rpcErr) {
		return types.NewFatalError(err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return types.NewFatalError(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return types.NewTransientError(err)
	}

	return types.NewTransientError(err)
}
