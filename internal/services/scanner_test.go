package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verus-tools/staking-rewards-indexer/internal/config"
	"github.com/verus-tools/staking-rewards-indexer/internal/db"
	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
	"github.com/verus-tools/staking-rewards-indexer/internal/types"
)

// fakeDB is an in-memory DbInterface with the same idempotency and
// monotonicity semantics as the real one.
type fakeDB struct {
	mu          sync.Mutex
	rewards     map[string]*model.StakeRewardDocument // txid:vout
	checkpoints map[string]int64
	tracked     []string
	insertErrs  int // fail this many InsertStakeRewards calls before succeeding
}

func newFakeDB(tracked ...string) *fakeDB {
	return &fakeDB{
		rewards:     make(map[string]*model.StakeRewardDocument),
		checkpoints: make(map[string]int64),
		tracked:     tracked,
	}
}

func (f *fakeDB) Ping(ctx context.Context) error { return nil }

func (f *fakeDB) InsertStakeRewards(
	ctx context.Context, rewards []*model.StakeRewardDocument,
) (*db.WriteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.insertErrs > 0 {
		f.insertErrs--
		return nil, fmt.Errorf("write unavailable")
	}

	result := &db.WriteResult{}
	for _, reward := range rewards {
		key := fmt.Sprintf("%s:%d", reward.TxID, reward.Vout)
		if _, ok := f.rewards[key]; ok {
			result.AlreadyPresent++
			continue
		}
		f.rewards[key] = reward
		result.Inserted++
	}
	return result, nil
}

func (f *fakeDB) GetStakeRewardsByIdentity(ctx context.Context, identityAddress string) ([]model.StakeRewardDocument, error) {
	return nil, nil
}

func (f *fakeDB) CountStakeRewards(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.rewards)), nil
}

func (f *fakeDB) DeleteStakeRewardsInRange(ctx context.Context, fromHeight, toHeight int64) (int64, error) {
	return 0, nil
}

func (f *fakeDB) GetScanCheckpoint(ctx context.Context, scanType string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.checkpoints[scanType], nil
}

func (f *fakeDB) AdvanceScanCheckpoint(ctx context.Context, scanType string, confirmedHeight int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if confirmedHeight > f.checkpoints[scanType] {
		f.checkpoints[scanType] = confirmedHeight
	}
	return nil
}

func (f *fakeDB) GetTrackedIdentityAddresses(ctx context.Context) ([]string, error) {
	return f.tracked, nil
}

func (f *fakeDB) AggregateRewardsByIdentity(ctx context.Context) ([]db.IdentityRewardAggregate, error) {
	return nil, nil
}

func (f *fakeDB) AggregateRecentRewardsByIdentity(ctx context.Context, since int64) (map[string]int64, error) {
	return nil, nil
}

func (f *fakeDB) ReplaceIdentityStatistics(ctx context.Context, stats []*model.IdentityStatisticsDocument) error {
	return nil
}

func (f *fakeDB) GetIdentityStatistics(ctx context.Context, address string) (*model.IdentityStatisticsDocument, error) {
	return nil, nil
}

// fakeChain serves a synthetic chain from memory, with optional per-height
// failures.
type fakeChain struct {
	mu     sync.Mutex
	tip    int64
	blocks map[int64]*types.RawBlock
	errs   map[int64]error
}

func newFakeChain(tip int64) *fakeChain {
	chain := &fakeChain{
		tip:    tip,
		blocks: make(map[int64]*types.RawBlock),
		errs:   make(map[int64]error),
	}
	for height := int64(1); height <= tip; height++ {
		chain.blocks[height] = workBlockAt(height)
	}
	return chain
}

func (f *fakeChain) GetBlockCount(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tip, nil
}

func (f *fakeChain) GetBlockHashByHeight(ctx context.Context, height int64) (*chainhash.Hash, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeChain) GetBlockByHeight(ctx context.Context, height int64) (*types.RawBlock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.errs[height]; ok {
		return nil, err
	}
	block, ok := f.blocks[height]
	if !ok {
		return nil, types.NewTransientError(fmt.Errorf("no block at height %d", height))
	}
	return block, nil
}

func (f *fakeChain) GetBlockByHash(ctx context.Context, blockHash *chainhash.Hash) (*types.RawBlock, error) {
	return nil, fmt.Errorf("not implemented")
}

func workBlockAt(height int64) *types.RawBlock {
	return &types.RawBlock{
		Hash:           fmt.Sprintf("hash-%d", height),
		Height:         height,
		Time:           1_700_000_000 + height*60,
		ValidationType: "work",
		Tx:             []types.RawTx{{TxID: fmt.Sprintf("coinbase-%d", height)}},
	}
}

func stakeBlockAt(height int64, identity string, value float64) *types.RawBlock {
	vout := types.RawVout{Value: value, N: 0}
	vout.ScriptPubKey.Addresses = []string{identity}
	return &types.RawBlock{
		Hash:           fmt.Sprintf("hash-%d", height),
		Height:         height,
		Time:           1_700_000_000 + height*60,
		ValidationType: "stake",
		Tx: []types.RawTx{{
			TxID: fmt.Sprintf("coinstake-%d", height),
			Vout: []types.RawVout{vout},
		}},
	}
}

func scannerTestConfig() *config.Config {
	return &config.Config{
		Scanner: config.ScannerConfig{
			BatchSize:          5,
			Concurrency:        3,
			ActivationHeight:   1,
			TipPollingInterval: 10 * time.Millisecond,
			MaxBatchErrors:     3,
		},
	}
}

func TestScanRange(t *testing.T) {
	ctx := context.Background()

	t.Run("finds rewards and advances checkpoint to range end", func(t *testing.T) {
		database := newFakeDB("iAAA")
		chain := newFakeChain(20)
		chain.blocks[7] = stakeBlockAt(7, "iAAA", 6.0)
		chain.blocks[13] = stakeBlockAt(13, "iAAA", 6.0)
		chain.blocks[14] = stakeBlockAt(14, "iUntracked", 6.0)

		service := NewService(scannerTestConfig(), database, chain, nil)
		require.NoError(t, service.scanRange(ctx, ForwardScanType, 1, 20))

		count, err := database.CountStakeRewards(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)

		checkpoint, err := database.GetScanCheckpoint(ctx, ForwardScanType)
		require.NoError(t, err)
		assert.Equal(t, int64(20), checkpoint)
	})

	t.Run("rescanning an already persisted range inserts nothing", func(t *testing.T) {
		database := newFakeDB("iAAA")
		chain := newFakeChain(10)
		chain.blocks[4] = stakeBlockAt(4, "iAAA", 6.0)

		service := NewService(scannerTestConfig(), database, chain, nil)
		require.NoError(t, service.scanRange(ctx, ForwardScanType, 1, 10))

		count, err := database.CountStakeRewards(ctx)
		require.NoError(t, err)
		require.Equal(t, int64(1), count)

		require.NoError(t, service.scanRange(ctx, ForwardScanType, 1, 10))
		count, err = database.CountStakeRewards(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("transient fetch failure holds the checkpoint before the gap", func(t *testing.T) {
		database := newFakeDB("iAAA")
		chain := newFakeChain(20)
		chain.errs[12] = types.NewTransientError(fmt.Errorf("connection refused"))

		service := NewService(scannerTestConfig(), database, chain, nil)
		err := service.scanRange(ctx, ForwardScanType, 1, 20)
		require.Error(t, err)

		// batches 1-5 and 6-10 confirmed; 11-15 failed, so nothing past 10
		// may be confirmed even if 16-20 completed
		checkpoint, cerr := database.GetScanCheckpoint(ctx, ForwardScanType)
		require.NoError(t, cerr)
		assert.Equal(t, int64(10), checkpoint)
	})

	t.Run("malformed blocks are skipped without blocking the range", func(t *testing.T) {
		database := newFakeDB("iAAA")
		chain := newFakeChain(10)
		chain.blocks[3] = stakeBlockAt(3, "iAAA", 6.0)
		chain.errs[5] = types.NewFatalError(fmt.Errorf("undecodable block"))

		service := NewService(scannerTestConfig(), database, chain, nil)
		require.NoError(t, service.scanRange(ctx, ForwardScanType, 1, 10))

		count, err := database.CountStakeRewards(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		checkpoint, err := database.GetScanCheckpoint(ctx, ForwardScanType)
		require.NoError(t, err)
		assert.Equal(t, int64(10), checkpoint)
	})

	t.Run("degraded range halts once skipped blocks exceed the budget", func(t *testing.T) {
		database := newFakeDB("iAAA")
		chain := newFakeChain(30)
		for height := int64(1); height <= 30; height += 2 {
			chain.errs[height] = types.NewFatalError(fmt.Errorf("undecodable block"))
		}

		service := NewService(scannerTestConfig(), database, chain, nil)
		err := service.scanRange(ctx, ForwardScanType, 1, 30)
		require.Error(t, err)

		checkpoint, cerr := database.GetScanCheckpoint(ctx, ForwardScanType)
		require.NoError(t, cerr)
		assert.Less(t, checkpoint, int64(30))
	})

	t.Run("write failure is retried once before succeeding", func(t *testing.T) {
		database := newFakeDB("iAAA")
		database.insertErrs = 1
		chain := newFakeChain(5)
		chain.blocks[2] = stakeBlockAt(2, "iAAA", 6.0)

		service := NewService(scannerTestConfig(), database, chain, nil)
		require.NoError(t, service.scanRange(ctx, ForwardScanType, 1, 5))

		count, err := database.CountStakeRewards(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestForwardScanPass(t *testing.T) {
	ctx := context.Background()

	t.Run("resumes from the stored checkpoint", func(t *testing.T) {
		database := newFakeDB("iAAA")
		database.checkpoints[ForwardScanType] = 15
		chain := newFakeChain(25)
		chain.blocks[10] = stakeBlockAt(10, "iAAA", 6.0) // below checkpoint, must not be re-fetched
		chain.blocks[20] = stakeBlockAt(20, "iAAA", 6.0)

		service := NewService(scannerTestConfig(), database, chain, nil)
		require.NoError(t, service.forwardScanPass(ctx))

		count, err := database.CountStakeRewards(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)

		checkpoint, err := database.GetScanCheckpoint(ctx, ForwardScanType)
		require.NoError(t, err)
		assert.Equal(t, int64(25), checkpoint)
	})

	t.Run("at the tip is a no-op", func(t *testing.T) {
		database := newFakeDB("iAAA")
		database.checkpoints[ForwardScanType] = 25
		chain := newFakeChain(25)

		service := NewService(scannerTestConfig(), database, chain, nil)
		require.NoError(t, service.forwardScanPass(ctx))

		checkpoint, err := database.GetScanCheckpoint(ctx, ForwardScanType)
		require.NoError(t, err)
		assert.Equal(t, int64(25), checkpoint)
	})

	t.Run("honors the activation height", func(t *testing.T) {
		cfg := scannerTestConfig()
		cfg.Scanner.ActivationHeight = 11

		database := newFakeDB("iAAA")
		chain := newFakeChain(20)
		chain.blocks[5] = stakeBlockAt(5, "iAAA", 6.0) // pre-activation

		service := NewService(cfg, database, chain, nil)
		require.NoError(t, service.forwardScanPass(ctx))

		count, err := database.CountStakeRewards(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRunBackfill(t *testing.T) {
	ctx := context.Background()

	t.Run("scans under a range-scoped checkpoint", func(t *testing.T) {
		database := newFakeDB("iAAA")
		chain := newFakeChain(50)
		chain.blocks[32] = stakeBlockAt(32, "iAAA", 6.0)

		service := NewService(scannerTestConfig(), database, chain, nil)
		require.NoError(t, service.RunBackfill(ctx, 30, 40))

		checkpoint, err := database.GetScanCheckpoint(ctx, BackfillScanType(30, 40))
		require.NoError(t, err)
		assert.Equal(t, int64(40), checkpoint)

		forward, err := database.GetScanCheckpoint(ctx, ForwardScanType)
		require.NoError(t, err)
		assert.Zero(t, forward)
	})

	t.Run("completed range is a no-op", func(t *testing.T) {
		database := newFakeDB("iAAA")
		database.checkpoints[BackfillScanType(30, 40)] = 40
		chain := newFakeChain(50)

		service := NewService(scannerTestConfig(), database, chain, nil)
		require.NoError(t, service.RunBackfill(ctx, 30, 40))

		count, err := database.CountStakeRewards(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("rejects an inverted range", func(t *testing.T) {
		service := NewService(scannerTestConfig(), newFakeDB(), newFakeChain(50), nil)
		require.Error(t, service.RunBackfill(ctx, 40, 30))
	})
}
