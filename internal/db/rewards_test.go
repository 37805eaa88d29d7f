//go:build integration

package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
	"github.com/verus-tools/staking-rewards-indexer/testutil"
)

func TestInsertStakeRewards(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	rewards := []*model.StakeRewardDocument{
		testutil.RandomStakeReward(100),
		testutil.RandomStakeReward(101),
		testutil.RandomStakeReward(102),
	}

	t.Run("first write inserts everything", func(t *testing.T) {
		result, err := testDB.InsertStakeRewards(ctx, rewards)
		require.NoError(t, err)
		assert.Equal(t, 3, result.Inserted)
		assert.Equal(t, 0, result.AlreadyPresent)
	})
	t.Run("identical rewrite is a no-op", func(t *testing.T) {
		result, err := testDB.InsertStakeRewards(ctx, rewards)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Inserted)
		assert.Equal(t, 3, result.AlreadyPresent)

		count, err := testDB.CountStakeRewards(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
	t.Run("partial overlap inserts only new rewards", func(t *testing.T) {
		mixed := []*model.StakeRewardDocument{
			rewards[2],
			testutil.RandomStakeReward(103),
		}
		result, err := testDB.InsertStakeRewards(ctx, mixed)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Inserted)
		assert.Equal(t, 1, result.AlreadyPresent)
	})
	t.Run("empty write", func(t *testing.T) {
		result, err := testDB.InsertStakeRewards(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Inserted)
		assert.Equal(t, 0, result.AlreadyPresent)
	})
}

func TestGetStakeRewardsByIdentity(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	mine := testutil.RandomStakeReward(200)
	laterMine := testutil.RandomStakeReward(205)
	laterMine.IdentityAddress = mine.IdentityAddress
	other := testutil.RandomStakeReward(201)

	_, err := testDB.InsertStakeRewards(ctx, []*model.StakeRewardDocument{laterMine, mine, other})
	require.NoError(t, err)

	rewards, err := testDB.GetStakeRewardsByIdentity(ctx, mine.IdentityAddress)
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	// sorted by block height regardless of insert order
	assert.Equal(t, *mine, rewards[0])
	assert.Equal(t, *laterMine, rewards[1])
}

func TestDeleteStakeRewardsInRange(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(func() {
		resetDatabase(t)
	})

	docs := []*model.StakeRewardDocument{
		testutil.RandomStakeReward(300),
		testutil.RandomStakeReward(301),
		testutil.RandomStakeReward(400),
	}
	_, err := testDB.InsertStakeRewards(ctx, docs)
	require.NoError(t, err)

	deleted, err := testDB.DeleteStakeRewardsInRange(ctx, 300, 301)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	count, err := testDB.CountStakeRewards(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
