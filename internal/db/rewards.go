package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
)

// WriteResult reports how an idempotent write resolved.
type WriteResult struct {
	Inserted       int
	AlreadyPresent int
}

// InsertStakeRewards persists reward candidates with conflict-ignore
// semantics on the unique (txid, vout) index. Re-submitting an already
// persisted reward is a no-op counted in AlreadyPresent, never an error, so
// overlapping scans converge to the same table contents.
func (db *Database) InsertStakeRewards(
	ctx context.Context, rewards []*model.StakeRewardDocument,
) (*WriteResult, error) {
	if len(rewards) == 0 {
		return &WriteResult{}, nil
	}

	docs := make([]interface{}, len(rewards))
	for i, reward := range rewards {
		docs[i] = reward
	}

	// unordered insert keeps writing past duplicate-key conflicts
	opts := options.InsertMany().SetOrdered(false)
	res, err := db.collection(model.StakingRewardsCollection).InsertMany(ctx, docs, opts)
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if !errors.As(err, &bulkErr) {
			return nil, err
		}
		duplicates := 0
		for _, writeErr := range bulkErr.WriteErrors {
			if !mongo.IsDuplicateKeyError(writeErr) {
				return nil, err
			}
			duplicates++
		}
		inserted := len(rewards) - duplicates
		if res != nil {
			inserted = len(res.InsertedIDs)
		}
		return &WriteResult{Inserted: inserted, AlreadyPresent: duplicates}, nil
	}

	return &WriteResult{Inserted: len(res.InsertedIDs)}, nil
}

// GetStakeRewardsByIdentity returns all rewards attributed to an identity,
// ordered by block height.
func (db *Database) GetStakeRewardsByIdentity(
	ctx context.Context, identityAddress string,
) ([]model.StakeRewardDocument, error) {
	filter := bson.M{"identity_address": identityAddress}
	opts := options.Find().SetSort(bson.D{{Key: "block_height", Value: 1}})

	cursor, err := db.collection(model.StakingRewardsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rewards []model.StakeRewardDocument
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}

// CountStakeRewards returns the total number of persisted rewards.
func (db *Database) CountStakeRewards(ctx context.Context) (int64, error) {
	return db.collection(model.StakingRewardsCollection).CountDocuments(ctx, bson.M{})
}

// DeleteStakeRewardsInRange removes rewards inside [fromHeight, toHeight].
// Only used by explicit reconciliation before a delete-and-rescan; normal
// operation never deletes rewards.
func (db *Database) DeleteStakeRewardsInRange(
	ctx context.Context, fromHeight, toHeight int64,
) (int64, error) {
	filter := bson.M{"block_height": bson.M{"$gte": fromHeight, "$lte": toHeight}}
	res, err := db.collection(model.StakingRewardsCollection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
