package db

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
)

// IdentityRewardAggregate is one identity's measured totals, straight from
// the reward ledger.
type IdentityRewardAggregate struct {
	IdentityAddress      string `bson:"_id"`
	TotalStakes          int64  `bson:"total_stakes"`
	TotalRewardsSatoshis int64  `bson:"total_rewards_satoshis"`
	FirstStakeTime       int64  `bson:"first_stake_time"`
	LastStakeTime        int64  `bson:"last_stake_time"`
}

// AggregateRewardsByIdentity groups the reward ledger per identity using a
// MongoDB aggregation pipeline, avoiding loading every reward into memory.
func (db *Database) AggregateRewardsByIdentity(ctx context.Context) ([]IdentityRewardAggregate, error) {
	pipeline := bson.A{
		bson.M{
			"$group": bson.M{
				"_id":                    "$identity_address",
				"total_stakes":           bson.M{"$sum": 1},
				"total_rewards_satoshis": bson.M{"$sum": "$amount_sats"},
				"first_stake_time":       bson.M{"$min": "$block_time"},
				"last_stake_time":        bson.M{"$max": "$block_time"},
			},
		},
	}

	cursor, err := db.collection(model.StakingRewardsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var aggregates []IdentityRewardAggregate
	if err := cursor.All(ctx, &aggregates); err != nil {
		return nil, err
	}
	return aggregates, nil
}

// AggregateRecentRewardsByIdentity sums rewards with block_time >= since,
// keyed by identity address. Used for the trailing-window APY estimate.
func (db *Database) AggregateRecentRewardsByIdentity(ctx context.Context, since int64) (map[string]int64, error) {
	pipeline := bson.A{
		bson.M{
			"$match": bson.M{
				"block_time": bson.M{"$gte": since},
			},
		},
		bson.M{
			"$group": bson.M{
				"_id":                    "$identity_address",
				"total_rewards_satoshis": bson.M{"$sum": "$amount_sats"},
			},
		},
	}

	cursor, err := db.collection(model.StakingRewardsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		IdentityAddress      string `bson:"_id"`
		TotalRewardsSatoshis int64  `bson:"total_rewards_satoshis"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	sums := make(map[string]int64, len(rows))
	for _, row := range rows {
		sums[row.IdentityAddress] = row.TotalRewardsSatoshis
	}
	return sums, nil
}

// ReplaceIdentityStatistics rebuilds the statistics collection wholesale.
// The collection is fully derived from the reward ledger, so dropping and
// reinserting is safe at any time.
func (db *Database) ReplaceIdentityStatistics(
	ctx context.Context, stats []*model.IdentityStatisticsDocument,
) error {
	collection := db.collection(model.IdentityStatisticsCollection)

	if _, err := collection.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	if len(stats) == 0 {
		return nil
	}

	docs := make([]interface{}, len(stats))
	for i, stat := range stats {
		docs[i] = stat
	}
	_, err := collection.InsertMany(ctx, docs)
	return err
}

// GetIdentityStatistics returns one identity's rollup row.
func (db *Database) GetIdentityStatistics(
	ctx context.Context, address string,
) (*model.IdentityStatisticsDocument, error) {
	var result model.IdentityStatisticsDocument
	err := db.collection(model.IdentityStatisticsCollection).
		FindOne(ctx, bson.M{"_id": address}).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &NotFoundError{
			Key:     address,
			Message: "identity statistics not found",
		}
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
