package model

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/verus-tools/staking-rewards-indexer/internal/config"
)

type index struct {
	Keys   bson.D
	Unique bool
}

// index key order matters for compound indexes, hence bson.D
var collections = map[string][]index{
	StakingRewardsCollection: {
		{Keys: bson.D{{Key: "txid", Value: 1}, {Key: "vout", Value: 1}}, Unique: true},
		{Keys: bson.D{{Key: "identity_address", Value: 1}}},
		{Keys: bson.D{{Key: "block_height", Value: 1}}},
		{Keys: bson.D{{Key: "block_time", Value: 1}}},
	},
	ScanCheckpointsCollection:    nil,
	IdentitiesCollection:         nil,
	IdentityStatisticsCollection: nil,
}

// Setup creates the collections and indexes the indexer depends on. It is
// idempotent: existing collections and indexes are left untouched.
func Setup(ctx context.Context, cfg *config.DbConfig) error {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)
	client, err := mongo.Connect(ctx, clientOps)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	database := client.Database(cfg.DbName)

	for name, idxs := range collections {
		if err := createCollection(ctx, database, name); err != nil {
			return err
		}
		for _, idx := range idxs {
			if err := createIndex(ctx, database, name, idx); err != nil {
				return err
			}
		}
	}

	return client.Disconnect(ctx)
}

func createCollection(ctx context.Context, database *mongo.Database, collectionName string) error {
	// CreateCollection errors on an existing collection; list first
	names, err := database.ListCollectionNames(ctx, bson.M{"name": collectionName})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	if len(names) > 0 {
		return nil
	}

	if err := database.CreateCollection(ctx, collectionName); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", collectionName, err)
	}
	return nil
}

func createIndex(ctx context.Context, database *mongo.Database, collectionName string, idx index) error {
	indexModel := mongo.IndexModel{
		Keys:    idx.Keys,
		Options: options.Index().SetUnique(idx.Unique),
	}

	if _, err := database.Collection(collectionName).Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("failed to create index on %s: %w", collectionName, err)
	}
	return nil
}
