package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
)

// GetScanCheckpoint returns the last confirmed height for a scan type, or 0
// when the scan type has never advanced.
func (db *Database) GetScanCheckpoint(ctx context.Context, scanType string) (int64, error) {
	var result model.ScanCheckpointDocument
	err := db.collection(model.ScanCheckpointsCollection).
		FindOne(ctx, bson.M{"_id": scanType}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return result.LastConfirmedHeight, nil
}

// AdvanceScanCheckpoint moves a scan type's checkpoint to confirmedHeight.
// $max guards monotonicity: a stale advance from a retried batch can never
// move the checkpoint backwards.
func (db *Database) AdvanceScanCheckpoint(ctx context.Context, scanType string, confirmedHeight int64) error {
	filter := bson.M{"_id": scanType}
	update := bson.M{
		"$max": bson.M{"last_confirmed_height": confirmedHeight},
		"$set": bson.M{"updated_at": time.Now().Unix()},
	}
	opts := options.Update().SetUpsert(true)

	_, err := db.collection(model.ScanCheckpointsCollection).UpdateOne(ctx, filter, update, opts)
	return err
}
