package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
)

// GetTrackedIdentityAddresses returns the address universe rewards are
// attributed against. The identities collection is owned by the external
// identity registry and is never written here.
func (db *Database) GetTrackedIdentityAddresses(ctx context.Context) ([]string, error) {
	cursor, err := db.collection(model.IdentitiesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var identities []model.IdentityDocument
	if err := cursor.All(ctx, &identities); err != nil {
		return nil, err
	}

	addresses := make([]string, 0, len(identities))
	for _, identity := range identities {
		addresses = append(addresses, identity.IdentityAddress)
	}
	return addresses, nil
}
