package model

const IdentitiesCollection = "identities"

// IdentityDocument is a tracked on-chain identity. The collection is owned by
// the external identity registry; the indexer only reads the address set.
type IdentityDocument struct {
	IdentityAddress string   `bson:"_id"`
	Names           []string `bson:"names"`
}
