package model

import (
	"github.com/verus-tools/staking-rewards-indexer/internal/types"
)

const StakingRewardsCollection = "staking_rewards"

// StakeRewardDocument is one attributed staking reward. Documents are
// insert-only under normal operation and unique on (txid, vout).
type StakeRewardDocument struct {
	IdentityAddress string `bson:"identity_address"`
	TxID            string `bson:"txid"`
	Vout            uint32 `bson:"vout"`
	BlockHeight     int64  `bson:"block_height"`
	BlockHash       string `bson:"block_hash"`
	BlockTime       int64  `bson:"block_time"`
	AmountSats      int64  `bson:"amount_sats"`
	Classifier      string `bson:"classifier"`
	// SourceAddress defaults to IdentityAddress; tracing the funding UTXO is
	// not implemented.
	SourceAddress string `bson:"source_address"`
}

func NewStakeRewardDocument(c *types.RewardCandidate) *StakeRewardDocument {
	return &StakeRewardDocument{
		IdentityAddress: c.IdentityAddress,
		TxID:            c.TxID,
		Vout:            c.Vout,
		BlockHeight:     c.BlockHeight,
		BlockHash:       c.BlockHash,
		BlockTime:       c.BlockTime,
		AmountSats:      c.AmountSats,
		Classifier:      c.Classifier.String(),
		SourceAddress:   c.SourceAddress,
	}
}
