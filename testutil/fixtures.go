package testutil

import (
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
	"github.com/verus-tools/staking-rewards-indexer/internal/types"
)

// RandomStakeReward builds a plausible reward row at the given height with a
// unique (txid, vout) key. Callers override fields they care about.
func RandomStakeReward(height int64) *model.StakeRewardDocument {
	identity := RandomIdentityAddress()
	return &model.StakeRewardDocument{
		IdentityAddress: identity,
		TxID:            RandomTxID(),
		Vout:            0,
		BlockHeight:     height,
		BlockHash:       RandomTxID(),
		BlockTime:       1_600_000_000 + height*60,
		AmountSats:      int64(gofakeit.Number(1_000_000, 1_000_000_000)),
		Classifier:      types.KindStake.String(),
		SourceAddress:   identity,
	}
}

// RandomIdentityAddress generates an identity-style address with the chain's
// "i" prefix.
func RandomIdentityAddress() string {
	return "i" + gofakeit.LetterN(33)
}

// RandomTxID generates a unique 64-character hex string.
func RandomTxID() string {
	return strings.ReplaceAll(gofakeit.UUID()+gofakeit.UUID(), "-", "")
}
