package services

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/rs/zerolog/log"

	"github.com/verus-tools/staking-rewards-indexer/internal/types"
)

// ExtractRewards yields at most one reward candidate per tracked identity
// for one classified block. Only the coinstake transaction (the first
// transaction of a stake block) pays rewards; its outputs are walked in index
// order and the first output paying a tracked identity wins for that
// identity. Further outputs to the same identity in the same block are change
// or split payouts and must not be counted again.
//
// The function is pure: no RPC, no persistence, no shared state.
func ExtractRewards(block *types.Block, tracked map[string]struct{}) []*types.RewardCandidate {
	coinstake := block.Coinstake()
	if coinstake == nil {
		return nil
	}

	var candidates []*types.RewardCandidate
	matched := make(map[string]struct{})

	for _, vout := range coinstake.Vout {
		for _, address := range vout.ScriptPubKey.Addresses {
			if _, ok := tracked[address]; !ok {
				continue
			}
			if _, seen := matched[address]; seen {
				continue
			}
			matched[address] = struct{}{}

			amount, err := btcutil.NewAmount(vout.Value)
			if err != nil || amount < 0 {
				log.Warn().
					Str("txid", coinstake.TxID).
					Uint32("vout", vout.N).
					Float64("value", vout.Value).
					Msg("Skipping coinstake output with invalid value")
				continue
			}

			candidates = append(candidates, &types.RewardCandidate{
				IdentityAddress: address,
				TxID:            coinstake.TxID,
				Vout:            vout.N,
				BlockHeight:     block.Raw.Height,
				BlockHash:       block.Raw.Hash,
				BlockTime:       block.Raw.Time,
				AmountSats:      int64(amount),
				Classifier:      block.Kind,
				// funding-UTXO attribution is unresolved upstream; the
				// identity that received the reward stands in for the source
				SourceAddress: address,
			})
		}
	}

	return candidates
}
