package types

// RewardCandidate is one attributable staking reward produced by the
// extractor: at most one per (block, identity).
type RewardCandidate struct {
	IdentityAddress string
	TxID            string
	Vout            uint32
	BlockHeight     int64
	BlockHash       string
	BlockTime       int64
	AmountSats      int64
	Classifier      BlockKind
	// SourceAddress is the address that funded the stake. Tracing the
	// funding UTXO is unresolved upstream, so it defaults to the identity
	// address that received the reward.
	SourceAddress string
}
