package types

// RawBlock mirrors the JSON returned by `getblock <hash> 2`. Daemon versions
// disagree on which field marks a staked block, so every marker field is kept
// optional here and interpreted only by Classify.
type RawBlock struct {
	Hash           string  `json:"hash"`
	Height         int64   `json:"height"`
	Time           int64   `json:"time"`
	ValidationType string  `json:"validationtype,omitempty"`
	BlockType      string  `json:"blocktype,omitempty"`
	PosTxID        string  `json:"postxid,omitempty"`
	Tx             []RawTx `json:"tx"`
}

// RawTx is the verbose transaction detail inside a RawBlock.
type RawTx struct {
	TxID string    `json:"txid"`
	Vin  []RawVin  `json:"vin"`
	Vout []RawVout `json:"vout"`
}

type RawVin struct {
	TxID     string `json:"txid,omitempty"`
	Vout     uint32 `json:"vout,omitempty"`
	Coinbase string `json:"coinbase,omitempty"`
}

// RawVout carries the output value in coins as reported by the daemon.
// Conversion to satoshis happens at extraction time.
type RawVout struct {
	Value        float64 `json:"value"`
	N            uint32  `json:"n"`
	ScriptPubKey struct {
		Addresses []string `json:"addresses"`
		Type      string   `json:"type"`
	} `json:"scriptPubKey"`
}

// BlockKind is the classifier verdict for a fetched block.
type BlockKind string

const (
	// KindStake marks a block the daemon unambiguously reports as staked.
	KindStake BlockKind = "stake"
	// KindWork marks a block the daemon unambiguously reports as mined.
	KindWork BlockKind = "work"
	// KindUnknown marks a block with an absent or conflicting stake marker.
	// The pipeline treats unknown blocks exactly like work blocks: missed
	// stake blocks are recoverable by rescan, misclassified work blocks
	// silently inflate reward totals.
	KindUnknown BlockKind = "unknown"
)

func (k BlockKind) String() string {
	return string(k)
}

// Block is the classified form of a RawBlock.
type Block struct {
	Kind BlockKind
	Raw  *RawBlock
}

// IsStake reports whether reward extraction may run on this block.
func (b *Block) IsStake() bool {
	return b.Kind == KindStake
}

// Coinstake returns the reward-paying transaction of a stake block, which is
// the first transaction of the block. Returns nil for non-stake blocks and
// for blocks with no transactions.
func (b *Block) Coinstake() *RawTx {
	if !b.IsStake() || len(b.Raw.Tx) == 0 {
		return nil
	}
	return &b.Raw.Tx[0]
}

const (
	validationTypeStake = "stake"
	validationTypeWork  = "work"

	blockTypeMinted = "minted"
	blockTypeMined  = "mined"
)

// Classify maps a raw block to the stake/work/unknown union. A block is a
// stake block only when at least one daemon marker says so explicitly and no
// marker contradicts it; conflicting or absent markers yield KindUnknown.
func Classify(raw *RawBlock) *Block {
	stakeVotes := 0
	workVotes := 0

	switch raw.ValidationType {
	case validationTypeStake:
		stakeVotes++
	case validationTypeWork:
		workVotes++
	}

	switch raw.BlockType {
	case blockTypeMinted:
		stakeVotes++
	case blockTypeMined:
		workVotes++
	}

	kind := KindUnknown
	switch {
	case stakeVotes > 0 && workVotes == 0:
		kind = KindStake
	case workVotes > 0 && stakeVotes == 0:
		kind = KindWork
	}

	return &Block{Kind: kind, Raw: raw}
}
