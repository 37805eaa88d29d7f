package model

const ScanCheckpointsCollection = "scan_checkpoints"

// ScanCheckpointDocument tracks the highest contiguously confirmed height for
// one scan type. Exactly one document per scan type; the height never
// decreases.
type ScanCheckpointDocument struct {
	ScanType            string `bson:"_id"`
	LastConfirmedHeight int64  `bson:"last_confirmed_height"`
	UpdatedAt           int64  `bson:"updated_at"`
}
