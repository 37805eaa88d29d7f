package model

const IdentityStatisticsCollection = "identity_statistics"

// IdentityStatisticsDocument is a fully derived rollup row. The collection is
// replaced wholesale on every recompute and is safe to drop at any time.
//
// The APY fields are heuristic estimates (staked principal is not tracked),
// capped and deterministic, never measured values.
type IdentityStatisticsDocument struct {
	Address              string  `bson:"_id"`
	TotalStakes          int64   `bson:"total_stakes"`
	TotalRewardsSatoshis int64   `bson:"total_rewards_satoshis"`
	FirstStakeTime       int64   `bson:"first_stake_time"`
	LastStakeTime        int64   `bson:"last_stake_time"`
	APYAllTime           float64 `bson:"apy_all_time"`
	APY30d               float64 `bson:"apy_30d"`
	NetworkRank          int64   `bson:"network_rank"`
	NetworkPercentile    float64 `bson:"network_percentile"`
	UpdatedAt            int64   `bson:"updated_at"`
}
