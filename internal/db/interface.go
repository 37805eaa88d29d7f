package db

import (
	"context"

	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
)

//go:generate mockery --name=DbInterface --output=../../tests/mocks --outpkg=mocks --filename=mock_db_client.go
type DbInterface interface {
	Ping(ctx context.Context) error

	// InsertStakeRewards persists reward candidates; duplicates on
	// (txid, vout) are counted, not errored.
	InsertStakeRewards(ctx context.Context, rewards []*model.StakeRewardDocument) (*WriteResult, error)
	GetStakeRewardsByIdentity(ctx context.Context, identityAddress string) ([]model.StakeRewardDocument, error)
	CountStakeRewards(ctx context.Context) (int64, error)
	DeleteStakeRewardsInRange(ctx context.Context, fromHeight, toHeight int64) (int64, error)

	GetScanCheckpoint(ctx context.Context, scanType string) (int64, error)
	AdvanceScanCheckpoint(ctx context.Context, scanType string, confirmedHeight int64) error

	GetTrackedIdentityAddresses(ctx context.Context) ([]string, error)

	AggregateRewardsByIdentity(ctx context.Context) ([]IdentityRewardAggregate, error)
	AggregateRecentRewardsByIdentity(ctx context.Context, since int64) (map[string]int64, error)
	ReplaceIdentityStatistics(ctx context.Context, stats []*model.IdentityStatisticsDocument) error
	GetIdentityStatistics(ctx context.Context, address string) (*model.IdentityStatisticsDocument, error)
}
