package db

import (
	"context"
	"time"

	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
	"github.com/verus-tools/staking-rewards-indexer/internal/observability/metrics"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) InsertStakeRewards(ctx context.Context, rewards []*model.StakeRewardDocument) (result *WriteResult, err error) {
	//nolint:errcheck
	d.run("InsertStakeRewards", func() error {
		result, err = d.db.InsertStakeRewards(ctx, rewards)
		return err
	})
	return
}

func (d *DbWithMetrics) GetStakeRewardsByIdentity(ctx context.Context, identityAddress string) (result []model.StakeRewardDocument, err error) {
	//nolint:errcheck
	d.run("GetStakeRewardsByIdentity", func() error {
		result, err = d.db.GetStakeRewardsByIdentity(ctx, identityAddress)
		return err
	})
	return
}

func (d *DbWithMetrics) CountStakeRewards(ctx context.Context) (count int64, err error) {
	//nolint:errcheck
	d.run("CountStakeRewards", func() error {
		count, err = d.db.CountStakeRewards(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) DeleteStakeRewardsInRange(ctx context.Context, fromHeight, toHeight int64) (deleted int64, err error) {
	//nolint:errcheck
	d.run("DeleteStakeRewardsInRange", func() error {
		deleted, err = d.db.DeleteStakeRewardsInRange(ctx, fromHeight, toHeight)
		return err
	})
	return
}

func (d *DbWithMetrics) GetScanCheckpoint(ctx context.Context, scanType string) (height int64, err error) {
	//nolint:errcheck
	d.run("GetScanCheckpoint", func() error {
		height, err = d.db.GetScanCheckpoint(ctx, scanType)
		return err
	})
	return
}

func (d *DbWithMetrics) AdvanceScanCheckpoint(ctx context.Context, scanType string, confirmedHeight int64) error {
	return d.run("AdvanceScanCheckpoint", func() error {
		return d.db.AdvanceScanCheckpoint(ctx, scanType, confirmedHeight)
	})
}

func (d *DbWithMetrics) GetTrackedIdentityAddresses(ctx context.Context) (addresses []string, err error) {
	//nolint:errcheck
	d.run("GetTrackedIdentityAddresses", func() error {
		addresses, err = d.db.GetTrackedIdentityAddresses(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) AggregateRewardsByIdentity(ctx context.Context) (aggregates []IdentityRewardAggregate, err error) {
	//nolint:errcheck
	d.run("AggregateRewardsByIdentity", func() error {
		aggregates, err = d.db.AggregateRewardsByIdentity(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) AggregateRecentRewardsByIdentity(ctx context.Context, since int64) (sums map[string]int64, err error) {
	//nolint:errcheck
	d.run("AggregateRecentRewardsByIdentity", func() error {
		sums, err = d.db.AggregateRecentRewardsByIdentity(ctx, since)
		return err
	})
	return
}

func (d *DbWithMetrics) ReplaceIdentityStatistics(ctx context.Context, stats []*model.IdentityStatisticsDocument) error {
	return d.run("ReplaceIdentityStatistics", func() error {
		return d.db.ReplaceIdentityStatistics(ctx, stats)
	})
}

func (d *DbWithMetrics) GetIdentityStatistics(ctx context.Context, address string) (result *model.IdentityStatisticsDocument, err error) {
	//nolint:errcheck
	d.run("GetIdentityStatistics", func() error {
		result, err = d.db.GetIdentityStatistics(ctx, address)
		return err
	})
	return
}

func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
