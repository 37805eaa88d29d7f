package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/verus-tools/staking-rewards-indexer/internal/db"
	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
)

const (
	// principalMultiplier estimates each identity's staked principal as a
	// multiple of its observed rewards. The chain does not expose principal,
	// so every APY figure derived from this is an estimate, not a
	// measurement.
	principalMultiplier = 20

	// apyCapPercent bounds the estimate against division-by-tiny-interval
	// blowups for identities with very short observed staking histories.
	apyCapPercent = 100.0

	recentRewardWindow = 30 * 24 * time.Hour

	secondsPerYear = 365 * 24 * 60 * 60
	minIntervalSec = 24 * 60 * 60
)

// RecomputeStatistics rebuilds the per-identity rollup table from the reward
// ledger. The rollup is fully derived, so a recompute at any time, including
// mid-scan, yields a consistent snapshot of whatever the ledger holds.
func (s *Service) RecomputeStatistics(ctx context.Context) error {
	aggregates, err := s.db.AggregateRewardsByIdentity(ctx)
	if err != nil {
		return fmt.Errorf("failed to aggregate rewards: %w", err)
	}

	now := time.Now()
	recentRewards, err := s.db.AggregateRecentRewardsByIdentity(ctx, now.Add(-recentRewardWindow).Unix())
	if err != nil {
		return fmt.Errorf("failed to aggregate recent rewards: %w", err)
	}

	stats := BuildIdentityStatistics(aggregates, recentRewards, now.Unix())
	if err := s.db.ReplaceIdentityStatistics(ctx, stats); err != nil {
		return fmt.Errorf("failed to replace identity statistics: %w", err)
	}

	log.Ctx(ctx).Info().
		Int("identities", len(stats)).
		Msg("Recomputed identity statistics")
	return nil
}

// BuildIdentityStatistics turns per-identity aggregates into ranked rollup
// rows. It is pure and deterministic: the same ledger aggregates and the same
// clock value always produce identical rows in identical order.
//
// Rank is a dense rank over total stakes descending, ties broken by total
// rewards descending. Equal (stakes, rewards) pairs share a rank; the address
// ordering below only fixes the emitted row order.
func BuildIdentityStatistics(
	aggregates []db.IdentityRewardAggregate,
	recentRewards map[string]int64,
	now int64,
) []*model.IdentityStatisticsDocument {
	sort.Slice(aggregates, func(i, j int) bool {
		a, b := aggregates[i], aggregates[j]
		if a.TotalStakes != b.TotalStakes {
			return a.TotalStakes > b.TotalStakes
		}
		if a.TotalRewardsSatoshis != b.TotalRewardsSatoshis {
			return a.TotalRewardsSatoshis > b.TotalRewardsSatoshis
		}
		return a.IdentityAddress < b.IdentityAddress
	})

	total := len(aggregates)
	stats := make([]*model.IdentityStatisticsDocument, 0, total)

	rank := int64(0)
	var prevStakes, prevRewards int64
	for i, agg := range aggregates {
		if i == 0 || agg.TotalStakes != prevStakes || agg.TotalRewardsSatoshis != prevRewards {
			rank++
			prevStakes, prevRewards = agg.TotalStakes, agg.TotalRewardsSatoshis
		}

		stats = append(stats, &model.IdentityStatisticsDocument{
			Address:              agg.IdentityAddress,
			TotalStakes:          agg.TotalStakes,
			TotalRewardsSatoshis: agg.TotalRewardsSatoshis,
			FirstStakeTime:       agg.FirstStakeTime,
			LastStakeTime:        agg.LastStakeTime,
			APYAllTime:           estimateAllTimeAPY(agg),
			APY30d:               estimateRecentAPY(agg, recentRewards[agg.IdentityAddress]),
			NetworkRank:          rank,
			NetworkPercentile:    float64(total-i) / float64(total) * 100,
			UpdatedAt:            now,
		})
	}

	return stats
}

// estimateAllTimeAPY annualizes observed rewards against the estimated
// principal over the identity's observed staking interval. The interval is
// floored at one day and the result capped so short histories cannot produce
// absurd figures.
func estimateAllTimeAPY(agg db.IdentityRewardAggregate) float64 {
	if agg.TotalRewardsSatoshis <= 0 {
		return 0
	}

	interval := agg.LastStakeTime - agg.FirstStakeTime
	if interval < minIntervalSec {
		interval = minIntervalSec
	}

	principal := float64(agg.TotalRewardsSatoshis) * principalMultiplier
	annualized := float64(agg.TotalRewardsSatoshis) * secondsPerYear / float64(interval)
	return clampAPY(annualized / principal * 100)
}

// estimateRecentAPY annualizes the trailing-window rewards against the same
// estimated principal.
func estimateRecentAPY(agg db.IdentityRewardAggregate, recentSats int64) float64 {
	if agg.TotalRewardsSatoshis <= 0 || recentSats <= 0 {
		return 0
	}

	principal := float64(agg.TotalRewardsSatoshis) * principalMultiplier
	annualized := float64(recentSats) * float64(secondsPerYear) / recentRewardWindow.Seconds()
	return clampAPY(annualized / principal * 100)
}

func clampAPY(apy float64) float64 {
	if apy < 0 {
		return 0
	}
	if apy > apyCapPercent {
		return apyCapPercent
	}
	return apy
}
