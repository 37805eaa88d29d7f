package services

import (
	"context"

	"github.com/verus-tools/staking-rewards-indexer/internal/observability/metrics"
	"github.com/verus-tools/staking-rewards-indexer/internal/utils/poller"
)

// StartStatsPoller periodically rebuilds the identity statistics rollup in
// the background.
func (s *Service) StartStatsPoller(ctx context.Context) {
	statsPoller := poller.NewPoller(
		s.cfg.Poller.StatsPollingInterval,
		metrics.RecordPollerDuration("stats", s.RecomputeStatistics),
	)
	go statsPoller.Start(ctx)
}
