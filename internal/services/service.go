package services

import (
	"context"

	"github.com/verus-tools/staking-rewards-indexer/internal/clients/chainclient"
	"github.com/verus-tools/staking-rewards-indexer/internal/config"
	"github.com/verus-tools/staking-rewards-indexer/internal/db"
	"github.com/verus-tools/staking-rewards-indexer/internal/queue"
)

type Service struct {
	cfg          *config.Config
	db           db.DbInterface
	chain        chainclient.ChainInterface
	queueManager *queue.QueueManager
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	chain chainclient.ChainInterface,
	qm *queue.QueueManager,
) *Service {
	return &Service{
		cfg:          cfg,
		db:           db,
		chain:        chain,
		queueManager: qm,
	}
}

// StartIndexerSync runs the forward scan loop on the main goroutine and the
// stats poller beside it. It returns when ctx is canceled, after the scan
// loop has stopped at a batch boundary.
func (s *Service) StartIndexerSync(ctx context.Context) {
	s.StartStatsPoller(ctx)
	s.RunForwardScan(ctx)

	if s.queueManager != nil {
		s.queueManager.Shutdown()
	}
}
