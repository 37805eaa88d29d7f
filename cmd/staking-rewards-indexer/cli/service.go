package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	"github.com/verus-tools/staking-rewards-indexer/internal/clients/chainclient"
	"github.com/verus-tools/staking-rewards-indexer/internal/config"
	"github.com/verus-tools/staking-rewards-indexer/internal/db"
	dbmodel "github.com/verus-tools/staking-rewards-indexer/internal/db/model"
	"github.com/verus-tools/staking-rewards-indexer/internal/queue"
	"github.com/verus-tools/staking-rewards-indexer/internal/services"
)

// buildService wires config, database, chain client and the optional queue
// into a ready Service. Every subcommand goes through here so the clients are
// constructed exactly one way.
func buildService(ctx context.Context) (*services.Service, *config.Config, error) {
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("error while loading config file %s: %w", cfgPath, err)
	}

	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		return nil, nil, fmt.Errorf("error while setting up indexer db model: %w", err)
	}

	var dbClient db.DbInterface
	dbClient, err = db.New(ctx, cfg.Db)
	if err != nil {
		return nil, nil, fmt.Errorf("error while creating db client: %w", err)
	}
	dbClient = db.NewDbWithMetrics(dbClient)

	var chainClient chainclient.ChainInterface
	chainClient, err = chainclient.NewChainClient(&cfg.Chain)
	if err != nil {
		return nil, nil, fmt.Errorf("error while creating chain client: %w", err)
	}
	chainClient = chainclient.NewChainClientWithMetrics(chainClient)

	var qm *queue.QueueManager
	if cfg.Queue != nil {
		zapLogger, err := zap.NewProduction()
		if err != nil {
			return nil, nil, fmt.Errorf("error while creating zap logger: %w", err)
		}

		qm, err = queue.NewQueueManager(cfg.Queue, zapLogger)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize queue manager: %w", err)
		}
	} else {
		log.Ctx(ctx).Info().Msg("Queue is not configured, reward events will not be published")
	}

	return services.NewService(cfg, dbClient, chainClient, qm), cfg, nil
}
