package cli

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/verus-tools/staking-rewards-indexer/internal/observability/tracing"
)

// RecomputeStatsCmd rebuilds the identity statistics rollup once and exits.
// The running server also does this periodically; the command exists for
// operators who want a rebuild right now.
func RecomputeStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recompute-stats",
		Short: "Rebuild identity statistics from the reward ledger",
		Args:  cobra.ExactArgs(0),
		Run:   recomputeStats,
	}
}

func recomputeStats(cmd *cobra.Command, _ []string) {
	ctx := tracing.InjectTraceID(cmd.Context())
	log := log.Ctx(ctx)

	service, _, err := buildService(ctx)
	if err != nil {
		log.Err(err).Msg("Failed to build the indexer service")
		os.Exit(1)
	}

	if err := service.RecomputeStatistics(ctx); err != nil {
		log.Err(err).Msg("Failed to recompute identity statistics")
		os.Exit(1)
	}
}
