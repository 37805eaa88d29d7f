package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog/log"

	"github.com/verus-tools/staking-rewards-indexer/internal/db"
	"github.com/verus-tools/staking-rewards-indexer/internal/db/model"
	"github.com/verus-tools/staking-rewards-indexer/internal/observability/metrics"
	"github.com/verus-tools/staking-rewards-indexer/internal/queue"
	"github.com/verus-tools/staking-rewards-indexer/internal/types"
	"github.com/verus-tools/staking-rewards-indexer/pkg"
)

const (
	// ForwardScanType is the checkpoint row key for tip-following scans.
	ForwardScanType = "forward"

	// maxInFlightBatches bounds how many batches run their pipeline
	// concurrently. Completions may arrive out of order; the progress
	// tracker keeps checkpoint advancement contiguous.
	maxInFlightBatches = 4

	// writeRetryDelay separates the single write retry from the failed
	// attempt before the run halts.
	writeRetryDelay = 2 * time.Second
)

// BackfillScanType derives the checkpoint row key for a backfill range, so
// backfill and forward scans never race on the same row.
func BackfillScanType(fromHeight, toHeight int64) string {
	return fmt.Sprintf("backfill:%d-%d", fromHeight, toHeight)
}

// scanSummary is the user-visible outcome of one scan run.
type scanSummary struct {
	BlocksScanned  atomic.Int64
	RewardsFound   atomic.Int64
	AlreadyPresent atomic.Int64
	SkippedBlocks  atomic.Int64
}

func (s *scanSummary) log(scanType string) {
	log.Info().
		Str("scan_type", scanType).
		Int64("blocks_scanned", s.BlocksScanned.Load()).
		Int64("rewards_found", s.RewardsFound.Load()).
		Int64("already_present", s.AlreadyPresent.Load()).
		Int64("skipped_blocks", s.SkippedBlocks.Load()).
		Msg("Scan run finished")
}

// RunForwardScan follows the chain tip until ctx is canceled. Each pass
// resumes from the forward checkpoint; a failed pass leaves the checkpoint at
// the last fully confirmed batch and the next pass re-fetches from there.
func (s *Service) RunForwardScan(ctx context.Context) {
	log := log.Ctx(ctx)

	for {
		if err := s.forwardScanPass(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info().Msg("Forward scan stopped")
				return
			}
			log.Error().Err(err).Msg("Forward scan pass failed, will resume from checkpoint")
		}

		select {
		case <-time.After(s.cfg.Scanner.TipPollingInterval):
		case <-ctx.Done():
			log.Info().Msg("Forward scan stopped")
			return
		}
	}
}

func (s *Service) forwardScanPass(ctx context.Context) error {
	tipHeight, err := s.chain.GetBlockCount(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain tip: %w", err)
	}
	metrics.RecordChainTipHeight(tipHeight)

	checkpoint, err := s.db.GetScanCheckpoint(ctx, ForwardScanType)
	if err != nil {
		return fmt.Errorf("failed to read forward checkpoint: %w", err)
	}

	startHeight := max(checkpoint, s.cfg.Scanner.ActivationHeight-1)
	if startHeight >= tipHeight {
		log.Ctx(ctx).Debug().
			Int64("checkpoint", checkpoint).
			Int64("tip", tipHeight).
			Msg("Forward scan is at the tip")
		return nil
	}

	return s.scanRange(ctx, ForwardScanType, startHeight+1, tipHeight)
}

// RunBackfill scans [fromHeight, toHeight] under a range-scoped scan type.
// Re-invoking it with the same range resumes from that range's own
// checkpoint; overlapping a previous scan only produces duplicate writes,
// which the writer ignores.
func (s *Service) RunBackfill(ctx context.Context, fromHeight, toHeight int64) error {
	fromHeight = max(fromHeight, s.cfg.Scanner.ActivationHeight)
	if fromHeight > toHeight {
		return fmt.Errorf("invalid backfill range [%d, %d]", fromHeight, toHeight)
	}

	scanType := BackfillScanType(fromHeight, toHeight)

	checkpoint, err := s.db.GetScanCheckpoint(ctx, scanType)
	if err != nil {
		return fmt.Errorf("failed to read backfill checkpoint: %w", err)
	}
	startHeight := max(fromHeight, checkpoint+1)
	if startHeight > toHeight {
		log.Ctx(ctx).Info().Str("scan_type", scanType).Msg("Backfill range already completed")
		return nil
	}

	return s.scanRange(ctx, scanType, startHeight, toHeight)
}

// scanRange drives the batch pipeline over [fromHeight, toHeight]:
// fetch -> classify -> extract -> write -> checkpoint advance. Batches run
// concurrently up to maxInFlightBatches; the checkpoint only ever advances to
// the highest contiguous confirmed height. Cancellation is honored at batch
// boundaries, never mid-write.
func (s *Service) scanRange(ctx context.Context, scanType string, fromHeight, toHeight int64) error {
	tracked, err := s.trackedAddressSet(ctx)
	if err != nil {
		return err
	}
	if len(tracked) == 0 {
		log.Ctx(ctx).Warn().Str("scan_type", scanType).Msg("No tracked identities, scanning will persist nothing")
	}

	log.Ctx(ctx).Info().
		Str("scan_type", scanType).
		Int64("from", fromHeight).
		Int64("to", toHeight).
		Msg("Starting scan run")

	summary := &scanSummary{}
	tracker := newProgressTracker(fromHeight - 1)

	fetchPool := pond.NewPool(s.cfg.Scanner.Concurrency)
	defer fetchPool.StopAndWait()
	batchPool := pond.NewPool(maxInFlightBatches)
	defer batchPool.StopAndWait()

	batchGroup := batchPool.NewGroupContext(ctx)
	groupCtx := batchGroup.Context()

	var mu sync.Mutex
	var batchErr error

	batchSize := s.cfg.Scanner.BatchSize
	for batchStart := fromHeight; batchStart <= toHeight; batchStart += batchSize {
		start := batchStart
		end := min(batchStart+batchSize-1, toHeight)

		batchGroup.Submit(func() {
			if groupCtx.Err() != nil {
				return
			}

			if err := s.processBatch(groupCtx, fetchPool, scanType, start, end, tracked, summary); err != nil {
				mu.Lock()
				if batchErr == nil {
					batchErr = err
				}
				mu.Unlock()
				batchGroup.Stop()
				return
			}

			confirmed := tracker.Confirm(start, end)
			if confirmed < start {
				// a lower batch is still in flight; it will carry the
				// frontier past this range when it confirms
				return
			}
			if err := s.advanceCheckpoint(groupCtx, scanType, confirmed); err != nil {
				mu.Lock()
				if batchErr == nil {
					batchErr = err
				}
				mu.Unlock()
				batchGroup.Stop()
			}
		})
	}

	err = batchGroup.Wait()
	summary.log(scanType)

	if batchErr != nil {
		return batchErr
	}
	if err != nil && !errors.Is(err, pond.ErrGroupStopped) {
		return err
	}
	if ctx.Err() != nil {
		return context.Canceled
	}
	return nil
}

// processBatch runs the fetch/classify/extract/write pipeline for one batch.
// A transient fetch failure or a write failure fails the whole batch so its
// range is re-fetched on the next run; fatal (malformed) blocks are skipped
// and counted.
func (s *Service) processBatch(
	ctx context.Context,
	fetchPool pond.Pool,
	scanType string,
	startHeight, endHeight int64,
	tracked map[string]struct{},
	summary *scanSummary,
) error {
	blockCount := int(endHeight - startHeight + 1)
	rawBlocks := make([]*types.RawBlock, blockCount)
	fetchErrs := make([]error, blockCount)

	fetchGroup := fetchPool.NewGroupContext(ctx)
	for i := 0; i < blockCount; i++ {
		idx := i
		height := startHeight + int64(i)
		fetchGroup.Submit(func() {
			rawBlocks[idx], fetchErrs[idx] = s.chain.GetBlockByHeight(ctx, height)
		})
	}
	if err := fetchGroup.Wait(); err != nil && !errors.Is(err, pond.ErrGroupStopped) {
		return err
	}

	var candidates []*types.RewardCandidate
	skipped := 0
	for i, raw := range rawBlocks {
		height := startHeight + int64(i)

		if err := fetchErrs[i]; err != nil {
			if types.IsFatal(err) {
				// malformed block: skip it and keep the batch going
				log.Ctx(ctx).Error().
					Err(err).
					Int64("height", height).
					Msg("Skipping malformed block")
				skipped++
				continue
			}
			// transient: defer the whole batch to a later pass
			return fmt.Errorf("transient failure fetching block %d: %w", height, err)
		}

		block := types.Classify(raw)
		summary.BlocksScanned.Add(1)
		if !block.IsStake() {
			continue
		}
		candidates = append(candidates, ExtractRewards(block, tracked)...)
	}

	summary.SkippedBlocks.Add(int64(skipped))
	metrics.RecordBlocksScanned(scanType, blockCount-skipped)
	if skipped > 0 {
		metrics.RecordScanErrors(scanType, skipped)
	}

	if s.cfg.Scanner.MaxBatchErrors > 0 && int(summary.SkippedBlocks.Load()) > s.cfg.Scanner.MaxBatchErrors {
		return fmt.Errorf("scan degraded: %d blocks skipped, halting before checkpoint advance", summary.SkippedBlocks.Load())
	}

	result, err := s.writeCandidates(ctx, candidates)
	if err != nil {
		return fmt.Errorf("failed to persist batch [%d, %d]: %w", startHeight, endHeight, err)
	}

	summary.RewardsFound.Add(int64(result.Inserted))
	summary.AlreadyPresent.Add(int64(result.AlreadyPresent))
	metrics.RecordRewardsFound(scanType, result.Inserted)

	if result.Inserted > 0 {
		s.publishRewardEvents(ctx, candidates)
	}

	return nil
}

// writeCandidates persists the batch with a single retry; a second failure
// halts the run so the checkpoint never advances past unpersisted data.
func (s *Service) writeCandidates(ctx context.Context, candidates []*types.RewardCandidate) (*db.WriteResult, error) {
	docs := make([]*model.StakeRewardDocument, len(candidates))
	for i, candidate := range candidates {
		docs[i] = model.NewStakeRewardDocument(candidate)
	}

	result, err := s.db.InsertStakeRewards(ctx, docs)
	if err == nil {
		return result, nil
	}

	log.Ctx(ctx).Warn().Err(err).Msg("Reward write failed, retrying once")
	select {
	case <-time.After(writeRetryDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return s.db.InsertStakeRewards(ctx, docs)
}

func (s *Service) advanceCheckpoint(ctx context.Context, scanType string, confirmedHeight int64) error {
	if err := s.db.AdvanceScanCheckpoint(ctx, scanType, confirmedHeight); err != nil {
		return fmt.Errorf("failed to advance checkpoint for %s: %w", scanType, err)
	}
	metrics.RecordCheckpointHeight(scanType, confirmedHeight)

	log.Ctx(ctx).Debug().
		Str("scan_type", scanType).
		Int64("confirmed_height", confirmedHeight).
		Msg("Checkpoint advanced")
	return nil
}

func (s *Service) trackedAddressSet(ctx context.Context) (map[string]struct{}, error) {
	addresses, err := s.db.GetTrackedIdentityAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracked identities: %w", err)
	}

	set := make(map[string]struct{}, len(addresses))
	for _, address := range addresses {
		// the identities collection is populated externally; a malformed
		// address can never match a coinstake output, so flag it but keep
		// scanning
		if err := pkg.ValidateIdentityAddress(address); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("address", address).Msg("Tracked identity address looks malformed")
		}
		set[address] = struct{}{}
	}
	return set, nil
}

// publishRewardEvents notifies downstream consumers. Best effort: rescans can
// re-announce rewards and consumers deduplicate against the ledger.
func (s *Service) publishRewardEvents(ctx context.Context, candidates []*types.RewardCandidate) {
	if s.queueManager == nil {
		return
	}

	for _, candidate := range candidates {
		ev := &queue.StakeRewardEvent{
			IdentityAddress: candidate.IdentityAddress,
			TxID:            candidate.TxID,
			Vout:            candidate.Vout,
			BlockHeight:     candidate.BlockHeight,
			AmountSats:      candidate.AmountSats,
		}
		// errors are logged and counted inside the queue manager
		_ = s.queueManager.PushStakeRewardEvent(ctx, ev)
	}
}
