package roundservice

import (
	"context"
	"errors"
	"fmt"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability/attr"
	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils/results"
	"github.com/uptrace/bun"
)

// ReconcileRounds runs the three reconciliation passes sequentially. The
// passes are logically independent: each issues its own fresh queries, holds
// no shared in-process state, and is wrapped in isolation so a failure or
// panic in one never blocks the others. The run finishes by recording one
// audit row.
func (s *RoundService) ReconcileRounds(ctx context.Context) (roundtypes.ReconcileReport, error) {
	result, err := withTelemetry(s, ctx, "ReconcileRounds", "", func(ctx context.Context) (results.OperationResult[roundtypes.ReconcileReport, error], error) {
		report := s.reconcileRoundsLogic(ctx)
		return results.SuccessResult[roundtypes.ReconcileReport, error](report), nil
	})
	if err != nil {
		return roundtypes.ReconcileReport{}, err
	}
	return *result.Success, nil
}

func (s *RoundService) reconcileRoundsLogic(ctx context.Context) roundtypes.ReconcileReport {
	start := s.clock.Now()
	report := roundtypes.ReconcileReport{}

	s.runPass(ctx, PassStaleSweep, &report, func(ctx context.Context) error {
		swept, err := s.sweepStaleRounds(ctx)
		report.Swept = swept
		return err
	})

	s.runPass(ctx, PassTransferResolve, &report, func(ctx context.Context) error {
		resolved, err := s.resolveOrphanedTransfers(ctx)
		report.Resolved = resolved
		return err
	})

	s.runPass(ctx, PassAbandonedPurge, &report, func(ctx context.Context) error {
		purged, children, err := s.purgeAbandonedRounds(ctx)
		report.Purged = purged
		report.ChildrenGone = children
		return err
	})

	report.Duration = s.clock.Now().Sub(start)
	s.recordRun(ctx, report)
	return report
}

// runPass executes one reconciliation pass with panic and error isolation.
// Pass failures are logged and counted, never propagated: state the pass
// failed to advance is simply picked up on the next scheduled run.
func (s *RoundService) runPass(ctx context.Context, pass string, report *roundtypes.ReconcileReport, fn func(ctx context.Context) error) {
	defer func() {
		if r := recover(); r != nil {
			report.PassErrors++
			s.logger.ErrorContext(ctx, "Reconciler pass panicked",
				attr.String("pass", pass),
				attr.Error(fmt.Errorf("panic: %v", r)),
			)
			if s.metrics != nil {
				s.metrics.RecordReconcilerPassError(ctx, pass)
			}
		}
	}()

	if err := fn(ctx); err != nil {
		report.PassErrors++
		s.logger.ErrorContext(ctx, "Reconciler pass failed",
			attr.String("pass", pass),
			attr.Error(err),
		)
		if s.metrics != nil {
			s.metrics.RecordReconcilerPassError(ctx, pass)
		}
	}
}

// sweepStaleRounds abandons live rounds started before the staleness
// threshold. Matches are updated in batches of at most BatchSize, each batch
// committed in its own transaction. Idempotent: the query predicate itself
// excludes already-abandoned rounds, so a re-run with no newly-stale rounds
// matches nothing.
func (s *RoundService) sweepStaleRounds(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC()
	cutoff := now.Add(-s.lifecycle.StaleAfter)

	stale, err := s.roundRepo.ListStale(ctx, nil, cutoff, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to query stale rounds: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	swept := 0
	for start := 0; start < len(stale); start += s.lifecycle.BatchSize {
		end := min(start+s.lifecycle.BatchSize, len(stale))
		ids := make([]sharedtypes.RoundID, 0, end-start)
		for _, round := range stale[start:end] {
			ids = append(ids, round.ID)
		}

		result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[int, error], error) {
			n, err := s.roundRepo.AbandonBatch(ctx, db, ids, roundtypes.AbandonReasonStale, now)
			if err != nil {
				return results.OperationResult[int, error]{}, err
			}
			return results.SuccessResult[int, error](n), nil
		})
		if err != nil {
			// Batches commit independently; earlier batches stand and the
			// remainder is retried on the next run.
			s.logger.ErrorContext(ctx, "Stale sweep batch failed",
				attr.Int("batch_size", len(ids)),
				attr.Error(err),
			)
			continue
		}
		swept += *result.Success
	}

	if s.metrics != nil && swept > 0 {
		s.metrics.RecordRoundsSwept(ctx, swept)
	}
	s.logger.InfoContext(ctx, "Stale sweep complete",
		attr.Int("matched", len(stale)),
		attr.Int("swept", swept),
	)
	return swept, nil
}

// resolveOrphanedTransfers auto-approves pending marker transfer requests
// stuck past their expiry plus the grace window, so a round never ends up
// without an active scorer. The grace window gives the client-driven
// resolution flow first chance to settle a request.
func (s *RoundService) resolveOrphanedTransfers(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC()

	pending, err := s.roundRepo.ListWithPendingTransfer(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to query pending transfers: %w", err)
	}

	resolved := 0
	for _, round := range pending {
		req := round.TransferRequest
		if req == nil || req.Status != roundtypes.TransferStatusPending {
			continue
		}

		overdue := now.Sub(req.ExpiresAt)
		if overdue <= s.lifecycle.OrphanGrace {
			continue
		}

		players, ok := promoteMarker(round.Players, req.RequestedBy)
		if !ok {
			s.logger.WarnContext(ctx, "Transfer requester no longer in round, leaving request pending",
				attr.RoundID("round_id", round.ID),
				attr.PlayerID("requested_by", req.RequestedBy),
			)
			continue
		}

		err := s.roundRepo.ApplyMarkerTransfer(ctx, nil, round.ID, players, req.RequestedAt)
		if err != nil {
			if errors.Is(err, rounddb.ErrStaleTransferState) {
				// A client resolved the request between our read and write;
				// that resolution wins.
				s.logger.InfoContext(ctx, "Transfer resolved concurrently by client",
					attr.RoundID("round_id", round.ID),
				)
				continue
			}
			s.logger.ErrorContext(ctx, "Failed to auto-approve transfer",
				attr.RoundID("round_id", round.ID),
				attr.Error(err),
			)
			continue
		}

		resolved++
		if s.metrics != nil {
			s.metrics.RecordTransferAutoApproved(ctx)
		}
		s.logger.InfoContext(ctx, "Orphaned transfer auto-approved",
			attr.RoundID("round_id", round.ID),
			attr.PlayerID("new_marker", req.RequestedBy),
			attr.Duration("overdue", overdue),
		)
	}

	return resolved, nil
}

// promoteMarker rewrites the players snapshot so the requester is the sole
// marker. Returns false when the requester is not in the snapshot.
func promoteMarker(players []roundtypes.Player, requester sharedtypes.PlayerID) ([]roundtypes.Player, bool) {
	found := false
	rewritten := make([]roundtypes.Player, len(players))
	for i, p := range players {
		p.IsMarker = p.PlayerID == requester
		if p.IsMarker {
			found = true
		}
		rewritten[i] = p
	}
	return rewritten, found
}

// purgeAbandonedRounds permanently deletes abandoned rounds past the
// retention threshold, child records first. Each round is isolated: a
// failure deleting one round's children skips that round (it stays
// abandoned and is retried next run) and the remaining matches proceed.
func (s *RoundService) purgeAbandonedRounds(ctx context.Context) (int, int, error) {
	now := s.clock.Now().UTC()
	cutoff := now.Add(-s.lifecycle.PurgeAfter)

	expired, err := s.roundRepo.ListPurgeable(ctx, nil, cutoff, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to query purgeable rounds: %w", err)
	}

	purged := 0
	childrenGone := 0
	for _, round := range expired {
		deleted, err := s.purgeChildren(ctx, round.ID)
		childrenGone += deleted
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to purge round children, skipping round",
				attr.RoundID("round_id", round.ID),
				attr.Int("children_deleted", deleted),
				attr.Error(err),
			)
			continue
		}

		if err := s.roundRepo.Delete(ctx, nil, round.ID); err != nil {
			s.logger.ErrorContext(ctx, "Failed to delete purged round",
				attr.RoundID("round_id", round.ID),
				attr.Error(err),
			)
			continue
		}
		purged++
	}

	if s.metrics != nil {
		if purged > 0 {
			s.metrics.RecordRoundsPurged(ctx, purged)
		}
		if childrenGone > 0 {
			s.metrics.RecordChildRecordsDeleted(ctx, childrenGone)
		}
	}
	s.logger.InfoContext(ctx, "Abandoned purge complete",
		attr.Int("matched", len(expired)),
		attr.Int("purged", purged),
		attr.Int("children_deleted", childrenGone),
	)
	return purged, childrenGone, nil
}

// purgeChildren drains a round's child records as a worklist: list a batch
// of ids, delete it, repeat until the collection is empty. Bounded batches
// keep memory flat for arbitrarily large collections and a partial failure
// resumes safely on the next run.
func (s *RoundService) purgeChildren(ctx context.Context, roundID sharedtypes.RoundID) (int, error) {
	deleted := 0
	for {
		ids, err := s.messageRepo.ListIDsBatch(ctx, nil, roundID, s.lifecycle.BatchSize)
		if err != nil {
			return deleted, fmt.Errorf("failed to list child batch: %w", err)
		}
		if len(ids) == 0 {
			return deleted, nil
		}

		n, err := s.messageRepo.DeleteBatch(ctx, nil, ids)
		deleted += n
		if err != nil {
			return deleted, fmt.Errorf("failed to delete child batch: %w", err)
		}
		if n == 0 {
			// Listed rows that would not delete; bail rather than spin.
			return deleted, fmt.Errorf("child batch deleted no rows for round %s", roundID)
		}
	}
}

// recordRun writes the audit row for this run. Best-effort: the passes have
// already done their work.
func (s *RoundService) recordRun(ctx context.Context, report roundtypes.ReconcileReport) {
	if s.runRepo == nil {
		return
	}
	run := &rounddb.ReconcilerRun{
		Swept:        report.Swept,
		Resolved:     report.Resolved,
		Purged:       report.Purged,
		ChildrenGone: report.ChildrenGone,
		PassErrors:   report.PassErrors,
		Duration:     report.Duration,
		RanAt:        s.clock.Now().UTC(),
	}
	if err := s.runRepo.InsertRun(ctx, nil, run); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record reconciler run", attr.Error(err))
	}
}
