package roundservice

import (
	"context"
	"errors"
	"testing"
	"time"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

var reconcileNow = time.Date(2026, 6, 13, 12, 0, 0, 0, time.UTC)

func liveRound(id sharedtypes.RoundID, startedAt time.Time) rounddb.Round {
	return rounddb.Round{
		ID:        id,
		GroupID:   "g1",
		MarkerID:  "alice",
		Status:    roundtypes.RoundStatusLive,
		StartedAt: startedAt,
		Players: []roundtypes.Player{
			{PlayerID: "alice", DisplayName: "Alice", IsMarker: true},
			{PlayerID: "bob", DisplayName: "Bob"},
		},
	}
}

// staleStore backs ListStale/AbandonBatch with an in-memory map so sweep
// idempotence is observable across two runs.
type staleStore struct {
	rounds map[sharedtypes.RoundID]*rounddb.Round
}

func (st *staleStore) wire(f *FakeRoundRepo) {
	f.ListStaleFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
		var out []rounddb.Round
		for _, r := range st.rounds {
			if r.Status == roundtypes.RoundStatusLive && r.StartedAt.Before(olderThan) {
				out = append(out, *r)
			}
		}
		return out, nil
	}
	f.AbandonBatchFunc = func(ctx context.Context, db bun.IDB, ids []sharedtypes.RoundID, reason string, now time.Time) (int, error) {
		n := 0
		for _, id := range ids {
			r, ok := st.rounds[id]
			if !ok || r.Status != roundtypes.RoundStatusLive {
				continue
			}
			r.Status = roundtypes.RoundStatusAbandoned
			r.AbandonedAt = &now
			r.AbandonReason = reason
			n++
		}
		return n, nil
	}
}

func TestSweepStaleRounds(t *testing.T) {
	t.Run("a round live for 13h is abandoned with reason stale_cleanup", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		id := sharedtypes.NewRoundID()
		store := &staleStore{rounds: map[sharedtypes.RoundID]*rounddb.Round{}}
		r := liveRound(id, reconcileNow.Add(-13*time.Hour))
		store.rounds[id] = &r
		store.wire(deps.rounds)
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, report.Swept)
		assert.Equal(t, roundtypes.RoundStatusAbandoned, store.rounds[id].Status)
		assert.Equal(t, roundtypes.AbandonReasonStale, store.rounds[id].AbandonReason)
		require.NotNil(t, store.rounds[id].AbandonedAt)
		assert.Equal(t, reconcileNow, *store.rounds[id].AbandonedAt)
	})

	t.Run("threshold boundary", func(t *testing.T) {
		tests := []struct {
			name      string
			startedAt time.Time
			wantSwept int
		}{
			{"one second past 12h is swept", reconcileNow.Add(-12*time.Hour - time.Second), 1},
			{"11h59m is not swept", reconcileNow.Add(-11*time.Hour - 59*time.Minute), 0},
			{"exactly 12h is not swept", reconcileNow.Add(-12 * time.Hour), 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				deps := newTestDeps(reconcileNow)
				id := sharedtypes.NewRoundID()
				store := &staleStore{rounds: map[sharedtypes.RoundID]*rounddb.Round{}}
				r := liveRound(id, tt.startedAt)
				store.rounds[id] = &r
				store.wire(deps.rounds)
				svc := deps.build()

				report, err := svc.ReconcileRounds(context.Background())
				require.NoError(t, err)
				assert.Equal(t, tt.wantSwept, report.Swept)
			})
		}
	})

	t.Run("second run with no new state is a no-op", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		store := &staleStore{rounds: map[sharedtypes.RoundID]*rounddb.Round{}}
		for i := 0; i < 3; i++ {
			id := sharedtypes.NewRoundID()
			r := liveRound(id, reconcileNow.Add(-13*time.Hour))
			store.rounds[id] = &r
		}
		store.wire(deps.rounds)
		svc := deps.build()

		first, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, first.Swept)

		second, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, second.Swept)
	})

	t.Run("matches are chunked into batches of BatchSize", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		deps.lifecycle.BatchSize = 2

		var stale []rounddb.Round
		for i := 0; i < 5; i++ {
			stale = append(stale, liveRound(sharedtypes.NewRoundID(), reconcileNow.Add(-13*time.Hour)))
		}
		deps.rounds.ListStaleFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
			return stale, nil
		}
		var batchSizes []int
		deps.rounds.AbandonBatchFunc = func(ctx context.Context, db bun.IDB, ids []sharedtypes.RoundID, reason string, now time.Time) (int, error) {
			batchSizes = append(batchSizes, len(ids))
			return len(ids), nil
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, report.Swept)
		assert.Equal(t, []int{2, 2, 1}, batchSizes)
	})

	t.Run("batch failure leaves earlier batches standing", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		deps.lifecycle.BatchSize = 1

		var stale []rounddb.Round
		for i := 0; i < 3; i++ {
			stale = append(stale, liveRound(sharedtypes.NewRoundID(), reconcileNow.Add(-13*time.Hour)))
		}
		deps.rounds.ListStaleFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
			return stale, nil
		}
		calls := 0
		deps.rounds.AbandonBatchFunc = func(ctx context.Context, db bun.IDB, ids []sharedtypes.RoundID, reason string, now time.Time) (int, error) {
			calls++
			if calls == 2 {
				return 0, errors.New("deadlock detected")
			}
			return len(ids), nil
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, report.Swept)
		assert.Equal(t, 3, calls)
	})
}

func pendingTransferRound(id sharedtypes.RoundID, expiresAt time.Time) rounddb.Round {
	r := liveRound(id, reconcileNow.Add(-2*time.Hour))
	r.TransferRequest = &roundtypes.TransferRequest{
		RequestedBy:     "bob",
		RequestedByName: "Bob",
		Status:          roundtypes.TransferStatusPending,
		RequestedAt:     expiresAt.Add(-30 * time.Minute),
		ExpiresAt:       expiresAt,
	}
	return r
}

func TestResolveOrphanedTransfers(t *testing.T) {
	t.Run("request expired 15 minutes ago promotes the requester", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		id := sharedtypes.NewRoundID()
		round := pendingTransferRound(id, reconcileNow.Add(-15*time.Minute))
		deps.rounds.ListWithPendingTransferFunc = func(ctx context.Context, db bun.IDB) ([]rounddb.Round, error) {
			return []rounddb.Round{round}, nil
		}
		var gotPlayers []roundtypes.Player
		var gotRequestedAt time.Time
		deps.rounds.ApplyMarkerTransferFunc = func(ctx context.Context, db bun.IDB, rid sharedtypes.RoundID, players []roundtypes.Player, requestedAt time.Time) error {
			require.Equal(t, id, rid)
			gotPlayers = players
			gotRequestedAt = requestedAt
			return nil
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Resolved)

		// Exactly one marker, and it is the requester.
		markers := 0
		for _, p := range gotPlayers {
			if p.IsMarker {
				markers++
				assert.Equal(t, sharedtypes.PlayerID("bob"), p.PlayerID)
			}
		}
		assert.Equal(t, 1, markers)
		assert.Equal(t, round.TransferRequest.RequestedAt, gotRequestedAt)
	})

	t.Run("grace boundary", func(t *testing.T) {
		tests := []struct {
			name         string
			expiresAt    time.Time
			wantResolved int
		}{
			{"one second past grace is approved", reconcileNow.Add(-10*time.Minute - time.Second), 1},
			{"9m59s overdue is left pending", reconcileNow.Add(-9*time.Minute - 59*time.Second), 0},
			{"exactly at grace is left pending", reconcileNow.Add(-10 * time.Minute), 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				deps := newTestDeps(reconcileNow)
				round := pendingTransferRound(sharedtypes.NewRoundID(), tt.expiresAt)
				deps.rounds.ListWithPendingTransferFunc = func(ctx context.Context, db bun.IDB) ([]rounddb.Round, error) {
					return []rounddb.Round{round}, nil
				}
				svc := deps.build()

				report, err := svc.ReconcileRounds(context.Background())
				require.NoError(t, err)
				assert.Equal(t, tt.wantResolved, report.Resolved)
			})
		}
	})

	t.Run("lost compare-and-swap is not counted as resolved", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		round := pendingTransferRound(sharedtypes.NewRoundID(), reconcileNow.Add(-time.Hour))
		deps.rounds.ListWithPendingTransferFunc = func(ctx context.Context, db bun.IDB) ([]rounddb.Round, error) {
			return []rounddb.Round{round}, nil
		}
		deps.rounds.ApplyMarkerTransferFunc = func(ctx context.Context, db bun.IDB, rid sharedtypes.RoundID, players []roundtypes.Player, requestedAt time.Time) error {
			return rounddb.ErrStaleTransferState
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Resolved)
		assert.Equal(t, 0, report.PassErrors)
	})

	t.Run("requester missing from snapshot leaves request pending", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		round := pendingTransferRound(sharedtypes.NewRoundID(), reconcileNow.Add(-time.Hour))
		round.TransferRequest.RequestedBy = "mallory"
		deps.rounds.ListWithPendingTransferFunc = func(ctx context.Context, db bun.IDB) ([]rounddb.Round, error) {
			return []rounddb.Round{round}, nil
		}
		applied := false
		deps.rounds.ApplyMarkerTransferFunc = func(ctx context.Context, db bun.IDB, rid sharedtypes.RoundID, players []roundtypes.Player, requestedAt time.Time) error {
			applied = true
			return nil
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, report.Resolved)
		assert.False(t, applied)
	})
}

func abandonedRound(id sharedtypes.RoundID, abandonedAt time.Time) rounddb.Round {
	r := liveRound(id, abandonedAt.Add(-2*time.Hour))
	r.Status = roundtypes.RoundStatusAbandoned
	r.AbandonedAt = &abandonedAt
	r.AbandonReason = roundtypes.AbandonReasonStale
	return r
}

func TestPurgeAbandonedRounds(t *testing.T) {
	t.Run("a 30h-old abandoned round and its five children are deleted", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		id := sharedtypes.NewRoundID()
		deps.rounds.ListPurgeableFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
			return []rounddb.Round{abandonedRound(id, reconcileNow.Add(-30*time.Hour))}, nil
		}

		children := []int64{1, 2, 3, 4, 5}
		deps.messages.ListIDsBatchFunc = func(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, limit int) ([]int64, error) {
			if len(children) > limit {
				return children[:limit], nil
			}
			return children, nil
		}
		deps.messages.DeleteBatchFunc = func(ctx context.Context, db bun.IDB, ids []int64) (int, error) {
			children = children[len(ids):]
			return len(ids), nil
		}
		var deletedRounds []sharedtypes.RoundID
		deps.rounds.DeleteFunc = func(ctx context.Context, db bun.IDB, rid sharedtypes.RoundID) error {
			deletedRounds = append(deletedRounds, rid)
			return nil
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Purged)
		assert.Equal(t, 5, report.ChildrenGone)
		assert.Empty(t, children)
		assert.Equal(t, []sharedtypes.RoundID{id}, deletedRounds)
	})

	t.Run("children larger than one batch drain via the worklist", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		deps.lifecycle.BatchSize = 2
		id := sharedtypes.NewRoundID()
		deps.rounds.ListPurgeableFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
			return []rounddb.Round{abandonedRound(id, reconcileNow.Add(-30*time.Hour))}, nil
		}

		children := []int64{1, 2, 3, 4, 5}
		var listCalls int
		deps.messages.ListIDsBatchFunc = func(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, limit int) ([]int64, error) {
			listCalls++
			require.Equal(t, 2, limit)
			if len(children) > limit {
				return children[:limit], nil
			}
			return children, nil
		}
		deps.messages.DeleteBatchFunc = func(ctx context.Context, db bun.IDB, ids []int64) (int, error) {
			children = children[len(ids):]
			return len(ids), nil
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 5, report.ChildrenGone)
		// 2 + 2 + 1, then the empty check.
		assert.Equal(t, 4, listCalls)
	})

	t.Run("retention boundary", func(t *testing.T) {
		tests := []struct {
			name        string
			abandonedAt time.Time
			wantPurged  int
		}{
			{"one second past 24h is purged", reconcileNow.Add(-24*time.Hour - time.Second), 1},
			{"23h59m is retained", reconcileNow.Add(-23*time.Hour - 59*time.Minute), 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				deps := newTestDeps(reconcileNow)
				id := sharedtypes.NewRoundID()
				deps.rounds.ListPurgeableFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
					r := abandonedRound(id, tt.abandonedAt)
					if r.AbandonedAt.Before(olderThan) {
						return []rounddb.Round{r}, nil
					}
					return nil, nil
				}
				svc := deps.build()

				report, err := svc.ReconcileRounds(context.Background())
				require.NoError(t, err)
				assert.Equal(t, tt.wantPurged, report.Purged)
			})
		}
	})

	t.Run("a failing round is skipped and the rest proceed", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		bad := sharedtypes.NewRoundID()
		good := sharedtypes.NewRoundID()
		deps.rounds.ListPurgeableFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
			return []rounddb.Round{
				abandonedRound(bad, reconcileNow.Add(-30*time.Hour)),
				abandonedRound(good, reconcileNow.Add(-30*time.Hour)),
			}, nil
		}
		deps.messages.ListIDsBatchFunc = func(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, limit int) ([]int64, error) {
			if roundID == bad {
				return nil, errors.New("listing failed")
			}
			return nil, nil
		}
		var deleted []sharedtypes.RoundID
		deps.rounds.DeleteFunc = func(ctx context.Context, db bun.IDB, rid sharedtypes.RoundID) error {
			deleted = append(deleted, rid)
			return nil
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.Purged)
		assert.Equal(t, []sharedtypes.RoundID{good}, deleted)
	})
}

func TestReconcileRounds(t *testing.T) {
	t.Run("a failing pass never blocks the others", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		deps.rounds.ListStaleFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
			return nil, errors.New("query failed")
		}
		id := sharedtypes.NewRoundID()
		deps.rounds.ListPurgeableFunc = func(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]rounddb.Round, error) {
			return []rounddb.Round{abandonedRound(id, reconcileNow.Add(-30*time.Hour))}, nil
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.PassErrors)
		assert.Equal(t, 1, report.Purged)
	})

	t.Run("a panicking pass is contained", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		deps.rounds.ListWithPendingTransferFunc = func(ctx context.Context, db bun.IDB) ([]rounddb.Round, error) {
			panic("boom")
		}
		svc := deps.build()

		report, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, report.PassErrors)
	})

	t.Run("each run records one audit row", func(t *testing.T) {
		deps := newTestDeps(reconcileNow)
		svc := deps.build()

		_, err := svc.ReconcileRounds(context.Background())
		require.NoError(t, err)

		require.Len(t, deps.runs.Inserted, 1)
		assert.Equal(t, reconcileNow, deps.runs.Inserted[0].RanAt)
	})
}
