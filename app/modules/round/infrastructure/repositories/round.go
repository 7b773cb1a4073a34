package rounddb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/uptrace/bun"
)

// RoundImpl implements RoundRepository using bun.
type RoundImpl struct {
	db bun.IDB
}

// NewRoundRepository creates a new round repository.
func NewRoundRepository(db bun.IDB) RoundRepository {
	return &RoundImpl{db: db}
}

func (r *RoundImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Create inserts a new round.
func (r *RoundImpl) Create(ctx context.Context, db bun.IDB, round *Round) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(round).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create round: %w", err)
	}
	return nil
}

// GetByID retrieves a round by id.
func (r *RoundImpl) GetByID(ctx context.Context, db bun.IDB, id sharedtypes.RoundID) (*Round, error) {
	db = r.resolveDB(db)
	round := new(Round)
	err := db.NewSelect().
		Model(round).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round by id: %w", err)
	}
	return round, nil
}

// UpdateOutingID backfills the round's outing back-reference. Idempotent: a
// re-run with the same outing id matches and rewrites the same value.
func (r *RoundImpl) UpdateOutingID(ctx context.Context, db bun.IDB, id sharedtypes.RoundID, outingID sharedtypes.OutingID) error {
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Round)(nil)).
		Set("outing_id = ?", outingID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to backfill outing id: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrRoundNotFound
	}
	return nil
}

// ListStale returns live rounds started before olderThan, oldest first.
// Already-abandoned rounds are excluded by the predicate itself, which is
// what makes the sweeper idempotent.
func (r *RoundImpl) ListStale(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]Round, error) {
	db = r.resolveDB(db)
	var rounds []Round
	q := db.NewSelect().
		Model(&rounds).
		Where("status = ?", roundtypes.RoundStatusLive).
		Where("started_at < ?", olderThan).
		Order("started_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list stale rounds: %w", err)
	}
	return rounds, nil
}

// AbandonBatch marks the given rounds abandoned in one statement and returns
// how many rows actually transitioned. The status predicate keeps the write
// forward-only: rounds already abandoned or completed are untouched.
func (r *RoundImpl) AbandonBatch(ctx context.Context, db bun.IDB, ids []sharedtypes.RoundID, reason string, now time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	result, err := db.NewUpdate().
		Model((*Round)(nil)).
		Set("status = ?", roundtypes.RoundStatusAbandoned).
		Set("abandoned_at = ?", now).
		Set("abandon_reason = ?", reason).
		Set("updated_at = ?", now).
		Where("id IN (?)", bun.In(ids)).
		Where("status = ?", roundtypes.RoundStatusLive).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to abandon rounds: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

// ListWithPendingTransfer returns live rounds carrying a pending marker
// transfer request.
func (r *RoundImpl) ListWithPendingTransfer(ctx context.Context, db bun.IDB) ([]Round, error) {
	db = r.resolveDB(db)
	var rounds []Round
	err := db.NewSelect().
		Model(&rounds).
		Where("status = ?", roundtypes.RoundStatusLive).
		Where("marker_transfer_request ->> 'status' = ?", string(roundtypes.TransferStatusPending)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds with pending transfer: %w", err)
	}
	return rounds, nil
}

// ApplyMarkerTransfer writes the rewritten players array and clears the
// transfer request, guarded by the request's requested_at timestamp as a
// compare-and-swap key. A concurrent client-side resolution changes or clears
// the embedded request, the guard misses, and ErrStaleTransferState is
// returned so at most one resolution wins.
func (r *RoundImpl) ApplyMarkerTransfer(ctx context.Context, db bun.IDB, id sharedtypes.RoundID, players []roundtypes.Player, requestedAt time.Time) error {
	db = r.resolveDB(db)
	data, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}
	result, err := db.NewUpdate().
		Model((*Round)(nil)).
		Set("players = ?::jsonb", string(data)).
		Set("marker_transfer_request = NULL").
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Where("status = ?", roundtypes.RoundStatusLive).
		Where("marker_transfer_request ->> 'status' = ?", string(roundtypes.TransferStatusPending)).
		Where("(marker_transfer_request ->> 'requested_at')::timestamptz = ?", requestedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply marker transfer: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrStaleTransferState
	}
	return nil
}

// ListPurgeable returns abandoned rounds whose abandonment predates
// olderThan, oldest first.
func (r *RoundImpl) ListPurgeable(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]Round, error) {
	db = r.resolveDB(db)
	var rounds []Round
	q := db.NewSelect().
		Model(&rounds).
		Where("status = ?", roundtypes.RoundStatusAbandoned).
		Where("abandoned_at < ?", olderThan).
		Order("abandoned_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list purgeable rounds: %w", err)
	}
	return rounds, nil
}

// Delete removes a round record. Callers must have deleted the round's child
// records first.
func (r *RoundImpl) Delete(ctx context.Context, db bun.IDB, id sharedtypes.RoundID) error {
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*Round)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete round: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
