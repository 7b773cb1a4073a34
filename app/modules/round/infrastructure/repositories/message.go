package rounddb

import (
	"context"
	"fmt"

	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/uptrace/bun"
)

// MessageImpl implements MessageRepository using bun.
type MessageImpl struct {
	db bun.IDB
}

// NewMessageRepository creates a new round message repository.
func NewMessageRepository(db bun.IDB) MessageRepository {
	return &MessageImpl{db: db}
}

func (r *MessageImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Create inserts a new round message.
func (r *MessageImpl) Create(ctx context.Context, db bun.IDB, msg *RoundMessage) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(msg).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create round message: %w", err)
	}
	return nil
}

// ListIDsBatch returns up to limit message ids for a round. The purger calls
// this repeatedly until the collection is empty, so ordering only needs to be
// stable, not meaningful.
func (r *MessageImpl) ListIDsBatch(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, limit int) ([]int64, error) {
	db = r.resolveDB(db)
	var ids []int64
	err := db.NewSelect().
		Model((*RoundMessage)(nil)).
		Column("id").
		Where("round_id = ?", roundID).
		Order("id ASC").
		Limit(limit).
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list round message ids: %w", err)
	}
	return ids, nil
}

// DeleteBatch deletes the given messages and returns how many rows went away.
func (r *MessageImpl) DeleteBatch(ctx context.Context, db bun.IDB, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db = r.resolveDB(db)
	result, err := db.NewDelete().
		Model((*RoundMessage)(nil)).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to delete round messages: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(rows), nil
}

// CountForRound counts messages belonging to a round.
func (r *MessageImpl) CountForRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*RoundMessage)(nil)).
		Where("round_id = ?", roundID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count round messages: %w", err)
	}
	return count, nil
}
