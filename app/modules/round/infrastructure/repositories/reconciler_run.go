package rounddb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// ReconcilerRunImpl implements ReconcilerRunRepository using bun.
type ReconcilerRunImpl struct {
	db bun.IDB
}

// NewReconcilerRunRepository creates a new reconciler run repository.
func NewReconcilerRunRepository(db bun.IDB) ReconcilerRunRepository {
	return &ReconcilerRunImpl{db: db}
}

func (r *ReconcilerRunImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// InsertRun records one reconciler run audit row.
func (r *ReconcilerRunImpl) InsertRun(ctx context.Context, db bun.IDB, run *ReconcilerRun) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(run).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert reconciler run: %w", err)
	}
	return nil
}

// ListSince returns runs recorded at or after since, oldest first.
func (r *ReconcilerRunImpl) ListSince(ctx context.Context, db bun.IDB, since time.Time) ([]ReconcilerRun, error) {
	db = r.resolveDB(db)
	var runs []ReconcilerRun
	err := db.NewSelect().
		Model(&runs).
		Where("ran_at >= ?", since).
		Order("ran_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciler runs: %w", err)
	}
	return runs, nil
}
