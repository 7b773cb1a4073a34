package rounddb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/uptrace/bun"
)

// OutingImpl implements OutingRepository using bun.
type OutingImpl struct {
	db bun.IDB
}

// NewOutingRepository creates a new outing repository.
func NewOutingRepository(db bun.IDB) OutingRepository {
	return &OutingImpl{db: db}
}

func (r *OutingImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Create inserts a new outing.
func (r *OutingImpl) Create(ctx context.Context, db bun.IDB, outing *Outing) error {
	db = r.resolveDB(db)
	if _, err := db.NewInsert().Model(outing).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create outing: %w", err)
	}
	return nil
}

// GetByID retrieves an outing by id.
func (r *OutingImpl) GetByID(ctx context.Context, db bun.IDB, id sharedtypes.OutingID) (*Outing, error) {
	db = r.resolveDB(db)
	outing := new(Outing)
	err := db.NewSelect().
		Model(outing).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOutingNotFound
		}
		return nil, fmt.Errorf("failed to get outing by id: %w", err)
	}
	return outing, nil
}
