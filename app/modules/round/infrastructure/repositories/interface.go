package rounddb

import (
	"context"
	"time"

	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/uptrace/bun"
)

// RoundRepository is the persistence contract for rounds.
//
// Error semantics:
//   - ErrRoundNotFound: the round does not exist
//   - ErrStaleTransferState: ApplyMarkerTransfer lost the compare-and-swap
//   - Other errors: infrastructure failures
//
// Every method accepts an optional bun.IDB so callers can thread a
// transaction; a nil handle falls back to the repository's default
// connection.
type RoundRepository interface {
	Create(ctx context.Context, db bun.IDB, round *Round) error
	GetByID(ctx context.Context, db bun.IDB, id sharedtypes.RoundID) (*Round, error)
	UpdateOutingID(ctx context.Context, db bun.IDB, id sharedtypes.RoundID, outingID sharedtypes.OutingID) error
	ListStale(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]Round, error)
	AbandonBatch(ctx context.Context, db bun.IDB, ids []sharedtypes.RoundID, reason string, now time.Time) (int, error)
	ListWithPendingTransfer(ctx context.Context, db bun.IDB) ([]Round, error)
	ApplyMarkerTransfer(ctx context.Context, db bun.IDB, id sharedtypes.RoundID, players []roundtypes.Player, requestedAt time.Time) error
	ListPurgeable(ctx context.Context, db bun.IDB, olderThan time.Time, limit int) ([]Round, error)
	Delete(ctx context.Context, db bun.IDB, id sharedtypes.RoundID) error
}

// OutingRepository is the persistence contract for outings.
type OutingRepository interface {
	Create(ctx context.Context, db bun.IDB, outing *Outing) error
	GetByID(ctx context.Context, db bun.IDB, id sharedtypes.OutingID) (*Outing, error)
}

// MessageRepository is the persistence contract for round chat messages, the
// round's child record collection.
type MessageRepository interface {
	Create(ctx context.Context, db bun.IDB, msg *RoundMessage) error
	ListIDsBatch(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID, limit int) ([]int64, error)
	DeleteBatch(ctx context.Context, db bun.IDB, ids []int64) (int, error)
	CountForRound(ctx context.Context, db bun.IDB, roundID sharedtypes.RoundID) (int, error)
}

// ReconcilerRunRepository records one audit row per reconciler invocation.
type ReconcilerRunRepository interface {
	InsertRun(ctx context.Context, db bun.IDB, run *ReconcilerRun) error
	ListSince(ctx context.Context, db bun.IDB, since time.Time) ([]ReconcilerRun, error)
}
