package roundservice

import (
	"context"

	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
)

// Service is the application-facing contract of the round module.
type Service interface {
	// LaunchOuting validates a launch request, creates one round per group
	// plus the parent outing, backfills cross-references, and dispatches
	// invites. Validation failures are terminal with zero side effects;
	// failures in backfill or notification are logged and swallowed once the
	// primary records exist.
	LaunchOuting(ctx context.Context, req roundtypes.LaunchRequest) (*roundtypes.LaunchResult, error)

	// ReconcileRounds runs the three reconciliation passes: stale sweep,
	// orphaned transfer resolution, abandoned purge. Each pass is isolated;
	// a failure in one never blocks the others. The returned report is
	// informational; the error is non-nil only for failures before any pass
	// starts.
	ReconcileRounds(ctx context.Context) (roundtypes.ReconcileReport, error)

	// ParseRoster parses an XLSX roster workbook into a roster and grouping
	// structure for caller review. It never writes to the store.
	ParseRoster(ctx context.Context, data []byte) (*RosterImport, error)
}
