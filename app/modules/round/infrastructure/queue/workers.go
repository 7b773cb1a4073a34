package roundqueue

import (
	"context"
	"fmt"
	"log/slog"

	roundservice "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/application"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability/attr"
	"github.com/riverqueue/river"
)

// ReconcileWorker runs the reconciliation passes when a round_reconcile job
// fires.
type ReconcileWorker struct {
	river.WorkerDefaults[ReconcileRoundsJob]
	service roundservice.Service
	logger  *slog.Logger
}

// NewReconcileWorker creates a new ReconcileWorker.
func NewReconcileWorker(service roundservice.Service, logger *slog.Logger) *ReconcileWorker {
	return &ReconcileWorker{
		service: service,
		logger:  logger,
	}
}

// Work executes one reconciliation run. Pass failures are already isolated
// and counted inside the run; only a failure before any pass starts
// propagates to River for retry.
func (w *ReconcileWorker) Work(ctx context.Context, job *river.Job[ReconcileRoundsJob]) error {
	w.logger.InfoContext(ctx, "Reconciliation job starting",
		attr.Int64("job_id", job.ID),
		attr.Int("attempt", job.Attempt),
	)

	report, err := w.service.ReconcileRounds(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Reconciliation run failed", attr.Error(err))
		return fmt.Errorf("reconciliation run failed: %w", err)
	}

	w.logger.InfoContext(ctx, "Reconciliation job complete",
		attr.Int64("job_id", job.ID),
		attr.Int("swept", report.Swept),
		attr.Int("resolved", report.Resolved),
		attr.Int("purged", report.Purged),
		attr.Int("children_deleted", report.ChildrenGone),
		attr.Int("pass_errors", report.PassErrors),
		attr.Duration("duration", report.Duration),
	)
	return nil
}
