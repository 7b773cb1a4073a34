package migrations

import (
	"context"
	"fmt"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Creating round module tables...")

			models := []any{
				(*rounddb.Round)(nil),
				(*rounddb.Outing)(nil),
				(*rounddb.RoundMessage)(nil),
				(*rounddb.ReconcilerRun)(nil),
			}
			for _, model := range models {
				if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
					return fmt.Errorf("failed to create table for %T: %w", model, err)
				}
			}

			// The reconciler passes query on status + timestamp; keep those
			// scans off a sequential read.
			indexes := []string{
				`CREATE INDEX IF NOT EXISTS idx_rounds_status_started_at ON rounds (status, started_at)`,
				`CREATE INDEX IF NOT EXISTS idx_rounds_status_abandoned_at ON rounds (status, abandoned_at)`,
				`CREATE INDEX IF NOT EXISTS idx_rounds_pending_transfer ON rounds ((marker_transfer_request ->> 'status')) WHERE marker_transfer_request IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_round_messages_round_id ON round_messages (round_id)`,
				`CREATE INDEX IF NOT EXISTS idx_reconciler_runs_ran_at ON reconciler_runs (ran_at)`,
			}
			for _, idx := range indexes {
				if _, err := db.ExecContext(ctx, idx); err != nil {
					return fmt.Errorf("failed to create index: %w", err)
				}
			}

			fmt.Println("Round module tables created successfully!")
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Dropping round module tables...")

			models := []any{
				(*rounddb.ReconcilerRun)(nil),
				(*rounddb.RoundMessage)(nil),
				(*rounddb.Outing)(nil),
				(*rounddb.Round)(nil),
			}
			for _, model := range models {
				if _, err := db.NewDropTable().Model(model).IfExists().Cascade().Exec(ctx); err != nil {
					return fmt.Errorf("failed to drop table for %T: %w", model, err)
				}
			}

			fmt.Println("Round module tables dropped successfully!")
			return nil
		},
	)
}
