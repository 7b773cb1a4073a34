package testutils

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// TruncateRoundTables resets every round-module table between tests so each
// test starts from a clean database without paying for a container restart.
func TruncateRoundTables(ctx context.Context, db *bun.DB) error {
	tables := []string{"round_messages", "rounds", "outings", "reconciler_runs"}
	for _, table := range tables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}
