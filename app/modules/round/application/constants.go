package roundservice

import "time"

// LifecycleConfig carries the reconciliation thresholds. Thresholds are
// injected rather than package constants so every boundary is testable.
type LifecycleConfig struct {
	// StaleAfter is how long a live round may sit untouched before the
	// sweeper abandons it.
	StaleAfter time.Duration
	// OrphanGrace is how far past its expiry a pending transfer request must
	// be before the reconciler resolves it. The grace window gives the
	// client-driven resolution flow first chance to settle.
	OrphanGrace time.Duration
	// PurgeAfter is how long an abandoned round is retained before the
	// purger deletes it and its child records.
	PurgeAfter time.Duration
	// BatchSize caps every batched write and child-deletion batch.
	BatchSize int
}

// DefaultLifecycleConfig returns the production thresholds.
func DefaultLifecycleConfig() LifecycleConfig {
	return LifecycleConfig{
		StaleAfter:  12 * time.Hour,
		OrphanGrace: 10 * time.Minute,
		PurgeAfter:  24 * time.Hour,
		BatchSize:   500,
	}
}

// Reconciler pass names, used in logs, metrics, and the audit row.
const (
	PassStaleSweep      = "stale_sweep"
	PassTransferResolve = "transfer_resolve"
	PassAbandonedPurge  = "abandoned_purge"
)

const serviceName = "RoundService"
