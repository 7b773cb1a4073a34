package roundqueue

// ReconcileRoundsJob triggers one reconciliation run. It carries no
// arguments; the run reads everything it needs from the store.
type ReconcileRoundsJob struct{}

// Kind returns the job type identifier for River
func (ReconcileRoundsJob) Kind() string { return "round_reconcile" }

// JobInfo represents information about a scheduled job (for debugging/monitoring)
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
