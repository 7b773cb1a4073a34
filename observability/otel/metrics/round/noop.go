package roundmetrics

import (
	"context"
	"time"
)

// NoOp is the do-nothing RoundMetrics used in tests and minimal deployments.
type NoOp struct{}

// NewNoop returns a RoundMetrics that records nothing.
func NewNoop() RoundMetrics {
	return NoOp{}
}

func (NoOp) RecordOperationAttempt(context.Context, string, string) {}

func (NoOp) RecordOperationSuccess(context.Context, string, string) {}

func (NoOp) RecordOperationFailure(context.Context, string, string) {}

func (NoOp) RecordOperationDuration(context.Context, string, string, time.Duration) {}

func (NoOp) RecordRoundsLaunched(context.Context, int) {}

func (NoOp) RecordInviteDispatched(context.Context) {}

func (NoOp) RecordRoundsSwept(context.Context, int) {}

func (NoOp) RecordTransferAutoApproved(context.Context) {}

func (NoOp) RecordRoundsPurged(context.Context, int) {}

func (NoOp) RecordChildRecordsDeleted(context.Context, int) {}

func (NoOp) RecordReconcilerPassError(context.Context, string) {}
