// Package roundmetrics defines the metrics surface for the round module.
package roundmetrics

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// RoundMetrics records operational and domain metrics for the round module.
type RoundMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)

	RecordRoundsLaunched(ctx context.Context, count int)
	RecordInviteDispatched(ctx context.Context)
	RecordRoundsSwept(ctx context.Context, count int)
	RecordTransferAutoApproved(ctx context.Context)
	RecordRoundsPurged(ctx context.Context, count int)
	RecordChildRecordsDeleted(ctx context.Context, count int)
	RecordReconcilerPassError(ctx context.Context, pass string)
}

type otelMetrics struct {
	opAttempts   metric.Int64Counter
	opSuccesses  metric.Int64Counter
	opFailures   metric.Int64Counter
	opDuration   metric.Float64Histogram
	launched     metric.Int64Counter
	invites      metric.Int64Counter
	swept        metric.Int64Counter
	autoApproved metric.Int64Counter
	purged       metric.Int64Counter
	childDeletes metric.Int64Counter
	passErrors   metric.Int64Counter
}

// NewRoundMetrics builds the otel-backed implementation on the given meter.
func NewRoundMetrics(meter metric.Meter) (RoundMetrics, error) {
	m := &otelMetrics{}
	var err error
	if m.opAttempts, err = meter.Int64Counter("round_operation_attempts_total"); err != nil {
		return nil, fmt.Errorf("failed to create operation attempts counter: %w", err)
	}
	if m.opSuccesses, err = meter.Int64Counter("round_operation_successes_total"); err != nil {
		return nil, fmt.Errorf("failed to create operation successes counter: %w", err)
	}
	if m.opFailures, err = meter.Int64Counter("round_operation_failures_total"); err != nil {
		return nil, fmt.Errorf("failed to create operation failures counter: %w", err)
	}
	if m.opDuration, err = meter.Float64Histogram("round_operation_duration_seconds"); err != nil {
		return nil, fmt.Errorf("failed to create operation duration histogram: %w", err)
	}
	if m.launched, err = meter.Int64Counter("rounds_launched_total"); err != nil {
		return nil, fmt.Errorf("failed to create rounds launched counter: %w", err)
	}
	if m.invites, err = meter.Int64Counter("round_invites_dispatched_total"); err != nil {
		return nil, fmt.Errorf("failed to create invites counter: %w", err)
	}
	if m.swept, err = meter.Int64Counter("rounds_swept_total"); err != nil {
		return nil, fmt.Errorf("failed to create swept counter: %w", err)
	}
	if m.autoApproved, err = meter.Int64Counter("round_transfers_auto_approved_total"); err != nil {
		return nil, fmt.Errorf("failed to create auto approved counter: %w", err)
	}
	if m.purged, err = meter.Int64Counter("rounds_purged_total"); err != nil {
		return nil, fmt.Errorf("failed to create purged counter: %w", err)
	}
	if m.childDeletes, err = meter.Int64Counter("round_child_records_deleted_total"); err != nil {
		return nil, fmt.Errorf("failed to create child deletes counter: %w", err)
	}
	if m.passErrors, err = meter.Int64Counter("reconciler_pass_errors_total"); err != nil {
		return nil, fmt.Errorf("failed to create pass errors counter: %w", err)
	}
	return m, nil
}

func opAttrs(operation, service string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("service", service),
	)
}

func (m *otelMetrics) RecordOperationAttempt(ctx context.Context, operation, service string) {
	m.opAttempts.Add(ctx, 1, opAttrs(operation, service))
}

func (m *otelMetrics) RecordOperationSuccess(ctx context.Context, operation, service string) {
	m.opSuccesses.Add(ctx, 1, opAttrs(operation, service))
}

func (m *otelMetrics) RecordOperationFailure(ctx context.Context, operation, service string) {
	m.opFailures.Add(ctx, 1, opAttrs(operation, service))
}

func (m *otelMetrics) RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration) {
	m.opDuration.Record(ctx, duration.Seconds(), opAttrs(operation, service))
}

func (m *otelMetrics) RecordRoundsLaunched(ctx context.Context, count int) {
	m.launched.Add(ctx, int64(count))
}

func (m *otelMetrics) RecordInviteDispatched(ctx context.Context) {
	m.invites.Add(ctx, 1)
}

func (m *otelMetrics) RecordRoundsSwept(ctx context.Context, count int) {
	m.swept.Add(ctx, int64(count))
}

func (m *otelMetrics) RecordTransferAutoApproved(ctx context.Context) {
	m.autoApproved.Add(ctx, 1)
}

func (m *otelMetrics) RecordRoundsPurged(ctx context.Context, count int) {
	m.purged.Add(ctx, int64(count))
}

func (m *otelMetrics) RecordChildRecordsDeleted(ctx context.Context, count int) {
	m.childDeletes.Add(ctx, int64(count))
}

func (m *otelMetrics) RecordReconcilerPassError(ctx context.Context, pass string) {
	m.passErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("pass", pass)))
}
