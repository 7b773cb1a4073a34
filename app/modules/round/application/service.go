package roundservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability/attr"
	roundmetrics "github.com/Back-Nine-Social-Club/fairway-bot/observability/otel/metrics/round"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RoundService implements the Service interface.
type RoundService struct {
	roundRepo   rounddb.RoundRepository
	outingRepo  rounddb.OutingRepository
	messageRepo rounddb.MessageRepository
	runRepo     rounddb.ReconcilerRunRepository
	dispatcher  Dispatcher
	logger      *slog.Logger
	metrics     roundmetrics.RoundMetrics
	tracer      trace.Tracer
	db          *bun.DB
	clock       Clock
	lifecycle   LifecycleConfig
	teeTimes    *TeeTimeParser
}

// NewRoundService creates a new RoundService.
func NewRoundService(
	roundRepo rounddb.RoundRepository,
	outingRepo rounddb.OutingRepository,
	messageRepo rounddb.MessageRepository,
	runRepo rounddb.ReconcilerRunRepository,
	dispatcher Dispatcher,
	logger *slog.Logger,
	metrics roundmetrics.RoundMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	clock Clock,
	lifecycle LifecycleConfig,
	teeTimes *TeeTimeParser,
) *RoundService {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = NewRealClock()
	}
	if lifecycle.BatchSize <= 0 {
		lifecycle = DefaultLifecycleConfig()
	}
	if teeTimes == nil {
		teeTimes = NewTeeTimeParser(time.UTC)
	}
	return &RoundService{
		roundRepo:   roundRepo,
		outingRepo:  outingRepo,
		messageRepo: messageRepo,
		runRepo:     runRepo,
		dispatcher:  dispatcher,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		db:          db,
		clock:       clock,
		lifecycle:   lifecycle,
		teeTimes:    teeTimes,
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *RoundService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {

	// Start span
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	// Record attempt
	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	// Track duration
	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	// Log operation start
	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	// Panic recovery
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	// Execute operation
	result, err = op(ctx)

	// Handle Infrastructure Error
	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	// Handle Domain Failure
	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	// Handle Success
	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *RoundService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
