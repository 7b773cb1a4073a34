package round

import (
	"context"
	"fmt"
	"sync"
	"time"

	roundservice "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/application"
	roundapi "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/api"
	roundhandlers "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/handlers"
	"github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/notifications"
	roundqueue "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/queue"
	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	roundrouter "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/router"
	"github.com/Back-Nine-Social-Club/fairway-bot/config"
	"github.com/Back-Nine-Social-Club/fairway-bot/eventbus"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability"
	roundmetrics "github.com/Back-Nine-Social-Club/fairway-bot/observability/otel/metrics/round"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"
)

// Module represents the round module.
type Module struct {
	RoundService  roundservice.Service
	RoundRouter   *roundrouter.RoundRouter
	QueueService  roundqueue.QueueService
	APIServer     *roundapi.Server
	cancelFunc    context.CancelFunc
	observability observability.Observability
}

// NewRoundModule creates and initializes a new round module.
func NewRoundModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	eventBus eventbus.EventBus,
	router *message.Router,
	helpers utils.Helpers,
	routerCtx context.Context,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Provider.Logger
	tracer := obs.Registry.Tracer

	logger.InfoContext(ctx, "round.NewRoundModule initializing")

	// 1. Initialize Repositories
	roundRepo := rounddb.NewRoundRepository(db)
	outingRepo := rounddb.NewOutingRepository(db)
	messageRepo := rounddb.NewMessageRepository(db)
	runRepo := rounddb.NewReconcilerRunRepository(db)

	// 2. Initialize Metrics
	metrics, err := roundmetrics.NewRoundMetrics(obs.Registry.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create round metrics: %w", err)
	}

	// 3. Initialize Dispatcher
	dispatcher := notifications.NewEventBusDispatcher(eventBus, helpers, logger)

	// 4. Initialize Service
	lifecycle := roundservice.LifecycleConfig{
		StaleAfter:  cfg.RoundLifecycle.StaleAfter,
		OrphanGrace: cfg.RoundLifecycle.OrphanGrace,
		PurgeAfter:  cfg.RoundLifecycle.PurgeAfter,
		BatchSize:   cfg.RoundLifecycle.BatchSize,
	}
	service := roundservice.NewRoundService(
		roundRepo,
		outingRepo,
		messageRepo,
		runRepo,
		dispatcher,
		logger,
		metrics,
		tracer,
		db,
		roundservice.NewRealClock(),
		lifecycle,
		roundservice.NewTeeTimeParser(time.UTC),
	)

	// 5. Initialize Handlers
	handlers := roundhandlers.NewRoundHandlers(service, logger, tracer)

	// 6. Initialize Router
	roundRouter := roundrouter.NewRoundRouter(
		logger,
		router,
		eventBus,
		eventBus,
		helpers,
		tracer,
		obs.Registry.PromReg,
	)

	// 7. Configure the router with handlers
	if err := roundRouter.Configure(routerCtx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure round router: %w", err)
	}

	// 8. Initialize the reconciler queue service
	queueService, err := roundqueue.NewService(
		ctx,
		db,
		logger,
		cfg.Postgres.DSN,
		metrics,
		service,
		cfg.RoundLifecycle.ReconcileInterval,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create round queue service: %w", err)
	}

	// 9. Initialize the HTTP surface
	verifier := roundapi.NewTokenVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience)
	limiter := roundapi.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimitPerSecond), cfg.HTTP.RateLimitBurst)
	apiServer := roundapi.NewServer(service, verifier, limiter, logger, db, obs.Registry.PromReg)

	return &Module{
		RoundService:  service,
		RoundRouter:   roundRouter,
		QueueService:  queueService,
		APIServer:     apiServer,
		observability: obs,
	}, nil
}

// Run starts the round module.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.observability.Provider.Logger
	logger.InfoContext(ctx, "Starting round module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if err := m.QueueService.Start(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to start round queue service", "error", err)
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Round module goroutine stopped")
}

// Close shuts down the round module.
func (m *Module) Close() error {
	logger := m.observability.Provider.Logger
	logger.Info("Stopping round module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if m.QueueService != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.QueueService.Stop(stopCtx); err != nil {
			logger.Error("Error stopping round queue service", "error", err)
		}
	}

	if m.RoundRouter != nil {
		if err := m.RoundRouter.Close(); err != nil {
			logger.Error("Error closing RoundRouter from module", "error", err)
			return fmt.Errorf("error closing RoundRouter: %w", err)
		}
	}

	logger.Info("Round module stopped")
	return nil
}
