// Package app wires configuration, observability, storage, messaging, and
// the round module into one runnable service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round"
	"github.com/Back-Nine-Social-Club/fairway-bot/config"
	"github.com/Back-Nine-Social-Club/fairway-bot/db/bundb"
	"github.com/Back-Nine-Social-Club/fairway-bot/eventbus"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability/attr"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// App is the composed service.
type App struct {
	Config        *config.Config
	Observability *observability.Observability
	DBService     *bundb.DBService
	EventBus      eventbus.EventBus
	Router        *message.Router
	RoundModule   *round.Module

	httpServer *http.Server
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewApp initializes every subsystem. Nothing is running yet; call Run.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	obs, err := observability.Init(ctx, config.ToObsConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Provider.Logger

	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database service: %w", err)
	}

	bus, err := eventbus.New(ctx, eventbus.Config{
		URL:      cfg.NATS.URL,
		NKeySeed: cfg.NATS.NKeySeed,
		AppName:  "fairway-bot",
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	if err := eventbus.ProvisionStreams(ctx, bus); err != nil {
		return nil, fmt.Errorf("failed to provision streams: %w", err)
	}

	watermillLogger := watermill.NewSlogLogger(logger)
	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}
	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)

	helpers := utils.NewHelpers()

	roundModule, err := round.NewRoundModule(
		ctx,
		cfg,
		*obs,
		bus,
		router,
		helpers,
		ctx,
		dbService.GetDB(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize round module: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           roundModule.APIServer.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &App{
		Config:        cfg,
		Observability: obs,
		DBService:     dbService,
		EventBus:      bus,
		Router:        router,
		RoundModule:   roundModule,
		httpServer:    httpServer,
	}, nil
}

// Run starts the watermill router, the round module, and the HTTP server,
// then blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	logger := a.Observability.Provider.Logger

	ctx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Router.Run(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorContext(ctx, "Watermill router stopped", attr.Error(err))
		}
	}()

	// Wait for the router before the module publishes anything through it.
	select {
	case <-a.Router.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	a.wg.Add(1)
	go a.RoundModule.Run(ctx, &a.wg)

	if a.Config.Observability.MetricsAddress != "" {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.Observability.ServeMetrics(ctx, a.Config.Observability.MetricsAddress)
		}()
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		logger.InfoContext(ctx, "HTTP server listening", attr.String("address", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorContext(ctx, "HTTP server stopped", attr.Error(err))
		}
	}()

	<-ctx.Done()
	return nil
}

// Close shuts everything down in reverse dependency order.
func (a *App) Close() error {
	logger := a.Observability.Provider.Logger
	logger.Info("Shutting down application")

	if a.cancelFunc != nil {
		a.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error shutting down HTTP server", attr.Error(err))
		}
	}

	if a.RoundModule != nil {
		if err := a.RoundModule.Close(); err != nil {
			logger.Error("Error closing round module", attr.Error(err))
		}
	}

	if a.EventBus != nil {
		if err := a.EventBus.Close(); err != nil {
			logger.Error("Error closing event bus", attr.Error(err))
		}
	}

	if a.DBService != nil {
		if err := a.DBService.GetDB().Close(); err != nil {
			logger.Error("Error closing database connection", attr.Error(err))
		}
	}

	a.wg.Wait()

	if err := a.Observability.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down observability", attr.Error(err))
	}

	logger.Info("Application shut down gracefully")
	return nil
}
