package roundrouter

import (
	"context"
	"log/slog"
	"os"

	roundhandlers "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/handlers"
	"github.com/Back-Nine-Social-Club/fairway-bot/eventbus"
	roundevents "github.com/Back-Nine-Social-Club/fairway-bot/events/round"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils"
	"github.com/Back-Nine-Social-Club/fairway-bot/utils/handlerwrapper"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TestEnvironmentFlag is the env var checked to suppress router metrics
	// in tests.
	TestEnvironmentFlag  = "APP_ENV"
	TestEnvironmentValue = "test"
)

// RoundRouter handles Watermill handler registration for round events.
type RoundRouter struct {
	logger         *slog.Logger
	router         *message.Router
	subscriber     eventbus.EventBus
	publisher      eventbus.EventBus
	helper         utils.Helpers
	tracer         trace.Tracer
	metricsBuilder *metrics.PrometheusMetricsBuilder
}

// NewRoundRouter creates a new RoundRouter. Router-level Prometheus metrics
// are attached only when a registry is provided and APP_ENV is not "test".
func NewRoundRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber eventbus.EventBus,
	publisher eventbus.EventBus,
	helper utils.Helpers,
	tracer trace.Tracer,
	prometheusRegistry *prometheus.Registry,
) *RoundRouter {
	var metricsBuilder *metrics.PrometheusMetricsBuilder
	if prometheusRegistry != nil && os.Getenv(TestEnvironmentFlag) != TestEnvironmentValue {
		builder := metrics.NewPrometheusMetricsBuilder(prometheusRegistry, "", "")
		metricsBuilder = &builder
	}

	return &RoundRouter{
		logger:         logger,
		router:         router,
		subscriber:     subscriber,
		publisher:      publisher,
		helper:         helper,
		tracer:         tracer,
		metricsBuilder: metricsBuilder,
	}
}

// Configure sets up the router with handlers.
func (r *RoundRouter) Configure(_ context.Context, handlers roundhandlers.Handlers) error {
	if r.metricsBuilder != nil {
		r.metricsBuilder.AddPrometheusRouterMetrics(r.router)
	}
	r.registerHandlers(handlers)
	return nil
}

// handlerDeps bundles dependencies for handler registration.
type handlerDeps struct {
	router     *message.Router
	subscriber eventbus.EventBus
	publisher  eventbus.EventBus
	logger     *slog.Logger
	tracer     trace.Tracer
	helper     utils.Helpers
}

// registerHandlers wires NATS topics to handler methods.
func (r *RoundRouter) registerHandlers(handlers roundhandlers.Handlers) {
	deps := handlerDeps{
		router:     r.router,
		subscriber: r.subscriber,
		publisher:  r.publisher,
		logger:     r.logger,
		tracer:     r.tracer,
		helper:     r.helper,
	}

	r.logger.Info("Registering round module handlers",
		slog.String("outing_launch_subject", roundevents.OutingLaunchRequestedV1),
	)

	registerHandler(deps, roundevents.OutingLaunchRequestedV1, handlers.HandleOutingLaunchRequested)

	r.logger.Info("Round module handlers registered successfully")
}

// registerHandler is a generic function for type-safe Watermill handler registration.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) {
	handlerName := "round." + topic

	deps.router.AddHandler(
		handlerName,
		topic,
		deps.subscriber,
		"",
		deps.publisher,
		handlerwrapper.WrapTransformingTyped(
			handlerName,
			deps.logger,
			deps.tracer,
			deps.helper,
			nil,
			handler,
		),
	)
}

// Close shuts down the router.
func (r *RoundRouter) Close() error {
	return r.router.Close()
}
