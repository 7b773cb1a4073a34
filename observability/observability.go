// Package observability wires the logging, tracing, and metrics providers
// shared by every module in the service.
package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tnoop "go.opentelemetry.io/otel/trace/noop"
)

// Config holds observability settings.
type Config struct {
	ServiceName     string
	Environment     string
	Version         string
	MetricsAddress  string
	TempoEndpoint   string
	TempoInsecure   bool
	TempoSampleRate float64
}

// Provider bundles the process-wide observability handles.
type Provider struct {
	Logger *slog.Logger
}

// Registry bundles the per-module instrumentation handles.
type Registry struct {
	Tracer   trace.Tracer
	Meter    metric.Meter
	PromReg  *prometheus.Registry
	shutdown func(context.Context) error
}

// Observability is the top-level handle passed to module constructors.
type Observability struct {
	Provider Provider
	Registry Registry
}

// Init builds the observability stack: a JSON slog logger, an OTLP trace
// exporter when a Tempo endpoint is configured (noop otherwise), and an SDK
// meter provider exporting through the Prometheus registry served on the
// configured metrics address.
func Init(ctx context.Context, cfg Config) (*Observability, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With(slog.String("service", cfg.ServiceName), slog.String("env", cfg.Environment))

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.Version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build otel resource: %w", err)
	}

	tracer := tnoop.NewTracerProvider().Tracer(cfg.ServiceName)
	traceShutdown := func(context.Context) error { return nil }

	if cfg.TempoEndpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.TempoEndpoint)}
		if cfg.TempoInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
		}

		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.TempoSampleRate)),
		)
		otel.SetTracerProvider(tp)
		tracer = tp.Tracer(cfg.ServiceName)
		traceShutdown = tp.Shutdown
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Domain counters flow through the otel meter into the same Prometheus
	// registry the scrape endpoint serves.
	promExporter, err := otelprom.New(otelprom.WithRegisterer(promReg))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus metric exporter: %w", err)
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	shutdown := func(ctx context.Context) error {
		return errors.Join(traceShutdown(ctx), mp.Shutdown(ctx))
	}

	return &Observability{
		Provider: Provider{Logger: logger},
		Registry: Registry{
			Tracer:   tracer,
			Meter:    mp.Meter(cfg.ServiceName),
			PromReg:  promReg,
			shutdown: shutdown,
		},
	}, nil
}

// ServeMetrics starts the Prometheus scrape endpoint. It returns immediately;
// the server runs until ctx is cancelled.
func (o *Observability) ServeMetrics(ctx context.Context, address string) {
	if address == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(o.Registry.PromReg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: address, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			o.Provider.Logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}

// Shutdown flushes the trace exporter and meter provider.
func (o *Observability) Shutdown(ctx context.Context) error {
	if o.Registry.shutdown == nil {
		return nil
	}
	return o.Registry.shutdown(ctx)
}
