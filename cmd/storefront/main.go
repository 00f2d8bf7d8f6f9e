package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront/internal/config"
	"github.com/joao-fontenele/storefront/internal/couponapi"
	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/events"
	"github.com/joao-fontenele/storefront/internal/kvstore"
	"github.com/joao-fontenele/storefront/internal/messaging"
	"github.com/joao-fontenele/storefront/internal/pricing"
	"github.com/joao-fontenele/storefront/internal/storefront"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := cfg.Logger()

	ctx := context.Background()
	info := telemetry.ServiceInfo{Name: cfg.OTel.ServiceName, Version: cfg.OTel.ServiceVersion}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, info, cfg.OTel.Endpoint, cfg.OTel.TracingEnabled)
	if err != nil {
		logger.Error("failed to init tracer provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(info)
	if err != nil {
		logger.Error("failed to init meter provider", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(context.Background()) }()

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		logger.Error("failed to create metrics", "error", err)
		os.Exit(1)
	}

	var store kvstore.Store
	if cfg.PostgresURL != "" {
		var db *sql.DB
		db, err = telemetry.OpenPostgres(ctx, cfg.PostgresURL, cfg.PostgresSchema)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		store = kvstore.NewPostgres(db)
	} else {
		logger.Warn("postgres_url not set, compare lists are kept in memory")
		store = kvstore.NewMemory()
	}

	bus := events.NewBus()
	bus.Subscribe(domain.CompareListUpdatedEvent, func(_ context.Context, e events.Event) {
		logger.Debug("compare list changed", "session_id", e.Scope, "event_id", e.ID)
	})

	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.CompareTopic,
			messaging.WithAsync(func(messages []kafka.Message, err error) {
				if err != nil {
					logger.Error("failed to deliver events", "error", err, "count", len(messages))
				}
			}),
		)
		defer func() { _ = producer.Close() }()

		bus.Subscribe(domain.CompareListUpdatedEvent, messaging.NewForwarder(producer, logger).Handle)
		logger.Info("forwarding compare events", "brokers", cfg.KafkaBrokers, "topic", cfg.CompareTopic)
	}

	pricingCfg, err := cfg.PricingConfig()
	if err != nil {
		logger.Error("invalid pricing config", "error", err)
		os.Exit(1)
	}

	// Leave the validator as a nil interface so the handler answers 503.
	var coupons storefront.CouponValidator
	if cfg.CouponAPIURL != "" {
		coupons = couponapi.NewClient(cfg.CouponAPIURL, &http.Client{
			Timeout:   5 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		})
	}

	handler := storefront.NewHandler(pricing.NewCalculator(pricingCfg), coupons, store, bus, metrics, logger)

	mux := http.NewServeMux()
	handler.Register(mux, telemetry.WithHTTPRoute)
	mux.Handle("GET /metrics", metricsHandler)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      otelhttp.NewHandler(mux, cfg.OTel.ServiceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
