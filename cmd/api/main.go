package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/zatekoja/medlab/internal/api/handlers"
	"github.com/zatekoja/medlab/internal/api/routes"
	"github.com/zatekoja/medlab/internal/app"
	"github.com/zatekoja/medlab/internal/infrastructure/observability"
	"github.com/zatekoja/medlab/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.App.Env)

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Prometheus scrape endpoint shares the meter provider with OTLP
	var readers []sdkmetric.Reader
	var metricsHandler http.Handler
	if cfg.OTEL.MetricsEnabled {
		reader, handler, err := observability.PrometheusReader()
		if err != nil {
			log.Warn().Err(err).Msg("prometheus exporter disabled")
		} else {
			readers = append(readers, reader)
			metricsHandler = handler
		}
	}

	var shutdown func(context.Context) error
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err = observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint, readers...)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}
	if shutdown == nil && len(readers) > 0 {
		shutdown, err = observability.SetupMeterProvider(nil, readers...)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up meter provider")
			metricsHandler = nil
		}
	}
	if shutdown != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				log.Error().Err(err).Msg("error shutting down telemetry")
			}
		}()
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	lab, err := app.New(ctx, cfg, metrics)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("failed to open store")
	}
	defer func() {
		if err := lab.Close(); err != nil {
			log.Error().Err(err).Msg("error closing store")
		}
	}()
	lab.StartBackground(ctx, 5*time.Minute)

	// Initialize handlers
	loc := time.Local
	router := routes.NewRouter(routes.Handlers{
		Health:   handlers.NewHealthHandler(lab.Store),
		Hospital: handlers.NewHospitalHandler(lab.Hospital),
		Tests:    handlers.NewTestHandler(lab.Catalog),
		Results:  handlers.NewResultHandler(lab.Encounters, loc),
		Reports:  handlers.NewReportHandler(lab.Reports, loc),
		Transfer: handlers.NewTransferHandler(lab.Transfer),
	}, metricsHandler, metrics, cfg.Server.AllowedOrigins)

	// Create HTTP server
	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", serverAddr).Str("store", cfg.Store.Driver).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
	}

	log.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}
