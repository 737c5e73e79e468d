package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"retail_bank/internal/api"
	"retail_bank/internal/config"
	"retail_bank/internal/loader"
	"retail_bank/internal/processor"
	"retail_bank/internal/repository/memory"
	"retail_bank/internal/scheduler"
	"retail_bank/internal/service"
	"retail_bank/pkg/crypto"
	"retail_bank/pkg/metrics"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	appName = "bankd"
)

func main() {
	flags := config.Flags(appName)
	if err := flags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.SlogLevel())
	logger.Info("Starting application",
		slog.String("name", appName),
		slog.String("http_addr", cfg.HTTPAddr),
		slog.String("metrics_addr", cfg.MetricsAddr))

	if err := run(cfg, logger); err != nil {
		logger.Error("Application failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Application shutdown complete")
}

func setupLogger(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}

// newSigner returns nil for an empty secret, which turns signature checks off.
func newSigner(secret string, logger *slog.Logger) *crypto.Signer {
	if secret == "" {
		logger.Warn("SIGNING_SECRET is empty, request signatures will not be checked")
		return nil
	}
	return crypto.NewSigner(secret, logger)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metricsCollector := metrics.NewMetricsCollector(logger)
	signer := newSigner(cfg.SigningSecret, logger)

	notificationService := service.NewNotificationService(
		[]service.Sink{service.NewLogSink(logger)},
		cfg.NotifyWorkers,
		cfg.NotifyQueueSize,
		logger,
	)

	store := memory.NewAccountStore()
	accountProcessor := processor.NewAccountProcessor(
		store,
		store.Archive(),
		processor.WithPublisher(notificationService),
		processor.WithMetrics(metricsCollector),
		processor.WithLogger(logger),
	)

	if _, err := loader.Seed(ctx, accountProcessor, cfg.SeedAccountsFile, cfg.SeedActivitiesFile, logger); err != nil {
		return err
	}

	handler := api.NewAPIHandler(accountProcessor, metricsCollector, signer, logger).
		WithRequestTimeout(cfg.RequestTimeout)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	metricsServer := metricsCollector.MetricsServer(cfg.MetricsAddr)

	statementScheduler := scheduler.NewScheduler(accountProcessor, cfg.StatementSchedule, logger)
	if err := statementScheduler.Start(); err != nil {
		return fmt.Errorf("start statement scheduler: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("addr", httpServer.Addr))
		return listen(httpServer)
	})
	g.Go(func() error {
		logger.Info("Starting metrics server", slog.String("addr", metricsServer.Addr))
		return listen(metricsServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")
		return shutdown(logger, httpServer, metricsServer, statementScheduler, notificationService, metricsCollector)
	})

	return g.Wait()
}

func listen(server *http.Server) error {
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s: %w", server.Addr, err)
	}
	return nil
}

func shutdown(
	logger *slog.Logger,
	httpServer *http.Server,
	metricsServer *http.Server,
	statementScheduler *scheduler.Scheduler,
	notificationService *service.NotificationService,
	metricsCollector *metrics.MetricsCollector,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var errs []error
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	select {
	case <-statementScheduler.Stop().Done():
	case <-ctx.Done():
		logger.Error("Statement job still running at shutdown")
	}

	if err := notificationService.Shutdown(ctx); err != nil {
		logger.Error("Notification service shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if err := metricsCollector.Shutdown(ctx); err != nil {
		logger.Error("Metrics collector shutdown failed", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
