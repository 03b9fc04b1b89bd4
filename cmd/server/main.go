package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"videorelay/internal/config"
	"videorelay/internal/observability"
	"videorelay/internal/server"
	"videorelay/internal/service"
	"videorelay/internal/storage"
	"videorelay/internal/worker"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := observability.InitLogger(cfg.IsDev())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitTracerProvider(ctx, logger)
	if err != nil {
		logger.Fatal("tracing init failed", zap.Error(err))
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal("metrics init failed", zap.Error(err))
	}
	observability.StartMetricsServer(cfg.MetricsPort, logger)

	store, err := storage.NewS3Store(ctx, storage.S3StoreConfig{
		Bucket:          cfg.Bucket,
		Region:          cfg.Region,
		Endpoint:        cfg.Endpoint,
		Prefix:          cfg.UploadPrefix,
		PublicBaseURL:   cfg.PublicBaseURL,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		UploadTimeout:   cfg.UploadTimeout,
	}, logger)
	if err != nil {
		logger.Fatal("remote store init failed", zap.Error(err))
	}

	grants := worker.NewGrantWorker(&worker.GrantWorkerConfig{
		Store:    store,
		Logger:   logger,
		Failures: metrics.GrantFailures,
	})
	grants.Start(ctx)

	relay := service.NewRelay(store, grants, logger,
		service.WithMaxConcurrentUploads(cfg.MaxConcurrentUploads))

	srv := server.New(cfg, relay, metrics, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()
	logger.Info("video relay listening",
		zap.String("port", cfg.Port),
		zap.String("bucket", cfg.Bucket),
		zap.String("prefix", cfg.UploadPrefix),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	grants.Stop()
	observability.ShutdownTracerProvider(shutdownCtx, tp, logger)
}
