package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/sumire/lostfound/internal/app"
	"github.com/sumire/lostfound/internal/config"
	"github.com/sumire/lostfound/internal/handler"
	"github.com/sumire/lostfound/internal/objectstore"
	"github.com/sumire/lostfound/internal/queue"
	"github.com/sumire/lostfound/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := app.OpenStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()

	notificationSvc := stores.NewNotificationService()

	// redelivery needs a worker that shares the store
	var retry service.RedeliveryQueue
	if stores.Shared() {
		asynqClient := asynq.NewClient(queue.RedisOpt(cfg))
		defer asynqClient.Close()
		retry = queue.NewClient(asynqClient)
	}

	var uploadSvc *service.UploadService
	if cfg.UploadsEnabled() {
		images, err := objectstore.New(cfg)
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
		if err := images.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket: %w", err)
		}
		uploadSvc = service.NewUploadService(images, cfg.MaxUploadBytes)
	} else {
		slog.Warn("S3_ENDPOINT not set; image uploads are disabled")
	}

	if cfg.DevAuthBypass {
		slog.Warn("DEV_AUTH_BYPASS is on; X-User-ID is trusted without a token")
	}

	e := handler.NewRouter(handler.Services{
		Auth:          app.NewAuthService(stores.Users, cfg),
		Reports:       stores.NewReportService(cfg),
		Claims:        service.NewClaimService(stores.Reports, stores.Claims, notificationSvc, retry),
		Notifications: notificationSvc,
		Uploads:       uploadSvc,
	}, handler.RouterConfig{
		FrontendURL:    cfg.FrontendURL,
		DevAuthBypass:  cfg.DevAuthBypass,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "port", cfg.Port, "store", cfg.StoreBackend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
