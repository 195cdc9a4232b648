package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	redisstore "github.com/gofiber/storage/redis/v3"
	"github.com/spf13/cobra"

	"contentflow/internal/approval"
	"contentflow/internal/config"
	"contentflow/internal/email"
	"contentflow/internal/handlers"
	"contentflow/internal/jobs"
	"contentflow/internal/metrics"
	"contentflow/internal/notify"
	"contentflow/internal/server"
	"contentflow/internal/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server and the publish job",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	setupLogger(cfg)

	database, tenants, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	metrics.Init(database)

	sinks := []notify.Sink{
		notify.NewWebhookNotifier(database, cfg.WebhookSecret, cfg.WebhookTimeout),
	}
	if cfg.WebhookSecret == "" {
		slog.Warn("WEBHOOK_SECRET is not set; outgoing webhooks are unsigned")
	}

	if emailNotifier := email.NewNotifier(cfg, database); emailNotifier.Enabled() {
		sinks = append(sinks, emailNotifier)
		slog.Info("email notifications enabled", "host", cfg.SMTPHost)
	}

	// Redis backs sessions and the public rate limiter, and receives decision events.
	var storage fiber.Storage
	if cfg.IsRedisEnabled() {
		redisStorage := redisstore.New(redisstore.Config{URL: cfg.RedisURL})
		defer redisStorage.Close()
		storage = redisStorage
		sinks = append(sinks, notify.NewRedisNotifier(redisStorage.Conn(), cfg.RedisEventsChannel))
		slog.Info("redis enabled", "channel", cfg.RedisEventsChannel)
	}

	dispatcher := notify.NewDispatcher(cfg.NotifyQueueSize, cfg.NotifyWorkers, cfg.WebhookTimeout, sinks...)
	dispatcher.Start()

	svc := approval.NewService(database, token.New(), dispatcher, approval.Options{
		BaseURL:          cfg.BaseURL,
		LinkTTL:          cfg.ApprovalLinkTTL,
		TokenMaxAttempts: cfg.TokenMaxAttempts,
	})

	go jobs.NewPublisher(svc, jobs.LogChannel{}, cfg.PublishInterval).Start(ctx)

	var auth *handlers.AuthHandler
	if cfg.OIDCIssuer != "" {
		auth, err = handlers.NewAuthHandler(ctx, cfg, database, tenants)
		if err != nil {
			return fmt.Errorf("initializing OIDC: %w", err)
		}
	}

	srv := server.New(cfg, storage)
	srv.RegisterRoutes(svc, database, auth)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.ServerAddr)
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	slog.Info("shutting down")
	if err := srv.Shutdown(); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}

	// Give queued notifications a chance to go out.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		slog.Warn("notification queue not drained", "error", err)
	}

	slog.Info("server exited")
	return nil
}
