package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/pratik-mahalle/creatorhub/internal/api/handlers"
	"github.com/pratik-mahalle/creatorhub/internal/api/router"
	"github.com/pratik-mahalle/creatorhub/internal/billing"
	"github.com/pratik-mahalle/creatorhub/internal/config"
	"github.com/pratik-mahalle/creatorhub/internal/domain/subscription"
	"github.com/pratik-mahalle/creatorhub/internal/domain/user"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/logger"
	"github.com/pratik-mahalle/creatorhub/internal/pkg/validator"
	"github.com/pratik-mahalle/creatorhub/internal/queue"
	"github.com/pratik-mahalle/creatorhub/internal/repository/postgres"
	"github.com/pratik-mahalle/creatorhub/internal/services"
	"github.com/pratik-mahalle/creatorhub/internal/storage"
	"github.com/pratik-mahalle/creatorhub/internal/worker"
	"github.com/pratik-mahalle/creatorhub/migrations"
)

// @title CreatorHub API
// @version 1.0
// @description Creator content workspace with trial snapshots and restore
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.ErrorWithErr(err, "Server exited with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	db, err := postgres.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := postgres.RunMigrations(db, migrations.GetFS())
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"driver":  cfg.Database.Driver,
		"applied": applied,
	}).Info("Database ready")

	repos := postgres.NewManager(db)

	archiver, err := storage.NewArchiver(ctx, cfg.Archive)
	if err != nil {
		return fmt.Errorf("failed to create snapshot archiver: %w", err)
	}

	// Billing stays disabled until a Stripe key is configured
	var billingClient subscription.BillingClient
	var eventParser subscription.EventParser
	if cfg.Billing.StripeSecretKey != "" {
		stripeClient := billing.NewStripeClient(cfg.Billing, nil)
		billingClient = stripeClient
		eventParser = stripeClient
	} else {
		log.Warn("STRIPE_SECRET_KEY not set, checkout and webhooks are disabled")
	}

	userService := services.NewUserService(repos.Users(), cfg.Auth.BCryptCost, log)
	contentService := services.NewContentService(repos.Content(), repos.Users(), log)
	snapshotService := services.NewSnapshotService(repos.Snapshots())
	backup := services.NewBackupManager(repos, log)
	restore := services.NewRestoreEngine(repos, archiver, log)
	controller := services.NewSubscriptionController(
		repos.Users(), backup, restore, billingClient, cfg.Billing.TrialDays, log,
	)

	var rdb redis.UniversalClient
	var dispatcher queue.Dispatcher = queue.NewInline(controller)
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
	}
	if cfg.Queue.Enabled {
		redisOpt := asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}

		client := queue.NewClient(redisOpt, cfg.Queue.MaxRetry)
		defer client.Close()
		dispatcher = client

		srv := queue.NewServer(redisOpt, cfg.Queue.Concurrency, queue.NewHandler(controller, log), log)
		if err := srv.Start(); err != nil {
			return fmt.Errorf("failed to start billing event worker: %w", err)
		}
		defer srv.Shutdown()
	}

	if cfg.Worker.TrialSweeperEnabled {
		sweeper := worker.NewTrialSweeper(controller, cfg.Worker.TrialSweeperSpec, log)
		go func() {
			if err := sweeper.Start(ctx); err != nil {
				log.ErrorWithErr(err, "Trial sweeper stopped")
			}
		}()
	}

	val := validator.New(validator.WithRule("tier", func(s string) bool {
		t, ok := user.ParseTier(s)
		return ok && t.IsPaid()
	}))

	h := &router.Handlers{
		Health: handlers.NewHealthHandler(db, rdb, log),
		Auth:   handlers.NewAuthHandler(userService, cfg, log, val),
		Billing: handlers.NewBillingHandler(
			userService, controller, billingClient, eventParser, dispatcher,
			snapshotService, cfg.Billing.TrialDays, log, val,
		),
		Content:  handlers.NewContentHandler(contentService, log, val),
		Snapshot: handlers.NewSnapshotHandler(snapshotService, restore, userService, log),
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        server.Addr,
			"environment": cfg.Server.Environment,
			"queue":       cfg.Queue.Enabled,
		}).Info("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
