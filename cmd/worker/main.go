package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/junction-io/junction/internal/application/sync/services"
	"github.com/junction-io/junction/internal/application/sync/usecases"
	"github.com/junction-io/junction/internal/infrastructure/cache"
	"github.com/junction-io/junction/internal/infrastructure/config"
	"github.com/junction-io/junction/internal/infrastructure/connectors"
	"github.com/junction-io/junction/internal/infrastructure/database"
	"github.com/junction-io/junction/internal/infrastructure/migration"
	"github.com/junction-io/junction/internal/infrastructure/repository"
	"github.com/junction-io/junction/internal/infrastructure/scheduler"
	"github.com/junction-io/junction/internal/shared/biztime"
	"github.com/junction-io/junction/internal/shared/logger"
)

func main() {
	env := "development"
	if len(os.Args) > 1 {
		env = os.Args[1]
	}
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	log := logger.NewLogger()
	log.Infow("starting reconciliation worker", "environment", env)

	if err := biztime.Init(cfg.Engine.BusinessTimezone); err != nil {
		log.Fatalw("failed to initialize business timezone", "error", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		log.Fatalw("failed to initialize database", "error", err)
	}
	defer database.Close()

	if err := migration.NewManager(env).Migrate(database.Get()); err != nil {
		log.Fatalw("failed to run migrations", "error", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalw("failed to connect to redis", "error", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.GetAddr())

	db := database.Get()
	hubRepo := repository.NewHubObjectRepository(db, log)
	policyRepo := repository.NewTypePolicyRepository(db, log)
	systemRepo := repository.NewConnectedSystemRepository(db, log)
	csRepo := repository.NewCSObjectRepository(db, log)
	ruleRepo := repository.NewSyncRuleRepository(db, log)
	peRepo := repository.NewPendingExportRepository(db, log)
	profileRepo := repository.NewRunProfileRepository(db, log)
	activityRepo := repository.NewActivityRepository(db, log)
	outcomeRepo := repository.NewOutcomeRepository(db, log)
	changeRepo := repository.NewChangeRecordRepository(db, log)

	resolver := services.NewFlowResolver(log)
	joins := services.NewJoinEngine(hubRepo, log)
	lifecycle := services.NewDeletionLifecycle(hubRepo, policyRepo, csRepo, log)
	importer := services.NewImportProcessor(csRepo, hubRepo, ruleRepo, resolver, joins, lifecycle,
		changeRepo, cfg.Engine.VerboseAudit, log)
	exporter := services.NewExportReconciler(csRepo, peRepo, hubRepo, ruleRepo, resolver, lifecycle, log)

	registry := connectors.NewRegistry(systemRepo, log)
	registry.Register("csv-feed", connectors.NewCSVFeedFactory(cfg.Connectors.FeedDir, log))

	runLock := cache.NewRedisRunLock(redisClient, "run:lock:",
		time.Duration(cfg.Engine.RunLockTTLMinutes)*time.Minute)

	runUseCase := usecases.NewExecuteRunProfileUseCase(
		profileRepo, activityRepo, outcomeRepo, systemRepo, csRepo,
		importer, exporter, lifecycle, registry, runLock,
		cfg.Engine.DefaultPageSize, log,
	)

	manager, err := scheduler.NewSchedulerManager(log, cfg.Engine.WorkerCount)
	if err != nil {
		log.Fatalw("failed to create scheduler", "error", err)
	}

	sweepInterval := time.Duration(cfg.Engine.SweepIntervalMinutes) * time.Minute
	runTimeout := time.Duration(cfg.Engine.RunLockTTLMinutes) * time.Minute
	if err := manager.RegisterRunProfileJob(profileRepo, runUseCase, sweepInterval, runTimeout); err != nil {
		log.Fatalw("failed to register run profile job", "error", err)
	}

	manager.Start()
	log.Infow("reconciliation worker started", "sweep_interval", sweepInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Infow("received signal, shutting down", "signal", sig)

	if err := manager.Stop(); err != nil {
		log.Errorw("failed to stop scheduler", "error", err)
	}
	log.Infow("reconciliation worker stopped")
}
