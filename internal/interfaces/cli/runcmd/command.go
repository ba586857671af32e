// Package runcmd executes a single run profile from the command line.
package runcmd

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/junction-io/junction/internal/application/sync/services"
	"github.com/junction-io/junction/internal/application/sync/usecases"
	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/infrastructure/cache"
	"github.com/junction-io/junction/internal/infrastructure/config"
	"github.com/junction-io/junction/internal/infrastructure/connectors"
	"github.com/junction-io/junction/internal/infrastructure/database"
	"github.com/junction-io/junction/internal/infrastructure/repository"
	"github.com/junction-io/junction/internal/shared/biztime"
	"github.com/junction-io/junction/internal/shared/logger"
)

var env string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <profile>",
		Short: "Execute a run profile once",
		Long:  `Execute a run profile by name or SID: imports, syncs, or exports against its connected system, then prints the run report.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runOnce,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")

	return cmd
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Engine.BusinessTimezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}

	uc, profileRepo := buildEngine(cfg, redisClient, log)

	profile, err := resolveProfile(ctx, profileRepo, args[0])
	if err != nil {
		return err
	}

	initiator, err := audit.OperatorInitiator("cli", operatorName())
	if err != nil {
		return err
	}

	log.Infow("executing run profile", "profile", profile.Name(), "type", profile.RunType())

	result, err := uc.Execute(ctx, usecases.ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  initiator,
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	c := result.Counters
	fmt.Printf("\nRun %s finished: %s\n", result.ActivitySID, result.Status)
	fmt.Printf("  Added:        %d\n", c.Added)
	fmt.Printf("  Updated:      %d\n", c.Updated)
	fmt.Printf("  Deleted:      %d\n", c.Deleted)
	fmt.Printf("  Projected:    %d\n", c.Projected)
	fmt.Printf("  Joined:       %d\n", c.Joined)
	fmt.Printf("  Disconnected: %d\n", c.Disconnected)
	fmt.Printf("  Exported:     %d\n", c.Exported)
	fmt.Printf("  Provisioned:  %d\n", c.Provisioned)
	fmt.Printf("  Errors:       %d\n", c.Errors)
	return nil
}

// buildEngine wires the repositories, services and connector registry into
// the run orchestrator.
func buildEngine(cfg *config.Config, redisClient *redis.Client, log logger.Interface) (*usecases.ExecuteRunProfileUseCase, run.ProfileRepository) {
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

	lock := cache.NewRedisRunLock(redisClient, "run:lock:",
		time.Duration(cfg.Engine.RunLockTTLMinutes)*time.Minute)

	uc := usecases.NewExecuteRunProfileUseCase(
		profileRepo, activityRepo, outcomeRepo, systemRepo, csRepo,
		importer, exporter, lifecycle, registry, lock,
		cfg.Engine.DefaultPageSize, log,
	)
	return uc, profileRepo
}

// resolveProfile accepts either a profile SID or a profile name.
func resolveProfile(ctx context.Context, profiles run.ProfileRepository, ref string) (*run.Profile, error) {
	if profile, err := profiles.GetBySID(ctx, ref); err == nil {
		return profile, nil
	}

	all, err := profiles.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, profile := range all {
		if profile.Name() == ref {
			return profile, nil
		}
	}
	return nil, fmt.Errorf("run profile %q not found", ref)
}

func operatorName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
