// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/junction-io/junction/internal/application/sync/usecases"
	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/shared/biztime"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// ProfileRunner executes one run profile end to end.
type ProfileRunner interface {
	Execute(ctx context.Context, cmd usecases.ExecuteRunProfileCommand) (*usecases.ExecuteRunProfileResult, error)
}

// SchedulerManager manages all scheduled jobs using gocron v2.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a new SchedulerManager instance.
// It initializes gocron with the business timezone for cron expressions.
// maxConcurrentJobs bounds how many jobs run at once; excess runs wait.
func NewSchedulerManager(log logger.Interface, maxConcurrentJobs int) (*SchedulerManager, error) {
	if maxConcurrentJobs <= 0 {
		maxConcurrentJobs = 1
	}
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
		gocron.WithLimitConcurrentJobs(uint(maxConcurrentJobs), gocron.LimitModeWait),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterRunProfileJob registers the periodic sweep that executes every
// enabled run profile in turn. The per-system run lock keeps an overlapping
// sweep from running the same system twice; a held lock is skipped quietly.
func (m *SchedulerManager) RegisterRunProfileJob(
	profiles run.ProfileRepository,
	runner ProfileRunner,
	interval time.Duration,
	runTimeout time.Duration,
) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
			defer cancel()
			m.executeProfiles(ctx, profiles, runner)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("runs"),
		gocron.WithName("run-profile-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered run profile job", "interval", interval)
	return nil
}

func (m *SchedulerManager) executeProfiles(ctx context.Context, profiles run.ProfileRepository, runner ProfileRunner) {
	enabled, err := profiles.ListEnabled(ctx)
	if err != nil {
		m.logger.Errorw("failed to list enabled run profiles", "error", err)
		return
	}

	for _, profile := range enabled {
		if ctx.Err() != nil {
			return
		}

		startTime := biztime.NowUTC()
		result, err := runner.Execute(ctx, usecases.ExecuteRunProfileCommand{
			ProfileSID: profile.SID(),
			Initiator:  audit.SchedulerInitiator(),
		})
		if err != nil {
			if errors.IsConflictError(err) {
				m.logger.Debugw("run profile already running, skipped",
					"profile", profile.Name())
				continue
			}
			m.logger.Errorw("run profile execution failed",
				"profile", profile.Name(),
				"error", err,
				"duration", time.Since(startTime),
			)
			continue
		}

		m.logger.Infow("run profile executed",
			"profile", profile.Name(),
			"activity_sid", result.ActivitySID,
			"status", result.Status,
			"duration", time.Since(startTime),
		)
	}
}

// Start begins executing registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop shuts the scheduler down and waits for running jobs.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted reports whether Start has been called.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns the registered jobs.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
