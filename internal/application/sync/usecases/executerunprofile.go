// Package usecases holds the engine's application entry points.
package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/junction-io/junction/internal/application/sync/services"
	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/shared/biztime"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// RunLock serializes runs against one connected system. Acquire hands back
// an opaque token that must be presented to Release, so a lock that expired
// and was re-acquired elsewhere cannot be released by the stale holder.
type RunLock interface {
	Acquire(ctx context.Context, key string) (token string, acquired bool, err error)
	Release(ctx context.Context, key, token string) error
}

// ConnectorRegistry resolves the connector endpoints for a connected system.
type ConnectorRegistry interface {
	ImporterFor(systemSID string) (connector.Importer, error)
	ExporterFor(systemSID string) (connector.Exporter, error)
}

// ExecuteRunProfileCommand starts one run.
type ExecuteRunProfileCommand struct {
	ProfileSID string
	Initiator  audit.Initiator
}

// ExecuteRunProfileResult reports the finished run.
type ExecuteRunProfileResult struct {
	ActivitySID string
	Status      run.Status
	Counters    run.Counters
}

// ExecuteRunProfileUseCase drives one run profile end to end: page by page
// through the connector or the object store, accumulating counters as each
// page lands so a cancellation or crash never loses finished work.
type ExecuteRunProfileUseCase struct {
	profileRepo  run.ProfileRepository
	activityRepo run.ActivityRepository
	outcomeRepo  run.OutcomeRepository
	systemRepo   connector.ConnectedSystemRepository
	csRepo       connector.CSObjectRepository
	importer     *services.ImportProcessor
	exporter     *services.ExportReconciler
	lifecycle    *services.DeletionLifecycle
	connectors   ConnectorRegistry
	lock         RunLock
	pageSize     int
	logger       logger.Interface
}

// NewExecuteRunProfileUseCase wires the orchestrator.
func NewExecuteRunProfileUseCase(
	profileRepo run.ProfileRepository,
	activityRepo run.ActivityRepository,
	outcomeRepo run.OutcomeRepository,
	systemRepo connector.ConnectedSystemRepository,
	csRepo connector.CSObjectRepository,
	importer *services.ImportProcessor,
	exporter *services.ExportReconciler,
	lifecycle *services.DeletionLifecycle,
	connectors ConnectorRegistry,
	lock RunLock,
	defaultPageSize int,
	log logger.Interface,
) *ExecuteRunProfileUseCase {
	if defaultPageSize <= 0 {
		defaultPageSize = 100
	}
	return &ExecuteRunProfileUseCase{
		profileRepo:  profileRepo,
		activityRepo: activityRepo,
		outcomeRepo:  outcomeRepo,
		systemRepo:   systemRepo,
		csRepo:       csRepo,
		importer:     importer,
		exporter:     exporter,
		lifecycle:    lifecycle,
		connectors:   connectors,
		lock:         lock,
		pageSize:     defaultPageSize,
		logger:       log,
	}
}

// Execute runs the profile. Cancellation via ctx is honored at page
// boundaries: the page in flight finishes, the run closes as canceled and
// everything already counted stays counted.
func (uc *ExecuteRunProfileUseCase) Execute(ctx context.Context, cmd ExecuteRunProfileCommand) (*ExecuteRunProfileResult, error) {
	profile, err := uc.profileRepo.GetBySID(ctx, cmd.ProfileSID)
	if err != nil {
		return nil, err
	}
	if !profile.Enabled() {
		return nil, errors.NewValidationError("run profile is disabled")
	}

	token, acquired, err := uc.lock.Acquire(ctx, profile.SystemSID())
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, errors.NewConflictError("another run is active for this system")
	}
	defer func() {
		if err := uc.lock.Release(context.WithoutCancel(ctx), profile.SystemSID(), token); err != nil {
			uc.logger.Warnw("run lock release failed", "system_sid", profile.SystemSID(), "error", err)
		}
	}()

	activity, err := run.StartActivity(profile.SID(), profile.RunType(), cmd.Initiator)
	if err != nil {
		return nil, err
	}
	if err := uc.activityRepo.Create(ctx, activity); err != nil {
		return nil, err
	}
	uc.logger.Infow("run started",
		"activity_sid", activity.SID(), "profile", profile.Name(),
		"run_type", profile.RunType(), "initiator", cmd.Initiator.String())

	runStart := biztime.NowUTC()
	runErr := uc.runPages(ctx, profile, activity)

	// Closing the activity must survive the caller's cancellation.
	finishCtx := context.WithoutCancel(ctx)
	switch {
	case runErr != nil:
		if failErr := activity.Fail(runErr.Error()); failErr != nil {
			uc.logger.Errorw("closing failed run", "error", failErr)
		}
	case ctx.Err() != nil:
		if cancelErr := activity.Cancel(); cancelErr != nil {
			uc.logger.Errorw("closing canceled run", "error", cancelErr)
		}
	default:
		if err := activity.Complete(); err != nil {
			return nil, err
		}
		if profile.IsDelta() {
			profile.AdvanceWatermark(runStart)
			if err := uc.profileRepo.Update(finishCtx, profile); err != nil {
				return nil, err
			}
		}
	}
	if err := uc.activityRepo.Update(finishCtx, activity); err != nil {
		return nil, err
	}
	uc.logger.Infow("run finished",
		"activity_sid", activity.SID(), "status", activity.Status(),
		"counters", activity.Counters())

	return &ExecuteRunProfileResult{
		ActivitySID: activity.SID(),
		Status:      activity.Status(),
		Counters:    activity.Counters(),
	}, nil
}

func (uc *ExecuteRunProfileUseCase) runPages(ctx context.Context, profile *run.Profile, activity *run.Activity) error {
	switch profile.RunType() {
	case run.TypeFullImport, run.TypeDeltaImport:
		return uc.runImport(ctx, profile, activity)
	case run.TypeFullSync, run.TypeDeltaSync:
		return uc.runSync(ctx, profile, activity)
	case run.TypeExport:
		return uc.runExport(ctx, profile, activity)
	default:
		return fmt.Errorf("unsupported run type %q", profile.RunType())
	}
}

// runImport pulls snapshot pages from the connector, absorbs them and runs
// every landed object through the inbound rules, so joins, projections and
// attribute flows happen in the same run that imported the data.
func (uc *ExecuteRunProfileUseCase) runImport(ctx context.Context, profile *run.Profile, activity *run.Activity) error {
	imp, err := uc.connectors.ImporterFor(profile.SystemSID())
	if err != nil {
		return err
	}
	pageSize := profile.PageSize(uc.pageSize)

	var cursor []byte
	for {
		if ctx.Err() != nil {
			return nil
		}
		snapshots, next, err := imp.ReadPage(ctx, cursor, pageSize)
		if err != nil {
			return errors.NewConnectorError("read page", err)
		}
		if len(snapshots) == 0 && next == nil {
			return nil
		}

		counters := run.Counters{}
		var outcomes []run.OutcomeItem
		for _, snap := range snapshots {
			if !partitionMatches(profile.PartitionFilter(), snap.Partition) {
				continue
			}
			obj, kind, err := uc.importer.AbsorbSnapshot(ctx, profile.SystemSID(), snap)
			if err != nil {
				if !profile.ContinueOnFailure() {
					return err
				}
				counters.Errors++
				outcomes = append(outcomes, run.NewOutcomeItem(activity.SID(), snap.UniqueID, run.OutcomeError, err.Error()))
				continue
			}
			switch kind {
			case run.OutcomeAdded:
				counters.Added++
			case run.OutcomeUpdated:
				counters.Updated++
			case run.OutcomeDeleted:
				counters.Deleted++
			}
			if kind != run.OutcomeUnchanged && obj != nil {
				outcomes = append(outcomes, run.NewOutcomeItem(activity.SID(), obj.SID(), kind, ""))
			}
			if obj == nil || obj.Status() != connector.ObjectStatusActive {
				continue
			}
			result, err := uc.syncOne(ctx, obj, activity.SID(), activity.Initiator())
			if err != nil {
				if !profile.ContinueOnFailure() {
					return err
				}
				counters.Errors++
				outcomes = append(outcomes, run.NewOutcomeItem(activity.SID(), obj.SID(), run.OutcomeError, err.Error()))
				continue
			}
			if !profile.ContinueOnFailure() && result.Counters.Errors > 0 {
				return fmt.Errorf("object %s failed: %s", obj.SID(), result.Outcome.Message)
			}
			counters.Add(result.Counters)
			outcomes = append(outcomes, result.Outcome)
			outcomes = append(outcomes, result.Children...)
		}

		if err := uc.flushPage(ctx, activity, counters, outcomes); err != nil {
			return err
		}
		if next == nil {
			return nil
		}
		cursor = next
	}
}

// runSync walks the system's objects and syncs each inbound, then stages
// outbound changes for the touched hub objects and sweeps due deletions.
func (uc *ExecuteRunProfileUseCase) runSync(ctx context.Context, profile *run.Profile, activity *run.Activity) error {
	systems, err := uc.systemRepo.List(ctx)
	if err != nil {
		return err
	}
	pageSize := profile.PageSize(uc.pageSize)

	var afterID uint
	for {
		if ctx.Err() != nil {
			return nil
		}
		page, err := uc.listSyncPage(ctx, profile, afterID, pageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}

		counters := run.Counters{}
		var outcomes []run.OutcomeItem
		for _, obj := range page {
			afterID = obj.ID()
			if !partitionMatches(profile.PartitionFilter(), obj.Partition()) {
				continue
			}
			if obj.Status() != connector.ObjectStatusActive {
				continue
			}
			result, err := uc.syncOne(ctx, obj, activity.SID(), activity.Initiator())
			if err != nil {
				if !profile.ContinueOnFailure() {
					return err
				}
				counters.Errors++
				outcomes = append(outcomes, run.NewOutcomeItem(activity.SID(), obj.SID(), run.OutcomeError, err.Error()))
				continue
			}
			if !profile.ContinueOnFailure() && result.Counters.Errors > 0 {
				return fmt.Errorf("object %s failed: %s", obj.SID(), result.Outcome.Message)
			}
			counters.Add(result.Counters)
			outcomes = append(outcomes, result.Outcome)
			outcomes = append(outcomes, result.Children...)

			if c, items, err := uc.stageOutbound(ctx, obj, systems, activity.SID(), result.Outcome); err != nil {
				return err
			} else {
				counters.Add(c)
				outcomes = append(outcomes, items...)
			}
		}

		if err := uc.flushPage(ctx, activity, counters, outcomes); err != nil {
			return err
		}
		if len(page) < pageSize {
			break
		}
	}

	obsoleted, err := uc.lifecycle.SweepDue(ctx)
	if err != nil {
		return err
	}
	if obsoleted > 0 {
		return uc.flushCounters(ctx, activity, run.Counters{Deleted: obsoleted})
	}
	return nil
}

func (uc *ExecuteRunProfileUseCase) listSyncPage(ctx context.Context, profile *run.Profile, afterID uint, pageSize int) ([]*connector.CSObject, error) {
	if profile.RunType() == run.TypeDeltaSync && profile.Watermark() != nil {
		return uc.csRepo.ListUpdatedSince(ctx, profile.SystemSID(), *profile.Watermark(), afterID, pageSize)
	}
	return uc.csRepo.ListPage(ctx, profile.SystemSID(), afterID, pageSize)
}

// syncOne syncs one object inbound, retrying once on an optimistic locking
// conflict against a freshly loaded object.
func (uc *ExecuteRunProfileUseCase) syncOne(ctx context.Context, obj *connector.CSObject, activitySID string, by audit.Initiator) (services.SyncResult, error) {
	result, err := uc.importer.SyncInbound(ctx, obj, activitySID, by)
	if !errors.IsConcurrencyConflict(err) {
		return result, err
	}

	uc.logger.Debugw("concurrency conflict, retrying object", "object_sid", obj.SID())
	fresh, getErr := uc.csRepo.GetBySID(ctx, obj.SID())
	if getErr != nil {
		return services.SyncResult{}, getErr
	}
	return uc.importer.SyncInbound(ctx, fresh, activitySID, by)
}

// stageOutbound recomputes staged exports for the synced object's hub
// across every enabled connected system.
func (uc *ExecuteRunProfileUseCase) stageOutbound(ctx context.Context, obj *connector.CSObject, systems []*connector.ConnectedSystem, activitySID string, parent run.OutcomeItem) (run.Counters, []run.OutcomeItem, error) {
	counters := run.Counters{}
	if !obj.IsJoined() {
		return counters, nil, nil
	}
	target, err := uc.importer.HubFor(ctx, obj)
	if err != nil {
		return counters, nil, err
	}

	var outcomes []run.OutcomeItem
	for _, system := range systems {
		if !system.Enabled() {
			continue
		}
		c, err := uc.exporter.ReconcileHub(ctx, target, system.SID())
		if err != nil {
			return counters, outcomes, err
		}
		counters.Add(c)
		if c.Total() > 0 {
			outcomes = append(outcomes, parent.Child(target.SID(), run.OutcomeUpdated,
				fmt.Sprintf("staged changes for %s", system.Name())))
		}
	}
	return counters, outcomes, nil
}

// runExport hands staged changes to the connector page by page.
func (uc *ExecuteRunProfileUseCase) runExport(ctx context.Context, profile *run.Profile, activity *run.Activity) error {
	exp, err := uc.connectors.ExporterFor(profile.SystemSID())
	if err != nil {
		return err
	}
	pageSize := profile.PageSize(uc.pageSize)

	var afterID uint
	for {
		if ctx.Err() != nil {
			return nil
		}
		outcomes, counters, last, err := uc.exporter.ProcessPending(ctx, profile.SystemSID(), activity.SID(), exp, afterID, pageSize)
		if err != nil {
			return err
		}
		if !profile.ContinueOnFailure() && counters.Errors > 0 {
			if err := uc.flushPage(ctx, activity, counters, outcomes); err != nil {
				return err
			}
			return fmt.Errorf("export failed for %d objects", counters.Errors)
		}
		if err := uc.flushPage(ctx, activity, counters, outcomes); err != nil {
			return err
		}
		if len(outcomes) == 0 || last == afterID {
			return nil
		}
		afterID = last
	}
}

// flushPage folds a finished page into the activity and persists both the
// counters and the outcome items before the next page starts.
func (uc *ExecuteRunProfileUseCase) flushPage(ctx context.Context, activity *run.Activity, counters run.Counters, outcomes []run.OutcomeItem) error {
	if len(outcomes) > 0 {
		if err := uc.outcomeRepo.Append(ctx, outcomes); err != nil {
			return err
		}
	}
	return uc.flushCounters(ctx, activity, counters)
}

func (uc *ExecuteRunProfileUseCase) flushCounters(ctx context.Context, activity *run.Activity, counters run.Counters) error {
	activity.Accumulate(counters)
	return uc.activityRepo.Update(context.WithoutCancel(ctx), activity)
}

// partitionMatches applies a profile's partition filter as a prefix so a
// filter scopes a whole subtree of partitions. An empty filter matches all.
func partitionMatches(filter, partition string) bool {
	if filter == "" {
		return true
	}
	return strings.HasPrefix(partition, filter)
}
