package services

import (
	"context"

	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/shared/biztime"
	"github.com/junction-io/junction/internal/shared/logger"
)

// DeletionLifecycle walks hub objects through normal, pending-deletion and
// obsolete. Deletion is always policy-driven: only the configured rule for
// the object's type ever schedules it, and a re-join cancels it.
type DeletionLifecycle struct {
	hubRepo    hub.Repository
	policyRepo hub.TypePolicyRepository
	csRepo     connector.CSObjectRepository
	logger     logger.Interface
}

// NewDeletionLifecycle builds the lifecycle service.
func NewDeletionLifecycle(
	hubRepo hub.Repository,
	policyRepo hub.TypePolicyRepository,
	csRepo connector.CSObjectRepository,
	log logger.Interface,
) *DeletionLifecycle {
	return &DeletionLifecycle{
		hubRepo:    hubRepo,
		policyRepo: policyRepo,
		csRepo:     csRepo,
		logger:     log,
	}
}

// HandleDisconnect reacts to a join being severed. When the type policy
// auto-deletes and the object has no remaining joins, the object either
// enters the grace period or, with no grace configured, goes obsolete on
// the spot. Internal-origin objects are exempt whatever the policy says.
// Returns true when the object's stored state changed.
func (l *DeletionLifecycle) HandleDisconnect(ctx context.Context, obj *hub.HubObject) (bool, error) {
	if obj.Origin() == hub.OriginInternal {
		return false, nil
	}
	policy, err := l.policyRepo.GetByObjectType(ctx, obj.ObjectType())
	if err != nil {
		return false, err
	}
	if !policy.AutoDeletes() {
		return false, nil
	}

	remaining, err := l.csRepo.CountJoined(ctx, obj.SID())
	if err != nil {
		return false, err
	}
	if remaining > 0 {
		return false, nil
	}

	if policy.HasGracePeriod() {
		due := biztime.NowUTC().Add(policy.GracePeriod())
		if err := obj.ScheduleDeletion(due); err != nil {
			return false, err
		}
		l.logger.Infow("hub object scheduled for deletion",
			"hub_sid", obj.SID(), "due_at", due)
	} else {
		if err := obj.MarkObsolete(); err != nil {
			return false, err
		}
		l.logger.Infow("hub object obsoleted", "hub_sid", obj.SID())
	}

	if err := l.hubRepo.Update(ctx, obj); err != nil {
		return false, err
	}
	return true, nil
}

// SweepDue finalizes every pending deletion whose grace period has lapsed.
// An object that regained a join since scheduling is rescued instead.
// Returns how many objects went obsolete.
func (l *DeletionLifecycle) SweepDue(ctx context.Context) (int, error) {
	pending, err := l.hubRepo.ListPendingDeletion(ctx)
	if err != nil {
		return 0, err
	}

	now := biztime.NowUTC()
	obsoleted := 0
	for _, obj := range pending {
		if obj.Origin() == hub.OriginInternal {
			continue
		}
		joined, err := l.csRepo.CountJoined(ctx, obj.SID())
		if err != nil {
			return obsoleted, err
		}
		if joined > 0 {
			if err := obj.CancelDeletion(); err != nil {
				return obsoleted, err
			}
			if err := l.hubRepo.Update(ctx, obj); err != nil {
				return obsoleted, err
			}
			l.logger.Infow("pending deletion canceled, object re-joined", "hub_sid", obj.SID())
			continue
		}
		if !obj.DeletionDue(now) {
			continue
		}
		if err := obj.MarkObsolete(); err != nil {
			return obsoleted, err
		}
		if err := l.hubRepo.Update(ctx, obj); err != nil {
			return obsoleted, err
		}
		obsoleted++
		l.logger.Infow("hub object obsoleted after grace period", "hub_sid", obj.SID())
	}
	return obsoleted, nil
}
