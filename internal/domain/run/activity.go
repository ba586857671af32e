package run

import (
	"fmt"
	"time"

	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/shared/id"
)

// Status is the lifecycle of one run execution.
type Status string

const (
	StatusRunning             Status = "running"
	StatusCompleted           Status = "completed"
	StatusCompletedWithErrors Status = "completed_with_errors"
	StatusCanceled            Status = "canceled"
	StatusFailed              Status = "failed"
)

// Counters accumulates what a run did. Counters from each processed page
// fold into the activity as the run progresses, so a canceled run still
// reports the work it finished.
type Counters struct {
	Added        int `json:"added"`
	Updated      int `json:"updated"`
	Deleted      int `json:"deleted"`
	Projected    int `json:"projected"`
	Joined       int `json:"joined"`
	Disconnected int `json:"disconnected"`
	Exported     int `json:"exported"`
	Provisioned  int `json:"provisioned"`
	Errors       int `json:"errors"`
}

// Add folds another set of counters into this one.
func (c *Counters) Add(other Counters) {
	c.Added += other.Added
	c.Updated += other.Updated
	c.Deleted += other.Deleted
	c.Projected += other.Projected
	c.Joined += other.Joined
	c.Disconnected += other.Disconnected
	c.Exported += other.Exported
	c.Provisioned += other.Provisioned
	c.Errors += other.Errors
}

// Total returns the number of object-level effects, errors excluded.
func (c Counters) Total() int {
	return c.Added + c.Updated + c.Deleted + c.Projected + c.Joined +
		c.Disconnected + c.Exported + c.Provisioned
}

// Activity is the append-only record of one run execution.
type Activity struct {
	id         uint
	sid        string
	profileSID string
	runType    Type
	status     Status
	initiator  audit.Initiator
	counters   Counters
	startedAt  time.Time
	finishedAt *time.Time
	failReason string
}

// StartActivity opens a run record.
func StartActivity(profileSID string, runType Type, by audit.Initiator) (*Activity, error) {
	if profileSID == "" {
		return nil, fmt.Errorf("run profile is required")
	}
	if !validType(runType) {
		return nil, fmt.Errorf("invalid run type %q", runType)
	}
	return &Activity{
		sid:        id.NewActivitySID(),
		profileSID: profileSID,
		runType:    runType,
		status:     StatusRunning,
		initiator:  by,
		startedAt:  time.Now().UTC(),
	}, nil
}

// ReconstructActivity rebuilds a run record from persistence.
func ReconstructActivity(
	actID uint,
	sid, profileSID string,
	runType Type,
	status Status,
	by audit.Initiator,
	counters Counters,
	startedAt time.Time,
	finishedAt *time.Time,
	failReason string,
) (*Activity, error) {
	if actID == 0 {
		return nil, fmt.Errorf("activity ID cannot be zero")
	}
	return &Activity{
		id:         actID,
		sid:        sid,
		profileSID: profileSID,
		runType:    runType,
		status:     status,
		initiator:  by,
		counters:   counters,
		startedAt:  startedAt,
		finishedAt: finishedAt,
		failReason: failReason,
	}, nil
}

func (a *Activity) ID() uint                   { return a.id }
func (a *Activity) SID() string                { return a.sid }
func (a *Activity) ProfileSID() string         { return a.profileSID }
func (a *Activity) RunType() Type              { return a.runType }
func (a *Activity) Status() Status             { return a.status }
func (a *Activity) Initiator() audit.Initiator { return a.initiator }
func (a *Activity) Counters() Counters         { return a.counters }
func (a *Activity) StartedAt() time.Time       { return a.startedAt }
func (a *Activity) FailReason() string         { return a.failReason }

// FinishedAt returns when the run ended, if it has.
func (a *Activity) FinishedAt() *time.Time {
	if a.finishedAt == nil {
		return nil
	}
	t := *a.finishedAt
	return &t
}

// IsRunning reports whether the run is still open.
func (a *Activity) IsRunning() bool { return a.status == StatusRunning }

// SetID sets the store ID after insert (persistence layer only).
func (a *Activity) SetID(actID uint) error {
	if a.id != 0 {
		return fmt.Errorf("activity ID is already set")
	}
	if actID == 0 {
		return fmt.Errorf("activity ID cannot be zero")
	}
	a.id = actID
	return nil
}

// Accumulate folds one processed page's counters into the run total.
func (a *Activity) Accumulate(page Counters) {
	a.counters.Add(page)
}

// Complete closes the run. The status reflects whether any object-level
// errors were captured along the way.
func (a *Activity) Complete() error {
	if !a.IsRunning() {
		return fmt.Errorf("run already finished with status %s", a.status)
	}
	now := time.Now().UTC()
	a.finishedAt = &now
	if a.counters.Errors > 0 {
		a.status = StatusCompletedWithErrors
	} else {
		a.status = StatusCompleted
	}
	return nil
}

// Cancel closes the run at a page boundary. Work already counted stays
// counted.
func (a *Activity) Cancel() error {
	if !a.IsRunning() {
		return fmt.Errorf("run already finished with status %s", a.status)
	}
	now := time.Now().UTC()
	a.finishedAt = &now
	a.status = StatusCanceled
	return nil
}

// Fail closes the run after a run-fatal error, such as a connector that
// cannot deliver pages at all.
func (a *Activity) Fail(reason string) error {
	if !a.IsRunning() {
		return fmt.Errorf("run already finished with status %s", a.status)
	}
	now := time.Now().UTC()
	a.finishedAt = &now
	a.status = StatusFailed
	a.failReason = reason
	return nil
}
