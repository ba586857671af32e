package run

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/domain/audit"
)

func TestStartActivity(t *testing.T) {
	act, err := StartActivity("run_nightly", TypeFullImport, audit.SchedulerInitiator())
	require.NoError(t, err)

	assert.Equal(t, StatusRunning, act.Status())
	assert.True(t, act.IsRunning())
	assert.Nil(t, act.FinishedAt())
	assert.Equal(t, audit.InitiatorKindScheduler, act.Initiator().Kind)
	assert.NotEmpty(t, act.SID())
}

func TestStartActivityValidation(t *testing.T) {
	_, err := StartActivity("", TypeFullImport, audit.SchedulerInitiator())
	assert.Error(t, err)

	_, err = StartActivity("run_x", Type("reconcile"), audit.SchedulerInitiator())
	assert.Error(t, err)
}

func TestActivityAccumulate(t *testing.T) {
	act, err := StartActivity("run_x", TypeDeltaSync, audit.SchedulerInitiator())
	require.NoError(t, err)

	act.Accumulate(Counters{Added: 3, Joined: 1})
	act.Accumulate(Counters{Updated: 2, Errors: 1})
	act.Accumulate(Counters{Added: 1})

	c := act.Counters()
	assert.Equal(t, 4, c.Added)
	assert.Equal(t, 2, c.Updated)
	assert.Equal(t, 1, c.Joined)
	assert.Equal(t, 1, c.Errors)
	assert.Equal(t, 7, c.Total())
}

func TestActivityComplete(t *testing.T) {
	act, err := StartActivity("run_x", TypeExport, audit.SchedulerInitiator())
	require.NoError(t, err)

	act.Accumulate(Counters{Exported: 5})
	require.NoError(t, act.Complete())
	assert.Equal(t, StatusCompleted, act.Status())
	require.NotNil(t, act.FinishedAt())

	// Closing an already-closed run is rejected.
	assert.Error(t, act.Complete())
	assert.Error(t, act.Cancel())
}

func TestActivityCompleteWithErrors(t *testing.T) {
	act, err := StartActivity("run_x", TypeFullSync, audit.SchedulerInitiator())
	require.NoError(t, err)

	act.Accumulate(Counters{Updated: 10, Errors: 2})
	require.NoError(t, act.Complete())
	assert.Equal(t, StatusCompletedWithErrors, act.Status())
}

func TestActivityCancelKeepsCounters(t *testing.T) {
	act, err := StartActivity("run_x", TypeFullImport, audit.SchedulerInitiator())
	require.NoError(t, err)

	act.Accumulate(Counters{Added: 200})
	require.NoError(t, act.Cancel())

	assert.Equal(t, StatusCanceled, act.Status())
	assert.Equal(t, 200, act.Counters().Added)
}

func TestActivityFail(t *testing.T) {
	act, err := StartActivity("run_x", TypeFullImport, audit.SchedulerInitiator())
	require.NoError(t, err)

	require.NoError(t, act.Fail("connector unreachable"))
	assert.Equal(t, StatusFailed, act.Status())
	assert.Equal(t, "connector unreachable", act.FailReason())
}

func TestProfileWatermark(t *testing.T) {
	p, err := NewProfile(NewProfileParams{
		Name:      "hr delta",
		SystemSID: "sys_hr",
		RunType:   TypeDeltaImport,
	})
	require.NoError(t, err)
	assert.Nil(t, p.Watermark())
	assert.True(t, p.IsDelta())

	t1 := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)
	p.AdvanceWatermark(t1)
	require.NotNil(t, p.Watermark())
	assert.True(t, p.Watermark().Equal(t1))

	// Never backwards.
	p.AdvanceWatermark(t1.Add(-time.Hour))
	assert.True(t, p.Watermark().Equal(t1))

	t2 := t1.Add(24 * time.Hour)
	p.AdvanceWatermark(t2)
	assert.True(t, p.Watermark().Equal(t2))
}

func TestProfilePageSizeFallback(t *testing.T) {
	p, err := NewProfile(NewProfileParams{
		Name:      "hr full",
		SystemSID: "sys_hr",
		RunType:   TypeFullImport,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, p.PageSize(100))

	p, err = NewProfile(NewProfileParams{
		Name:      "hr full small",
		SystemSID: "sys_hr",
		RunType:   TypeFullImport,
		PageSize:  25,
	})
	require.NoError(t, err)
	assert.Equal(t, 25, p.PageSize(100))
}

func TestOutcomeTree(t *testing.T) {
	parent := NewOutcomeItem("act_1", "cso_src", OutcomeUpdated, "two attribute changes")
	child := parent.Child("hub_dst", OutcomeProjected, "")

	assert.Equal(t, parent.SID, child.ParentSID)
	assert.Equal(t, "act_1", child.ActivitySID)
	assert.True(t, OutcomeAmbiguousJoin.IsError())
	assert.False(t, OutcomeJoined.IsError())
}
