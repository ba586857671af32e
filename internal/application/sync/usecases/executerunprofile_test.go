package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/application/sync/services"
	"github.com/junction-io/junction/internal/application/sync/testutil"
	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/shared/logger"
)

type fakeLock struct {
	mu   sync.Mutex
	held map[string]string
	busy bool
}

func newFakeLock() *fakeLock {
	return &fakeLock{held: make(map[string]string)}
}

func (l *fakeLock) Acquire(ctx context.Context, key string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.busy {
		return "", false, nil
	}
	if _, taken := l.held[key]; taken {
		return "", false, nil
	}
	l.held[key] = "tok"
	return "tok", true, nil
}

func (l *fakeLock) Release(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

type fakeRegistry struct {
	importer connector.Importer
	exporter connector.Exporter
}

func (r *fakeRegistry) ImporterFor(systemSID string) (connector.Importer, error) {
	if r.importer == nil {
		return nil, errors.New("no importer registered")
	}
	return r.importer, nil
}

func (r *fakeRegistry) ExporterFor(systemSID string) (connector.Exporter, error) {
	if r.exporter == nil {
		return nil, errors.New("no exporter registered")
	}
	return r.exporter, nil
}

type orchestratorFixture struct {
	profileRepo  *testutil.MockProfileRepository
	activityRepo *testutil.MockActivityRepository
	outcomeRepo  *testutil.MockOutcomeRepository
	csRepo       *testutil.MockCSObjectRepository
	hubRepo      *testutil.MockHubRepository
	peRepo       *testutil.MockPendingExportRepository
	ruleRepo     *testutil.MockSyncRuleRepository
	systemRepo   *systemRepoStub
	registry     *fakeRegistry
	lock         *fakeLock
	uc           *ExecuteRunProfileUseCase
}

type systemRepoStub struct {
	systems []*connector.ConnectedSystem
}

func (s *systemRepoStub) Create(ctx context.Context, system *connector.ConnectedSystem) error {
	s.systems = append(s.systems, system)
	return nil
}

func (s *systemRepoStub) GetBySID(ctx context.Context, sid string) (*connector.ConnectedSystem, error) {
	for _, sys := range s.systems {
		if sys.SID() == sid {
			return sys, nil
		}
	}
	return nil, errors.New("system not found")
}

func (s *systemRepoStub) Update(ctx context.Context, system *connector.ConnectedSystem) error {
	return nil
}

func (s *systemRepoStub) List(ctx context.Context) ([]*connector.ConnectedSystem, error) {
	return s.systems, nil
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()
	log := logger.NewLogger()
	f := &orchestratorFixture{
		profileRepo:  testutil.NewMockProfileRepository(),
		activityRepo: testutil.NewMockActivityRepository(),
		outcomeRepo:  testutil.NewMockOutcomeRepository(),
		csRepo:       testutil.NewMockCSObjectRepository(),
		hubRepo:      testutil.NewMockHubRepository(),
		peRepo:       testutil.NewMockPendingExportRepository(),
		ruleRepo:     testutil.NewMockSyncRuleRepository(),
		systemRepo:   &systemRepoStub{},
		registry:     &fakeRegistry{},
		lock:         newFakeLock(),
	}
	policyRepo := testutil.NewMockTypePolicyRepository()
	changes := testutil.NewMockChangeRepository()
	resolver := services.NewFlowResolver(log)
	joins := services.NewJoinEngine(f.hubRepo, log)
	lifecycle := services.NewDeletionLifecycle(f.hubRepo, policyRepo, f.csRepo, log)
	importer := services.NewImportProcessor(
		f.csRepo, f.hubRepo, f.ruleRepo, resolver, joins, lifecycle, changes, false, log)
	exporter := services.NewExportReconciler(
		f.csRepo, f.peRepo, f.hubRepo, f.ruleRepo, resolver, lifecycle, log)
	f.uc = NewExecuteRunProfileUseCase(
		f.profileRepo, f.activityRepo, f.outcomeRepo, f.systemRepo, f.csRepo,
		importer, exporter, lifecycle, f.registry, f.lock, 100, log)
	return f
}

func (f *orchestratorFixture) addProfile(t *testing.T, params run.NewProfileParams) *run.Profile {
	t.Helper()
	profile, err := run.NewProfile(params)
	require.NoError(t, err)
	require.NoError(t, f.profileRepo.Create(context.Background(), profile))
	return profile
}

func (f *orchestratorFixture) addSystem(t *testing.T, name string) *connector.ConnectedSystem {
	t.Helper()
	system, err := connector.NewConnectedSystem(name, "test")
	require.NoError(t, err)
	require.NoError(t, f.systemRepo.Create(context.Background(), system))
	return system
}

func profileTime() time.Time {
	return time.Now().UTC()
}

func empSnapshot(n string, name string) connector.ObjectSnapshot {
	return connector.ObjectSnapshot{
		UniqueID:     n,
		ExternalType: "employee",
		Values: attribute.Values{
			"fullName": {attribute.NewText(name)},
			"empNo":    {attribute.NewText(n)},
		},
	}
}

func TestExecuteImportRun(t *testing.T) {
	f := newOrchestratorFixture(t)
	profile := f.addProfile(t, run.NewProfileParams{
		Name: "hr import", SystemSID: "sys_hr", RunType: run.TypeFullImport,
		ContinueOnFailure: true,
	})
	f.registry.importer = testutil.NewFakeImporter(
		[]connector.ObjectSnapshot{empSnapshot("E1", "Alice Smith"), empSnapshot("E2", "Bob Stone")},
		[]connector.ObjectSnapshot{empSnapshot("E3", "Cho Park")},
	)

	result, err := f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, result.Status)
	assert.Equal(t, 3, result.Counters.Added)

	// Re-running the identical import changes nothing.
	f.registry.importer = testutil.NewFakeImporter(
		[]connector.ObjectSnapshot{empSnapshot("E1", "Alice Smith"), empSnapshot("E2", "Bob Stone")},
		[]connector.ObjectSnapshot{empSnapshot("E3", "Cho Park")},
	)
	result, err = f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, result.Status)
	assert.Zero(t, result.Counters.Added)
	assert.Zero(t, result.Counters.Updated)
}

func TestExecuteImportRunProjectsAndFlows(t *testing.T) {
	f := newOrchestratorFixture(t)
	profile := f.addProfile(t, run.NewProfileParams{
		Name: "hr import", SystemSID: "sys_hr", RunType: run.TypeFullImport,
		ContinueOnFailure: true,
	})

	inbound, err := syncrule.NewSyncRule(syncrule.NewSyncRuleParams{
		Name: "hr inbound", SystemSID: "sys_hr", ExternalType: "employee",
		HubType: "person", Direction: syncrule.DirectionInbound, ProjectHub: true,
		Mappings: []syncrule.Mapping{
			{
				TargetAttribute: "displayName",
				TargetKind:      attribute.KindText,
				Order:           1,
				Sources: []syncrule.MappingSource{
					{Type: syncrule.SourceAttribute, Attribute: "fullName"},
				},
			},
			{
				TargetAttribute: "employeeID",
				TargetKind:      attribute.KindIdentifier,
				Order:           2,
				Sources: []syncrule.MappingSource{
					{Type: syncrule.SourceAttribute, Attribute: "empNo"},
				},
			},
		},
		JoinCriteria: []syncrule.JoinPair{
			{SourceAttribute: "employeeID", HubAttribute: "employeeID"},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.ruleRepo.Create(context.Background(), inbound))

	f.registry.importer = testutil.NewFakeImporter(
		[]connector.ObjectSnapshot{empSnapshot("E1", "Alice")},
	)
	result, err := f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, result.Status)

	// One run: the object is absorbed, a hub object is projected and the
	// attributes flow, no separate sync needed.
	assert.Equal(t, 1, result.Counters.Added)
	assert.Equal(t, 1, result.Counters.Projected)

	obj, err := f.csRepo.GetByUniqueID(context.Background(), "sys_hr", "employee", "E1")
	require.NoError(t, err)
	require.True(t, obj.IsJoined())

	target, err := f.hubRepo.GetBySID(context.Background(), obj.HubSID())
	require.NoError(t, err)
	assert.Equal(t, "Alice", target.ValuesFor("displayName")[0].Text())

	// Re-running the identical import joins nothing new.
	f.registry.importer = testutil.NewFakeImporter(
		[]connector.ObjectSnapshot{empSnapshot("E1", "Alice")},
	)
	result, err = f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Zero(t, result.Counters.Projected)
	assert.Zero(t, result.Counters.Updated)
}

func TestExecuteRejectsConcurrentRun(t *testing.T) {
	f := newOrchestratorFixture(t)
	profile := f.addProfile(t, run.NewProfileParams{
		Name: "hr import", SystemSID: "sys_hr", RunType: run.TypeFullImport,
	})
	f.lock.busy = true

	_, err := f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.Error(t, err)
}

func TestExecuteDisabledProfile(t *testing.T) {
	f := newOrchestratorFixture(t)
	profile := f.addProfile(t, run.NewProfileParams{
		Name: "hr import", SystemSID: "sys_hr", RunType: run.TypeFullImport,
	})
	profile.Disable()

	_, err := f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.Error(t, err)
}

func TestExecuteConnectorFailureFailsRun(t *testing.T) {
	f := newOrchestratorFixture(t)
	profile := f.addProfile(t, run.NewProfileParams{
		Name: "hr import", SystemSID: "sys_hr", RunType: run.TypeFullImport,
	})
	imp := testutil.NewFakeImporter()
	imp.SetReadError(errors.New("connection refused"))
	f.registry.importer = imp

	result, err := f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusFailed, result.Status)

	// The lock is free again for the next run.
	f.lock.mu.Lock()
	assert.Empty(t, f.lock.held)
	f.lock.mu.Unlock()
}

func TestExecuteCancellationAtPageBoundary(t *testing.T) {
	f := newOrchestratorFixture(t)
	profile := f.addProfile(t, run.NewProfileParams{
		Name: "hr import", SystemSID: "sys_hr", RunType: run.TypeFullImport,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.registry.importer = testutil.NewFakeImporter(
		[]connector.ObjectSnapshot{empSnapshot("E1", "Alice Smith")},
	)

	result, err := f.uc.Execute(ctx, ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusCanceled, result.Status)
	assert.Zero(t, result.Counters.Added)
}

func TestExecuteDeltaRunAdvancesWatermark(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.addSystem(t, "hr")
	profile := f.addProfile(t, run.NewProfileParams{
		Name: "hr delta sync", SystemSID: "sys_hr", RunType: run.TypeDeltaSync,
		ContinueOnFailure: true,
	})
	require.Nil(t, profile.Watermark())

	result, err := f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, result.Status)
	assert.NotNil(t, profile.Watermark())
}

func TestExecuteFullSyncEndToEnd(t *testing.T) {
	f := newOrchestratorFixture(t)
	hrSystem, err := connector.ReconstructConnectedSystem(
		1, "sys_hr", "hr", "test", true, profileTime(), profileTime(), 1)
	require.NoError(t, err)
	f.systemRepo.systems = append(f.systemRepo.systems, hrSystem)

	// Import lands the raw object first; the rule arrives afterwards, so
	// the join and projection happen during the sync run.
	importProfile := f.addProfile(t, run.NewProfileParams{
		Name: "hr import", SystemSID: "sys_hr", RunType: run.TypeFullImport,
		ContinueOnFailure: true,
	})
	f.registry.importer = testutil.NewFakeImporter(
		[]connector.ObjectSnapshot{empSnapshot("E1", "Alice Smith")},
	)
	_, err = f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: importProfile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)

	inbound, err := syncrule.NewSyncRule(syncrule.NewSyncRuleParams{
		Name: "hr inbound", SystemSID: "sys_hr", ExternalType: "employee",
		HubType: "person", Direction: syncrule.DirectionInbound, ProjectHub: true,
		Mappings: []syncrule.Mapping{{
			TargetAttribute: "displayName",
			TargetKind:      attribute.KindText,
			Sources: []syncrule.MappingSource{
				{Type: syncrule.SourceAttribute, Attribute: "fullName"},
			},
		}},
	})
	require.NoError(t, err)
	require.NoError(t, f.ruleRepo.Create(context.Background(), inbound))

	syncProfile := f.addProfile(t, run.NewProfileParams{
		Name: "hr full sync", SystemSID: "sys_hr", RunType: run.TypeFullSync,
		ContinueOnFailure: true,
	})
	result, err := f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: syncProfile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, result.Status)
	assert.Equal(t, 1, result.Counters.Projected)

	activity, err := f.activityRepo.GetBySID(context.Background(), result.ActivitySID)
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompleted, activity.Status())

	outcomes, err := f.outcomeRepo.ListByActivity(context.Background(), result.ActivitySID, 0, 100)
	require.NoError(t, err)
	require.NotEmpty(t, outcomes)
	assert.Equal(t, run.OutcomeProjected, outcomes[0].Kind)
}

func TestExecuteExportRunWithErrors(t *testing.T) {
	f := newOrchestratorFixture(t)
	profile := f.addProfile(t, run.NewProfileParams{
		Name: "ad export", SystemSID: "sys_ad", RunType: run.TypeExport,
		ContinueOnFailure: true,
	})

	cso, err := connector.NewCSObject("sys_ad", "user", "CN=alice", "")
	require.NoError(t, err)
	require.NoError(t, f.csRepo.Create(context.Background(), cso))
	pe, err := connector.NewPendingExport(cso.SID(), "sys_ad", connector.ChangeTypeUpdate, []connector.AttributeChange{
		{Attribute: "displayName", Op: connector.ChangeOpAdd, Value: attribute.NewText("Alice Smith")},
	})
	require.NoError(t, err)
	require.NoError(t, f.peRepo.Create(context.Background(), pe))

	exporter := testutil.NewFakeExporter()
	exporter.FailTimes(1, errors.New("ldap unavailable"))
	f.registry.exporter = exporter

	result, err := f.uc.Execute(context.Background(), ExecuteRunProfileCommand{
		ProfileSID: profile.SID(),
		Initiator:  audit.SchedulerInitiator(),
	})
	require.NoError(t, err)
	assert.Equal(t, run.StatusCompletedWithErrors, result.Status)
	assert.Equal(t, 1, result.Counters.Errors)
	assert.Equal(t, 1, f.peRepo.Count())
}
