package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/application/sync/testutil"
	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

func newJoinFixture(t *testing.T) (*JoinEngine, *testutil.MockHubRepository) {
	t.Helper()
	hubRepo := testutil.NewMockHubRepository()
	return NewJoinEngine(hubRepo, logger.NewLogger()), hubRepo
}

func seedPerson(t *testing.T, repo *testutil.MockHubRepository, employeeID string) *hub.HubObject {
	t.Helper()
	person, err := hub.NewHubObject("person", hub.OriginProjected)
	require.NoError(t, err)
	person.SetSingleValue("employeeID", attribute.NewIdentifier(employeeID), "seed")
	require.NoError(t, repo.Create(context.Background(), person))
	return person
}

func joinOnlyRule(t *testing.T, precedence int, pairs ...syncrule.JoinPair) *syncrule.SyncRule {
	t.Helper()
	rule, err := syncrule.NewSyncRule(syncrule.NewSyncRuleParams{
		Name:         "hr person join",
		SystemSID:    "sys_hr",
		ExternalType: "employee",
		HubType:      "person",
		Direction:    syncrule.DirectionInbound,
		Precedence:   precedence,
		JoinCriteria: pairs,
	})
	require.NoError(t, err)
	return rule
}

func unjoinedEmployee(t *testing.T) *connector.CSObject {
	t.Helper()
	obj, err := connector.NewCSObject("sys_hr", "employee", "E1001", "")
	require.NoError(t, err)
	return obj
}

func TestApplyJoinsUniqueMatch(t *testing.T) {
	engine, hubRepo := newJoinFixture(t)
	person := seedPerson(t, hubRepo, "1001")
	rule := joinOnlyRule(t, 1, syncrule.JoinPair{SourceAttribute: "employeeID", HubAttribute: "employeeID"})
	obj := unjoinedEmployee(t)

	resolved := attribute.Values{"employeeID": {attribute.NewIdentifier("1001")}}
	result, err := engine.Apply(context.Background(), obj, []*syncrule.SyncRule{rule}, resolved)
	require.NoError(t, err)

	assert.Equal(t, JoinOutcomeJoined, result.Outcome)
	assert.Equal(t, rule.SID(), result.RuleSID)
	require.NotNil(t, result.Hub)
	assert.Equal(t, person.SID(), result.Hub.SID())
	assert.True(t, obj.IsJoined())
	assert.Equal(t, person.SID(), obj.HubSID())
}

func TestApplyAlreadyJoinedReturnsCurrentHub(t *testing.T) {
	engine, hubRepo := newJoinFixture(t)
	person := seedPerson(t, hubRepo, "1001")
	obj := unjoinedEmployee(t)
	require.NoError(t, obj.Join(person.SID(), time.Now().UTC()))

	result, err := engine.Apply(context.Background(), obj, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, JoinOutcomeAlreadyJoined, result.Outcome)
	require.NotNil(t, result.Hub)
	assert.Equal(t, person.SID(), result.Hub.SID())
}

func TestApplyAllPairsMustMatch(t *testing.T) {
	engine, hubRepo := newJoinFixture(t)
	person := seedPerson(t, hubRepo, "1001")
	person.SetSingleValue("costCenter", attribute.NewText("finance"), "seed")
	require.NoError(t, hubRepo.Update(context.Background(), person))
	rule := joinOnlyRule(t, 1,
		syncrule.JoinPair{SourceAttribute: "employeeID", HubAttribute: "employeeID"},
		syncrule.JoinPair{SourceAttribute: "dept", HubAttribute: "costCenter"},
	)
	obj := unjoinedEmployee(t)

	resolved := attribute.Values{
		"employeeID": {attribute.NewIdentifier("1001")},
		"dept":       {attribute.NewText("engineering")},
	}
	result, err := engine.Apply(context.Background(), obj, []*syncrule.SyncRule{rule}, resolved)
	require.NoError(t, err)

	assert.Equal(t, JoinOutcomeNone, result.Outcome)
	assert.False(t, obj.IsJoined())
}

func TestApplyAmbiguousCandidates(t *testing.T) {
	engine, hubRepo := newJoinFixture(t)
	seedPerson(t, hubRepo, "1001")
	seedPerson(t, hubRepo, "1001")
	rule := joinOnlyRule(t, 1, syncrule.JoinPair{SourceAttribute: "employeeID", HubAttribute: "employeeID"})
	obj := unjoinedEmployee(t)

	resolved := attribute.Values{"employeeID": {attribute.NewIdentifier("1001")}}
	_, err := engine.Apply(context.Background(), obj, []*syncrule.SyncRule{rule}, resolved)

	require.Error(t, err)
	assert.True(t, errors.IsAmbiguousJoin(err))
	assert.False(t, obj.IsJoined())
}

func TestApplyFallsThroughToLowerPrecedence(t *testing.T) {
	engine, hubRepo := newJoinFixture(t)
	person, err := hub.NewHubObject("person", hub.OriginProjected)
	require.NoError(t, err)
	person.SetSingleValue("mail", attribute.NewText("alice@example.com"), "seed")
	require.NoError(t, hubRepo.Create(context.Background(), person))

	byEmpNo := joinOnlyRule(t, 1, syncrule.JoinPair{SourceAttribute: "employeeID", HubAttribute: "employeeID"})
	byMail := joinOnlyRule(t, 2, syncrule.JoinPair{SourceAttribute: "mail", HubAttribute: "mail"})
	obj := unjoinedEmployee(t)

	resolved := attribute.Values{
		"employeeID": {attribute.NewIdentifier("1001")},
		"mail":       {attribute.NewText("alice@example.com")},
	}
	result, err := engine.Apply(context.Background(), obj, []*syncrule.SyncRule{byEmpNo, byMail}, resolved)
	require.NoError(t, err)

	assert.Equal(t, JoinOutcomeJoined, result.Outcome)
	assert.Equal(t, byMail.SID(), result.RuleSID)
	assert.Equal(t, person.SID(), obj.HubSID())
}

func TestApplyRejoinCancelsPendingDeletion(t *testing.T) {
	engine, hubRepo := newJoinFixture(t)
	person := seedPerson(t, hubRepo, "1001")
	require.NoError(t, person.ScheduleDeletion(time.Now().UTC().Add(24*time.Hour)))
	require.NoError(t, hubRepo.Update(context.Background(), person))
	rule := joinOnlyRule(t, 1, syncrule.JoinPair{SourceAttribute: "employeeID", HubAttribute: "employeeID"})
	obj := unjoinedEmployee(t)

	resolved := attribute.Values{"employeeID": {attribute.NewIdentifier("1001")}}
	result, err := engine.Apply(context.Background(), obj, []*syncrule.SyncRule{rule}, resolved)
	require.NoError(t, err)

	assert.Equal(t, JoinOutcomeJoined, result.Outcome)
	stored, err := hubRepo.GetBySID(context.Background(), person.SID())
	require.NoError(t, err)
	assert.Equal(t, hub.StatusNormal, stored.Status())
	assert.Nil(t, stored.DeletionDueAt())
}

func TestApplyProjectsWhenNothingMatches(t *testing.T) {
	engine, hubRepo := newJoinFixture(t)
	rule, err := syncrule.NewSyncRule(syncrule.NewSyncRuleParams{
		Name:         "hr person inbound",
		SystemSID:    "sys_hr",
		ExternalType: "employee",
		HubType:      "person",
		Direction:    syncrule.DirectionInbound,
		Precedence:   1,
		ProjectHub:   true,
		JoinCriteria: []syncrule.JoinPair{{SourceAttribute: "employeeID", HubAttribute: "employeeID"}},
	})
	require.NoError(t, err)
	obj := unjoinedEmployee(t)

	resolved := attribute.Values{"employeeID": {attribute.NewIdentifier("1001")}}
	result, err := engine.Apply(context.Background(), obj, []*syncrule.SyncRule{rule}, resolved)
	require.NoError(t, err)

	assert.Equal(t, JoinOutcomeProjected, result.Outcome)
	assert.Equal(t, rule.SID(), result.RuleSID)
	require.NotNil(t, result.Hub)
	assert.Equal(t, "person", result.Hub.ObjectType())
	assert.Equal(t, hub.OriginProjected, result.Hub.Origin())
	assert.True(t, obj.IsJoined())

	stored, err := hubRepo.GetBySID(context.Background(), result.Hub.SID())
	require.NoError(t, err)
	assert.Equal(t, result.Hub.SID(), stored.SID())
}
