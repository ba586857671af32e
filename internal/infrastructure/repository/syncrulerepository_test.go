package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

func inboundRuleParams(name string, precedence int) syncrule.NewSyncRuleParams {
	return syncrule.NewSyncRuleParams{
		Name:         name,
		SystemSID:    "sys_hr",
		ExternalType: "user",
		HubType:      "person",
		Direction:    syncrule.DirectionInbound,
		Precedence:   precedence,
		ProjectHub:   true,
		Mappings: []syncrule.Mapping{
			{
				TargetAttribute: "displayName",
				TargetKind:      attribute.KindText,
				Order:           1,
				Sources: []syncrule.MappingSource{
					{Type: syncrule.SourceAttribute, Attribute: "cn"},
				},
			},
		},
		Scope: []syncrule.CriteriaGroup{
			{
				Operator: syncrule.GroupAll,
				Conditions: []syncrule.Condition{
					{Attribute: "department", Operator: syncrule.OpEquals, Value: "engineering"},
				},
			},
		},
		JoinCriteria: []syncrule.JoinPair{
			{SourceAttribute: "employeeId", HubAttribute: "employeeId"},
		},
		OutOfScopeAction: syncrule.OutOfScopeRemainJoined,
	}
}

func TestSyncRuleRepository_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncRuleRepository(db, logger.NewLogger())
	ctx := context.Background()

	rule, err := syncrule.NewSyncRule(inboundRuleParams("hr-users-in", 10))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, rule))
	assert.NotZero(t, rule.ID())

	found, err := repo.GetBySID(ctx, rule.SID())
	require.NoError(t, err)
	assert.Equal(t, "hr-users-in", found.Name())
	assert.Equal(t, syncrule.DirectionInbound, found.Direction())
	assert.True(t, found.ProjectsHub())

	// The JSON documents survive the round trip intact.
	require.Len(t, found.Mappings(), 1)
	m := found.Mappings()[0]
	assert.Equal(t, "displayName", m.TargetAttribute)
	assert.Equal(t, attribute.KindText, m.TargetKind)
	require.Len(t, m.Sources, 1)
	assert.Equal(t, "cn", m.Sources[0].Attribute)

	require.Len(t, found.Scope(), 1)
	assert.Equal(t, syncrule.GroupAll, found.Scope()[0].Operator)
	require.Len(t, found.Scope()[0].Conditions, 1)
	assert.Equal(t, syncrule.OpEquals, found.Scope()[0].Conditions[0].Operator)

	require.Len(t, found.JoinCriteria(), 1)
	assert.Equal(t, "employeeId", found.JoinCriteria()[0].HubAttribute)
}

func TestSyncRuleRepository_ListInScope(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncRuleRepository(db, logger.NewLogger())
	ctx := context.Background()

	second, err := syncrule.NewSyncRule(inboundRuleParams("hr-users-low", 20))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, second))

	first, err := syncrule.NewSyncRule(inboundRuleParams("hr-users-high", 5))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, first))

	disabled, err := syncrule.NewSyncRule(inboundRuleParams("hr-users-off", 1))
	require.NoError(t, err)
	disabled.Disable()
	require.NoError(t, repo.Create(ctx, disabled))

	rules, err := repo.ListInScope(ctx, "sys_hr", "user", syncrule.DirectionInbound)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, "hr-users-high", rules[0].Name())
	assert.Equal(t, "hr-users-low", rules[1].Name())

	outbound, err := repo.ListInScope(ctx, "sys_hr", "user", syncrule.DirectionOutbound)
	require.NoError(t, err)
	assert.Empty(t, outbound)
}

func TestSyncRuleRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSyncRuleRepository(db, logger.NewLogger())
	ctx := context.Background()

	rule, err := syncrule.NewSyncRule(inboundRuleParams("hr-users", 10))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, rule))

	loaded, err := repo.GetBySID(ctx, rule.SID())
	require.NoError(t, err)
	loaded.Disable()
	require.NoError(t, repo.Update(ctx, loaded))

	stale, err := repo.GetBySID(ctx, rule.SID())
	require.NoError(t, err)
	assert.False(t, stale.Enabled())

	require.NoError(t, repo.Delete(ctx, rule.SID()))
	_, err = repo.GetBySID(ctx, rule.SID())
	assert.True(t, errors.IsNotFoundError(err))
}
