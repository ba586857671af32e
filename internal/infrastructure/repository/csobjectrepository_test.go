package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

func createTestCSObject(t *testing.T, repo connector.CSObjectRepository, systemSID, uniqueID string) *connector.CSObject {
	obj, err := connector.NewCSObject(systemSID, "user", uniqueID, "")
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), obj))
	return obj
}

func TestCSObjectRepository_CreateAndLookup(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCSObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	obj, err := connector.NewCSObject("sys_hr", "user", "u-1001", "emea")
	require.NoError(t, err)
	obj.ReplaceValues(attribute.Values{
		"mail": {attribute.NewText("alice@corp.example")},
	})
	require.NoError(t, repo.Create(ctx, obj))
	assert.NotZero(t, obj.ID())

	t.Run("by unique id within system and type", func(t *testing.T) {
		found, err := repo.GetByUniqueID(ctx, "sys_hr", "user", "u-1001")
		require.NoError(t, err)
		assert.Equal(t, obj.SID(), found.SID())
		assert.Equal(t, "emea", found.Partition())
		assert.True(t, attribute.NewText("alice@corp.example").Equal(found.Values()["mail"][0]))
	})

	t.Run("wrong system yields not found", func(t *testing.T) {
		_, err := repo.GetByUniqueID(ctx, "sys_crm", "user", "u-1001")
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestCSObjectRepository_UpdatePersistsJoin(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCSObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	obj := createTestCSObject(t, repo, "sys_hr", "u-2001")
	joinedAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, obj.Join("hub_abc123", joinedAt))
	require.NoError(t, repo.Update(ctx, obj))

	found, err := repo.GetBySID(ctx, obj.SID())
	require.NoError(t, err)
	assert.Equal(t, connector.JoinStateJoined, found.JoinState())
	assert.Equal(t, "hub_abc123", found.HubSID())
	require.NotNil(t, found.JoinedAt())
	assert.True(t, found.JoinedAt().Equal(joinedAt))
}

func TestCSObjectRepository_StaleUpdateConflicts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCSObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	obj := createTestCSObject(t, repo, "sys_hr", "u-3001")

	first, err := repo.GetBySID(ctx, obj.SID())
	require.NoError(t, err)
	second, err := repo.GetBySID(ctx, obj.SID())
	require.NoError(t, err)

	first.ReplaceValues(attribute.Values{"mail": {attribute.NewText("new@corp.example")}})
	require.NoError(t, repo.Update(ctx, first))

	second.Disconnect()
	err = repo.Update(ctx, second)
	assert.True(t, errors.IsConcurrencyConflict(err))
}

func TestCSObjectRepository_Paging(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCSObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		createTestCSObject(t, repo, "sys_hr", fmt.Sprintf("u-%d", i))
	}
	createTestCSObject(t, repo, "sys_crm", "c-0")

	page, err := repo.ListPage(ctx, "sys_hr", 0, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)

	rest, err := repo.ListPage(ctx, "sys_hr", page[2].ID(), 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Greater(t, rest[0].ID(), page[2].ID())

	tail, err := repo.ListPage(ctx, "sys_hr", rest[1].ID(), 3)
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestCSObjectRepository_JoinedQueries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCSObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	now := time.Now().UTC()
	joined := createTestCSObject(t, repo, "sys_hr", "u-join")
	require.NoError(t, joined.Join("hub_target", now))
	require.NoError(t, repo.Update(ctx, joined))

	dropped := createTestCSObject(t, repo, "sys_crm", "c-drop")
	require.NoError(t, dropped.Join("hub_target", now))
	dropped.Disconnect()
	require.NoError(t, repo.Update(ctx, dropped))

	list, err := repo.ListJoinedToHub(ctx, "hub_target")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, joined.SID(), list[0].SID())

	count, err := repo.CountJoined(ctx, "hub_target")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCSObjectRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCSObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	obj := createTestCSObject(t, repo, "sys_hr", "u-del")
	require.NoError(t, repo.Delete(ctx, obj))

	_, err := repo.GetBySID(ctx, obj.SID())
	assert.True(t, errors.IsNotFoundError(err))
}
