package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/infrastructure/migration"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(migration.AutoMigrateModels()...)
	require.NoError(t, err)

	return db
}

func createTestHubObject(t *testing.T, repo hub.Repository, objectType string) *hub.HubObject {
	obj, err := hub.NewHubObject(objectType, hub.OriginProjected)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), obj))
	return obj
}

func TestHubObjectRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHubObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	t.Run("round trips object with typed values", func(t *testing.T) {
		obj, err := hub.NewHubObject("person", hub.OriginProjected)
		require.NoError(t, err)
		obj.SetSingleValue("displayName", attribute.NewText("Alice"), "sys_hr")
		obj.SetSingleValue("employeeNumber", attribute.NewNumber(42), "sys_hr")
		obj.AddValue("proxyAddresses", attribute.NewText("alice@corp.example"), "sys_mail")
		obj.AddValue("proxyAddresses", attribute.NewText("a.smith@corp.example"), "sys_mail")

		require.NoError(t, repo.Create(ctx, obj))
		assert.NotZero(t, obj.ID())

		found, err := repo.GetBySID(ctx, obj.SID())
		require.NoError(t, err)
		assert.Equal(t, obj.SID(), found.SID())
		assert.Equal(t, "person", found.ObjectType())
		assert.True(t, attribute.NewText("Alice").Equal(found.ValuesFor("displayName")[0]))
		assert.True(t, attribute.NewNumber(42).Equal(found.ValuesFor("employeeNumber")[0]))
		assert.Len(t, found.ValuesFor("proxyAddresses"), 2)

		entries := found.AttributeEntries("displayName")
		require.Len(t, entries, 1)
		assert.Equal(t, "sys_hr", entries[0].ContributedBy)
	})

	t.Run("missing SID yields not found", func(t *testing.T) {
		_, err := repo.GetBySID(ctx, "hub_missing")
		assert.True(t, errors.IsNotFoundError(err))
	})
}

func TestHubObjectRepository_OptimisticLocking(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHubObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	obj := createTestHubObject(t, repo, "person")

	first, err := repo.GetBySID(ctx, obj.SID())
	require.NoError(t, err)
	second, err := repo.GetBySID(ctx, obj.SID())
	require.NoError(t, err)

	first.SetSingleValue("displayName", attribute.NewText("Alice"), "sys_hr")
	require.NoError(t, repo.Update(ctx, first))

	second.SetSingleValue("displayName", attribute.NewText("Bob"), "sys_crm")
	err = repo.Update(ctx, second)
	assert.True(t, errors.IsConcurrencyConflict(err))

	// The winning write is intact.
	found, err := repo.GetBySID(ctx, obj.SID())
	require.NoError(t, err)
	assert.Equal(t, "Alice", found.ValuesFor("displayName")[0].Text())
}

func TestHubObjectRepository_FindByAttributeEquals(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHubObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	alice, err := hub.NewHubObject("person", hub.OriginProjected)
	require.NoError(t, err)
	alice.SetSingleValue("employeeId", attribute.NewText("E100"), "sys_hr")
	require.NoError(t, repo.Create(ctx, alice))

	bob, err := hub.NewHubObject("person", hub.OriginProjected)
	require.NoError(t, err)
	bob.SetSingleValue("employeeId", attribute.NewText("E200"), "sys_hr")
	require.NoError(t, repo.Create(ctx, bob))

	group, err := hub.NewHubObject("group", hub.OriginProjected)
	require.NoError(t, err)
	group.SetSingleValue("employeeId", attribute.NewText("E100"), "sys_hr")
	require.NoError(t, repo.Create(ctx, group))

	t.Run("matches only the requested type and value", func(t *testing.T) {
		found, err := repo.FindByAttributeEquals(ctx, "person", "employeeId", attribute.NewText("E100"))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, alice.SID(), found[0].SID())
	})

	t.Run("distinguishes kinds sharing a rendering", func(t *testing.T) {
		found, err := repo.FindByAttributeEquals(ctx, "person", "employeeId", attribute.NewIdentifier("E100"))
		require.NoError(t, err)
		assert.Empty(t, found)
	})

	t.Run("obsolete objects are excluded", func(t *testing.T) {
		loaded, err := repo.GetBySID(ctx, alice.SID())
		require.NoError(t, err)
		require.NoError(t, loaded.MarkObsolete())
		require.NoError(t, repo.Update(ctx, loaded))

		found, err := repo.FindByAttributeEquals(ctx, "person", "employeeId", attribute.NewText("E100"))
		require.NoError(t, err)
		assert.Empty(t, found)
	})
}

func TestHubObjectRepository_ListPendingDeletion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHubObjectRepository(db, logger.NewLogger())
	ctx := context.Background()

	due := createTestHubObject(t, repo, "person")
	loaded, err := repo.GetBySID(ctx, due.SID())
	require.NoError(t, err)
	require.NoError(t, loaded.ScheduleDeletion(time.Now().UTC().Add(time.Hour)))
	require.NoError(t, repo.Update(ctx, loaded))

	createTestHubObject(t, repo, "person")

	pending, err := repo.ListPendingDeletion(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, due.SID(), pending[0].SID())
	assert.NotNil(t, pending[0].DeletionDueAt())
}
