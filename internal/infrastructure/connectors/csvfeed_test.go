package connectors

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/shared/logger"
)

func writeFeedFile(t *testing.T, dir, name, content string) {
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newFeedSystem(t *testing.T, name string) *connector.ConnectedSystem {
	system, err := connector.NewConnectedSystem(name, "csv-feed")
	require.NoError(t, err)
	return system
}

func TestCSVImporter_ReadPage(t *testing.T) {
	base := t.TempDir()
	system := newFeedSystem(t, "hr")
	writeFeedFile(t, filepath.Join(base, "hr"), "user.csv",
		"unique_id,partition,deleted,cn,mail\n"+
			"u-1,emea,,Alice,alice@corp.example\n"+
			"u-2,,true,Bob,\n"+
			"u-3,apac,,Carol,carol@corp.example\n")

	factory := NewCSVFeedFactory(base, logger.NewLogger())
	imp, err := factory.NewImporter(system)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("pages through the feed with a restartable cursor", func(t *testing.T) {
		page1, cursor, err := imp.ReadPage(ctx, nil, 2)
		require.NoError(t, err)
		require.Len(t, page1, 2)
		require.NotNil(t, cursor)

		assert.Equal(t, "u-1", page1[0].UniqueID)
		assert.Equal(t, "user", page1[0].ExternalType)
		assert.Equal(t, "emea", page1[0].Partition)
		assert.False(t, page1[0].Deleted)
		assert.True(t, attribute.NewText("Alice").Equal(page1[0].Values["cn"][0]))
		assert.True(t, attribute.NewText("alice@corp.example").Equal(page1[0].Values["mail"][0]))

		assert.True(t, page1[1].Deleted)
		_, hasMail := page1[1].Values["mail"]
		assert.False(t, hasMail, "empty cells yield no value")

		page2, next, err := imp.ReadPage(ctx, cursor, 2)
		require.NoError(t, err)
		require.Len(t, page2, 1)
		assert.Equal(t, "u-3", page2[0].UniqueID)
		assert.Nil(t, next)
	})

	t.Run("cursor past the end yields an empty page", func(t *testing.T) {
		page, next, err := imp.ReadPage(ctx, []byte("99"), 2)
		require.NoError(t, err)
		assert.Empty(t, page)
		assert.Nil(t, next)
	})

	t.Run("garbage cursor is rejected", func(t *testing.T) {
		_, _, err := imp.ReadPage(ctx, []byte("not-a-number"), 2)
		assert.Error(t, err)
	})
}

func TestCSVImporter_MultipleTypes(t *testing.T) {
	base := t.TempDir()
	system := newFeedSystem(t, "hr")
	dir := filepath.Join(base, "hr")
	writeFeedFile(t, dir, "group.csv", "unique_id,name\ng-1,Engineering\n")
	writeFeedFile(t, dir, "user.csv", "unique_id,cn\nu-1,Alice\n")

	factory := NewCSVFeedFactory(base, logger.NewLogger())
	imp, err := factory.NewImporter(system)
	require.NoError(t, err)

	all, next, err := imp.ReadPage(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, all, 2)

	// Files are read in name order.
	assert.Equal(t, "group", all[0].ExternalType)
	assert.Equal(t, "user", all[1].ExternalType)
}

func TestCSVImporter_MissingUniqueIDColumn(t *testing.T) {
	base := t.TempDir()
	system := newFeedSystem(t, "hr")
	writeFeedFile(t, filepath.Join(base, "hr"), "user.csv", "cn,mail\nAlice,a@x\n")

	factory := NewCSVFeedFactory(base, logger.NewLogger())
	imp, err := factory.NewImporter(system)
	require.NoError(t, err)

	_, _, err = imp.ReadPage(context.Background(), nil, 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unique_id")
}

func TestOutboxExporter_Apply(t *testing.T) {
	base := t.TempDir()
	system := newFeedSystem(t, "ad")
	require.NoError(t, os.MkdirAll(filepath.Join(base, "ad"), 0o755))

	factory := NewCSVFeedFactory(base, logger.NewLogger())
	exp, err := factory.NewExporter(system)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("create without identifier is assigned one", func(t *testing.T) {
		result, err := exp.Apply(ctx, "user", "", connector.ChangeTypeCreate, []connector.AttributeChange{
			{Attribute: "cn", Op: connector.ChangeOpAdd, Value: attribute.NewText("Alice")},
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.AssignedUniqueID)
	})

	t.Run("update keeps the given identifier", func(t *testing.T) {
		result, err := exp.Apply(ctx, "user", "u-7", connector.ChangeTypeUpdate, []connector.AttributeChange{
			{Attribute: "mail", Op: connector.ChangeOpRemove, Value: attribute.NewText("old@corp.example")},
		})
		require.NoError(t, err)
		assert.Empty(t, result.AssignedUniqueID)
	})

	t.Run("records land in the outbox as JSON lines", func(t *testing.T) {
		f, err := os.Open(filepath.Join(base, "ad", "outbox.jsonl"))
		require.NoError(t, err)
		defer f.Close()

		var records []outboxRecord
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			var rec outboxRecord
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
			records = append(records, rec)
		}
		require.NoError(t, scanner.Err())

		require.Len(t, records, 2)
		assert.Equal(t, "create", records[0].ChangeType)
		assert.NotEmpty(t, records[0].UniqueID)
		assert.Equal(t, "update", records[1].ChangeType)
		assert.Equal(t, "u-7", records[1].UniqueID)
	})
}
