package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/domain/attribute"
)

func newTestObject(t *testing.T) *CSObject {
	t.Helper()
	obj, err := NewCSObject("sys_hr", "person", "E1001", "corp")
	require.NoError(t, err)
	return obj
}

func TestNewCSObject(t *testing.T) {
	obj := newTestObject(t)

	assert.Equal(t, "sys_hr", obj.SystemSID())
	assert.Equal(t, "person", obj.ExternalType())
	assert.Equal(t, "E1001", obj.UniqueID())
	assert.Equal(t, "corp", obj.Partition())
	assert.Equal(t, JoinStateUnjoined, obj.JoinState())
	assert.Equal(t, ObjectStatusActive, obj.Status())
	assert.False(t, obj.IsJoined())
	assert.NotEmpty(t, obj.SID())
}

func TestNewCSObjectValidation(t *testing.T) {
	_, err := NewCSObject("", "person", "E1", "")
	assert.Error(t, err)

	_, err = NewCSObject("sys_hr", "", "E1", "")
	assert.Error(t, err)
}

func TestCSObjectReplaceValues(t *testing.T) {
	obj := newTestObject(t)

	first := attribute.Values{
		"displayName": {attribute.NewText("Alice Smith")},
	}
	changed := obj.ReplaceValues(first)
	assert.True(t, changed)
	v1 := obj.Version()

	// Same content again is a no-op and must not bump the version.
	same := attribute.Values{
		"displayName": {attribute.NewText("Alice Smith")},
	}
	changed = obj.ReplaceValues(same)
	assert.False(t, changed)
	assert.Equal(t, v1, obj.Version())

	changed = obj.ReplaceValues(attribute.Values{
		"displayName": {attribute.NewText("Alice Jones")},
	})
	assert.True(t, changed)
	assert.Greater(t, obj.Version(), v1)

	got := obj.Values()["displayName"]
	require.Len(t, got, 1)
	assert.Equal(t, "Alice Jones", got[0].Text())
}

func TestCSObjectValuesReturnsCopy(t *testing.T) {
	obj := newTestObject(t)
	obj.ReplaceValues(attribute.Values{
		"mail": {attribute.NewText("alice@example.com")},
	})

	snap := obj.Values()
	snap["mail"] = []attribute.Value{attribute.NewText("mallory@example.com")}

	assert.Equal(t, "alice@example.com", obj.Values()["mail"][0].Text())
}

func TestCSObjectJoinLifecycle(t *testing.T) {
	obj := newTestObject(t)
	at := time.Now().UTC()

	err := obj.Join("hub_abc", at)
	require.NoError(t, err)
	assert.True(t, obj.IsJoined())
	assert.Equal(t, "hub_abc", obj.HubSID())

	// A joined object cannot be joined again without disconnecting first.
	err = obj.Join("hub_other", at)
	assert.Error(t, err)

	obj.Disconnect()
	assert.Equal(t, JoinStateDisconnected, obj.JoinState())
	assert.Empty(t, obj.HubSID())
	assert.False(t, obj.IsJoined())

	// Re-join after disconnect is allowed.
	err = obj.Join("hub_other", at)
	require.NoError(t, err)
	assert.Equal(t, "hub_other", obj.HubSID())
}

func TestCSObjectMarkDeletedExternally(t *testing.T) {
	obj := newTestObject(t)
	obj.ReplaceValues(attribute.Values{
		"mail": {attribute.NewText("alice@example.com")},
	})

	obj.MarkDeletedExternally()
	assert.Equal(t, ObjectStatusDeleted, obj.Status())
}

func TestCSObjectAssignUniqueID(t *testing.T) {
	obj, err := NewCSObject("sys_ad", "user", "", "")
	require.NoError(t, err)

	err = obj.AssignUniqueID("CN=alice")
	require.NoError(t, err)
	assert.Equal(t, "CN=alice", obj.UniqueID())

	// Once set, the external identifier is immutable.
	err = obj.AssignUniqueID("CN=other")
	assert.Error(t, err)
}

func TestCSObjectApplyConfirmedExport(t *testing.T) {
	obj := newTestObject(t)
	obj.ReplaceValues(attribute.Values{
		"mail":   {attribute.NewText("alice@old.example.com")},
		"groups": {attribute.NewText("staff"), attribute.NewText("eng")},
	})

	obj.ApplyConfirmedExport([]AttributeChange{
		{Attribute: "mail", Op: ChangeOpRemove, Value: attribute.NewText("alice@old.example.com")},
		{Attribute: "mail", Op: ChangeOpAdd, Value: attribute.NewText("alice@example.com")},
		{Attribute: "groups", Op: ChangeOpRemove, Value: attribute.NewText("eng")},
	})

	vals := obj.Values()
	require.Len(t, vals["mail"], 1)
	assert.Equal(t, "alice@example.com", vals["mail"][0].Text())
	require.Len(t, vals["groups"], 1)
	assert.Equal(t, "staff", vals["groups"][0].Text())
}
