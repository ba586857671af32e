package connector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junction-io/junction/internal/domain/attribute"
)

func TestNewPendingExport(t *testing.T) {
	changes := []AttributeChange{
		{Attribute: "mail", Op: ChangeOpAdd, Value: attribute.NewText("alice@example.com")},
	}

	pe, err := NewPendingExport("cso_x", "sys_ad", ChangeTypeCreate, changes)
	require.NoError(t, err)
	assert.Equal(t, ExportStatusPending, pe.Status())
	assert.Equal(t, ChangeTypeCreate, pe.ChangeType())
	assert.Zero(t, pe.ErrorCount())
	assert.NotEmpty(t, pe.SID())
	require.Len(t, pe.Changes(), 1)

	// Delete exports carry no attribute delta.
	pe, err = NewPendingExport("cso_x", "sys_ad", ChangeTypeDelete, nil)
	require.NoError(t, err)
	assert.Empty(t, pe.Changes())
}

func TestNewPendingExportValidation(t *testing.T) {
	_, err := NewPendingExport("", "sys_ad", ChangeTypeCreate, nil)
	assert.Error(t, err)

	_, err = NewPendingExport("cso_x", "sys_ad", ChangeType("upsert"), nil)
	assert.Error(t, err)

	// Create and update need at least one attribute change.
	_, err = NewPendingExport("cso_x", "sys_ad", ChangeTypeUpdate, nil)
	assert.Error(t, err)
}

func TestPendingExportReplace(t *testing.T) {
	pe, err := NewPendingExport("cso_x", "sys_ad", ChangeTypeCreate, []AttributeChange{
		{Attribute: "mail", Op: ChangeOpAdd, Value: attribute.NewText("old@example.com")},
	})
	require.NoError(t, err)

	pe.RecordFailure(errors.New("ldap unavailable"), "dial tcp: refused")

	// Recomputing replaces the staged delta in place but keeps the error
	// history visible.
	pe.Replace(ChangeTypeUpdate, []AttributeChange{
		{Attribute: "mail", Op: ChangeOpAdd, Value: attribute.NewText("new@example.com")},
	})

	assert.Equal(t, ChangeTypeUpdate, pe.ChangeType())
	assert.Equal(t, ExportStatusPending, pe.Status())
	require.Len(t, pe.Changes(), 1)
	assert.Equal(t, "new@example.com", pe.Changes()[0].Value.Text())
	assert.Equal(t, 1, pe.ErrorCount())
	assert.Equal(t, "ldap unavailable", pe.LastError())
}

func TestPendingExportRecordFailure(t *testing.T) {
	pe, err := NewPendingExport("cso_x", "sys_ad", ChangeTypeDelete, nil)
	require.NoError(t, err)

	pe.RecordFailure(errors.New("timeout"), "")
	pe.RecordFailure(errors.New("timeout"), "")
	pe.RecordFailure(errors.New("forbidden"), "insufficient rights")

	assert.Equal(t, 3, pe.ErrorCount())
	assert.Equal(t, "forbidden", pe.LastError())
	assert.Equal(t, "insufficient rights", pe.LastDiag())
	assert.Equal(t, ExportStatusFailed, pe.Status())

	pe.MarkRetrying()
	assert.Equal(t, ExportStatusPending, pe.Status())
	assert.Equal(t, 3, pe.ErrorCount())
}
