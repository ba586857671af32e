package connector

import (
	"fmt"
	"time"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/shared/id"
)

// ChangeType is the kind of outbound change staged for an external object.
type ChangeType string

const (
	ChangeTypeCreate ChangeType = "create"
	ChangeTypeUpdate ChangeType = "update"
	ChangeTypeDelete ChangeType = "delete"
)

// ChangeOp marks one attribute entry as an addition or removal.
type ChangeOp string

const (
	ChangeOpAdd    ChangeOp = "add"
	ChangeOpRemove ChangeOp = "remove"
)

// AttributeChange is one attribute-level entry of a staged export.
type AttributeChange struct {
	Attribute string          `json:"attribute"`
	Op        ChangeOp        `json:"op"`
	Value     attribute.Value `json:"value"`
}

// ExportStatus tracks the staged change through the connector boundary.
type ExportStatus string

const (
	ExportStatusPending ExportStatus = "pending"
	ExportStatusFailed  ExportStatus = "failed"
)

// PendingExport is a staged, not-yet-confirmed outbound change for one
// connected-system object. It is recomputed idempotently (replaced, never
// stacked), consumed by the connector boundary, and deleted once confirmed.
type PendingExport struct {
	id          uint
	sid         string
	csObjectSID string
	systemSID   string
	changeType  ChangeType
	status      ExportStatus
	errorCount  int
	lastError   string
	lastDiag    string
	changes     []AttributeChange
	createdAt   time.Time
	updatedAt   time.Time
}

// NewPendingExport stages an outbound change.
func NewPendingExport(csObjectSID, systemSID string, changeType ChangeType, changes []AttributeChange) (*PendingExport, error) {
	if csObjectSID == "" || systemSID == "" {
		return nil, fmt.Errorf("object and system are required")
	}
	switch changeType {
	case ChangeTypeCreate, ChangeTypeUpdate, ChangeTypeDelete:
	default:
		return nil, fmt.Errorf("invalid change type %q", changeType)
	}
	if changeType != ChangeTypeDelete && len(changes) == 0 {
		return nil, fmt.Errorf("%s export requires at least one attribute change", changeType)
	}
	now := time.Now().UTC()
	return &PendingExport{
		sid:         id.NewPendingExportSID(),
		csObjectSID: csObjectSID,
		systemSID:   systemSID,
		changeType:  changeType,
		status:      ExportStatusPending,
		changes:     changes,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructPendingExport rebuilds a staged export from persistence.
func ReconstructPendingExport(
	peID uint,
	sid, csObjectSID, systemSID string,
	changeType ChangeType,
	status ExportStatus,
	errorCount int,
	lastError, lastDiag string,
	changes []AttributeChange,
	createdAt, updatedAt time.Time,
) (*PendingExport, error) {
	if peID == 0 {
		return nil, fmt.Errorf("pending export ID cannot be zero")
	}
	return &PendingExport{
		id:          peID,
		sid:         sid,
		csObjectSID: csObjectSID,
		systemSID:   systemSID,
		changeType:  changeType,
		status:      status,
		errorCount:  errorCount,
		lastError:   lastError,
		lastDiag:    lastDiag,
		changes:     changes,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}, nil
}

func (p *PendingExport) ID() uint             { return p.id }
func (p *PendingExport) SID() string          { return p.sid }
func (p *PendingExport) CSObjectSID() string  { return p.csObjectSID }
func (p *PendingExport) SystemSID() string    { return p.systemSID }
func (p *PendingExport) ChangeType() ChangeType { return p.changeType }
func (p *PendingExport) Status() ExportStatus { return p.status }
func (p *PendingExport) ErrorCount() int      { return p.errorCount }
func (p *PendingExport) LastError() string    { return p.lastError }
func (p *PendingExport) LastDiag() string     { return p.lastDiag }
func (p *PendingExport) CreatedAt() time.Time { return p.createdAt }
func (p *PendingExport) UpdatedAt() time.Time { return p.updatedAt }

// Changes returns the staged attribute-level delta.
func (p *PendingExport) Changes() []AttributeChange {
	out := make([]AttributeChange, len(p.changes))
	copy(out, p.changes)
	return out
}

// SetID sets the store ID after insert (persistence layer only).
func (p *PendingExport) SetID(peID uint) error {
	if p.id != 0 {
		return fmt.Errorf("pending export ID is already set")
	}
	if peID == 0 {
		return fmt.Errorf("pending export ID cannot be zero")
	}
	p.id = peID
	return nil
}

// Replace swaps the staged delta for a freshly computed one. Recomputing a
// pending export before confirmation replaces, never stacks; the error
// history is kept so repeated failures stay visible.
func (p *PendingExport) Replace(changeType ChangeType, changes []AttributeChange) {
	p.changeType = changeType
	p.changes = changes
	p.status = ExportStatusPending
	p.updatedAt = time.Now().UTC()
}

// RecordFailure notes a failed connector call. The export stays queued for
// the next run; retry is manual in the sense that no backoff is scheduled
// inside the engine.
func (p *PendingExport) RecordFailure(callErr error, diag string) {
	p.errorCount++
	if callErr != nil {
		p.lastError = callErr.Error()
	}
	p.lastDiag = diag
	p.status = ExportStatusFailed
	p.updatedAt = time.Now().UTC()
}

// MarkRetrying flips a failed export back to pending as it is handed to the
// connector again.
func (p *PendingExport) MarkRetrying() {
	p.status = ExportStatusPending
	p.updatedAt = time.Now().UTC()
}
