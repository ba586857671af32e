package run

import (
	"time"

	"github.com/junction-io/junction/internal/shared/id"
)

// OutcomeKind names what happened to one object during a run. Kinds are
// open-ended strings so new engine behaviors can report without a schema
// change; the constants below are the ones the engine emits today.
type OutcomeKind string

const (
	OutcomeAdded         OutcomeKind = "added"
	OutcomeUpdated       OutcomeKind = "updated"
	OutcomeUnchanged     OutcomeKind = "unchanged"
	OutcomeDeleted       OutcomeKind = "deleted"
	OutcomeProjected     OutcomeKind = "projected"
	OutcomeJoined        OutcomeKind = "joined"
	OutcomeDisconnected  OutcomeKind = "disconnected"
	OutcomeOutOfScope    OutcomeKind = "out_of_scope"
	OutcomeExported      OutcomeKind = "exported"
	OutcomeExportFailed  OutcomeKind = "export_failed"
	OutcomeProvisioned   OutcomeKind = "provisioned"
	OutcomeAmbiguousJoin OutcomeKind = "ambiguous_join"
	OutcomeScopingError  OutcomeKind = "scoping_error"
	OutcomeMappingError  OutcomeKind = "mapping_error"
	OutcomeError         OutcomeKind = "error"
)

// IsError reports whether the kind counts against the run's error tally.
func (k OutcomeKind) IsError() bool {
	switch k {
	case OutcomeExportFailed, OutcomeAmbiguousJoin, OutcomeScopingError,
		OutcomeMappingError, OutcomeError:
		return true
	}
	return false
}

// OutcomeItem is one per-object line of a run's report. Items form a
// shallow tree: a sync outcome on a source object can carry children for
// the downstream effects on the hub and on other systems.
type OutcomeItem struct {
	ID          uint
	SID         string
	ActivitySID string
	ParentSID   string
	ObjectSID   string
	Kind        OutcomeKind
	Message     string
	RecordedAt  time.Time
}

// NewOutcomeItem records a top-level outcome for one object.
func NewOutcomeItem(activitySID, objectSID string, kind OutcomeKind, message string) OutcomeItem {
	return OutcomeItem{
		SID:         id.NewOutcomeSID(),
		ActivitySID: activitySID,
		ObjectSID:   objectSID,
		Kind:        kind,
		Message:     message,
		RecordedAt:  time.Now().UTC(),
	}
}

// Child records a downstream effect nested under this outcome.
func (o OutcomeItem) Child(objectSID string, kind OutcomeKind, message string) OutcomeItem {
	item := NewOutcomeItem(o.ActivitySID, objectSID, kind, message)
	item.ParentSID = o.SID
	return item
}
