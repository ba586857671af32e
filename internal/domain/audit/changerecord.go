package audit

import (
	"time"

	"github.com/junction-io/junction/internal/domain/attribute"
)

// ChangeOp is the direction of one attribute-level change.
type ChangeOp string

const (
	ChangeOpAdd    ChangeOp = "add"
	ChangeOpRemove ChangeOp = "remove"
)

// ChangeRecord is one attribute-level change written against an object,
// kept append-only for audit. VerboseAudit additionally records no-op
// evaluations; the default keeps only effective changes.
type ChangeRecord struct {
	ID          uint
	ObjectSID   string
	ActivitySID string
	Attribute   string
	Op          ChangeOp
	Value       attribute.Value
	RuleSID     string
	Initiator   Initiator
	RecordedAt  time.Time
}

// NewChangeRecord captures an effective attribute change.
func NewChangeRecord(objectSID, activitySID, attr string, op ChangeOp, v attribute.Value, ruleSID string, by Initiator) ChangeRecord {
	return ChangeRecord{
		ObjectSID:   objectSID,
		ActivitySID: activitySID,
		Attribute:   attr,
		Op:          op,
		Value:       v,
		RuleSID:     ruleSID,
		Initiator:   by,
		RecordedAt:  time.Now().UTC(),
	}
}
