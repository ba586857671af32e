package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/junction-io/junction/internal/shared/constants"
)

// ChangeRecordModel is one audit entry for a hub attribute change.
// Records are append-only; nothing ever updates or deletes them.
type ChangeRecordModel struct {
	ID          uint   `gorm:"primarykey"`
	ObjectSID   string `gorm:"column:object_sid;not null;size:40;index"`
	ActivitySID string `gorm:"column:activity_sid;size:40;index"`
	Attribute   string `gorm:"not null;size:128"`
	Op          string `gorm:"not null;size:10"`
	Value       datatypes.JSON
	RuleSID     string `gorm:"column:rule_sid;size:40"`
	Initiator   datatypes.JSON
	RecordedAt  time.Time `gorm:"index"`
}

// TableName specifies the table name for GORM
func (ChangeRecordModel) TableName() string {
	return constants.TableChangeRecords
}
