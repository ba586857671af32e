package models

import (
	"time"

	"github.com/junction-io/junction/internal/shared/constants"
)

// OutcomeItemModel is one per-object line of a run's report.
type OutcomeItemModel struct {
	ID          uint   `gorm:"primarykey"`
	SID         string `gorm:"column:sid;not null;size:40;uniqueIndex"`
	ActivitySID string `gorm:"column:activity_sid;not null;size:40;index"`
	ParentSID   string `gorm:"column:parent_sid;size:40;index"`
	ObjectSID   string `gorm:"column:object_sid;size:40"`
	Kind        string `gorm:"not null;size:30"`
	Message     string `gorm:"size:500"`
	RecordedAt  time.Time
}

// TableName specifies the table name for GORM
func (OutcomeItemModel) TableName() string {
	return constants.TableRunOutcomes
}
