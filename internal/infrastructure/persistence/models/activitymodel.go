package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/junction-io/junction/internal/shared/constants"
)

// ActivityModel represents one run of a run profile.
// A running activity has a single writer (the orchestrator holding the
// per-system run lock), so there is no version column.
type ActivityModel struct {
	ID         uint   `gorm:"primarykey"`
	SID        string `gorm:"column:sid;not null;size:40;uniqueIndex"`
	ProfileSID string `gorm:"column:profile_sid;not null;size:40;index"`
	RunType    string `gorm:"not null;size:20"`
	Status     string `gorm:"not null;size:30;default:running"`
	Initiator  datatypes.JSON
	Counters   datatypes.JSON
	StartedAt  time.Time `gorm:"index"`
	FinishedAt *time.Time
	FailReason string `gorm:"size:1000"`
}

// TableName specifies the table name for GORM
func (ActivityModel) TableName() string {
	return constants.TableRunActivities
}
