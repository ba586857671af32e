package models

import (
	"time"

	"github.com/junction-io/junction/internal/shared/constants"
)

// RunProfileModel represents the database persistence model for run profiles
type RunProfileModel struct {
	ID                uint   `gorm:"primarykey"`
	SID               string `gorm:"column:sid;not null;size:40;uniqueIndex"`
	Name              string `gorm:"not null;size:128;uniqueIndex"`
	SystemSID         string `gorm:"column:system_sid;not null;size:40;index"`
	RunType           string `gorm:"not null;size:20"`
	PageSize          int    `gorm:"not null;default:0"`
	ContinueOnFailure bool   `gorm:"not null;default:false"`
	PartitionFilter   string `gorm:"size:64"`
	Watermark         *time.Time
	Enabled           bool `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (RunProfileModel) TableName() string {
	return constants.TableRunProfiles
}
