package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/junction-io/junction/internal/shared/constants"
)

// PendingExportModel represents one staged outbound change set.
// The unique index on cs_object_sid keeps at most one pending export per
// object; recomputation replaces the row's content in place. No version
// column: writes happen only under the per-system run lock.
type PendingExportModel struct {
	ID          uint   `gorm:"primarykey"`
	SID         string `gorm:"column:sid;not null;size:40;uniqueIndex"`
	CSObjectSID string `gorm:"column:cs_object_sid;not null;size:40;uniqueIndex"`
	SystemSID   string `gorm:"column:system_sid;not null;size:40;index"`
	ChangeType  string `gorm:"not null;size:10"`
	Status      string `gorm:"not null;size:10;default:pending"`
	ErrorCount  int    `gorm:"not null;default:0"`
	LastError   string `gorm:"size:1000"`
	LastDiag    string `gorm:"size:2000"`
	Changes     datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM
func (PendingExportModel) TableName() string {
	return constants.TablePendingExports
}
