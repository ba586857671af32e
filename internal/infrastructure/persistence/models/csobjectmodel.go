package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/junction-io/junction/internal/shared/constants"
)

// CSObjectModel represents the database persistence model for
// connected-system objects (the per-system mirror records).
// The (system_sid, external_type, unique_id) index is not unique because
// provisioned objects carry an empty unique ID until their create export
// is confirmed; uniqueness is enforced by the import path, which looks up
// before inserting under the per-system run lock.
type CSObjectModel struct {
	ID           uint   `gorm:"primarykey"`
	SID          string `gorm:"column:sid;not null;size:40;uniqueIndex"`
	SystemSID    string `gorm:"column:system_sid;not null;size:40;index:idx_cso_identity,priority:1"`
	ExternalType string `gorm:"not null;size:64;index:idx_cso_identity,priority:2"`
	UniqueID     string `gorm:"size:190;index:idx_cso_identity,priority:3"`
	Partition    string `gorm:"column:partition_key;size:64"`
	Status       string `gorm:"not null;size:20;default:active"`
	JoinState    string `gorm:"not null;size:20;default:unjoined"`
	HubSID       string `gorm:"column:hub_sid;size:40;index"`
	JoinedAt     *time.Time
	Values       datatypes.JSON
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (CSObjectModel) TableName() string {
	return constants.TableCSObjects
}
