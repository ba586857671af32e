package models

import (
	"gorm.io/datatypes"

	"github.com/junction-io/junction/internal/shared/constants"
)

// HubValueModel is one typed attribute value of a hub object.
// Value holds the full tagged-union JSON; Lookup is a canonical
// kind-prefixed rendering of the same value, indexed so equality joins
// resolve without scanning JSON.
type HubValueModel struct {
	ID            uint   `gorm:"primarykey"`
	HubObjectID   uint   `gorm:"not null;index"`
	Name          string `gorm:"not null;size:128;index:idx_hub_value_lookup,priority:1"`
	Lookup        string `gorm:"not null;size:512;index:idx_hub_value_lookup,priority:2"`
	Value         datatypes.JSON
	ContributedBy string `gorm:"size:40"`
}

// TableName specifies the table name for GORM
func (HubValueModel) TableName() string {
	return constants.TableHubValues
}
