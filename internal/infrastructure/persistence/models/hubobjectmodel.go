package models

import (
	"time"

	"github.com/junction-io/junction/internal/shared/constants"
)

// HubObjectModel represents the database persistence model for hub objects
// This is the anti-corruption layer between domain and database
// Attribute values live in their own table (HubValueModel) so join
// conditions can be answered with an indexed lookup
type HubObjectModel struct {
	ID            uint       `gorm:"primarykey"`
	SID           string     `gorm:"column:sid;not null;size:40;uniqueIndex"`
	ObjectType    string     `gorm:"not null;size:64;index:idx_hub_type_status,priority:1"`
	Status        string     `gorm:"not null;size:20;default:normal;index:idx_hub_type_status,priority:2"`
	Origin        string     `gorm:"not null;size:20"`
	DeletionDueAt *time.Time `gorm:"index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Version       int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (HubObjectModel) TableName() string {
	return constants.TableHubObjects
}
