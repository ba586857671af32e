package models

import (
	"time"

	"github.com/junction-io/junction/internal/shared/constants"
)

// ConnectedSystemModel represents the database persistence model for
// connected external systems
type ConnectedSystemModel struct {
	ID         uint   `gorm:"primarykey"`
	SID        string `gorm:"column:sid;not null;size:40;uniqueIndex"`
	Name       string `gorm:"not null;size:128;uniqueIndex"`
	SystemType string `gorm:"not null;size:64"`
	Enabled    bool   `gorm:"not null;default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (ConnectedSystemModel) TableName() string {
	return constants.TableConnectedSystems
}
