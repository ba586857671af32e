package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/junction-io/junction/internal/shared/constants"
)

// SyncRuleModel represents the database persistence model for sync rules.
// Scope, join criteria and mappings are authored structures persisted as
// JSON documents; they are only ever read back whole.
type SyncRuleModel struct {
	ID                uint   `gorm:"primarykey"`
	SID               string `gorm:"column:sid;not null;size:40;uniqueIndex"`
	Name              string `gorm:"not null;size:128"`
	SystemSID         string `gorm:"column:system_sid;not null;size:40;index:idx_rule_scope,priority:1"`
	ExternalType      string `gorm:"not null;size:64;index:idx_rule_scope,priority:2"`
	HubType           string `gorm:"not null;size:64"`
	Direction         string `gorm:"not null;size:10;index:idx_rule_scope,priority:3"`
	Precedence        int    `gorm:"not null;default:0"`
	ProjectHub        bool   `gorm:"not null;default:false"`
	ProvisionExternal bool   `gorm:"not null;default:false"`
	Scope             datatypes.JSON
	JoinCriteria      datatypes.JSON
	Mappings          datatypes.JSON
	OutOfScopeAction  string `gorm:"not null;size:20;default:remain_joined"`
	Enabled           bool   `gorm:"not null;default:true"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Version           int `gorm:"not null;default:1"`
}

// TableName specifies the table name for GORM
func (SyncRuleModel) TableName() string {
	return constants.TableSyncRules
}
