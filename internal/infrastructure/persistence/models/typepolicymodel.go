package models

import (
	"time"

	"github.com/junction-io/junction/internal/shared/constants"
)

// TypePolicyModel represents the per-object-type deletion policy.
type TypePolicyModel struct {
	ID                 uint   `gorm:"primarykey"`
	ObjectType         string `gorm:"not null;size:64;uniqueIndex"`
	DeletionRule       string `gorm:"not null;size:20;default:manual"`
	GracePeriodSeconds int64  `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName specifies the table name for GORM
func (TypePolicyModel) TableName() string {
	return constants.TableTypePolicies
}
