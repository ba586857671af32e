package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/logger"
)

// TypePolicyRepositoryImpl implements the hub.TypePolicyRepository interface.
type TypePolicyRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.TypePolicyMapper
	logger logger.Interface
}

// NewTypePolicyRepository creates a new type policy repository instance.
func NewTypePolicyRepository(db *gorm.DB, logger logger.Interface) hub.TypePolicyRepository {
	return &TypePolicyRepositoryImpl{
		db:     db,
		mapper: mappers.NewTypePolicyMapper(),
		logger: logger,
	}
}

// GetByObjectType retrieves the deletion policy for one hub object type.
// A type without a stored policy defaults to manual deletion.
func (r *TypePolicyRepositoryImpl) GetByObjectType(ctx context.Context, objectType string) (*hub.TypePolicy, error) {
	var model models.TypePolicyModel

	if err := r.db.WithContext(ctx).Where("object_type = ?", objectType).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return hub.NewTypePolicy(objectType, hub.DeletionManual, 0)
		}
		r.logger.Errorw("failed to get type policy", "object_type", objectType, "error", err)
		return nil, fmt.Errorf("failed to get type policy: %w", err)
	}

	entity, err := r.mapper.ToEntity(&model)
	if err != nil {
		r.logger.Errorw("failed to map type policy model to entity", "object_type", objectType, "error", err)
		return nil, fmt.Errorf("failed to map type policy: %w", err)
	}

	return entity, nil
}

// Save creates or replaces the policy for a hub object type.
func (r *TypePolicyRepositoryImpl) Save(ctx context.Context, policy *hub.TypePolicy) error {
	model, err := r.mapper.ToModel(policy)
	if err != nil {
		r.logger.Errorw("failed to map type policy entity to model", "error", err)
		return fmt.Errorf("failed to map type policy entity: %w", err)
	}

	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "object_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"deletion_rule", "grace_period_seconds", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to save type policy", "object_type", model.ObjectType, "error", err)
		return fmt.Errorf("failed to save type policy: %w", err)
	}

	r.logger.Infow("type policy saved", "object_type", model.ObjectType, "rule", model.DeletionRule)
	return nil
}
