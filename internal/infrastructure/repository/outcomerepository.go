package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/logger"
)

// OutcomeRepositoryImpl implements the run.OutcomeRepository interface.
type OutcomeRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.OutcomeMapper
	logger logger.Interface
}

// NewOutcomeRepository creates a new outcome repository instance.
func NewOutcomeRepository(db *gorm.DB, logger logger.Interface) run.OutcomeRepository {
	return &OutcomeRepositoryImpl{
		db:     db,
		mapper: mappers.NewOutcomeMapper(),
		logger: logger,
	}
}

// Append writes one page's outcome items in a single batch.
func (r *OutcomeRepositoryImpl) Append(ctx context.Context, items []run.OutcomeItem) error {
	if len(items) == 0 {
		return nil
	}

	rows := make([]*models.OutcomeItemModel, 0, len(items))
	for _, item := range items {
		rows = append(rows, r.mapper.ToModel(item))
	}

	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		r.logger.Errorw("failed to append run outcomes", "count", len(rows), "error", err)
		return fmt.Errorf("failed to append run outcomes: %w", err)
	}

	return nil
}

// ListByActivity walks an activity's outcome items in stable ID order.
func (r *OutcomeRepositoryImpl) ListByActivity(ctx context.Context, activitySID string, afterID uint, limit int) ([]run.OutcomeItem, error) {
	var itemModels []*models.OutcomeItemModel

	err := r.db.WithContext(ctx).
		Where("activity_sid = ? AND id > ?", activitySID, afterID).
		Order("id").
		Limit(limit).
		Find(&itemModels).Error
	if err != nil {
		r.logger.Errorw("failed to list outcomes by activity", "activity_sid", activitySID, "error", err)
		return nil, fmt.Errorf("failed to list outcomes: %w", err)
	}

	return r.mapper.ToEntities(itemModels), nil
}

// ListChildren returns the downstream items recorded under one outcome.
func (r *OutcomeRepositoryImpl) ListChildren(ctx context.Context, parentSID string) ([]run.OutcomeItem, error) {
	var itemModels []*models.OutcomeItemModel

	err := r.db.WithContext(ctx).
		Where("parent_sid = ?", parentSID).
		Order("id").
		Find(&itemModels).Error
	if err != nil {
		r.logger.Errorw("failed to list outcome children", "parent_sid", parentSID, "error", err)
		return nil, fmt.Errorf("failed to list outcome children: %w", err)
	}

	return r.mapper.ToEntities(itemModels), nil
}
