package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// ActivityRepositoryImpl implements the run.ActivityRepository interface.
type ActivityRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ActivityMapper
	logger logger.Interface
}

// NewActivityRepository creates a new run activity repository instance.
func NewActivityRepository(db *gorm.DB, logger logger.Interface) run.ActivityRepository {
	return &ActivityRepositoryImpl{
		db:     db,
		mapper: mappers.NewActivityMapper(),
		logger: logger,
	}
}

// Create persists a newly started activity.
func (r *ActivityRepositoryImpl) Create(ctx context.Context, activity *run.Activity) error {
	model, err := r.mapper.ToModel(activity)
	if err != nil {
		r.logger.Errorw("failed to map activity entity to model", "error", err)
		return fmt.Errorf("failed to map activity entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create activity in database", "profile_sid", model.ProfileSID, "error", err)
		return fmt.Errorf("failed to create activity: %w", err)
	}

	if err := activity.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set activity ID: %w", err)
	}

	return nil
}

// GetBySID retrieves an activity by its SID.
func (r *ActivityRepositoryImpl) GetBySID(ctx context.Context, sid string) (*run.Activity, error) {
	var model models.ActivityModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("activity not found", sid)
		}
		r.logger.Errorw("failed to get activity by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Update rewrites an activity's status and counters.
func (r *ActivityRepositoryImpl) Update(ctx context.Context, activity *run.Activity) error {
	model, err := r.mapper.ToModel(activity)
	if err != nil {
		r.logger.Errorw("failed to map activity entity to model", "error", err)
		return fmt.Errorf("failed to map activity entity: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.ActivityModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"status":      model.Status,
			"counters":    model.Counters,
			"finished_at": model.FinishedAt,
			"fail_reason": model.FailReason,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update activity", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update activity: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("activity not found", activity.SID())
	}

	return nil
}

// ListByProfile walks a profile's activities in stable ID order.
func (r *ActivityRepositoryImpl) ListByProfile(ctx context.Context, profileSID string, afterID uint, limit int) ([]*run.Activity, error) {
	var actModels []*models.ActivityModel

	err := r.db.WithContext(ctx).
		Where("profile_sid = ? AND id > ?", profileSID, afterID).
		Order("id").
		Limit(limit).
		Find(&actModels).Error
	if err != nil {
		r.logger.Errorw("failed to list activities by profile", "profile_sid", profileSID, "error", err)
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return r.mapper.ToEntities(actModels)
}
