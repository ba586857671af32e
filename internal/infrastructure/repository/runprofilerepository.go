package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// RunProfileRepositoryImpl implements the run.ProfileRepository interface.
type RunProfileRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.RunProfileMapper
	logger logger.Interface
}

// NewRunProfileRepository creates a new run profile repository instance.
func NewRunProfileRepository(db *gorm.DB, logger logger.Interface) run.ProfileRepository {
	return &RunProfileRepositoryImpl{
		db:     db,
		mapper: mappers.NewRunProfileMapper(),
		logger: logger,
	}
}

// Create persists a new run profile.
func (r *RunProfileRepositoryImpl) Create(ctx context.Context, profile *run.Profile) error {
	model, err := r.mapper.ToModel(profile)
	if err != nil {
		r.logger.Errorw("failed to map run profile entity to model", "error", err)
		return fmt.Errorf("failed to map run profile entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint") {
			return errors.NewConflictError("run profile name already in use")
		}
		r.logger.Errorw("failed to create run profile in database", "name", model.Name, "error", err)
		return fmt.Errorf("failed to create run profile: %w", err)
	}

	if err := profile.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set run profile ID: %w", err)
	}

	r.logger.Infow("run profile created", "id", model.ID, "name", model.Name, "run_type", model.RunType)
	return nil
}

// GetBySID retrieves a run profile by its SID.
func (r *RunProfileRepositoryImpl) GetBySID(ctx context.Context, sid string) (*run.Profile, error) {
	var model models.RunProfileModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("run profile not found", sid)
		}
		r.logger.Errorw("failed to get run profile by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get run profile: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Update updates an existing run profile.
func (r *RunProfileRepositoryImpl) Update(ctx context.Context, profile *run.Profile) error {
	model, err := r.mapper.ToModel(profile)
	if err != nil {
		r.logger.Errorw("failed to map run profile entity to model", "error", err)
		return fmt.Errorf("failed to map run profile entity: %w", err)
	}

	// Optimistic locking: update only if version matches
	result := r.db.WithContext(ctx).Model(&models.RunProfileModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]any{
			"name":                model.Name,
			"run_type":            model.RunType,
			"page_size":           model.PageSize,
			"continue_on_failure": model.ContinueOnFailure,
			"partition_filter":    model.PartitionFilter,
			"watermark":           model.Watermark,
			"enabled":             model.Enabled,
			"updated_at":          model.UpdatedAt,
			"version":             model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update run profile", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update run profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConcurrencyConflictError(profile.SID())
	}

	return nil
}

// List returns every run profile.
func (r *RunProfileRepositoryImpl) List(ctx context.Context) ([]*run.Profile, error) {
	var profileModels []*models.RunProfileModel

	if err := r.db.WithContext(ctx).Order("id").Find(&profileModels).Error; err != nil {
		r.logger.Errorw("failed to list run profiles", "error", err)
		return nil, fmt.Errorf("failed to list run profiles: %w", err)
	}

	return r.mapper.ToEntities(profileModels)
}

// ListEnabled returns the run profiles eligible for scheduling.
func (r *RunProfileRepositoryImpl) ListEnabled(ctx context.Context) ([]*run.Profile, error) {
	var profileModels []*models.RunProfileModel

	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("id").Find(&profileModels).Error; err != nil {
		r.logger.Errorw("failed to list enabled run profiles", "error", err)
		return nil, fmt.Errorf("failed to list enabled run profiles: %w", err)
	}

	return r.mapper.ToEntities(profileModels)
}
