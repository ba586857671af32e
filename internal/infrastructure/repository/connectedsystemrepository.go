package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// ConnectedSystemRepositoryImpl implements the connector.ConnectedSystemRepository interface.
type ConnectedSystemRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ConnectedSystemMapper
	logger logger.Interface
}

// NewConnectedSystemRepository creates a new connected system repository instance.
func NewConnectedSystemRepository(db *gorm.DB, logger logger.Interface) connector.ConnectedSystemRepository {
	return &ConnectedSystemRepositoryImpl{
		db:     db,
		mapper: mappers.NewConnectedSystemMapper(),
		logger: logger,
	}
}

// Create persists a new connected system.
func (r *ConnectedSystemRepositoryImpl) Create(ctx context.Context, system *connector.ConnectedSystem) error {
	model, err := r.mapper.ToModel(system)
	if err != nil {
		r.logger.Errorw("failed to map connected system entity to model", "error", err)
		return fmt.Errorf("failed to map connected system entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint") {
			return errors.NewConflictError("connected system name already in use")
		}
		r.logger.Errorw("failed to create connected system in database", "error", err)
		return fmt.Errorf("failed to create connected system: %w", err)
	}

	if err := system.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set connected system ID: %w", err)
	}

	r.logger.Infow("connected system created", "id", model.ID, "name", model.Name)
	return nil
}

// GetBySID retrieves a connected system by its SID.
func (r *ConnectedSystemRepositoryImpl) GetBySID(ctx context.Context, sid string) (*connector.ConnectedSystem, error) {
	var model models.ConnectedSystemModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("connected system not found", sid)
		}
		r.logger.Errorw("failed to get connected system by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get connected system: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Update updates an existing connected system.
func (r *ConnectedSystemRepositoryImpl) Update(ctx context.Context, system *connector.ConnectedSystem) error {
	model, err := r.mapper.ToModel(system)
	if err != nil {
		r.logger.Errorw("failed to map connected system entity to model", "error", err)
		return fmt.Errorf("failed to map connected system entity: %w", err)
	}

	// Optimistic locking: update only if version matches
	result := r.db.WithContext(ctx).Model(&models.ConnectedSystemModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]any{
			"name":        model.Name,
			"system_type": model.SystemType,
			"enabled":     model.Enabled,
			"updated_at":  model.UpdatedAt,
			"version":     model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update connected system", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update connected system: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConcurrencyConflictError(system.SID())
	}

	return nil
}

// List returns every registered connected system.
func (r *ConnectedSystemRepositoryImpl) List(ctx context.Context) ([]*connector.ConnectedSystem, error) {
	var sysModels []*models.ConnectedSystemModel

	if err := r.db.WithContext(ctx).Order("id").Find(&sysModels).Error; err != nil {
		r.logger.Errorw("failed to list connected systems", "error", err)
		return nil, fmt.Errorf("failed to list connected systems: %w", err)
	}

	return r.mapper.ToEntities(sysModels)
}
