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

// PendingExportRepositoryImpl implements the connector.PendingExportRepository interface.
type PendingExportRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.PendingExportMapper
	logger logger.Interface
}

// NewPendingExportRepository creates a new pending export repository instance.
func NewPendingExportRepository(db *gorm.DB, logger logger.Interface) connector.PendingExportRepository {
	return &PendingExportRepositoryImpl{
		db:     db,
		mapper: mappers.NewPendingExportMapper(),
		logger: logger,
	}
}

// Create persists a newly staged export.
func (r *PendingExportRepositoryImpl) Create(ctx context.Context, pe *connector.PendingExport) error {
	model, err := r.mapper.ToModel(pe)
	if err != nil {
		r.logger.Errorw("failed to map pending export entity to model", "error", err)
		return fmt.Errorf("failed to map pending export entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint") {
			return errors.NewConflictError("object already has a staged export")
		}
		r.logger.Errorw("failed to create pending export in database", "cs_object_sid", model.CSObjectSID, "error", err)
		return fmt.Errorf("failed to create pending export: %w", err)
	}

	if err := pe.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set pending export ID: %w", err)
	}

	return nil
}

// GetBySID retrieves a pending export by its SID.
func (r *PendingExportRepositoryImpl) GetBySID(ctx context.Context, sid string) (*connector.PendingExport, error) {
	var model models.PendingExportModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("pending export not found", sid)
		}
		r.logger.Errorw("failed to get pending export by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get pending export: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// GetByCSObject returns the single staged change for an object.
func (r *PendingExportRepositoryImpl) GetByCSObject(ctx context.Context, csObjectSID string) (*connector.PendingExport, error) {
	var model models.PendingExportModel

	if err := r.db.WithContext(ctx).Where("cs_object_sid = ?", csObjectSID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("pending export not found", csObjectSID)
		}
		r.logger.Errorw("failed to get pending export by object", "cs_object_sid", csObjectSID, "error", err)
		return nil, fmt.Errorf("failed to get pending export: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Update rewrites a staged export in place.
func (r *PendingExportRepositoryImpl) Update(ctx context.Context, pe *connector.PendingExport) error {
	model, err := r.mapper.ToModel(pe)
	if err != nil {
		r.logger.Errorw("failed to map pending export entity to model", "error", err)
		return fmt.Errorf("failed to map pending export entity: %w", err)
	}

	result := r.db.WithContext(ctx).Model(&models.PendingExportModel{}).
		Where("id = ?", model.ID).
		Updates(map[string]any{
			"change_type": model.ChangeType,
			"status":      model.Status,
			"error_count": model.ErrorCount,
			"last_error":  model.LastError,
			"last_diag":   model.LastDiag,
			"changes":     model.Changes,
			"updated_at":  model.UpdatedAt,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update pending export", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update pending export: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("pending export not found", pe.SID())
	}

	return nil
}

// Delete removes a confirmed or superseded export.
func (r *PendingExportRepositoryImpl) Delete(ctx context.Context, pe *connector.PendingExport) error {
	result := r.db.WithContext(ctx).Where("id = ?", pe.ID()).Delete(&models.PendingExportModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete pending export", "id", pe.ID(), "error", result.Error)
		return fmt.Errorf("failed to delete pending export: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("pending export not found", pe.SID())
	}
	return nil
}

// ListBySystem walks a system's staged changes in stable ID order.
func (r *PendingExportRepositoryImpl) ListBySystem(ctx context.Context, systemSID string, afterID uint, limit int) ([]*connector.PendingExport, error) {
	var peModels []*models.PendingExportModel

	err := r.db.WithContext(ctx).
		Where("system_sid = ? AND id > ?", systemSID, afterID).
		Order("id").
		Limit(limit).
		Find(&peModels).Error
	if err != nil {
		r.logger.Errorw("failed to list pending exports", "system_sid", systemSID, "error", err)
		return nil, fmt.Errorf("failed to list pending exports: %w", err)
	}

	return r.mapper.ToEntities(peModels)
}
