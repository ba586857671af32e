package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// CSObjectRepositoryImpl implements the connector.CSObjectRepository interface.
type CSObjectRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.CSObjectMapper
	logger logger.Interface
}

// NewCSObjectRepository creates a new connected-system object repository instance.
func NewCSObjectRepository(db *gorm.DB, logger logger.Interface) connector.CSObjectRepository {
	return &CSObjectRepositoryImpl{
		db:     db,
		mapper: mappers.NewCSObjectMapper(),
		logger: logger,
	}
}

// Create persists a new connected-system object.
func (r *CSObjectRepositoryImpl) Create(ctx context.Context, obj *connector.CSObject) error {
	model, err := r.mapper.ToModel(obj)
	if err != nil {
		r.logger.Errorw("failed to map object entity to model", "error", err)
		return fmt.Errorf("failed to map object entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create object in database", "unique_id", model.UniqueID, "error", err)
		return fmt.Errorf("failed to create object: %w", err)
	}

	if err := obj.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set object ID: %w", err)
	}

	return nil
}

// GetBySID retrieves an object by its SID.
func (r *CSObjectRepositoryImpl) GetBySID(ctx context.Context, sid string) (*connector.CSObject, error) {
	var model models.CSObjectModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("object not found", sid)
		}
		r.logger.Errorw("failed to get object by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// GetByUniqueID retrieves an object by its per-system identity.
func (r *CSObjectRepositoryImpl) GetByUniqueID(ctx context.Context, systemSID, externalType, uniqueID string) (*connector.CSObject, error) {
	var model models.CSObjectModel

	err := r.db.WithContext(ctx).
		Where("system_sid = ? AND external_type = ? AND unique_id = ?", systemSID, externalType, uniqueID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("object not found", uniqueID)
		}
		r.logger.Errorw("failed to get object by unique ID", "unique_id", uniqueID, "error", err)
		return nil, fmt.Errorf("failed to get object: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

// Update writes the object back under optimistic locking.
func (r *CSObjectRepositoryImpl) Update(ctx context.Context, obj *connector.CSObject) error {
	model, err := r.mapper.ToModel(obj)
	if err != nil {
		r.logger.Errorw("failed to map object entity to model", "error", err)
		return fmt.Errorf("failed to map object entity: %w", err)
	}

	// Optimistic locking: update only if version matches
	result := r.db.WithContext(ctx).Model(&models.CSObjectModel{}).
		Where("id = ? AND version = ?", model.ID, model.Version-1).
		Updates(map[string]any{
			"unique_id":  model.UniqueID,
			"partition_key": model.Partition,
			"status":     model.Status,
			"join_state": model.JoinState,
			"hub_sid":    model.HubSID,
			"joined_at":  model.JoinedAt,
			"values":     model.Values,
			"updated_at": model.UpdatedAt,
			"version":    model.Version,
		})
	if result.Error != nil {
		r.logger.Errorw("failed to update object", "id", model.ID, "error", result.Error)
		return fmt.Errorf("failed to update object: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConcurrencyConflictError(obj.SID())
	}

	return nil
}

// Delete removes an object row.
func (r *CSObjectRepositoryImpl) Delete(ctx context.Context, obj *connector.CSObject) error {
	result := r.db.WithContext(ctx).Where("id = ?", obj.ID()).Delete(&models.CSObjectModel{})
	if result.Error != nil {
		r.logger.Errorw("failed to delete object", "id", obj.ID(), "error", result.Error)
		return fmt.Errorf("failed to delete object: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewNotFoundError("object not found", obj.SID())
	}
	return nil
}

// ListPage walks a system's objects in stable ID order for paged runs.
func (r *CSObjectRepositoryImpl) ListPage(ctx context.Context, systemSID string, afterID uint, limit int) ([]*connector.CSObject, error) {
	var objModels []*models.CSObjectModel

	err := r.db.WithContext(ctx).
		Where("system_sid = ? AND id > ?", systemSID, afterID).
		Order("id").
		Limit(limit).
		Find(&objModels).Error
	if err != nil {
		r.logger.Errorw("failed to list objects page", "system_sid", systemSID, "error", err)
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	return r.mapper.ToEntities(objModels)
}

// ListJoinedToHub returns every object currently joined to the hub object.
func (r *CSObjectRepositoryImpl) ListJoinedToHub(ctx context.Context, hubSID string) ([]*connector.CSObject, error) {
	var objModels []*models.CSObjectModel

	err := r.db.WithContext(ctx).
		Where("hub_sid = ? AND join_state = ?", hubSID, string(connector.JoinStateJoined)).
		Order("id").
		Find(&objModels).Error
	if err != nil {
		r.logger.Errorw("failed to list objects joined to hub", "hub_sid", hubSID, "error", err)
		return nil, fmt.Errorf("failed to list joined objects: %w", err)
	}

	return r.mapper.ToEntities(objModels)
}

// ListUpdatedSince bounds a delta run to objects touched after the watermark.
func (r *CSObjectRepositoryImpl) ListUpdatedSince(ctx context.Context, systemSID string, since time.Time, afterID uint, limit int) ([]*connector.CSObject, error) {
	var objModels []*models.CSObjectModel

	err := r.db.WithContext(ctx).
		Where("system_sid = ? AND updated_at >= ? AND id > ?", systemSID, since, afterID).
		Order("id").
		Limit(limit).
		Find(&objModels).Error
	if err != nil {
		r.logger.Errorw("failed to list objects updated since watermark", "system_sid", systemSID, "error", err)
		return nil, fmt.Errorf("failed to list updated objects: %w", err)
	}

	return r.mapper.ToEntities(objModels)
}

// CountJoined reports how many active joins the hub object still has.
func (r *CSObjectRepositoryImpl) CountJoined(ctx context.Context, hubSID string) (int64, error) {
	var count int64

	err := r.db.WithContext(ctx).Model(&models.CSObjectModel{}).
		Where("hub_sid = ? AND join_state = ?", hubSID, string(connector.JoinStateJoined)).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to count joined objects", "hub_sid", hubSID, "error", err)
		return 0, fmt.Errorf("failed to count joined objects: %w", err)
	}

	return count, nil
}
