package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/attribute"
	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/errors"
	"github.com/junction-io/junction/internal/shared/logger"
)

// HubObjectRepositoryImpl implements the hub.Repository interface.
// Attribute values are replaced wholesale on every update; the value table
// only exists to give join lookups an index, the aggregate is the unit of
// persistence.
type HubObjectRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.HubObjectMapper
	logger logger.Interface
}

// NewHubObjectRepository creates a new hub object repository instance.
func NewHubObjectRepository(db *gorm.DB, logger logger.Interface) hub.Repository {
	return &HubObjectRepositoryImpl{
		db:     db,
		mapper: mappers.NewHubObjectMapper(),
		logger: logger,
	}
}

// Create persists a new hub object with its attribute values.
func (r *HubObjectRepositoryImpl) Create(ctx context.Context, obj *hub.HubObject) error {
	model, err := r.mapper.ToModel(obj)
	if err != nil {
		r.logger.Errorw("failed to map hub object entity to model", "error", err)
		return fmt.Errorf("failed to map hub object entity: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint") {
				return errors.NewConflictError("hub object already exists")
			}
			return fmt.Errorf("failed to create hub object: %w", err)
		}

		if err := obj.SetID(model.ID); err != nil {
			return fmt.Errorf("failed to set hub object ID: %w", err)
		}

		rows, err := r.mapper.ToValueModels(obj)
		if err != nil {
			return fmt.Errorf("failed to map hub object values: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.Create(rows).Error; err != nil {
				return fmt.Errorf("failed to create hub object values: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		r.logger.Errorw("failed to create hub object in database", "sid", obj.SID(), "error", err)
		return err
	}

	r.logger.Infow("hub object created", "id", model.ID, "sid", model.SID, "object_type", model.ObjectType)
	return nil
}

// GetBySID retrieves a hub object with its values by external SID.
func (r *HubObjectRepositoryImpl) GetBySID(ctx context.Context, sid string) (*hub.HubObject, error) {
	var model models.HubObjectModel

	if err := r.db.WithContext(ctx).Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewNotFoundError("hub object not found", sid)
		}
		r.logger.Errorw("failed to get hub object by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get hub object: %w", err)
	}

	return r.loadEntity(ctx, &model)
}

// Update writes the object and its values back under optimistic locking.
func (r *HubObjectRepositoryImpl) Update(ctx context.Context, obj *hub.HubObject) error {
	model, err := r.mapper.ToModel(obj)
	if err != nil {
		r.logger.Errorw("failed to map hub object entity to model", "error", err)
		return fmt.Errorf("failed to map hub object entity: %w", err)
	}

	rows, err := r.mapper.ToValueModels(obj)
	if err != nil {
		return fmt.Errorf("failed to map hub object values: %w", err)
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Optimistic locking: update only if version matches
		result := tx.Model(&models.HubObjectModel{}).
			Where("id = ? AND version = ?", model.ID, model.Version-1).
			Updates(map[string]any{
				"status":          model.Status,
				"deletion_due_at": model.DeletionDueAt,
				"updated_at":      model.UpdatedAt,
				"version":         model.Version,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update hub object: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errors.NewConcurrencyConflictError(obj.SID())
		}

		if err := tx.Where("hub_object_id = ?", model.ID).Delete(&models.HubValueModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear hub object values: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.Create(rows).Error; err != nil {
				return fmt.Errorf("failed to write hub object values: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.IsConcurrencyConflict(err) {
			return err
		}
		r.logger.Errorw("failed to update hub object", "sid", obj.SID(), "error", err)
		return err
	}

	return nil
}

// FindByAttributeEquals returns non-obsolete hub objects of the given type
// whose attribute carries a value equal to v.
func (r *HubObjectRepositoryImpl) FindByAttributeEquals(ctx context.Context, objectType, attributeName string, v attribute.Value) ([]*hub.HubObject, error) {
	var ids []uint

	err := r.db.WithContext(ctx).Model(&models.HubValueModel{}).
		Distinct("hub_object_id").
		Where("name = ? AND lookup = ?", attributeName, mappers.ValueLookupKey(v)).
		Pluck("hub_object_id", &ids).Error
	if err != nil {
		r.logger.Errorw("failed to look up hub objects by attribute", "attribute", attributeName, "error", err)
		return nil, fmt.Errorf("failed to look up hub objects: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	var objModels []*models.HubObjectModel
	err = r.db.WithContext(ctx).
		Where("id IN ? AND object_type = ? AND status <> ?", ids, objectType, string(hub.StatusObsolete)).
		Order("id").
		Find(&objModels).Error
	if err != nil {
		r.logger.Errorw("failed to load hub objects by attribute", "attribute", attributeName, "error", err)
		return nil, fmt.Errorf("failed to load hub objects: %w", err)
	}

	return r.loadEntities(ctx, objModels)
}

// ListPendingDeletion returns objects awaiting their deletion grace period.
func (r *HubObjectRepositoryImpl) ListPendingDeletion(ctx context.Context) ([]*hub.HubObject, error) {
	var objModels []*models.HubObjectModel

	err := r.db.WithContext(ctx).
		Where("status = ?", string(hub.StatusPendingDeletion)).
		Order("id").
		Find(&objModels).Error
	if err != nil {
		r.logger.Errorw("failed to list hub objects pending deletion", "error", err)
		return nil, fmt.Errorf("failed to list hub objects pending deletion: %w", err)
	}

	return r.loadEntities(ctx, objModels)
}

func (r *HubObjectRepositoryImpl) loadEntity(ctx context.Context, model *models.HubObjectModel) (*hub.HubObject, error) {
	var rows []*models.HubValueModel
	if err := r.db.WithContext(ctx).Where("hub_object_id = ?", model.ID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load hub object values: %w", err)
	}

	entity, err := r.mapper.ToEntity(model, rows)
	if err != nil {
		r.logger.Errorw("failed to map hub object model to entity", "id", model.ID, "error", err)
		return nil, fmt.Errorf("failed to map hub object: %w", err)
	}
	return entity, nil
}

func (r *HubObjectRepositoryImpl) loadEntities(ctx context.Context, objModels []*models.HubObjectModel) ([]*hub.HubObject, error) {
	if len(objModels) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(objModels))
	for _, m := range objModels {
		ids = append(ids, m.ID)
	}

	var rows []*models.HubValueModel
	if err := r.db.WithContext(ctx).Where("hub_object_id IN ?", ids).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load hub object values: %w", err)
	}

	byObject := make(map[uint][]*models.HubValueModel, len(objModels))
	for _, row := range rows {
		byObject[row.HubObjectID] = append(byObject[row.HubObjectID], row)
	}

	entities := make([]*hub.HubObject, 0, len(objModels))
	for _, m := range objModels {
		entity, err := r.mapper.ToEntity(m, byObject[m.ID])
		if err != nil {
			return nil, fmt.Errorf("failed to map hub object %d: %w", m.ID, err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
