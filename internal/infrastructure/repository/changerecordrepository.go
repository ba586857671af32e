package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/infrastructure/persistence/mappers"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
	"github.com/junction-io/junction/internal/shared/logger"
)

// ChangeRecordRepositoryImpl implements the audit.ChangeRepository interface.
type ChangeRecordRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ChangeRecordMapper
	logger logger.Interface
}

// NewChangeRecordRepository creates a new change record repository instance.
func NewChangeRecordRepository(db *gorm.DB, logger logger.Interface) audit.ChangeRepository {
	return &ChangeRecordRepositoryImpl{
		db:     db,
		mapper: mappers.NewChangeRecordMapper(),
		logger: logger,
	}
}

// Append writes a batch of change records.
func (r *ChangeRecordRepositoryImpl) Append(ctx context.Context, records []audit.ChangeRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]*models.ChangeRecordModel, 0, len(records))
	for _, record := range records {
		row, err := r.mapper.ToModel(record)
		if err != nil {
			r.logger.Errorw("failed to map change record to model", "error", err)
			return fmt.Errorf("failed to map change record: %w", err)
		}
		rows = append(rows, row)
	}

	if err := r.db.WithContext(ctx).Create(rows).Error; err != nil {
		r.logger.Errorw("failed to append change records", "count", len(rows), "error", err)
		return fmt.Errorf("failed to append change records: %w", err)
	}

	return nil
}

// ListByObject walks an object's change history in stable ID order.
func (r *ChangeRecordRepositoryImpl) ListByObject(ctx context.Context, objectSID string, afterID uint, limit int) ([]audit.ChangeRecord, error) {
	var recModels []*models.ChangeRecordModel

	err := r.db.WithContext(ctx).
		Where("object_sid = ? AND id > ?", objectSID, afterID).
		Order("id").
		Limit(limit).
		Find(&recModels).Error
	if err != nil {
		r.logger.Errorw("failed to list change records by object", "object_sid", objectSID, "error", err)
		return nil, fmt.Errorf("failed to list change records: %w", err)
	}

	return r.mapper.ToEntities(recModels)
}

// ListByActivity walks the change records written during one run.
func (r *ChangeRecordRepositoryImpl) ListByActivity(ctx context.Context, activitySID string, afterID uint, limit int) ([]audit.ChangeRecord, error) {
	var recModels []*models.ChangeRecordModel

	err := r.db.WithContext(ctx).
		Where("activity_sid = ? AND id > ?", activitySID, afterID).
		Order("id").
		Limit(limit).
		Find(&recModels).Error
	if err != nil {
		r.logger.Errorw("failed to list change records by activity", "activity_sid", activitySID, "error", err)
		return nil, fmt.Errorf("failed to list change records: %w", err)
	}

	return r.mapper.ToEntities(recModels)
}
