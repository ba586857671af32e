package mappers

import (
	"fmt"

	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// PendingExportMapper handles the conversion between domain entities and persistence models
type PendingExportMapper interface {
	ToEntity(model *models.PendingExportModel) (*connector.PendingExport, error)
	ToModel(entity *connector.PendingExport) (*models.PendingExportModel, error)
	ToEntities(models []*models.PendingExportModel) ([]*connector.PendingExport, error)
}

type pendingExportMapper struct{}

// NewPendingExportMapper creates a new pending export mapper
func NewPendingExportMapper() PendingExportMapper {
	return &pendingExportMapper{}
}

func (m *pendingExportMapper) ToEntity(model *models.PendingExportModel) (*connector.PendingExport, error) {
	if model == nil {
		return nil, nil
	}

	var changes []connector.AttributeChange
	if err := decodeDoc(model.Changes, &changes); err != nil {
		return nil, fmt.Errorf("failed to decode export changes: %w", err)
	}

	entity, err := connector.ReconstructPendingExport(
		model.ID,
		model.SID,
		model.CSObjectSID,
		model.SystemSID,
		connector.ChangeType(model.ChangeType),
		connector.ExportStatus(model.Status),
		model.ErrorCount,
		model.LastError,
		model.LastDiag,
		changes,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct pending export entity: %w", err)
	}

	return entity, nil
}

func (m *pendingExportMapper) ToModel(entity *connector.PendingExport) (*models.PendingExportModel, error) {
	if entity == nil {
		return nil, nil
	}

	changes, err := encodeDoc(entity.Changes())
	if err != nil {
		return nil, fmt.Errorf("failed to encode export changes: %w", err)
	}

	model := &models.PendingExportModel{
		ID:          entity.ID(),
		SID:         entity.SID(),
		CSObjectSID: entity.CSObjectSID(),
		SystemSID:   entity.SystemSID(),
		ChangeType:  string(entity.ChangeType()),
		Status:      string(entity.Status()),
		ErrorCount:  entity.ErrorCount(),
		LastError:   entity.LastError(),
		LastDiag:    entity.LastDiag(),
		Changes:     changes,
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}

	return model, nil
}

func (m *pendingExportMapper) ToEntities(peModels []*models.PendingExportModel) ([]*connector.PendingExport, error) {
	entities := make([]*connector.PendingExport, 0, len(peModels))

	for i, model := range peModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map model at index %d (ID %d): %w", i, model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}

	return entities, nil
}
