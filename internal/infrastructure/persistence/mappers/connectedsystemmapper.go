package mappers

import (
	"fmt"

	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// ConnectedSystemMapper handles the conversion between domain entities and persistence models
type ConnectedSystemMapper interface {
	ToEntity(model *models.ConnectedSystemModel) (*connector.ConnectedSystem, error)
	ToModel(entity *connector.ConnectedSystem) (*models.ConnectedSystemModel, error)
	ToEntities(models []*models.ConnectedSystemModel) ([]*connector.ConnectedSystem, error)
}

type connectedSystemMapper struct{}

// NewConnectedSystemMapper creates a new connected system mapper
func NewConnectedSystemMapper() ConnectedSystemMapper {
	return &connectedSystemMapper{}
}

func (m *connectedSystemMapper) ToEntity(model *models.ConnectedSystemModel) (*connector.ConnectedSystem, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := connector.ReconstructConnectedSystem(
		model.ID,
		model.SID,
		model.Name,
		model.SystemType,
		model.Enabled,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct connected system entity: %w", err)
	}

	return entity, nil
}

func (m *connectedSystemMapper) ToModel(entity *connector.ConnectedSystem) (*models.ConnectedSystemModel, error) {
	if entity == nil {
		return nil, nil
	}

	model := &models.ConnectedSystemModel{
		ID:         entity.ID(),
		SID:        entity.SID(),
		Name:       entity.Name(),
		SystemType: entity.SystemType(),
		Enabled:    entity.Enabled(),
		CreatedAt:  entity.CreatedAt(),
		UpdatedAt:  entity.UpdatedAt(),
		Version:    entity.Version(),
	}

	return model, nil
}

func (m *connectedSystemMapper) ToEntities(sysModels []*models.ConnectedSystemModel) ([]*connector.ConnectedSystem, error) {
	entities := make([]*connector.ConnectedSystem, 0, len(sysModels))

	for i, model := range sysModels {
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
