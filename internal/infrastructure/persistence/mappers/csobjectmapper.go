package mappers

import (
	"fmt"

	"github.com/junction-io/junction/internal/domain/connector"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// CSObjectMapper handles the conversion between domain entities and persistence models
type CSObjectMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.CSObjectModel) (*connector.CSObject, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *connector.CSObject) (*models.CSObjectModel, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.CSObjectModel) ([]*connector.CSObject, error)
}

// csObjectMapper is the concrete implementation of CSObjectMapper
type csObjectMapper struct{}

// NewCSObjectMapper creates a new connected-system object mapper
func NewCSObjectMapper() CSObjectMapper {
	return &csObjectMapper{}
}

// ToEntity converts a persistence model to a domain entity
func (m *csObjectMapper) ToEntity(model *models.CSObjectModel) (*connector.CSObject, error) {
	if model == nil {
		return nil, nil
	}

	values, err := unmarshalValues(model.Values)
	if err != nil {
		return nil, fmt.Errorf("failed to decode object values: %w", err)
	}

	entity, err := connector.ReconstructCSObject(
		model.ID,
		model.SID,
		model.SystemSID,
		model.ExternalType,
		model.UniqueID,
		model.Partition,
		connector.ObjectStatus(model.Status),
		connector.JoinState(model.JoinState),
		model.HubSID,
		model.JoinedAt,
		values,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct object entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *csObjectMapper) ToModel(entity *connector.CSObject) (*models.CSObjectModel, error) {
	if entity == nil {
		return nil, nil
	}

	values, err := marshalValues(entity.Values())
	if err != nil {
		return nil, fmt.Errorf("failed to encode object values: %w", err)
	}

	model := &models.CSObjectModel{
		ID:           entity.ID(),
		SID:          entity.SID(),
		SystemSID:    entity.SystemSID(),
		ExternalType: entity.ExternalType(),
		UniqueID:     entity.UniqueID(),
		Partition:    entity.Partition(),
		Status:       string(entity.Status()),
		JoinState:    string(entity.JoinState()),
		HubSID:       entity.HubSID(),
		JoinedAt:     entity.JoinedAt(),
		Values:       values,
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
		Version:      entity.Version(),
	}

	return model, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *csObjectMapper) ToEntities(objModels []*models.CSObjectModel) ([]*connector.CSObject, error) {
	entities := make([]*connector.CSObject, 0, len(objModels))

	for i, model := range objModels {
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
