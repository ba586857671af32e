package mappers

import (
	"fmt"

	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// HubObjectMapper handles the conversion between domain entities and persistence models
type HubObjectMapper interface {
	// ToEntity converts a hub object model plus its value rows to a domain entity
	ToEntity(model *models.HubObjectModel, values []*models.HubValueModel) (*hub.HubObject, error)

	// ToModel converts a domain entity to a persistence model (without value rows)
	ToModel(entity *hub.HubObject) (*models.HubObjectModel, error)

	// ToValueModels flattens an entity's attribute values into value rows
	ToValueModels(entity *hub.HubObject) ([]*models.HubValueModel, error)
}

// hubObjectMapper is the concrete implementation of HubObjectMapper
type hubObjectMapper struct{}

// NewHubObjectMapper creates a new hub object mapper
func NewHubObjectMapper() HubObjectMapper {
	return &hubObjectMapper{}
}

// ToEntity converts a hub object model plus its value rows to a domain entity
func (m *hubObjectMapper) ToEntity(model *models.HubObjectModel, valueRows []*models.HubValueModel) (*hub.HubObject, error) {
	if model == nil {
		return nil, nil
	}

	values := make(map[string][]hub.AttributeValue)
	for _, row := range valueRows {
		v, err := unmarshalValue(row.Value)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value for attribute %q: %w", row.Name, err)
		}
		values[row.Name] = append(values[row.Name], hub.AttributeValue{
			Value:         v,
			ContributedBy: row.ContributedBy,
		})
	}

	entity, err := hub.ReconstructHubObject(
		model.ID,
		model.SID,
		model.ObjectType,
		hub.Status(model.Status),
		hub.Origin(model.Origin),
		model.DeletionDueAt,
		values,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct hub object entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model (without value rows)
func (m *hubObjectMapper) ToModel(entity *hub.HubObject) (*models.HubObjectModel, error) {
	if entity == nil {
		return nil, nil
	}

	model := &models.HubObjectModel{
		ID:            entity.ID(),
		SID:           entity.SID(),
		ObjectType:    entity.ObjectType(),
		Status:        string(entity.Status()),
		Origin:        string(entity.Origin()),
		DeletionDueAt: entity.DeletionDueAt(),
		CreatedAt:     entity.CreatedAt(),
		UpdatedAt:     entity.UpdatedAt(),
		Version:       entity.Version(),
	}

	return model, nil
}

// ToValueModels flattens an entity's attribute values into value rows
func (m *hubObjectMapper) ToValueModels(entity *hub.HubObject) ([]*models.HubValueModel, error) {
	if entity == nil {
		return nil, nil
	}

	var rows []*models.HubValueModel
	for _, name := range entity.AttributeNames() {
		for _, av := range entity.AttributeEntries(name) {
			data, err := marshalValue(av.Value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode value for attribute %q: %w", name, err)
			}
			rows = append(rows, &models.HubValueModel{
				HubObjectID:   entity.ID(),
				Name:          name,
				Lookup:        ValueLookupKey(av.Value),
				Value:         data,
				ContributedBy: av.ContributedBy,
			})
		}
	}

	return rows, nil
}
