package mappers

import (
	"fmt"

	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// RunProfileMapper handles the conversion between domain entities and persistence models
type RunProfileMapper interface {
	ToEntity(model *models.RunProfileModel) (*run.Profile, error)
	ToModel(entity *run.Profile) (*models.RunProfileModel, error)
	ToEntities(models []*models.RunProfileModel) ([]*run.Profile, error)
}

type runProfileMapper struct{}

// NewRunProfileMapper creates a new run profile mapper
func NewRunProfileMapper() RunProfileMapper {
	return &runProfileMapper{}
}

func (m *runProfileMapper) ToEntity(model *models.RunProfileModel) (*run.Profile, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := run.ReconstructProfile(
		model.ID,
		model.SID,
		run.NewProfileParams{
			Name:              model.Name,
			SystemSID:         model.SystemSID,
			RunType:           run.Type(model.RunType),
			PageSize:          model.PageSize,
			ContinueOnFailure: model.ContinueOnFailure,
			PartitionFilter:   model.PartitionFilter,
		},
		model.Watermark,
		model.Enabled,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct run profile entity: %w", err)
	}

	return entity, nil
}

func (m *runProfileMapper) ToModel(entity *run.Profile) (*models.RunProfileModel, error) {
	if entity == nil {
		return nil, nil
	}

	model := &models.RunProfileModel{
		ID:                entity.ID(),
		SID:               entity.SID(),
		Name:              entity.Name(),
		SystemSID:         entity.SystemSID(),
		RunType:           string(entity.RunType()),
		PageSize:          entity.PageSize(0),
		ContinueOnFailure: entity.ContinueOnFailure(),
		PartitionFilter:   entity.PartitionFilter(),
		Watermark:         entity.Watermark(),
		Enabled:           entity.Enabled(),
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
		Version:           entity.Version(),
	}

	return model, nil
}

func (m *runProfileMapper) ToEntities(profileModels []*models.RunProfileModel) ([]*run.Profile, error) {
	entities := make([]*run.Profile, 0, len(profileModels))

	for i, model := range profileModels {
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
