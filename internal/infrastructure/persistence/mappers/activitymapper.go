package mappers

import (
	"fmt"

	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// ActivityMapper handles the conversion between domain entities and persistence models
type ActivityMapper interface {
	ToEntity(model *models.ActivityModel) (*run.Activity, error)
	ToModel(entity *run.Activity) (*models.ActivityModel, error)
	ToEntities(models []*models.ActivityModel) ([]*run.Activity, error)
}

type activityMapper struct{}

// NewActivityMapper creates a new run activity mapper
func NewActivityMapper() ActivityMapper {
	return &activityMapper{}
}

func (m *activityMapper) ToEntity(model *models.ActivityModel) (*run.Activity, error) {
	if model == nil {
		return nil, nil
	}

	var by audit.Initiator
	if err := decodeDoc(model.Initiator, &by); err != nil {
		return nil, fmt.Errorf("failed to decode activity initiator: %w", err)
	}

	var counters run.Counters
	if err := decodeDoc(model.Counters, &counters); err != nil {
		return nil, fmt.Errorf("failed to decode activity counters: %w", err)
	}

	entity, err := run.ReconstructActivity(
		model.ID,
		model.SID,
		model.ProfileSID,
		run.Type(model.RunType),
		run.Status(model.Status),
		by,
		counters,
		model.StartedAt,
		model.FinishedAt,
		model.FailReason,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct activity entity: %w", err)
	}

	return entity, nil
}

func (m *activityMapper) ToModel(entity *run.Activity) (*models.ActivityModel, error) {
	if entity == nil {
		return nil, nil
	}

	by, err := encodeDoc(entity.Initiator())
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity initiator: %w", err)
	}

	counters, err := encodeDoc(entity.Counters())
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity counters: %w", err)
	}

	model := &models.ActivityModel{
		ID:         entity.ID(),
		SID:        entity.SID(),
		ProfileSID: entity.ProfileSID(),
		RunType:    string(entity.RunType()),
		Status:     string(entity.Status()),
		Initiator:  by,
		Counters:   counters,
		StartedAt:  entity.StartedAt(),
		FinishedAt: entity.FinishedAt(),
		FailReason: entity.FailReason(),
	}

	return model, nil
}

func (m *activityMapper) ToEntities(actModels []*models.ActivityModel) ([]*run.Activity, error) {
	entities := make([]*run.Activity, 0, len(actModels))

	for i, model := range actModels {
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
