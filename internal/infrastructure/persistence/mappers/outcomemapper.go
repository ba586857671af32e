package mappers

import (
	"github.com/junction-io/junction/internal/domain/run"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// OutcomeMapper handles the conversion between outcome items and persistence models.
// Outcome items are plain records, so the mapping cannot fail.
type OutcomeMapper interface {
	ToEntity(model *models.OutcomeItemModel) run.OutcomeItem
	ToModel(item run.OutcomeItem) *models.OutcomeItemModel
	ToEntities(models []*models.OutcomeItemModel) []run.OutcomeItem
}

type outcomeMapper struct{}

// NewOutcomeMapper creates a new outcome mapper
func NewOutcomeMapper() OutcomeMapper {
	return &outcomeMapper{}
}

func (m *outcomeMapper) ToEntity(model *models.OutcomeItemModel) run.OutcomeItem {
	return run.OutcomeItem{
		ID:          model.ID,
		SID:         model.SID,
		ActivitySID: model.ActivitySID,
		ParentSID:   model.ParentSID,
		ObjectSID:   model.ObjectSID,
		Kind:        run.OutcomeKind(model.Kind),
		Message:     model.Message,
		RecordedAt:  model.RecordedAt,
	}
}

func (m *outcomeMapper) ToModel(item run.OutcomeItem) *models.OutcomeItemModel {
	return &models.OutcomeItemModel{
		ID:          item.ID,
		SID:         item.SID,
		ActivitySID: item.ActivitySID,
		ParentSID:   item.ParentSID,
		ObjectSID:   item.ObjectSID,
		Kind:        string(item.Kind),
		Message:     item.Message,
		RecordedAt:  item.RecordedAt,
	}
}

func (m *outcomeMapper) ToEntities(itemModels []*models.OutcomeItemModel) []run.OutcomeItem {
	items := make([]run.OutcomeItem, 0, len(itemModels))
	for _, model := range itemModels {
		items = append(items, m.ToEntity(model))
	}
	return items
}
