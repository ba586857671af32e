package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/junction-io/junction/internal/domain/syncrule"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// SyncRuleMapper handles the conversion between domain entities and persistence models
type SyncRuleMapper interface {
	ToEntity(model *models.SyncRuleModel) (*syncrule.SyncRule, error)
	ToModel(entity *syncrule.SyncRule) (*models.SyncRuleModel, error)
	ToEntities(models []*models.SyncRuleModel) ([]*syncrule.SyncRule, error)
}

type syncRuleMapper struct{}

// NewSyncRuleMapper creates a new sync rule mapper
func NewSyncRuleMapper() SyncRuleMapper {
	return &syncRuleMapper{}
}

func (m *syncRuleMapper) ToEntity(model *models.SyncRuleModel) (*syncrule.SyncRule, error) {
	if model == nil {
		return nil, nil
	}

	var scope []syncrule.CriteriaGroup
	if err := decodeDoc(model.Scope, &scope); err != nil {
		return nil, fmt.Errorf("failed to decode rule scope: %w", err)
	}

	var joinCriteria []syncrule.JoinPair
	if err := decodeDoc(model.JoinCriteria, &joinCriteria); err != nil {
		return nil, fmt.Errorf("failed to decode join criteria: %w", err)
	}

	var mappings []syncrule.Mapping
	if err := decodeDoc(model.Mappings, &mappings); err != nil {
		return nil, fmt.Errorf("failed to decode mappings: %w", err)
	}

	entity, err := syncrule.ReconstructSyncRule(
		model.ID,
		model.SID,
		syncrule.NewSyncRuleParams{
			Name:              model.Name,
			SystemSID:         model.SystemSID,
			ExternalType:      model.ExternalType,
			HubType:           model.HubType,
			Direction:         syncrule.Direction(model.Direction),
			Precedence:        model.Precedence,
			ProjectHub:        model.ProjectHub,
			ProvisionExternal: model.ProvisionExternal,
			Mappings:          mappings,
			Scope:             scope,
			JoinCriteria:      joinCriteria,
			OutOfScopeAction:  syncrule.OutOfScopeAction(model.OutOfScopeAction),
		},
		model.Enabled,
		model.CreatedAt,
		model.UpdatedAt,
		model.Version,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct sync rule entity: %w", err)
	}

	return entity, nil
}

func (m *syncRuleMapper) ToModel(entity *syncrule.SyncRule) (*models.SyncRuleModel, error) {
	if entity == nil {
		return nil, nil
	}

	scope, err := encodeDoc(entity.Scope())
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule scope: %w", err)
	}

	joinCriteria, err := encodeDoc(entity.JoinCriteria())
	if err != nil {
		return nil, fmt.Errorf("failed to encode join criteria: %w", err)
	}

	mappings, err := encodeDoc(entity.Mappings())
	if err != nil {
		return nil, fmt.Errorf("failed to encode mappings: %w", err)
	}

	model := &models.SyncRuleModel{
		ID:                entity.ID(),
		SID:               entity.SID(),
		Name:              entity.Name(),
		SystemSID:         entity.SystemSID(),
		ExternalType:      entity.ExternalType(),
		HubType:           entity.HubType(),
		Direction:         string(entity.Direction()),
		Precedence:        entity.Precedence(),
		ProjectHub:        entity.ProjectsHub(),
		ProvisionExternal: entity.ProvisionsExternal(),
		Scope:             scope,
		JoinCriteria:      joinCriteria,
		Mappings:          mappings,
		OutOfScopeAction:  string(entity.OutOfScopeAction()),
		Enabled:           entity.Enabled(),
		CreatedAt:         entity.CreatedAt(),
		UpdatedAt:         entity.UpdatedAt(),
		Version:           entity.Version(),
	}

	return model, nil
}

func (m *syncRuleMapper) ToEntities(ruleModels []*models.SyncRuleModel) ([]*syncrule.SyncRule, error) {
	entities := make([]*syncrule.SyncRule, 0, len(ruleModels))

	for i, model := range ruleModels {
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

func encodeDoc(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

func decodeDoc(data datatypes.JSON, out any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
