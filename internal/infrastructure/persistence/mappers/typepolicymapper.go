package mappers

import (
	"fmt"
	"time"

	"github.com/junction-io/junction/internal/domain/hub"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// TypePolicyMapper handles the conversion between domain entities and persistence models
type TypePolicyMapper interface {
	ToEntity(model *models.TypePolicyModel) (*hub.TypePolicy, error)
	ToModel(entity *hub.TypePolicy) (*models.TypePolicyModel, error)
}

type typePolicyMapper struct{}

// NewTypePolicyMapper creates a new type policy mapper
func NewTypePolicyMapper() TypePolicyMapper {
	return &typePolicyMapper{}
}

func (m *typePolicyMapper) ToEntity(model *models.TypePolicyModel) (*hub.TypePolicy, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := hub.NewTypePolicy(
		model.ObjectType,
		hub.DeletionRule(model.DeletionRule),
		time.Duration(model.GracePeriodSeconds)*time.Second,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct type policy: %w", err)
	}

	return entity, nil
}

func (m *typePolicyMapper) ToModel(entity *hub.TypePolicy) (*models.TypePolicyModel, error) {
	if entity == nil {
		return nil, nil
	}

	model := &models.TypePolicyModel{
		ObjectType:         entity.ObjectType(),
		DeletionRule:       string(entity.Rule()),
		GracePeriodSeconds: int64(entity.GracePeriod() / time.Second),
	}

	return model, nil
}
