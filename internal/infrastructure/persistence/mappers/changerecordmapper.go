package mappers

import (
	"fmt"

	"github.com/junction-io/junction/internal/domain/audit"
	"github.com/junction-io/junction/internal/infrastructure/persistence/models"
)

// ChangeRecordMapper handles the conversion between audit records and persistence models
type ChangeRecordMapper interface {
	ToEntity(model *models.ChangeRecordModel) (audit.ChangeRecord, error)
	ToModel(record audit.ChangeRecord) (*models.ChangeRecordModel, error)
	ToEntities(models []*models.ChangeRecordModel) ([]audit.ChangeRecord, error)
}

type changeRecordMapper struct{}

// NewChangeRecordMapper creates a new change record mapper
func NewChangeRecordMapper() ChangeRecordMapper {
	return &changeRecordMapper{}
}

func (m *changeRecordMapper) ToEntity(model *models.ChangeRecordModel) (audit.ChangeRecord, error) {
	v, err := unmarshalValue(model.Value)
	if err != nil {
		return audit.ChangeRecord{}, fmt.Errorf("failed to decode change value: %w", err)
	}

	var by audit.Initiator
	if err := decodeDoc(model.Initiator, &by); err != nil {
		return audit.ChangeRecord{}, fmt.Errorf("failed to decode change initiator: %w", err)
	}

	return audit.ChangeRecord{
		ID:          model.ID,
		ObjectSID:   model.ObjectSID,
		ActivitySID: model.ActivitySID,
		Attribute:   model.Attribute,
		Op:          audit.ChangeOp(model.Op),
		Value:       v,
		RuleSID:     model.RuleSID,
		Initiator:   by,
		RecordedAt:  model.RecordedAt,
	}, nil
}

func (m *changeRecordMapper) ToModel(record audit.ChangeRecord) (*models.ChangeRecordModel, error) {
	v, err := marshalValue(record.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change value: %w", err)
	}

	by, err := encodeDoc(record.Initiator)
	if err != nil {
		return nil, fmt.Errorf("failed to encode change initiator: %w", err)
	}

	return &models.ChangeRecordModel{
		ID:          record.ID,
		ObjectSID:   record.ObjectSID,
		ActivitySID: record.ActivitySID,
		Attribute:   record.Attribute,
		Op:          string(record.Op),
		Value:       v,
		Initiator:   by,
		RuleSID:     record.RuleSID,
		RecordedAt:  record.RecordedAt,
	}, nil
}

func (m *changeRecordMapper) ToEntities(recModels []*models.ChangeRecordModel) ([]audit.ChangeRecord, error) {
	records := make([]audit.ChangeRecord, 0, len(recModels))

	for i, model := range recModels {
		record, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map model at index %d (ID %d): %w", i, model.ID, err)
		}
		records = append(records, record)
	}

	return records, nil
}
