package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/junction-io/junction/internal/domain/attribute"
)

// ValueLookupKey renders a value as its canonical kind-prefixed string,
// used for the indexed equality column on hub attribute values. Two values
// share a key exactly when Equal reports them equal, binary excepted
// (base64 of equal payloads is equal anyway).
func ValueLookupKey(v attribute.Value) string {
	return string(v.Kind()) + ":" + v.String()
}

// marshalValues serializes a per-attribute value map to a JSON document.
func marshalValues(values attribute.Values) (datatypes.JSON, error) {
	if len(values) == 0 {
		return datatypes.JSON("{}"), nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attribute values: %w", err)
	}
	return datatypes.JSON(data), nil
}

// unmarshalValues deserializes a JSON document into a per-attribute value map.
func unmarshalValues(data datatypes.JSON) (map[string][]attribute.Value, error) {
	values := make(map[string][]attribute.Value)
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attribute values: %w", err)
	}
	return values, nil
}

// marshalValue serializes a single attribute value.
func marshalValue(v attribute.Value) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal attribute value: %w", err)
	}
	return datatypes.JSON(data), nil
}

// unmarshalValue deserializes a single attribute value.
func unmarshalValue(data datatypes.JSON) (attribute.Value, error) {
	var v attribute.Value
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to unmarshal attribute value: %w", err)
	}
	return v, nil
}
