package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

func marshalMetadata(metadata map[string]interface{}) (datatypes.JSON, error) {
	if len(metadata) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return data, nil
}

func unmarshalMetadata(raw datatypes.JSON) (map[string]interface{}, error) {
	metadata := make(map[string]interface{})
	if len(raw) == 0 {
		return metadata, nil
	}
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return metadata, nil
}

// MergeMetadata overlays update on the stored JSON object. Keys in update win.
func MergeMetadata(stored datatypes.JSON, update map[string]interface{}) (datatypes.JSON, error) {
	merged, err := unmarshalMetadata(stored)
	if err != nil {
		return nil, err
	}
	for k, v := range update {
		merged[k] = v
	}
	return marshalMetadata(merged)
}
