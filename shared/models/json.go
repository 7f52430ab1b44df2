package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonValue serializes a nested structure for storage in a JSON column.
func jsonValue(v interface{}) (driver.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON column: %w", err)
	}
	return string(data), nil
}

// jsonScan expands a JSON column back into its typed structure. Empty or NULL
// columns leave dest at its zero value.
func jsonScan(dest interface{}, src interface{}) error {
	if src == nil {
		return nil
	}

	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column source type %T", src)
	}

	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dest)
}
