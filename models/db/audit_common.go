package dbmodels

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

// JSONMap is a free-form jsonb column (request payloads, notification metadata)
type JSONMap map[string]any

func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *JSONMap) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*j = JSONMap{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("unsupported jsonb value type %T", value)
	}
	if err := json.Unmarshal(data, j); err != nil {
		return err
	}
	return nil
}

func (j JSONMap) GetString(key string) string {
	if v, ok := j[key].(string); ok {
		return v
	}
	return ""
}

// GetFloat reads a numeric field. Numeric strings are not numbers here, same as in the unified view.
func (j JSONMap) GetFloat(key string) (float64, bool) {
	switch v := j[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
