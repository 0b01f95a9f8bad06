package dbmodels

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONMapGetFloat(t *testing.T) {
	data := JSONMap{
		"float":  5000.5,
		"int":    12,
		"number": json.Number("7.25"),
		"string": "5000",
		"bool":   true,
	}
	cases := []struct {
		key   string
		value float64
		ok    bool
	}{
		{"float", 5000.5, true},
		{"int", 12, true},
		{"number", 7.25, true},
		{"string", 0, false},
		{"bool", 0, false},
		{"missing", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			value, ok := data.GetFloat(tc.key)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.value, value)
		})
	}
}
