package query

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestToFloat64(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected float64
		success  bool
	}{
		{"int", 10, 10.0, true},
		{"int8", int8(20), 20.0, true},
		{"int16", int16(30), 30.0, true},
		{"int32", int32(40), 40.0, true},
		{"int64", int64(50), 50.0, true},
		{"uint", uint(7), 7.0, true},
		{"float32", float32(60.5), 60.5, true},
		{"float64", 70.5, 70.5, true},
		{"string_valid_int", "100", 100.0, true},
		{"string_valid_float", "123.45", 123.45, true},
		{"string_invalid", "abc", 0.0, false},
		{"json_number", json.Number("12.5"), 12.5, true},
		{"nil", nil, 0.0, false},
		{"unsupported_type", struct{}{}, 0.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := ToFloat64(tt.input)
			assert.Equal(t, tt.success, ok)
			if tt.success {
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestToValueList(t *testing.T) {
	tests := []struct {
		name     string
		input    FilterValue
		expected []any
		ok       bool
	}{
		{"nil", nil, []any{}, true},
		{"filter values", []FilterValue{1, "a"}, []any{1, "a"}, true},
		{"any slice", []any{true}, []any{true}, true},
		{"typed slice", []string{"x", "y"}, []any{"x", "y"}, true},
		{"array", [2]int{3, 4}, []any{3, 4}, true},
		{"empty", []int{}, []any{}, true},
		{"scalar", 5, nil, false},
		{"string", "abc", nil, false},
		{"uuid", uuid.MustParse("3f2504e0-4f89-11d3-9a0c-0305e82c3301"), nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToValueList(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}
