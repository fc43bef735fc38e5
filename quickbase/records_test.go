package quickbase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	var nilSlice []SortField
	var nilMap map[string]interface{}
	var nilPtr *SortField

	for _, tc := range []struct {
		name  string
		value interface{}
		want  bool
	}{
		{name: "nil", value: nil, want: false},
		{name: "false", value: false, want: false},
		{name: "true", value: true, want: true},
		{name: "empty string", value: "", want: false},
		{name: "query string", value: "{3.EX.'x'}", want: true},
		{name: "zero", value: 0, want: false},
		{name: "number", value: 6, want: true},
		{name: "nil slice", value: nilSlice, want: false},
		{name: "empty slice", value: []SortField{}, want: true},
		{name: "sort fields", value: []SortField{{FieldID: "6", Order: "ASC"}}, want: true},
		{name: "nil map", value: nilMap, want: false},
		{name: "nil pointer", value: nilPtr, want: false},
		{name: "struct", value: SortField{}, want: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, truthy(tc.value))
		})
	}
}
