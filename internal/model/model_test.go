package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Guests
	}{
		{name: "string", raw: `"40"`, want: "40"},
		{name: "number", raw: `250`, want: "250"},
		{name: "null", raw: `null`, want: ""},
		{name: "bool", raw: `true`, want: "true"},
		{name: "object", raw: `{"adults":2}`, want: `{"adults":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Booking
			require.NoError(t, json.Unmarshal([]byte(`{"id":"bk_1","guests":`+tt.raw+`}`), &b))
			assert.Equal(t, tt.want, b.Guests)
			assert.Equal(t, "bk_1", b.ID)
		})
	}
}

func TestOddGuestsDoesNotSpoilCollection(t *testing.T) {
	raw := `[{"id":"bk_2","name":"A","guests":true},{"id":"bk_1","name":"B","guests":"12"}]`
	var records []Booking
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	require.Len(t, records, 2)
	assert.Equal(t, Guests("true"), records[0].Guests)
	assert.Equal(t, Guests("12"), records[1].Guests)
}
