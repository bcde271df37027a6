package parser

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParser_Parse(t *testing.T) {
	p := NewJSONParser[map[string]any]()

	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{"plain", `{"flight_id": 42}`, map[string]any{"flight_id": float64(42)}},
		{"fenced", "```json\n{\"seat_type\": \"economy\"}\n```", map[string]any{"seat_type": "economy"}},
		{"fenced no lang", "```{\"a\": true}```", map[string]any{"a": true}},
		{"padded", "  {}  ", map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJSONParser_Errors(t *testing.T) {
	p := NewJSONParser[map[string]any]()

	_, err := p.Parse("not json")
	var pe *Error
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "not json", pe.Input)

	_, err = p.Parse("")
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = p.Parse(`{"origin": "LAX"} {"origin": "SFO"}`)
	require.ErrorIs(t, err, ErrTrailingData)

	p.AllowEmpty = true
	got, err := p.Parse("   ")
	require.NoError(t, err)
	assert.Nil(t, got)
}
