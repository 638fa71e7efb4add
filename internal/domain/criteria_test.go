package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCriteriaNormalizeDefaults(t *testing.T) {
	var c Criteria
	c.Normalize()

	assert.Equal(t, "bogota", c.City)
	assert.Equal(t, "apartamento", c.PropertyType)
	assert.Equal(t, "venta", c.Transaction)
	assert.Equal(t, []string{SourceMetrocuadrado, SourceFincaraiz, SourceCiencuadras}, c.Sources)
	assert.Equal(t, 30, c.MaxResults)
}

func TestCriteriaNormalizeKeepsExplicit(t *testing.T) {
	c := Criteria{
		City:         "  Medellín ",
		PropertyType: "Casa",
		Transaction:  "ARRIENDO",
		Sources:      []string{SourceFincaraiz},
		MaxResults:   12,
	}
	c.Normalize()

	assert.Equal(t, "medellín", c.City)
	assert.Equal(t, "casa", c.PropertyType)
	assert.Equal(t, "arriendo", c.Transaction)
	assert.Equal(t, []string{SourceFincaraiz}, c.Sources)
	assert.Equal(t, 12, c.MaxResults)
}

func TestCriteriaNormalizeUnknownTransaction(t *testing.T) {
	c := Criteria{Transaction: "permuta"}
	c.Normalize()
	assert.Equal(t, "venta", c.Transaction)
}

func TestWantsSource(t *testing.T) {
	c := Criteria{Sources: []string{"Metrocuadrado", " fincaraiz "}}
	assert.True(t, c.WantsSource(SourceMetrocuadrado))
	assert.True(t, c.WantsSource(SourceFincaraiz))
	assert.False(t, c.WantsSource(SourceCiencuadras))

	empty := Criteria{}
	assert.True(t, empty.WantsSource(SourceCiencuadras))
}

func TestCriteriaJSONRoundTripForAlerts(t *testing.T) {
	c := Criteria{City: "cali", PriceMax: 400000000, BedroomsMin: 2, Parking: true}
	c.Normalize()

	b, err := json.Marshal(c)
	require.NoError(t, err)

	var back Criteria
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, c, back)
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
		ok   bool
	}{
		{name: "float", in: float64(3), want: 3, ok: true},
		{name: "int", in: 4, want: 4, ok: true},
		{name: "string", in: "5", want: 5, ok: true},
		{name: "string float", in: "3.0", want: 3, ok: true},
		{name: "leading digits", in: "3 alcobas", want: 3, ok: true},
		{name: "plus suffix", in: "2+", want: 2, ok: true},
		{name: "bool true", in: true, want: 1, ok: true},
		{name: "bool false", in: false, want: 0, ok: true},
		{name: "nil", in: nil, ok: false},
		{name: "empty string", in: "", ok: false},
		{name: "words", in: "consultar", ok: false},
		{name: "map", in: map[string]any{}, ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceInt(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
