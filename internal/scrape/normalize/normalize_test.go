package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habita-engine/internal/scrape/extract"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
		none bool
	}{
		{name: "colombian thousands dots", in: "$ 350.000.000", want: 350000000},
		{name: "plain digits", in: "420000000", want: 420000000},
		{name: "commas", in: "1,200,000", want: 1200000},
		{name: "currency prefix", in: "COP 850.000", want: 850000},
		{name: "zero is absent", in: "$0", none: true},
		{name: "no digits", in: "precio a convenir", none: true},
		{name: "empty", in: "", none: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePrice(tt.in)
			if tt.none {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseArea(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		none bool
	}{
		{name: "decimal comma", in: "85,5 m²", want: 85.5},
		{name: "plain", in: "72 m2 construidos", want: 72},
		{name: "thousands dot", in: "1.200 m²", want: 1200},
		{name: "decimal dot", in: "85.5", want: 85.5},
		{name: "both separators", in: "1.085,5", want: 1085.5},
		{name: "trailing dot", in: "90.", want: 90},
		{name: "no number", in: "amplio", none: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseArea(tt.in)
			if tt.none {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 1e-9)
		})
	}
}

func TestFormatPrice(t *testing.T) {
	p := func(n int64) *int64 { return &n }

	assert.Equal(t, "$345,000,000", FormatPrice(p(345000000)))
	assert.Equal(t, "$1,000", FormatPrice(p(1000)))
	assert.Equal(t, "$999", FormatPrice(p(999)))
	assert.Equal(t, "N/A", FormatPrice(nil))
	assert.Equal(t, "N/A", FormatPrice(p(0)))
}

func TestNormalizeFullRecord(t *testing.T) {
	rec := extract.Record{
		"titulo":       "Apartamento en Chapinero Alto con vista",
		"barrio":       "Chapinero",
		"salePrice":    float64(350000000),
		"area":         float64(70),
		"habitaciones": float64(3),
		"banos":        float64(2),
		"estrato":      float64(4),
		"link":         "/inmueble/apartamento-chapinero-123",
		"descripcion":  "Remodelado, iluminado.",
	}

	l := Normalize("metrocuadrado", rec, "bogota", "https://www.metrocuadrado.com")

	assert.Equal(t, "metrocuadrado", l.Source)
	assert.Equal(t, "Apartamento en Chapinero Alto con vista", l.Title)
	assert.Equal(t, "Chapinero", l.Neighborhood)
	assert.Equal(t, "bogota", l.City)
	require.NotNil(t, l.Price)
	assert.Equal(t, int64(350000000), *l.Price)
	assert.Equal(t, "$350,000,000", l.PriceFormatted)
	require.NotNil(t, l.Area)
	assert.Equal(t, float64(70), *l.Area)
	require.NotNil(t, l.PricePerArea)
	assert.Equal(t, int64(5000000), *l.PricePerArea)
	assert.Equal(t, float64(3), l.Bedrooms)
	assert.Equal(t, "https://www.metrocuadrado.com/inmueble/apartamento-chapinero-123", l.URL)
}

func TestNormalizeIsPure(t *testing.T) {
	rec := extract.Record{"precio": "$120.000.000", "titulo": "Casa"}
	a := Normalize("fincaraiz", rec, "cali", "https://www.fincaraiz.com.co")
	b := Normalize("fincaraiz", rec, "cali", "https://www.fincaraiz.com.co")
	assert.Equal(t, a, b)
}

func TestNormalizeDefaults(t *testing.T) {
	l := Normalize("ciencuadras", extract.Record{}, "bogota", "https://www.ciencuadras.com")

	assert.Equal(t, "Propiedad", l.Title)
	assert.Equal(t, "N/A", l.Neighborhood)
	assert.Equal(t, "bogota", l.City)
	assert.Nil(t, l.Price)
	assert.Equal(t, "N/A", l.PriceFormatted)
	assert.Nil(t, l.Area)
	assert.Nil(t, l.PricePerArea)
	assert.Nil(t, l.Bedrooms)
	// a record with no link still points somewhere useful
	assert.Equal(t, "https://www.ciencuadras.com", l.URL)
}

func TestNormalizeSynonymOrder(t *testing.T) {
	// salePrice outranks the generic price field
	rec := extract.Record{
		"salePrice": float64(200000000),
		"price":     float64(999),
	}
	l := Normalize("metrocuadrado", rec, "bogota", "https://www.metrocuadrado.com")
	require.NotNil(t, l.Price)
	assert.Equal(t, int64(200000000), *l.Price)
}

func TestNormalizeTruncation(t *testing.T) {
	long := make([]byte, 0, 400)
	for i := 0; i < 400; i++ {
		long = append(long, 'a')
	}
	rec := extract.Record{
		"titulo":      string(long),
		"descripcion": string(long),
	}
	l := Normalize("fincaraiz", rec, "bogota", "https://www.fincaraiz.com.co")
	assert.Len(t, l.Title, 100)
	assert.Len(t, l.Description, 300)
}

func TestTruncateRespectsRuneBoundary(t *testing.T) {
	s := "áéíóúáéíóú" // 2 bytes per rune
	got := truncate(s, 5)
	assert.True(t, len(got) <= 5)
	for _, r := range got {
		assert.NotEqual(t, '�', r)
	}
}

func TestNormalizeAbsoluteLinkKept(t *testing.T) {
	rec := extract.Record{"url": "https://example.com/x"}
	l := Normalize("metrocuadrado", rec, "bogota", "https://www.metrocuadrado.com")
	assert.Equal(t, "https://example.com/x", l.URL)
}
