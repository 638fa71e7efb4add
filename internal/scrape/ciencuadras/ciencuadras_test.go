package ciencuadras

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habita-engine/internal/domain"
	"habita-engine/internal/fetch"
)

type fakeFetcher struct {
	gotURL    string
	gotParams url.Values
	res       *fetch.Response
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string, params url.Values) (*fetch.Response, error) {
	f.gotURL = rawURL
	f.gotParams = params
	return f.res, nil
}

func TestSearchBuildsPathAndParams(t *testing.T) {
	page := `<html><body>
<div class="result-card">
  <h3>Apto Cedritos</h3>
  <span class="precio">$ 380.000.000</span>
  <a href="/inmueble/789">ver</a>
</div>
</body></html>`
	ff := &fakeFetcher{res: &fetch.Response{StatusCode: 200, Body: page}}

	s := New(ff, Config{})
	c := domain.Criteria{City: "bogota", PropertyType: "apartamento", Transaction: "venta", PriceMin: 300000000, AreaMin: 60}

	listings, err := s.Search(context.Background(), c, 10)
	require.NoError(t, err)

	assert.Equal(t, "https://www.ciencuadras.com/venta/apartamento/bogota", ff.gotURL)
	assert.Equal(t, "300000000", ff.gotParams.Get("precio_min"))
	assert.Equal(t, "60", ff.gotParams.Get("area_min"))

	require.Len(t, listings, 1)
	assert.Equal(t, "ciencuadras", listings[0].Source)
	assert.Equal(t, "Apto Cedritos", listings[0].Title)
	require.NotNil(t, listings[0].Price)
	assert.Equal(t, int64(380000000), *listings[0].Price)
	assert.Equal(t, "https://www.ciencuadras.com/inmueble/789", listings[0].URL)
}

func TestSearchEmptyPageIsNotAnError(t *testing.T) {
	ff := &fakeFetcher{res: &fetch.Response{StatusCode: 200, Body: "<html></html>"}}
	s := New(ff, Config{})

	listings, err := s.Search(context.Background(), domain.Criteria{City: "cali", PropertyType: "casa", Transaction: "arriendo"}, 10)
	require.NoError(t, err)
	assert.Empty(t, listings)
}
