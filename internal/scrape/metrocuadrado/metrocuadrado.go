// Package metrocuadrado scrapes www.metrocuadrado.com. The portal exposes
// a REST search endpoint that sometimes answers through the anti-bot proxy;
// when it does not, the HTML results page goes through the generic
// extraction chain.
package metrocuadrado

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"habita-engine/internal/domain"
	"habita-engine/internal/fetch"
	"habita-engine/internal/scrape/extract"
	"habita-engine/internal/scrape/normalize"
)

const sourceName = "metrocuadrado"

type Config struct {
	BaseURL string
}

type Source struct {
	cfg       Config
	fetcher   fetch.Fetcher
	extractor extract.Extractor
}

var typeNames = map[string]string{
	"apartamento": "Apartamento",
	"casa":        "Casa",
	"oficina":     "Oficina",
	"lote":        "Lote",
}

var typeSlugs = map[string]string{
	"apartamento": "apartamento",
	"casa":        "casas",
	"oficina":     "oficinas",
	"lote":        "lotes",
}

func New(f fetch.Fetcher, cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.metrocuadrado.com"
	}
	return &Source{
		cfg:       cfg,
		fetcher:   f,
		extractor: extract.New("results", "listings", "inmuebles"),
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) Search(ctx context.Context, c domain.Criteria, limit int) ([]domain.Listing, error) {
	listings, apiErr := s.searchAPI(ctx, c, limit)
	if apiErr != nil {
		log.Printf("[%s] rest search: %v", sourceName, apiErr)
	}
	if len(listings) > 0 {
		return listings, nil
	}

	listings, htmlErr := s.searchHTML(ctx, c, limit)
	if htmlErr != nil {
		return nil, fmt.Errorf("metrocuadrado html search: %w", htmlErr)
	}
	return listings, nil
}

// searchAPI hits the portal's own REST search. Results come back as a
// plain JSON array of records sharing field names with the page state, so
// they funnel through the same normalizer.
func (s *Source) searchAPI(ctx context.Context, c domain.Criteria, limit int) ([]domain.Listing, error) {
	business := "Venta"
	if c.Transaction == "arriendo" {
		business = "Arriendo"
	}

	params := url.Values{}
	params.Set("realEstateTypeList", typeName(c.PropertyType))
	params.Set("realEstateBusinessList", business)
	params.Set("city", capitalize(c.City))
	params.Set("from", "0")
	params.Set("size", strconv.Itoa(limit))
	if c.PriceMin > 0 {
		params.Set("minimumPrice", strconv.FormatInt(c.PriceMin, 10))
	}
	if c.PriceMax > 0 {
		params.Set("maximumPrice", strconv.FormatInt(c.PriceMax, 10))
	}
	if c.AreaMin > 0 {
		params.Set("minimumArea", strconv.FormatFloat(c.AreaMin, 'f', -1, 64))
	}
	if c.BedroomsMin > 0 {
		params.Set("minimumBedrooms", strconv.Itoa(c.BedroomsMin))
	}

	res, err := s.fetcher.Get(ctx, s.cfg.BaseURL+"/rest-search/search", params)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	body := strings.TrimSpace(res.Body)
	if !strings.HasPrefix(body, "{") {
		return nil, fmt.Errorf("non-json payload (%d bytes)", len(body))
	}

	var payload struct {
		Results []extract.Record `json:"results"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	log.Printf("[%s] rest search: %d items", sourceName, len(payload.Results))

	var out []domain.Listing
	for _, rec := range payload.Results {
		if len(out) >= limit {
			break
		}
		out = append(out, normalize.Normalize(sourceName, rec, c.City, s.cfg.BaseURL))
	}
	return out, nil
}

func (s *Source) searchHTML(ctx context.Context, c domain.Criteria, limit int) ([]domain.Listing, error) {
	op := "venta"
	if c.Transaction == "arriendo" {
		op = "arriendo"
	}
	pageURL := fmt.Sprintf("%s/%s/%s/%s/", s.cfg.BaseURL, typeSlug(c.PropertyType), op, c.City)

	res, err := s.fetcher.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, fmt.Errorf("status %d", res.StatusCode)
	}
	log.Printf("[%s] html page: %d bytes", sourceName, len(res.Body))

	recs := s.extractor.Extract(sourceName, res.Body, limit)
	out := make([]domain.Listing, 0, len(recs))
	for _, rec := range recs {
		out = append(out, normalize.Normalize(sourceName, rec, c.City, s.cfg.BaseURL))
	}
	return out, nil
}

func typeName(t string) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "Apartamento"
}

func typeSlug(t string) string {
	if s, ok := typeSlugs[t]; ok {
		return s
	}
	return "apartamento"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
