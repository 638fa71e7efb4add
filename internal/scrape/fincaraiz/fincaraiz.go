// Package fincaraiz scrapes www.fincaraiz.com.co through the generic
// extraction chain. The portal nests some cities under their department
// in the URL path.
package fincaraiz

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"

	"habita-engine/internal/domain"
	"habita-engine/internal/fetch"
	"habita-engine/internal/scrape/extract"
	"habita-engine/internal/scrape/normalize"
)

const sourceName = "fincaraiz"

type Config struct {
	BaseURL string
}

type Source struct {
	cfg       Config
	fetcher   fetch.Fetcher
	extractor extract.Extractor
}

var citySlugs = map[string]string{
	"bogota":       "bogota-dc",
	"medellin":     "antioquia/medellin",
	"cali":         "valle-del-cauca/cali",
	"barranquilla": "atlantico/barranquilla",
	"cartagena":    "bolivar/cartagena",
}

func New(f fetch.Fetcher, cfg Config) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.fincaraiz.com.co"
	}
	return &Source{
		cfg:       cfg,
		fetcher:   f,
		extractor: extract.New("listings", "inmuebles", "results"),
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) Search(ctx context.Context, c domain.Criteria, limit int) ([]domain.Listing, error) {
	citySlug := c.City
	if slug, ok := citySlugs[c.City]; ok {
		citySlug = slug
	}
	pageURL := fmt.Sprintf("%s/%s/%s/%s/", s.cfg.BaseURL, c.PropertyType, c.Transaction, citySlug)

	params := url.Values{}
	if c.PriceMin > 0 {
		params.Set("precio-desde", strconv.FormatInt(c.PriceMin, 10))
	}
	if c.PriceMax > 0 {
		params.Set("precio-hasta", strconv.FormatInt(c.PriceMax, 10))
	}
	if c.AreaMin > 0 {
		params.Set("area-desde", strconv.FormatFloat(c.AreaMin, 'f', -1, 64))
	}
	if c.BedroomsMin > 0 {
		params.Set("habitaciones", strconv.Itoa(c.BedroomsMin))
	}

	res, err := s.fetcher.Get(ctx, pageURL, params)
	if err != nil {
		return nil, fmt.Errorf("fincaraiz search: %w", err)
	}
	if !res.OK() {
		return nil, fmt.Errorf("fincaraiz search: status %d", res.StatusCode)
	}
	log.Printf("[%s] html page: %d bytes", sourceName, len(res.Body))

	recs := s.extractor.Extract(sourceName, res.Body, limit)
	out := make([]domain.Listing, 0, len(recs))
	for _, rec := range recs {
		out = append(out, normalize.Normalize(sourceName, rec, c.City, s.cfg.BaseURL))
	}
	return out, nil
}
