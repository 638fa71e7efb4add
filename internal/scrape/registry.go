package scrape

import (
	"habita-engine/internal/config"
	"habita-engine/internal/fetch"
	"habita-engine/internal/scrape/ciencuadras"
	"habita-engine/internal/scrape/fincaraiz"
	"habita-engine/internal/scrape/metrocuadrado"
)

// Build assembles the enabled portal sources in their canonical order.
// Merge order downstream follows this order, so it must stay fixed.
func Build(cfg config.Config, f fetch.Fetcher) []Source {
	var out []Source
	if cfg.Sources.Metrocuadrado.Enabled {
		out = append(out, metrocuadrado.New(f, metrocuadrado.Config{BaseURL: cfg.Sources.Metrocuadrado.BaseURL}))
	}
	if cfg.Sources.Fincaraiz.Enabled {
		out = append(out, fincaraiz.New(f, fincaraiz.Config{BaseURL: cfg.Sources.Fincaraiz.BaseURL}))
	}
	if cfg.Sources.Ciencuadras.Enabled {
		out = append(out, ciencuadras.New(f, ciencuadras.Config{BaseURL: cfg.Sources.Ciencuadras.BaseURL}))
	}
	return out
}

// Names reports the configured portal order.
func Names(sources []Source) []string {
	names := make([]string, 0, len(sources))
	for _, s := range sources {
		names = append(names, s.Name())
	}
	return names
}
