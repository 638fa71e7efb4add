// Package search is the end-to-end pipeline: fan out to the selected
// portal sources, merge deterministically, filter, annotate, sort. A
// search is stateless per invocation and never hard-fails from
// source-level problems; partial portal failure is the steady state.
package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"habita-engine/internal/domain"
	"habita-engine/internal/filter"
	"habita-engine/internal/rank"
	"habita-engine/internal/scrape"
)

const (
	defaultPerSourceTimeout = 90 * time.Second
	defaultAnnotateTimeout  = 90 * time.Second

	// every selected portal gets at least this many slots, so a small
	// max_results doesn't starve any single source
	minPerSourceQuota = 8
)

type Engine struct {
	Sources          []scrape.Source
	Filter           filter.Engine
	Annotator        rank.Annotator // optional; nil degrades to unscored results
	PerSourceTimeout time.Duration
}

func (e *Engine) Search(ctx context.Context, c domain.Criteria) domain.SearchResult {
	c.Normalize()

	selected := e.selectSources(c)
	if len(selected) == 0 {
		return domain.SearchResult{
			Results:  []domain.Listing{},
			Advisory: "No hay portales configurados para esta búsqueda.",
		}
	}

	quota := PerSourceQuota(c.MaxResults, len(selected))

	// slot results by source index so the merge order matches the
	// configured source order no matter which portal answers first
	batches := make([][]domain.Listing, len(selected))
	failures := make([]error, len(selected))

	var g errgroup.Group
	for i, src := range selected {
		i, src := i, src
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, e.perSourceTimeout())
			defer cancel()

			log.Printf("[%s] searching %s %s in %s (quota %d)", src.Name(), c.PropertyType, c.Transaction, c.City, quota)
			listings, err := src.Search(sctx, c, quota)
			if err != nil {
				log.Printf("[%s] error: %v", src.Name(), err)
				failures[i] = err
				return nil // best-effort: one dead portal must not sink the search
			}
			log.Printf("[%s] %d listings", src.Name(), len(listings))
			batches[i] = listings
			return nil
		})
	}
	_ = g.Wait()

	var merged []domain.Listing
	var srcErrs []domain.SourceError
	for i, batch := range batches {
		merged = append(merged, batch...)
		if failures[i] != nil {
			srcErrs = append(srcErrs, domain.SourceError{Source: selected[i].Name(), Err: failures[i].Error()})
		}
	}

	filtered := e.Filter.Apply(merged, c)
	if len(filtered) == 0 {
		return domain.SearchResult{
			Results:      []domain.Listing{},
			Advisory:     emptyAdvisory(len(merged), len(srcErrs)),
			SourceErrors: srcErrs,
		}
	}

	advisory := ""
	if e.Annotator != nil {
		actx, cancel := context.WithTimeout(ctx, defaultAnnotateTimeout)
		adv, err := e.Annotator.Annotate(actx, filtered, c)
		cancel()
		if err != nil {
			log.Printf("[search] annotator failed, returning unscored: %v", err)
		} else {
			advisory = adv
		}
	}

	// stable: unscored listings keep their merge order after all scored ones
	sort.SliceStable(filtered, func(i, j int) bool {
		return scoreOf(filtered[i]) > scoreOf(filtered[j])
	})

	return domain.SearchResult{
		Results:      filtered,
		Total:        len(filtered),
		Advisory:     advisory,
		SourceErrors: srcErrs,
	}
}

// PerSourceQuota is how many items each selected portal is asked for.
func PerSourceQuota(maxResults, numSources int) int {
	if numSources < 1 {
		numSources = 1
	}
	q := maxResults / numSources
	if q < minPerSourceQuota {
		q = minPerSourceQuota
	}
	return q
}

func (e *Engine) selectSources(c domain.Criteria) []scrape.Source {
	var out []scrape.Source
	for _, s := range e.Sources {
		if c.WantsSource(s.Name()) {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) perSourceTimeout() time.Duration {
	if e.PerSourceTimeout > 0 {
		return e.PerSourceTimeout
	}
	return defaultPerSourceTimeout
}

func scoreOf(l domain.Listing) float64 {
	if l.AIScore == nil {
		return 0
	}
	return *l.AIScore
}

// emptyAdvisory tells the user whether nothing came back at all or data
// came back and the criteria filtered everything out.
func emptyAdvisory(merged, failed int) string {
	if merged == 0 {
		if failed > 0 {
			return fmt.Sprintf("Ningún portal devolvió datos (%d con errores). Intenta de nuevo en unos minutos.", failed)
		}
		return "Ningún portal devolvió datos. Intenta de nuevo en unos minutos."
	}
	return fmt.Sprintf("Se encontraron %d propiedades pero ninguna cumple los criterios. Intenta ampliar el rango de precio o área.", merged)
}
