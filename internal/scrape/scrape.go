package scrape

import (
	"context"

	"habita-engine/internal/domain"
)

// Source is one listing portal. Search returns up to limit normalized
// listings; zero listings is not an error. An error means the portal
// contributed nothing this run; the orchestrator records it and moves on.
type Source interface {
	Name() string
	Search(ctx context.Context, c domain.Criteria, limit int) ([]domain.Listing, error)
}
