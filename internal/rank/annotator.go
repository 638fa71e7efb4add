package rank

import (
	"context"

	"habita-engine/internal/domain"
)

// Annotator scores listings against the buyer's criteria, enriching them
// in place and returning an overall advisory. Implementations must be a
// no-op on an empty slice. The search pipeline treats the annotator as
// optional: any error leaves the listings unscored.
type Annotator interface {
	Annotate(ctx context.Context, listings []domain.Listing, c domain.Criteria) (advisory string, err error)
}
