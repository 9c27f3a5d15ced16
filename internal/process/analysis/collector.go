package analysis

import (
	"context"

	"github.com/reviewpulse/reviewpulse/internal/core/domain"
)

// Collector fetches raw reviews for a target from an external source. Fetch
// errors wrap the collector sentinels so the orchestrator can classify them
// as retryable or permanent.
type Collector interface {
	Fetch(ctx context.Context, target domain.Target) ([]domain.RawReview, error)
}
