package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SearchCache stores governed search results (Redis).
// Entries belong to a corpus generation; a search reads the generation
// before it touches the stores and writes its result under that same
// generation, so a result computed across an ingest is never served.
type SearchCache interface {
	// Generation returns the current corpus generation
	Generation(ctx context.Context) (int64, error)

	// Get returns the result cached for key in generation gen, or domain.ErrNotFound
	Get(ctx context.Context, gen int64, key string) (*domain.SearchResult, error)

	// Set stores a result computed against generation gen
	Set(ctx context.Context, gen int64, key string, result *domain.SearchResult) error

	// Invalidate starts a new generation, called after the corpus changes
	Invalidate(ctx context.Context) error
}
