package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// SearchService handles governed knowledge-base retrieval
type SearchService interface {
	// Search returns at most TopK policy-compliant hits for the request
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResult, error)

	// Policies lists the governance profiles known to the service
	Policies() []domain.GovernancePolicy

	// DefaultPolicy is applied when a request names no known profile
	DefaultPolicy() domain.GovernancePolicy
}
