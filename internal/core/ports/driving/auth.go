package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// AuthService issues and validates API tokens
type AuthService interface {
	// IssueToken mints a signed token for subject with the given role
	IssueToken(ctx context.Context, subject string, role domain.Role, ttl time.Duration) (*domain.IssuedToken, error)

	// ValidateToken validates a JWT token and returns the auth context
	ValidateToken(ctx context.Context, token string) (*domain.AuthContext, error)
}
