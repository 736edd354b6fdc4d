package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ensure authService implements AuthService
var _ driving.AuthService = (*authService)(nil)

const defaultTokenTTL = 30 * 24 * time.Hour

// authService implements the AuthService interface
type authService struct {
	authAdapter driven.AuthAdapter
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(authAdapter driven.AuthAdapter) driving.AuthService {
	return &authService{
		authAdapter: authAdapter,
		now:         time.Now,
	}
}

// IssueToken mints a signed API token
func (s *authService) IssueToken(_ context.Context, subject string, role domain.Role, ttl time.Duration) (*domain.IssuedToken, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, fmt.Errorf("%w: subject is required", domain.ErrInvalidInput)
	}
	if !role.IsValid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	token, err := s.authAdapter.GenerateToken(&domain.TokenClaims{
		Subject:   subject,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: expiresAt.Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &domain.IssuedToken{
		Token:     token,
		Subject:   subject,
		Role:      role,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0).UTC(),
	}, nil
}

// ValidateToken validates a JWT token and returns the auth context
func (s *authService) ValidateToken(_ context.Context, token string) (*domain.AuthContext, error) {
	if token == "" {
		return nil, domain.ErrTokenInvalid
	}

	claims, err := s.authAdapter.ParseToken(token)
	if err != nil {
		if errors.Is(err, domain.ErrTokenExpired) {
			return nil, err
		}
		return nil, domain.ErrTokenInvalid
	}

	if s.now().Unix() > claims.ExpiresAt {
		return nil, domain.ErrTokenExpired
	}
	if !claims.Role.IsValid() {
		return nil, domain.ErrTokenInvalid
	}

	return &domain.AuthContext{
		Subject: claims.Subject,
		Role:    claims.Role,
	}, nil
}
