package domain

import "time"

// Role defines API access level
type Role string

const (
	RoleAdmin  Role = "admin"  // May ingest documents
	RoleReader Role = "reader" // Search and read only
)

// IsValid returns true if this is a known role
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleReader
}

// AuthContext contains the authenticated caller for request context
type AuthContext struct {
	Subject string `json:"subject"`
	Role    Role   `json:"role"`
}

// IsAdmin checks if the caller is an admin
func (a *AuthContext) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// TokenClaims represents the JWT token payload
type TokenClaims struct {
	Subject   string `json:"sub"`
	Role      Role   `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// IssuedToken is returned when an API token is minted
type IssuedToken struct {
	Token     string    `json:"token"`
	Subject   string    `json:"subject"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}
