package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is who a stored token belongs to, as claimed by its id_token
type Identity struct {
	Name      string    `json:"name,omitempty"`
	Username  string    `json:"username,omitempty"`
	TenantID  string    `json:"tenantId,omitempty"`
	ObjectID  string    `json:"objectId,omitempty"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// IdentityFromIDToken reads the identity claims of an id_token.
// The signature is not verified; the result is for display only.
func IdentityFromIDToken(raw string) (*Identity, error) {
	if raw == "" {
		return nil, fmt.Errorf("id_token is empty")
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to parse id_token: %w", err)
	}

	id := &Identity{
		Name:     stringClaim(claims, "name"),
		Username: stringClaim(claims, "preferred_username"),
		TenantID: stringClaim(claims, "tid"),
		ObjectID: stringClaim(claims, "oid"),
	}
	if id.Username == "" {
		id.Username = stringClaim(claims, "email")
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	return id, nil
}

// IdentityForAccount reads the identity of an account's stored token
func (s *TokenStore) IdentityForAccount(account string) (*Identity, error) {
	raw, err := s.LoadIDToken(account)
	if err != nil {
		return nil, err
	}
	return IdentityFromIDToken(raw)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, _ := claims[key].(string)
	return v
}
