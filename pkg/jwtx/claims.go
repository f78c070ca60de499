// Package jwtx verifies the portal session tokens minted by the identity
// issuer. The admin service never mints user tokens itself; it only reads
// them to identify callers and to inspect the embedded role claim.
package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the issuer's session-token claims as this service
// consumes them.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Email the account authenticated with.
	Email string `json:"email,omitempty"`

	// Role is the admin-role claim embedded by the issuer, synchronized
	// from the role store. Absent for regular members. This value is a
	// per-session snapshot; the role store is authoritative.
	Role *string `json:"admin_role,omitempty"`
}

// ValidateIssuer checks the iss claim against the expected issuer.
func (c *SessionClaims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before nbf.
func (c *SessionClaims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
