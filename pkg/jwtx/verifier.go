package jwtx

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates session tokens and extracts their claims.
type Verifier interface {
	Verify(raw string) (SessionClaims, error)
}

// HS256Verifier validates tokens signed with the key shared between the
// identity issuer and its internal services.
type HS256Verifier struct {
	Key    []byte
	Issuer string // expected iss claim; empty disables the check
}

func NewHS256Verifier(key []byte, issuer string) *HS256Verifier {
	return &HS256Verifier{Key: key, Issuer: issuer}
}

func (v *HS256Verifier) Verify(raw string) (SessionClaims, error) {
	var claims SessionClaims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrSigning
		}
		return v.Key, nil
	})
	if err != nil {
		return SessionClaims{}, fmt.Errorf("jwtx: parse: %w", err)
	}

	if err := claims.ValidateIssuer(v.Issuer); err != nil {
		return SessionClaims{}, err
	}
	return claims, nil
}

// Sign mints a session token with the shared key. This is the issuer side
// of the contract: the admin service itself never mints tokens, it only
// verifies them. Kept here so tests and local tooling can produce tokens
// the verifier accepts; do not call it from request paths.
func Sign(key []byte, issuer, subject, email string, role *string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
		Role:  role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}
