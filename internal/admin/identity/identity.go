// Package identity talks to the portal's identity-token issuer. The issuer
// owns user accounts and session tokens; this service only pushes role
// claims into it and resolves emails to subject ids.
package identity

import (
	"context"
	"errors"
)

var ErrUserNotFound = errors.New("identity: user not found")

// User is the issuer's view of an account.
type User struct {
	SubjectID string
	Email     string
}

// Provider is the consumed interface of the identity-token issuer.
//
// SetRoleClaim is a side-effecting, non-transactional call: callers invoke
// it after their store transaction commits, make one attempt, and log
// failures rather than surfacing them. The role store stays authoritative;
// sign-in reconciliation and the expiry sweeper repair any drift.
type Provider interface {
	// ResolveUserByEmail maps an email address to the issuer's subject id.
	ResolveUserByEmail(ctx context.Context, email string) (User, error)

	// SetRoleClaim pushes a role value into the user's token claims.
	// A nil role clears the claim.
	SetRoleClaim(ctx context.Context, subjectID string, role *string) error
}
