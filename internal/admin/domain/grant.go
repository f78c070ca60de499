package domain

import "time"

// Role is the privilege level a grant confers.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether r is a grantable role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleSuperadmin
}

// SystemActor is the sentinel granter identity used when a grant is created
// by the bootstrap path rather than by an existing superadmin.
const SystemActor = "system"

// RoleGrant is the authoritative record of an elevated privilege. There is
// at most one grant per subject; a new grant for the same subject replaces
// the old one.
type RoleGrant struct {
	SubjectID  string
	Email      string // denormalized for lookup and audit
	Role       Role
	AssignedBy string // granter subject id, or SystemActor
	AssignedAt time.Time
	ExpiresAt  *time.Time // nil = permanent
	IsActive   bool
}

// Expired reports whether the grant has a deadline in the past. An expired
// grant may still be present in the store until the sweeper or sign-in
// reconciliation removes it; it never authorizes anything.
func (g *RoleGrant) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && !now.Before(*g.ExpiresAt)
}

// Authorizes reports whether the grant currently confers the given role.
func (g *RoleGrant) Authorizes(role Role, now time.Time) bool {
	return g.IsActive && g.Role == role && !g.Expired(now)
}
