package domain

import "time"

// InviteTTL is how long an invite stays claimable after creation. The
// window is fixed at mint time and is not caller-configurable.
const InviteTTL = time.Hour

// MaxRequiredApprovals bounds the quorum an invite may demand.
const MaxRequiredApprovals = 5

// Invite is a time-boxed, optionally quorum-gated, single-use token that
// produces an admin RoleGrant when claimed.
type Invite struct {
	ID                string
	TokenHash         string // fingerprint of the opaque claim token; the raw token is never stored
	Role              Role   // always RoleAdmin; superadmin is never delegated via invite
	Email             string // optional: only this address may claim
	CreatedBy         string
	CreatedAt         time.Time
	ExpiresAt         time.Time  // CreatedAt + InviteTTL, never extended
	AdminExpiresAt    *time.Time // stamped onto the resulting grant, nil = permanent
	Used              bool
	UsedBy            string // subject id, set iff Used
	Approvals         []string
	RequiredApprovals int
}

// Expired reports whether the claim window has closed.
func (i *Invite) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// QuorumMet reports whether enough distinct approvers have signed off.
// Approvals may exceed the requirement; only consumption checks the count.
func (i *Invite) QuorumMet() bool {
	return len(i.Approvals) >= i.RequiredApprovals
}
