package domain

import "time"

// AuditEntry is an append-only record of one authorization operation.
// Entries are written as a side effect of every mutation and are never
// read back by this service.
type AuditEntry struct {
	ID        string
	Action    string
	ActorID   string
	TargetID  string // subject affected, if any
	InviteID  string // invite involved, if any
	Timestamp time.Time
	Meta      map[string]string
}

// Audit action names.
const (
	AuditGrantRole     = "role.grant"
	AuditExtendRole    = "role.extend"
	AuditRevokeRole    = "role.revoke"
	AuditRefreshClaims = "role.refresh_claims"
	AuditExpireRole    = "role.expire"
	AuditCreateInvite  = "invite.create"
	AuditApproveInvite = "invite.approve"
	AuditClaimInvite   = "invite.claim"
)
