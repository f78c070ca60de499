package adminsdk

import "time"

// ErrorResponse is the uniform error body returned by every endpoint.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// GrantRoleRequest grants admin or superadmin to the account behind an
// email address. ExpiresAt nil means the grant is permanent. The
// bootstrap secret travels in the X-Bootstrap-Secret header, not here.
type GrantRoleRequest struct {
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type GrantRoleResponse struct {
	SubjectID string     `json:"subject_id"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// RoleResponse is the full view of a role grant.
type RoleResponse struct {
	SubjectID  string     `json:"subject_id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	AssignedBy string     `json:"assigned_by"`
	AssignedAt time.Time  `json:"assigned_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Active     bool       `json:"active"`
}

type ExtendRoleRequest struct {
	// ExpiresAt is the new deadline; nil makes the grant permanent.
	ExpiresAt *time.Time `json:"expires_at"`
}

type ExtendRoleResponse struct {
	SubjectID string     `json:"subject_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type RevokeRoleResponse struct {
	SubjectID string `json:"subject_id"`
}

// RefreshClaimsResponse carries the authoritative role after a forced
// reconciliation; null when the subject holds no active grant.
type RefreshClaimsResponse struct {
	Role *string `json:"role"`
}

type CreateInviteRequest struct {
	// Email optionally binds the invite to one address.
	Email             string     `json:"email,omitempty"`
	RequiredApprovals int        `json:"required_approvals"`
	AdminExpiresAt    *time.Time `json:"admin_expires_at,omitempty"`
}

type CreateInviteResponse struct {
	InviteID string `json:"invite_id"`

	// ClaimToken is the opaque single-use claim credential. It is returned
	// exactly once; the service keeps only its fingerprint.
	ClaimToken string    `json:"claim_token"`
	ClaimURL   string    `json:"claim_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// InviteResponse is the inspection view backing the approval UI.
type InviteResponse struct {
	InviteID          string     `json:"invite_id"`
	Email             string     `json:"email,omitempty"`
	CreatedBy         string     `json:"created_by"`
	ExpiresAt         time.Time  `json:"expires_at"`
	AdminExpiresAt    *time.Time `json:"admin_expires_at,omitempty"`
	Used              bool       `json:"used"`
	UsedBy            string     `json:"used_by,omitempty"`
	Approvals         int        `json:"approvals"`
	RequiredApprovals int        `json:"required_approvals"`
}

type ApproveInviteResponse struct {
	Approvals         int `json:"approvals"`
	RequiredApprovals int `json:"required_approvals"`
}

type ClaimInviteResponse struct {
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// SignInHookRequest is posted by the identity issuer during
// authentication, before the session is finalized. Role is the admin-role
// claim the token currently carries, null when absent.
type SignInHookRequest struct {
	SubjectID string  `json:"subject_id"`
	Role      *string `json:"role"`
}

// SignInHookResponse is the claim value the session should carry.
type SignInHookResponse struct {
	Role *string `json:"role"`
}

type HealthChecks struct {
	Database string `json:"database"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}
