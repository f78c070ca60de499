package service

import "errors"

// Caller-facing error kinds. The HTTP layer maps these onto the wire
// taxonomy; invite-state violations stay distinct so a UI can tell
// "expired" from "already used".
var (
	ErrPermissionDenied = errors.New("caller lacks an active superadmin grant")

	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidApprovals = errors.New("required approvals must be between 0 and 5")

	ErrUserNotFound   = errors.New("no account found for that email")
	ErrGrantNotFound  = errors.New("no role grant for that subject")
	ErrInviteNotFound = errors.New("invite not found")

	ErrInviteUsed            = errors.New("invite has already been used")
	ErrInviteExpired         = errors.New("invite has expired")
	ErrInsufficientApprovals = errors.New("invite does not have enough approvals")
	ErrEmailMismatch         = errors.New("invite was issued for a different email address")
	ErrDuplicateApproval     = errors.New("approver has already approved this invite")
)
