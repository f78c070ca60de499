package store

import (
	"context"
	"errors"
	"time"

	"github.com/memberhub/adminauth/internal/admin/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned when a conditional write loses: the row the
	// caller expected to mutate was changed (or consumed) by someone else.
	ErrConflict = errors.New("store: conflicting write")
)

// Store is the root data access interface. Concrete drivers implement this.
// It exposes sub-repositories to keep concerns tidy and testable.
type Store interface {
	Grants() Grants
	Invites() Invites
	Audit() Audit

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back if fn returns
	// an error and committing otherwise. Multi-step operations that must be
	// atomic (invite consumption in particular) go through here.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Grants interface {
	// GetGrant returns the grant for a subject, expired or not.
	GetGrant(ctx context.Context, subjectID string) (domain.RoleGrant, error)

	// UpsertGrant writes a grant, replacing any prior grant for the subject.
	UpsertGrant(ctx context.Context, g domain.RoleGrant) error

	// UpdateGrantExpiry rewrites expires_at for an existing grant.
	UpdateGrantExpiry(ctx context.Context, subjectID string, expiresAt *time.Time) error

	// DeleteGrant removes a grant. Deleting an absent grant is a no-op.
	DeleteGrant(ctx context.Context, subjectID string) error

	// ListExpiredGrants returns active grants whose deadline is at or
	// before now, for the sweeper.
	ListExpiredGrants(ctx context.Context, now time.Time) ([]domain.RoleGrant, error)

	// IsEmpty reports whether no grants exist system-wide (bootstrap gate).
	IsEmpty(ctx context.Context) (bool, error)
}

type Invites interface {
	// CreateInvite writes a new invite with an empty approval set.
	CreateInvite(ctx context.Context, inv domain.Invite) error

	// GetInvite returns an invite with its approvals loaded.
	GetInvite(ctx context.Context, id string) (domain.Invite, error)

	// GetInviteByTokenHash resolves an invite from the fingerprint of its
	// claim token. The raw token is never stored or queried.
	GetInviteByTokenHash(ctx context.Context, tokenHash string) (domain.Invite, error)

	// AddApproval records a distinct approver. Returns ErrAlreadyExists if
	// the approver already signed off on this invite.
	AddApproval(ctx context.Context, inviteID, approverID string) error

	// ConsumeInvite flips used=false to used=true for a still-valid invite.
	// Returns ErrConflict if the invite was already consumed or the claim
	// window closed between read and write. Call inside a transaction.
	ConsumeInvite(ctx context.Context, inviteID, usedBy string, now time.Time) error

	// DeleteExpiredInvites removes invites whose window closed before the
	// cutoff (housekeeping).
	DeleteExpiredInvites(ctx context.Context, cutoff time.Time) error
}

type Audit interface {
	// AppendEntry writes one audit record. Append-only; nothing reads these back.
	AppendEntry(ctx context.Context, e domain.AuditEntry) error
}
