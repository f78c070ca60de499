package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/store"
)

type invitesRepo struct {
	db dbtx
}

func (r *invitesRepo) CreateInvite(ctx context.Context, inv domain.Invite) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invites (id, token_hash, role, email, created_by, created_at, expires_at, admin_expires_at, used, used_by, required_approvals)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?)`,
		inv.ID,
		inv.TokenHash,
		string(inv.Role),
		inv.Email,
		inv.CreatedBy,
		toMillis(inv.CreatedAt),
		toMillis(inv.ExpiresAt),
		toNullMillis(inv.AdminExpiresAt),
		inv.RequiredApprovals,
	)
	if isConstraintErr(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *invitesRepo) GetInvite(ctx context.Context, id string) (domain.Invite, error) {
	return r.getInviteWhere(ctx, "id = ?", id)
}

func (r *invitesRepo) GetInviteByTokenHash(ctx context.Context, tokenHash string) (domain.Invite, error) {
	return r.getInviteWhere(ctx, "token_hash = ?", tokenHash)
}

func (r *invitesRepo) getInviteWhere(ctx context.Context, where string, arg any) (domain.Invite, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, token_hash, role, email, created_by, created_at, expires_at, admin_expires_at, used, used_by, required_approvals
FROM invites WHERE `+where, arg)

	var (
		inv            domain.Invite
		role           string
		createdAt      int64
		expiresAt      int64
		adminExpiresAt sql.NullInt64
		usedBy         sql.NullString
	)
	err := row.Scan(&inv.ID, &inv.TokenHash, &role, &inv.Email, &inv.CreatedBy, &createdAt,
		&expiresAt, &adminExpiresAt, &inv.Used, &usedBy, &inv.RequiredApprovals)
	if err != nil {
		return domain.Invite{}, mapNotFound(err)
	}
	inv.Role = domain.Role(role)
	inv.CreatedAt = fromMillis(createdAt)
	inv.ExpiresAt = fromMillis(expiresAt)
	inv.AdminExpiresAt = fromNullMillis(adminExpiresAt)
	inv.UsedBy = mapNullString(usedBy)

	rows, err := r.db.QueryContext(ctx, `
SELECT approver_id FROM invite_approvals WHERE invite_id = ? ORDER BY approved_at, approver_id`, inv.ID)
	if err != nil {
		return domain.Invite{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var approver string
		if err := rows.Scan(&approver); err != nil {
			return domain.Invite{}, err
		}
		inv.Approvals = append(inv.Approvals, approver)
	}
	return inv, rows.Err()
}

func (r *invitesRepo) AddApproval(ctx context.Context, inviteID, approverID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invite_approvals (invite_id, approver_id, approved_at)
VALUES (?, ?, ?)`,
		inviteID, approverID, toMillis(time.Now()))
	if isConstraintErr(err) {
		return store.ErrAlreadyExists
	}
	return err
}

// ConsumeInvite performs the single-use flip. The WHERE clause re-checks
// used and expiry so a racing consumer loses with ErrConflict instead of
// double-spending the invite.
func (r *invitesRepo) ConsumeInvite(ctx context.Context, inviteID, usedBy string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE invites SET used = 1, used_by = ?
WHERE id = ? AND used = 0 AND expires_at > ?`,
		usedBy, inviteID, toMillis(now))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrConflict
	}
	return nil
}

func (r *invitesRepo) DeleteExpiredInvites(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM invites WHERE expires_at <= ?`, toMillis(cutoff))
	return err
}

// isConstraintErr reports whether err is a SQLite uniqueness violation.
// modernc.org/sqlite does not export a typed error for this, so match on
// the extended error message.
func isConstraintErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed")
}
