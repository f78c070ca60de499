package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/store"
)

type grantsRepo struct {
	db dbtx
}

func (r *grantsRepo) GetGrant(ctx context.Context, subjectID string) (domain.RoleGrant, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT subject_id, email, role, assigned_by, assigned_at, expires_at, is_active
FROM role_grants WHERE subject_id = ?`, subjectID)

	g, err := scanGrant(row)
	if err != nil {
		return domain.RoleGrant{}, mapNotFound(err)
	}
	return g, nil
}

func (r *grantsRepo) UpsertGrant(ctx context.Context, g domain.RoleGrant) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO role_grants (subject_id, email, role, assigned_by, assigned_at, expires_at, is_active)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(subject_id) DO UPDATE SET
	email = excluded.email,
	role = excluded.role,
	assigned_by = excluded.assigned_by,
	assigned_at = excluded.assigned_at,
	expires_at = excluded.expires_at,
	is_active = excluded.is_active`,
		g.SubjectID,
		g.Email,
		string(g.Role),
		g.AssignedBy,
		toMillis(g.AssignedAt),
		toNullMillis(g.ExpiresAt),
		g.IsActive,
	)
	return err
}

func (r *grantsRepo) UpdateGrantExpiry(ctx context.Context, subjectID string, expiresAt *time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE role_grants SET expires_at = ? WHERE subject_id = ?`,
		toNullMillis(expiresAt), subjectID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *grantsRepo) DeleteGrant(ctx context.Context, subjectID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM role_grants WHERE subject_id = ?`, subjectID)
	return err
}

func (r *grantsRepo) ListExpiredGrants(ctx context.Context, now time.Time) ([]domain.RoleGrant, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT subject_id, email, role, assigned_by, assigned_at, expires_at, is_active
FROM role_grants
WHERE is_active = 1 AND expires_at IS NOT NULL AND expires_at <= ?`, toMillis(now))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []domain.RoleGrant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

func (r *grantsRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM role_grants`).Scan(&count)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGrant(row rowScanner) (domain.RoleGrant, error) {
	var (
		g          domain.RoleGrant
		role       string
		assignedAt int64
		expiresAt  sql.NullInt64
	)
	err := row.Scan(&g.SubjectID, &g.Email, &role, &g.AssignedBy, &assignedAt, &expiresAt, &g.IsActive)
	if err != nil {
		return domain.RoleGrant{}, err
	}
	g.Role = domain.Role(role)
	g.AssignedAt = fromMillis(assignedAt)
	g.ExpiresAt = fromNullMillis(expiresAt)
	return g, nil
}
