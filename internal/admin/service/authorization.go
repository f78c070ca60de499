package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/identity"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/pkg/cryptox"
	"github.com/memberhub/adminauth/pkg/slogx"
)

// AuthorizationService owns the role-grant lifecycle: direct grants,
// extension, revocation, claim refresh, and sign-in reconciliation.
//
// Every mutation is one store transaction; the claim push to the identity
// issuer happens after commit and is never allowed to fail the operation.
type AuthorizationService struct {
	Store    store.Store
	Identity identity.Provider
	Audit    *Auditor

	// BootstrapSecretHash is the argon2id hash of the one-time bootstrap
	// secret. Empty disables the bootstrap path entirely.
	BootstrapSecretHash string
}

// GrantRole grants or replaces a role for the account behind granteeEmail.
//
// The caller must hold an active superadmin grant, or present the
// bootstrap secret while no grant exists system-wide (first-superadmin
// bootstrap). The emptiness check runs inside the same transaction as the
// write so two racing bootstrap attempts cannot both succeed.
func (s *AuthorizationService) GrantRole(
	ctx context.Context,
	granterID string,
	bootstrapSecret string,
	granteeEmail string,
	role domain.Role,
	expiresAt *time.Time,
) (domain.RoleGrant, error) {
	log := slogx.FromContext(ctx)

	if !role.Valid() {
		return domain.RoleGrant{}, ErrInvalidRole
	}

	bootstrap := false
	if bootstrapSecret != "" && s.bootstrapSecretOK(bootstrapSecret) {
		bootstrap = true
	} else if err := s.requireSuperadmin(ctx, granterID); err != nil {
		if bootstrapSecret != "" {
			log.Warn("grant attempt with invalid bootstrap secret",
				slog.String("granter_id", granterID),
			)
		}
		return domain.RoleGrant{}, err
	}

	user, err := s.Identity.ResolveUserByEmail(ctx, granteeEmail)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return domain.RoleGrant{}, ErrUserNotFound
		}
		log.Error("failed to resolve grantee email", slog.Any("error", err))
		return domain.RoleGrant{}, err
	}

	assignedBy := granterID
	if bootstrap {
		assignedBy = domain.SystemActor
	}

	grant := domain.RoleGrant{
		SubjectID:  user.SubjectID,
		Email:      user.Email,
		Role:       role,
		AssignedBy: assignedBy,
		AssignedAt: time.Now().UTC(),
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if bootstrap {
			empty, err := tx.Grants().IsEmpty(ctx)
			if err != nil {
				return err
			}
			if !empty {
				log.Warn("bootstrap grant attempted on already-bootstrapped system")
				return ErrPermissionDenied
			}
		}
		return tx.Grants().UpsertGrant(ctx, grant)
	})
	if err != nil {
		return domain.RoleGrant{}, err
	}

	syncRoleClaim(ctx, s.Identity, grant.SubjectID, &grant.Role)
	s.Audit.Record(ctx, domain.AuditGrantRole, assignedBy, grant.SubjectID, "", map[string]string{
		"role":  string(role),
		"email": grant.Email,
	})

	log.Info("role granted",
		slog.String("subject_id", grant.SubjectID),
		slog.String("role", string(role)),
		slog.String("assigned_by", assignedBy),
		slog.Bool("bootstrap", bootstrap),
	)
	return grant, nil
}

// GetGrant returns the grant for a subject. Superadmin gate.
func (s *AuthorizationService) GetGrant(ctx context.Context, callerID, subjectID string) (domain.RoleGrant, error) {
	if err := s.requireSuperadmin(ctx, callerID); err != nil {
		return domain.RoleGrant{}, err
	}

	grant, err := s.Store.Grants().GetGrant(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.RoleGrant{}, ErrGrantNotFound
		}
		return domain.RoleGrant{}, err
	}
	return grant, nil
}

// ExtendRole rewrites the expiry of an existing grant. The role itself is
// unchanged, so the claim re-sync is idempotent; it is done anyway for
// audit symmetry with the other mutations.
func (s *AuthorizationService) ExtendRole(
	ctx context.Context,
	callerID, subjectID string,
	newExpiresAt *time.Time,
) (domain.RoleGrant, error) {
	if err := s.requireSuperadmin(ctx, callerID); err != nil {
		return domain.RoleGrant{}, err
	}

	var grant domain.RoleGrant
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		grant, err = tx.Grants().GetGrant(ctx, subjectID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrGrantNotFound
			}
			return err
		}
		if err := tx.Grants().UpdateGrantExpiry(ctx, subjectID, newExpiresAt); err != nil {
			return err
		}
		grant.ExpiresAt = newExpiresAt
		return nil
	})
	if err != nil {
		return domain.RoleGrant{}, err
	}

	syncRoleClaim(ctx, s.Identity, subjectID, &grant.Role)
	s.Audit.Record(ctx, domain.AuditExtendRole, callerID, subjectID, "", map[string]string{
		"expires_at": formatExpiry(newExpiresAt),
	})
	return grant, nil
}

// RevokeRole deletes a grant outright. The store deletion is the source of
// truth; a failed claim clear afterwards only widens the reconciliation
// window, it does not undo the revocation.
func (s *AuthorizationService) RevokeRole(ctx context.Context, callerID, subjectID string) error {
	if err := s.requireSuperadmin(ctx, callerID); err != nil {
		return err
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.Grants().GetGrant(ctx, subjectID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrGrantNotFound
			}
			return err
		}
		return tx.Grants().DeleteGrant(ctx, subjectID)
	})
	if err != nil {
		return err
	}

	syncRoleClaim(ctx, s.Identity, subjectID, nil)
	s.Audit.Record(ctx, domain.AuditRevokeRole, callerID, subjectID, "", nil)

	slogx.FromContext(ctx).Info("role revoked",
		slog.String("subject_id", subjectID),
		slog.String("revoked_by", callerID),
	)
	return nil
}

// RefreshClaims forces an immediate reconciliation for a subject without
// waiting for their next sign-in. Returns the authoritative role value,
// nil when the subject holds no active grant.
func (s *AuthorizationService) RefreshClaims(ctx context.Context, callerID, subjectID string) (*domain.Role, error) {
	if err := s.requireSuperadmin(ctx, callerID); err != nil {
		return nil, err
	}

	role, err := s.reconcile(ctx, subjectID, nil, true)
	if err != nil {
		return nil, err
	}

	s.Audit.Record(ctx, domain.AuditRefreshClaims, callerID, subjectID, "", nil)
	return role, nil
}

// requireSuperadmin checks that the caller holds an active, non-expired
// superadmin grant. Gates read the store, never the caller's token claim.
func (s *AuthorizationService) requireSuperadmin(ctx context.Context, callerID string) error {
	if callerID == "" {
		return ErrPermissionDenied
	}

	grant, err := s.Store.Grants().GetGrant(ctx, callerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPermissionDenied
		}
		return err
	}
	if !grant.Authorizes(domain.RoleSuperadmin, time.Now().UTC()) {
		return ErrPermissionDenied
	}
	return nil
}

func (s *AuthorizationService) bootstrapSecretOK(secret string) bool {
	if s.BootstrapSecretHash == "" {
		return false
	}
	return cryptox.VerifySecret(secret, s.BootstrapSecretHash) == nil
}

func formatExpiry(t *time.Time) string {
	if t == nil {
		return "permanent"
	}
	return t.UTC().Format(time.RFC3339)
}
