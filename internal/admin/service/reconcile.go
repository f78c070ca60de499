package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/pkg/slogx"
)

// ReconcileSignIn repairs claim/role drift for a subject at authentication
// time, before their session is finalized. tokenRole is the admin-role
// claim the incoming token carries, nil when absent.
//
// Returns the claim value the session should carry. Any error is an
// internal fault; the caller (the sign-in hook handler) swallows it and
// lets sign-in proceed with the stale claim. Denying sign-in over a
// role-sync glitch would be worse than one stale session.
func (s *AuthorizationService) ReconcileSignIn(ctx context.Context, subjectID string, tokenRole *domain.Role) (*domain.Role, error) {
	return s.reconcile(ctx, subjectID, tokenRole, false)
}

// reconcile compares the stored grant with the token claim and converges
// the issuer onto the store. When force is set the claim is pushed even if
// it already matches (used by RefreshClaims, where the token state is
// unknown).
func (s *AuthorizationService) reconcile(ctx context.Context, subjectID string, tokenRole *domain.Role, force bool) (*domain.Role, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()

	grant, err := s.Store.Grants().GetGrant(ctx, subjectID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// No grant: clear any lingering claim.
		if tokenRole != nil || force {
			syncRoleClaim(ctx, s.Identity, subjectID, nil)
		}
		return nil, nil

	case err != nil:
		return nil, err
	}

	if grant.Expired(now) {
		// Same effect as the sweeper, applied eagerly. The delete is
		// idempotent, so racing the sweeper on the same grant is safe.
		if err := s.Store.Grants().DeleteGrant(ctx, subjectID); err != nil {
			return nil, err
		}
		syncRoleClaim(ctx, s.Identity, subjectID, nil)
		s.Audit.Record(ctx, domain.AuditExpireRole, domain.SystemActor, subjectID, "", map[string]string{
			"trigger": "signin",
		})
		log.Info("expired grant removed at sign-in", slog.String("subject_id", subjectID))
		return nil, nil
	}

	if force || tokenRole == nil || *tokenRole != grant.Role {
		syncRoleClaim(ctx, s.Identity, subjectID, &grant.Role)
	}
	role := grant.Role
	return &role, nil
}
