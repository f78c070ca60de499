package service

import (
	"context"
	"log/slog"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/identity"
	"github.com/memberhub/adminauth/pkg/slogx"
)

// syncRoleClaim pushes a role value into the identity issuer after a store
// transaction has committed. One attempt, log on failure: the role store is
// authoritative and sign-in reconciliation or the sweeper heals any drift.
// A nil role clears the claim.
func syncRoleClaim(ctx context.Context, provider identity.Provider, subjectID string, role *domain.Role) {
	log := slogx.FromContext(ctx)

	var value *string
	if role != nil {
		s := string(*role)
		value = &s
	}

	if err := provider.SetRoleClaim(ctx, subjectID, value); err != nil {
		log.Warn("claim synchronization failed; store remains authoritative",
			slog.String("subject_id", subjectID),
			slog.Any("role", value),
			slog.Any("error", err),
		)
	}
}
