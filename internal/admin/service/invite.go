package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/identity"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/pkg/cryptox"
	"github.com/memberhub/adminauth/pkg/idx"
	"github.com/memberhub/adminauth/pkg/slogx"
)

// InviteService owns the invite lifecycle: mint, approve, claim. Invites
// only ever produce admin grants; superadmin is never delegated this way.
type InviteService struct {
	Store    store.Store
	Identity identity.Provider
	Audit    *Auditor

	// ClaimURLBase is the portal URL prefix shareable claim links are
	// built from, e.g. "https://portal.example.org/admin/invites".
	ClaimURLBase string
}

// CreateInvite mints a new single-use admin invite. The claim window is
// fixed at domain.InviteTTL from now; callers cannot choose it.
//
// Returns the invite plus the raw claim token. The token is the shareable
// claim reference; only its fingerprint is stored, so this is the one
// chance to hand it out.
func (s *InviteService) CreateInvite(
	ctx context.Context,
	creatorID string,
	email string,
	requiredApprovals int,
	adminExpiresAt *time.Time,
) (domain.Invite, string, error) {
	log := slogx.FromContext(ctx)

	if err := s.requireSuperadmin(ctx, creatorID); err != nil {
		return domain.Invite{}, "", err
	}
	if requiredApprovals < 0 || requiredApprovals > domain.MaxRequiredApprovals {
		return domain.Invite{}, "", ErrInvalidApprovals
	}

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		log.Error("failed to generate claim token", slog.Any("error", err))
		return domain.Invite{}, "", err
	}

	now := time.Now().UTC()
	invite := domain.Invite{
		ID:                idx.New().String(),
		TokenHash:         cryptox.FingerprintToken(token),
		Role:              domain.RoleAdmin,
		Email:             strings.TrimSpace(email),
		CreatedBy:         creatorID,
		CreatedAt:         now,
		ExpiresAt:         now.Add(domain.InviteTTL),
		AdminExpiresAt:    adminExpiresAt,
		RequiredApprovals: requiredApprovals,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Invites().CreateInvite(ctx, invite)
	})
	if err != nil {
		return domain.Invite{}, "", err
	}

	s.Audit.Record(ctx, domain.AuditCreateInvite, creatorID, "", invite.ID, map[string]string{
		"required_approvals": strconv.Itoa(requiredApprovals),
		"email":              invite.Email,
	})

	log.Info("invite created",
		slog.String("invite_id", invite.ID),
		slog.String("created_by", creatorID),
		slog.Int("required_approvals", requiredApprovals),
		slog.Time("expires_at", invite.ExpiresAt),
	)
	return invite, token, nil
}

// GetInvite returns an invite with its approval state. Superadmin gate;
// this backs the approval UI.
func (s *InviteService) GetInvite(ctx context.Context, callerID, inviteID string) (domain.Invite, error) {
	if err := s.requireSuperadmin(ctx, callerID); err != nil {
		return domain.Invite{}, err
	}
	return s.getInvite(ctx, s.Store, inviteID)
}

// ApproveInvite records one distinct approval. The read and the insert run
// in a single transaction so concurrent approvers are linearized and no
// approval is lost; the approvals table's primary key rejects duplicates
// even if two requests from the same approver race.
func (s *InviteService) ApproveInvite(ctx context.Context, approverID, inviteID string) (approvals, required int, err error) {
	if err := s.requireSuperadmin(ctx, approverID); err != nil {
		return 0, 0, err
	}

	now := time.Now().UTC()
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := s.getInvite(ctx, tx, inviteID)
		if err != nil {
			return err
		}
		if inv.Used {
			return ErrInviteUsed
		}
		if inv.Expired(now) {
			return ErrInviteExpired
		}

		if err := tx.Invites().AddApproval(ctx, inviteID, approverID); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrDuplicateApproval
			}
			return err
		}
		approvals = len(inv.Approvals) + 1
		required = inv.RequiredApprovals
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.Audit.Record(ctx, domain.AuditApproveInvite, approverID, "", inviteID, map[string]string{
		"approvals": strconv.Itoa(approvals),
	})
	return approvals, required, nil
}

// ClaimInvite consumes an invite and produces the admin grant. The invite
// is resolved from the raw claim token's fingerprint, so possession of the
// token is the claim credential; ids are never claimable. All checks and
// both writes (invite used-flip, grant upsert) happen in one transaction:
// of N concurrent claims exactly one commits, the rest fail on the used
// flag or on the conditional consume.
func (s *InviteService) ClaimInvite(ctx context.Context, claimantID, claimantEmail, claimToken string) (domain.RoleGrant, error) {
	log := slogx.FromContext(ctx)
	now := time.Now().UTC()
	tokenHash := cryptox.FingerprintToken(claimToken)

	var grant domain.RoleGrant
	var inviteID, createdBy string
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		inv, err := tx.Invites().GetInviteByTokenHash(ctx, tokenHash)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInviteNotFound
			}
			return err
		}
		inviteID = inv.ID

		if inv.Used {
			return ErrInviteUsed
		}
		if inv.Expired(now) {
			return ErrInviteExpired
		}
		if !inv.QuorumMet() {
			return ErrInsufficientApprovals
		}
		if inv.Email != "" && !strings.EqualFold(inv.Email, claimantEmail) {
			return ErrEmailMismatch
		}

		// Conditional flip; a racing claim that slipped past the read
		// above loses here instead of double-spending the invite.
		if err := tx.Invites().ConsumeInvite(ctx, inv.ID, claimantID, now); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrInviteUsed
			}
			return err
		}

		createdBy = inv.CreatedBy
		grant = domain.RoleGrant{
			SubjectID:  claimantID,
			Email:      claimantEmail,
			Role:       inv.Role,
			AssignedBy: inv.CreatedBy,
			AssignedAt: now,
			ExpiresAt:  inv.AdminExpiresAt,
			IsActive:   true,
		}
		return tx.Grants().UpsertGrant(ctx, grant)
	})
	if err != nil {
		return domain.RoleGrant{}, err
	}

	// Outside the transaction: the grant stands even if the claim push
	// fails, and the session claim lags until the next reconciliation.
	syncRoleClaim(ctx, s.Identity, claimantID, &grant.Role)
	s.Audit.Record(ctx, domain.AuditClaimInvite, claimantID, claimantID, inviteID, map[string]string{
		"invited_by": createdBy,
	})

	log.Info("invite claimed",
		slog.String("invite_id", inviteID),
		slog.String("subject_id", claimantID),
	)
	return grant, nil
}

func (s *InviteService) getInvite(ctx context.Context, st store.Store, inviteID string) (domain.Invite, error) {
	inv, err := st.Invites().GetInvite(ctx, inviteID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Invite{}, ErrInviteNotFound
		}
		return domain.Invite{}, err
	}
	return inv, nil
}

// ClaimURL builds the shareable claim link from the raw claim token.
func (s *InviteService) ClaimURL(claimToken string) string {
	return strings.TrimRight(s.ClaimURLBase, "/") + "/" + claimToken + "/claim"
}

// requireSuperadmin mirrors the AuthorizationService gate: invites are
// minted and approved only by subjects holding an active superadmin grant.
func (s *InviteService) requireSuperadmin(ctx context.Context, callerID string) error {
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
