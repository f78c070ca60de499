package http

import (
	"encoding/json"
	"net/http"

	"github.com/memberhub/adminauth/internal/admin/service"
	"github.com/memberhub/adminauth/pkg/adminsdk"
	"github.com/memberhub/adminauth/pkg/httpx"
)

type InvitesHandler struct {
	InviteService *service.InviteService
}

// HandleCreate godoc
//
//	@Summary		Create Invite Endpoint
//	@Description	Mint a single-use admin invite with a one-hour claim window and an optional approval quorum.
//	@Tags			Invites
//	@Accept			json
//	@Produce		json
//	@Param			request	body		adminsdk.CreateInviteRequest	true	"Invite parameters"
//	@Success		200		{object}	adminsdk.CreateInviteResponse
//	@Failure		400		{object}	adminsdk.ErrorResponse
//	@Failure		403		{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/invites [post].
func (h *InvitesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminsdk.CreateInviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	invite, token, err := h.InviteService.CreateInvite(ctx,
		httpx.SubjectFromContext(ctx), req.Email, req.RequiredApprovals, req.AdminExpiresAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.CreateInviteResponse{
		InviteID:   invite.ID,
		ClaimToken: token,
		ClaimURL:   h.InviteService.ClaimURL(token),
		ExpiresAt:  invite.ExpiresAt,
	})
}

// HandleGet godoc
//
//	@Summary		Get Invite Endpoint
//	@Description	Inspect an invite and its approval state. Backs the approval UI.
//	@Tags			Invites
//	@Produce		json
//	@Param			inviteId	path		string	true	"Invite ID"
//	@Success		200			{object}	adminsdk.InviteResponse
//	@Failure		403			{object}	adminsdk.ErrorResponse
//	@Failure		404			{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/invites/{inviteId} [get].
func (h *InvitesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	invite, err := h.InviteService.GetInvite(ctx,
		httpx.SubjectFromContext(ctx), r.PathValue("inviteId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.InviteResponse{
		InviteID:          invite.ID,
		Email:             invite.Email,
		CreatedBy:         invite.CreatedBy,
		ExpiresAt:         invite.ExpiresAt,
		AdminExpiresAt:    invite.AdminExpiresAt,
		Used:              invite.Used,
		UsedBy:            invite.UsedBy,
		Approvals:         len(invite.Approvals),
		RequiredApprovals: invite.RequiredApprovals,
	})
}

// HandleApprove godoc
//
//	@Summary		Approve Invite Endpoint
//	@Description	Record one distinct approval towards the invite's quorum. Approving twice is rejected.
//	@Tags			Invites
//	@Produce		json
//	@Param			inviteId	path		string	true	"Invite ID"
//	@Success		200			{object}	adminsdk.ApproveInviteResponse
//	@Failure		403			{object}	adminsdk.ErrorResponse
//	@Failure		404			{object}	adminsdk.ErrorResponse
//	@Failure		422			{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/invites/{inviteId}/approve [post].
func (h *InvitesHandler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	approvals, required, err := h.InviteService.ApproveInvite(ctx,
		httpx.SubjectFromContext(ctx), r.PathValue("inviteId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.ApproveInviteResponse{
		Approvals:         approvals,
		RequiredApprovals: required,
	})
}

// HandleClaim godoc
//
//	@Summary		Claim Invite Endpoint
//	@Description	Consume an invite and receive the admin grant. The opaque claim token from the
//	@Description	invite link is the credential; invite ids cannot claim. Any signed-in account may
//	@Description	claim, subject to the invite's email binding, quorum and expiry. Each invite is
//	@Description	consumed exactly once.
//	@Tags			Invites
//	@Produce		json
//	@Param			inviteToken	path		string	true	"Opaque claim token"
//	@Success		200			{object}	adminsdk.ClaimInviteResponse
//	@Failure		404			{object}	adminsdk.ErrorResponse
//	@Failure		422			{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/invites/{inviteToken}/claim [post].
func (h *InvitesHandler) HandleClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	grant, err := h.InviteService.ClaimInvite(ctx,
		httpx.SubjectFromContext(ctx), httpx.EmailFromContext(ctx), r.PathValue("inviteToken"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.ClaimInviteResponse{
		Role:      string(grant.Role),
		ExpiresAt: grant.ExpiresAt,
	})
}
