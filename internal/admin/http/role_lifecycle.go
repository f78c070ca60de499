package http

import (
	"encoding/json"
	"net/http"

	"github.com/memberhub/adminauth/pkg/adminsdk"
	"github.com/memberhub/adminauth/pkg/httpx"
)

// HandleExtend godoc
//
//	@Summary		Extend Role Endpoint
//	@Description	Rewrite the expiry of an existing grant. A null expires_at makes the grant permanent.
//	@Tags			Roles
//	@Accept			json
//	@Produce		json
//	@Param			subjectId	path		string						true	"Subject ID"
//	@Param			request		body		adminsdk.ExtendRoleRequest	true	"New expiry"
//	@Success		200			{object}	adminsdk.ExtendRoleResponse
//	@Failure		403			{object}	adminsdk.ErrorResponse
//	@Failure		404			{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/roles/{subjectId}/extend [post].
func (h *RolesHandler) HandleExtend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminsdk.ExtendRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	grant, err := h.AuthorizationService.ExtendRole(ctx,
		httpx.SubjectFromContext(ctx), r.PathValue("subjectId"), req.ExpiresAt)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.ExtendRoleResponse{
		SubjectID: grant.SubjectID,
		ExpiresAt: grant.ExpiresAt,
	})
}

// HandleRevoke godoc
//
//	@Summary		Revoke Role Endpoint
//	@Description	Delete a role grant. The subject loses access once their session claim is cleared or reconciled.
//	@Tags			Roles
//	@Produce		json
//	@Param			subjectId	path		string	true	"Subject ID"
//	@Success		200			{object}	adminsdk.RevokeRoleResponse
//	@Failure		403			{object}	adminsdk.ErrorResponse
//	@Failure		404			{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/roles/{subjectId} [delete].
func (h *RolesHandler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := r.PathValue("subjectId")

	if err := h.AuthorizationService.RevokeRole(ctx, httpx.SubjectFromContext(ctx), subjectID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.RevokeRoleResponse{SubjectID: subjectID})
}

// HandleRefresh godoc
//
//	@Summary		Refresh Claims Endpoint
//	@Description	Force an immediate claim reconciliation for a subject without waiting for their next sign-in.
//	@Tags			Roles
//	@Produce		json
//	@Param			subjectId	path		string	true	"Subject ID"
//	@Success		200			{object}	adminsdk.RefreshClaimsResponse
//	@Failure		403			{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/roles/{subjectId}/refresh [post].
func (h *RolesHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	role, err := h.AuthorizationService.RefreshClaims(ctx,
		httpx.SubjectFromContext(ctx), r.PathValue("subjectId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	resp := adminsdk.RefreshClaimsResponse{}
	if role != nil {
		s := string(*role)
		resp.Role = &s
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
