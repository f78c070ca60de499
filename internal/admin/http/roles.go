package http

import (
	"encoding/json"
	"net/http"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/service"
	"github.com/memberhub/adminauth/pkg/adminsdk"
	"github.com/memberhub/adminauth/pkg/httpx"
)

type RolesHandler struct {
	AuthorizationService *service.AuthorizationService
}

// HandleGrant godoc
//
//	@Summary		Grant Role Endpoint
//	@Description	Grant admin or superadmin to the account behind an email address, replacing any prior grant.
//	@Description	Requires an active superadmin grant, or the X-Bootstrap-Secret header while no grant exists system-wide.
//	@Tags			Roles
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Secret	header		string						false	"One-time bootstrap secret (first superadmin only)"
//	@Param			request				body		adminsdk.GrantRoleRequest	true	"Grant request"
//	@Success		200					{object}	adminsdk.GrantRoleResponse
//	@Failure		400					{object}	adminsdk.ErrorResponse
//	@Failure		403					{object}	adminsdk.ErrorResponse
//	@Failure		404					{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/roles [post].
func (h *RolesHandler) HandleGrant(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminsdk.GrantRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.Email == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_argument", "email is required")
		return
	}

	grant, err := h.AuthorizationService.GrantRole(
		ctx,
		httpx.SubjectFromContext(ctx),
		r.Header.Get("X-Bootstrap-Secret"),
		req.Email,
		domain.Role(req.Role),
		req.ExpiresAt,
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.GrantRoleResponse{
		SubjectID: grant.SubjectID,
		Role:      string(grant.Role),
		ExpiresAt: grant.ExpiresAt,
	})
}

// HandleGet godoc
//
//	@Summary		Get Role Endpoint
//	@Description	Fetch the role grant for a subject. Requires an active superadmin grant.
//	@Tags			Roles
//	@Produce		json
//	@Param			subjectId	path		string	true	"Subject ID"
//	@Success		200			{object}	adminsdk.RoleResponse
//	@Failure		403			{object}	adminsdk.ErrorResponse
//	@Failure		404			{object}	adminsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/v1/roles/{subjectId} [get].
func (h *RolesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	grant, err := h.AuthorizationService.GetGrant(ctx,
		httpx.SubjectFromContext(ctx), r.PathValue("subjectId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, adminsdk.RoleResponse{
		SubjectID:  grant.SubjectID,
		Email:      grant.Email,
		Role:       string(grant.Role),
		AssignedBy: grant.AssignedBy,
		AssignedAt: grant.AssignedAt,
		ExpiresAt:  grant.ExpiresAt,
		Active:     grant.IsActive,
	})
}
