package http

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/service"
	"github.com/memberhub/adminauth/pkg/adminsdk"
	"github.com/memberhub/adminauth/pkg/httpx"
	"github.com/memberhub/adminauth/pkg/slogx"
)

// HooksHandler receives callbacks from the identity issuer. These are
// server-to-server calls authenticated by a shared secret, not by a
// session token.
type HooksHandler struct {
	AuthorizationService *service.AuthorizationService

	// HookSecret authenticates the issuer. Empty disables the endpoint.
	HookSecret string
}

// HandleSignIn godoc
//
//	@Summary		Sign-In Hook Endpoint
//	@Description	Called by the identity issuer during authentication. Reconciles the subject's stored grant
//	@Description	with the role claim their token carries and returns the claim the new session should hold.
//	@Description	Reconciliation failures never block sign-in; the stale claim is returned instead.
//	@Tags			Hooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Hook-Secret	header		string						true	"Shared hook secret"
//	@Param			request			body		adminsdk.SignInHookRequest	true	"Subject and current token claim"
//	@Success		200				{object}	adminsdk.SignInHookResponse
//	@Failure		401				{object}	adminsdk.ErrorResponse
//	@Router			/v1/hooks/signin [post].
func (h *HooksHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if h.HookSecret == "" ||
		subtle.ConstantTimeCompare([]byte(r.Header.Get("X-Hook-Secret")), []byte(h.HookSecret)) != 1 {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid hook secret")
		return
	}

	var req adminsdk.SignInHookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}
	if req.SubjectID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_argument", "subject_id is required")
		return
	}

	var tokenRole *domain.Role
	if req.Role != nil {
		role := domain.Role(*req.Role)
		tokenRole = &role
	}

	role, err := h.AuthorizationService.ReconcileSignIn(ctx, req.SubjectID, tokenRole)
	if err != nil {
		// Fail open: sign-in proceeds with the claim the token already
		// carries. The sweeper or the next hook call converges it.
		log.Error("sign-in reconciliation failed, passing through token claim",
			slog.String("subject_id", req.SubjectID),
			slog.Any("error", err),
		)
		httpx.WriteJSON(w, http.StatusOK, adminsdk.SignInHookResponse{Role: req.Role})
		return
	}

	resp := adminsdk.SignInHookResponse{}
	if role != nil {
		s := string(*role)
		resp.Role = &s
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
