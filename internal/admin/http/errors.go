package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/memberhub/adminauth/internal/admin/service"
	"github.com/memberhub/adminauth/pkg/httpx"
	"github.com/memberhub/adminauth/pkg/slogx"
)

// writeServiceError maps service errors onto the wire taxonomy. Every
// precondition violation keeps its specific message so clients can tell
// "expired" from "already used" from "insufficient approvals".
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		httpx.WriteError(w, http.StatusForbidden, "permission_denied", err.Error())

	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrGrantNotFound),
		errors.Is(err, service.ErrInviteNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidApprovals):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_argument", err.Error())

	case errors.Is(err, service.ErrInviteUsed),
		errors.Is(err, service.ErrInviteExpired),
		errors.Is(err, service.ErrInsufficientApprovals),
		errors.Is(err, service.ErrEmailMismatch),
		errors.Is(err, service.ErrDuplicateApproval):
		httpx.WriteError(w, http.StatusUnprocessableEntity, "failed_precondition", err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(w, http.StatusGatewayTimeout, "deadline_exceeded",
			"operation timed out; safe to retry")

	default:
		slogx.FromContext(r.Context()).Error("internal error", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal",
			"unexpected internal error")
	}
}

func writeInvalidBody(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid_argument", "invalid JSON body")
}
