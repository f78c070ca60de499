package http

import (
	"net/http"
	"time"

	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/pkg/adminsdk"
	"github.com/memberhub/adminauth/pkg/httpx"
	"github.com/memberhub/adminauth/pkg/slogx"
)

type HealthHandler struct {
	Store     store.Store
	Version   string
	StartedAt time.Time
}

// HandleLivez godoc
//
//	@Summary		Liveness Endpoint
//	@Description	Process liveness. Always 200 while the process can serve requests.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	adminsdk.HealthResponse
//	@Router			/livez [get].
func (h *HealthHandler) HandleLivez(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, adminsdk.HealthResponse{
		Status:  "ok",
		Uptime:  time.Since(h.StartedAt).Round(time.Second).String(),
		Version: h.Version,
	})
}

// HandleReadyz godoc
//
//	@Summary		Readiness Endpoint
//	@Description	Readiness including a database ping. 503 when the store is unreachable.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	adminsdk.HealthResponse
//	@Failure		503	{object}	adminsdk.HealthResponse
//	@Router			/readyz [get].
func (h *HealthHandler) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status, dbStatus := "ok", "ok"
	code := http.StatusOK
	if err := h.Store.Ping(ctx); err != nil {
		slogx.FromContext(ctx).Error("readiness database ping failed", "error", err)
		status, dbStatus = "degraded", "unreachable"
		code = http.StatusServiceUnavailable
	}

	httpx.WriteJSON(w, code, adminsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(h.StartedAt).Round(time.Second).String(),
		Version: h.Version,
		Checks:  &adminsdk.HealthChecks{Database: dbStatus},
	})
}
