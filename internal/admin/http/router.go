package http

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/memberhub/adminauth/api/admin" // Swagger docs
	"github.com/memberhub/adminauth/internal/admin/service"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/pkg/httpx"
	"github.com/memberhub/adminauth/pkg/jwtx"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	AuthorizationService *service.AuthorizationService
	InviteService        *service.InviteService
	Store                store.Store

	Verifier   jwtx.Verifier
	HookSecret string

	Version   string
	StartedAt time.Time
}

// NewRouter builds the service mux. Three tiers of protection: public
// health endpoints (lenient, by IP), authenticated superadmin operations
// (moderate, by subject), and the abuse-sensitive grant/claim/hook
// endpoints (strict).
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authn := httpx.AuthnMiddleware(cfg.Verifier)
	strict := httpx.RateLimitBySubject(httpx.StrictLimit)
	moderate := httpx.RateLimitBySubject(httpx.ModerateLimit)
	lenient := httpx.RateLimitByIP(httpx.LenientLimit)

	roles := &RolesHandler{AuthorizationService: cfg.AuthorizationService}
	invites := &InvitesHandler{InviteService: cfg.InviteService}
	hooks := &HooksHandler{AuthorizationService: cfg.AuthorizationService, HookSecret: cfg.HookSecret}
	health := &HealthHandler{Store: cfg.Store, Version: cfg.Version, StartedAt: cfg.StartedAt}

	handle := func(pattern string, h http.HandlerFunc, mws ...httpx.Middleware) {
		mux.Handle(pattern, httpx.Chain(h, mws...))
	}

	// Roles.
	handle("POST /v1/roles", roles.HandleGrant, authn, strict)
	handle("GET /v1/roles/{subjectId}", roles.HandleGet, authn, moderate)
	handle("POST /v1/roles/{subjectId}/extend", roles.HandleExtend, authn, moderate)
	handle("DELETE /v1/roles/{subjectId}", roles.HandleRevoke, authn, moderate)
	handle("POST /v1/roles/{subjectId}/refresh", roles.HandleRefresh, authn, moderate)

	// Invites. Claim is open to any authenticated account; the invite's
	// own checks decide whether it succeeds.
	handle("POST /v1/invites", invites.HandleCreate, authn, moderate)
	handle("GET /v1/invites/{inviteId}", invites.HandleGet, authn, moderate)
	handle("POST /v1/invites/{inviteId}/approve", invites.HandleApprove, authn, moderate)
	handle("POST /v1/invites/{inviteToken}/claim", invites.HandleClaim, authn, strict)

	// Issuer callbacks, shared-secret authenticated.
	handle("POST /v1/hooks/signin", hooks.HandleSignIn, strict)

	// Health.
	handle("GET /livez", health.HandleLivez, lenient)
	handle("GET /readyz", health.HandleReadyz, lenient)

	mux.Handle("/swagger/", httpSwagger.Handler())

	return mux
}
