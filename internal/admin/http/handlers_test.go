package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/identity"
	"github.com/memberhub/adminauth/internal/admin/service"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/internal/admin/store/drivers/sqlite"
	"github.com/memberhub/adminauth/pkg/adminsdk"
	"github.com/memberhub/adminauth/pkg/cryptox"
	"github.com/memberhub/adminauth/pkg/jwtx"
)

var (
	testSessionKey = []byte("0123456789abcdef0123456789abcdef")
	testIssuer     = "test-issuer"
	testHookSecret = "hook-secret"
)

type stubIdentity struct {
	mu     sync.Mutex
	users  map[string]identity.User
	claims map[string]*string
}

func newStubIdentity() *stubIdentity {
	return &stubIdentity{
		users:  make(map[string]identity.User),
		claims: make(map[string]*string),
	}
}

func (s *stubIdentity) addUser(subjectID, email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(email)] = identity.User{SubjectID: subjectID, Email: email}
}

func (s *stubIdentity) ResolveUserByEmail(_ context.Context, email string) (identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[strings.ToLower(email)]
	if !ok {
		return identity.User{}, identity.ErrUserNotFound
	}
	return user, nil
}

func (s *stubIdentity) SetRoleClaim(_ context.Context, subjectID string, role *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[subjectID] = role
	return nil
}

type testEnv struct {
	handler  http.Handler
	store    store.Store
	identity *stubIdentity
}

func newTestEnv(t *testing.T, bootstrapSecret string) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	stub := newStubIdentity()
	audit := &service.Auditor{Store: st}

	var hash string
	if bootstrapSecret != "" {
		hash, err = cryptox.HashSecret(bootstrapSecret)
		require.NoError(t, err)
	}

	authz := &service.AuthorizationService{
		Store:               st,
		Identity:            stub,
		Audit:               audit,
		BootstrapSecretHash: hash,
	}
	invites := &service.InviteService{
		Store:        st,
		Identity:     stub,
		Audit:        audit,
		ClaimURLBase: "https://portal.example.org/admin/invites",
	}

	handler := NewRouter(RouterConfig{
		AuthorizationService: authz,
		InviteService:        invites,
		Store:                st,
		Verifier:             jwtx.NewHS256Verifier(testSessionKey, testIssuer),
		HookSecret:           testHookSecret,
		Version:              "test",
		StartedAt:            time.Now(),
	})

	return &testEnv{handler: handler, store: st, identity: stub}
}

func (e *testEnv) token(t *testing.T, subjectID, email string) string {
	t.Helper()
	raw, err := jwtx.Sign(testSessionKey, testIssuer, subjectID, email, nil, time.Minute)
	require.NoError(t, err)
	return raw
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, extra map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.0.0.1:5000"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedSuperadmin(t *testing.T, subjectID string) {
	t.Helper()
	require.NoError(t, e.store.Grants().UpsertGrant(context.Background(), domain.RoleGrant{
		SubjectID:  subjectID,
		Email:      subjectID + "@example.org",
		Role:       domain.RoleSuperadmin,
		AssignedBy: domain.SystemActor,
		AssignedAt: time.Now().UTC(),
		IsActive:   true,
	}))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) adminsdk.ErrorResponse {
	t.Helper()
	var body adminsdk.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestGrantEndpointBootstrap(t *testing.T) {
	env := newTestEnv(t, "first-secret")
	env.identity.addUser("sub-alice", "alice@example.org")

	rec := env.do(t, http.MethodPost, "/v1/roles",
		env.token(t, "sub-alice", "alice@example.org"),
		adminsdk.GrantRoleRequest{Email: "alice@example.org", Role: "superadmin"},
		map[string]string{"X-Bootstrap-Secret": "first-secret"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp adminsdk.GrantRoleResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, "sub-alice", resp.SubjectID)
	require.Equal(t, "superadmin", resp.Role)
}

func TestGrantEndpointErrorMapping(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedSuperadmin(t, "sub-root")
	rootToken := env.token(t, "sub-root", "root@example.org")

	t.Run("no session token", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/roles", "",
			adminsdk.GrantRoleRequest{Email: "x@example.org", Role: "admin"}, nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("caller without superadmin", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/roles",
			env.token(t, "sub-nobody", "nobody@example.org"),
			adminsdk.GrantRoleRequest{Email: "x@example.org", Role: "admin"}, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "permission_denied", decodeError(t, rec).Error)
	})

	t.Run("invalid role", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/roles", rootToken,
			adminsdk.GrantRoleRequest{Email: "x@example.org", Role: "owner"}, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_argument", decodeError(t, rec).Error)
	})

	t.Run("unknown grantee email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/roles", rootToken,
			adminsdk.GrantRoleRequest{Email: "ghost@example.org", Role: "admin"}, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "not_found", decodeError(t, rec).Error)
	})
}

func TestInviteEndpoints(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedSuperadmin(t, "sub-root")
	rootToken := env.token(t, "sub-root", "root@example.org")

	var created adminsdk.CreateInviteResponse

	t.Run("create", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/invites", rootToken,
			adminsdk.CreateInviteRequest{RequiredApprovals: 1}, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
		require.NotEmpty(t, created.InviteID)
		require.NotEmpty(t, created.ClaimToken)
		require.NotEqual(t, created.InviteID, created.ClaimToken)
		require.Contains(t, created.ClaimURL, created.ClaimToken)
	})

	t.Run("claim before quorum is a precondition failure", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/invites/"+created.ClaimToken+"/claim",
			env.token(t, "sub-new", "new@example.org"), nil, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		require.Equal(t, "failed_precondition", decodeError(t, rec).Error)
	})

	t.Run("approve then claim", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/invites/"+created.InviteID+"/approve", rootToken, nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var approved adminsdk.ApproveInviteResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&approved))
		require.Equal(t, 1, approved.Approvals)

		rec = env.do(t, http.MethodPost, "/v1/invites/"+created.ClaimToken+"/claim",
			env.token(t, "sub-new", "new@example.org"), nil, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var claimed adminsdk.ClaimInviteResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&claimed))
		require.Equal(t, "admin", claimed.Role)
	})

	t.Run("second claim is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/invites/"+created.ClaimToken+"/claim",
			env.token(t, "sub-late", "late@example.org"), nil, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("invite id does not claim", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/invites/"+created.InviteID+"/claim",
			env.token(t, "sub-late", "late@example.org"), nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "not_found", decodeError(t, rec).Error)
	})

	t.Run("unknown invite", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/v1/invites/missing", rootToken, nil, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSignInHookEndpoint(t *testing.T) {
	env := newTestEnv(t, "")
	env.seedSuperadmin(t, "sub-root")

	t.Run("rejects a bad hook secret", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/hooks/signin", "",
			adminsdk.SignInHookRequest{SubjectID: "sub-root"},
			map[string]string{"X-Hook-Secret": "wrong"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("returns the stored role", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/v1/hooks/signin", "",
			adminsdk.SignInHookRequest{SubjectID: "sub-root"},
			map[string]string{"X-Hook-Secret": testHookSecret})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp adminsdk.SignInHookResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotNil(t, resp.Role)
		require.Equal(t, "superadmin", *resp.Role)
	})

	t.Run("clears a stale claim", func(t *testing.T) {
		stale := "admin"
		rec := env.do(t, http.MethodPost, "/v1/hooks/signin", "",
			adminsdk.SignInHookRequest{SubjectID: "sub-gone", Role: &stale},
			map[string]string{"X-Hook-Secret": testHookSecret})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp adminsdk.SignInHookResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Nil(t, resp.Role)
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, "")

	rec := env.do(t, http.MethodGet, "/livez", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/readyz", "", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var health adminsdk.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	require.Equal(t, "ok", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "ok", health.Checks.Database)
}

func TestWriteServiceErrorTimeout(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeServiceError(rec, req, context.DeadlineExceeded)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.Equal(t, "deadline_exceeded", decodeError(t, rec).Error)
}

func TestWriteServiceErrorInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	writeServiceError(rec, req, errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	// Internal details must not leak to the client.
	body := decodeError(t, rec)
	require.Equal(t, "internal", body.Error)
	require.NotContains(t, body.ErrorDescription, "boom")
}
