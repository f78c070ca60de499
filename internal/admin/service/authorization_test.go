package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/pkg/cryptox"
)

func newAuthorizationService(t *testing.T, bootstrapSecret string) (*AuthorizationService, store.Store, *fakeIdentity) {
	t.Helper()

	st := newTestStore(t)
	fake := newFakeIdentity()

	var hash string
	if bootstrapSecret != "" {
		var err error
		hash, err = cryptox.HashSecret(bootstrapSecret)
		require.NoError(t, err)
	}

	svc := &AuthorizationService{
		Store:               st,
		Identity:            fake,
		Audit:               &Auditor{Store: st},
		BootstrapSecretHash: hash,
	}
	return svc, st, fake
}

func TestGrantRoleBootstrap(t *testing.T) {
	ctx := context.Background()
	svc, _, fake := newAuthorizationService(t, "first-secret")
	fake.addUser("sub-alice", "alice@example.org")

	t.Run("bootstrap grants first superadmin", func(t *testing.T) {
		grant, err := svc.GrantRole(ctx, "", "first-secret", "alice@example.org", domain.RoleSuperadmin, nil)
		require.NoError(t, err)
		require.Equal(t, "sub-alice", grant.SubjectID)
		require.Equal(t, domain.RoleSuperadmin, grant.Role)
		require.Equal(t, domain.SystemActor, grant.AssignedBy)

		claim := fake.claim("sub-alice")
		require.NotNil(t, claim)
		require.Equal(t, "superadmin", *claim)
	})

	t.Run("bootstrap refused once any grant exists", func(t *testing.T) {
		fake.addUser("sub-eve", "eve@example.org")
		_, err := svc.GrantRole(ctx, "", "first-secret", "eve@example.org", domain.RoleSuperadmin, nil)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestGrantRoleBootstrapWrongSecret(t *testing.T) {
	ctx := context.Background()
	svc, _, fake := newAuthorizationService(t, "first-secret")
	fake.addUser("sub-alice", "alice@example.org")

	_, err := svc.GrantRole(ctx, "", "wrong", "alice@example.org", domain.RoleSuperadmin, nil)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGrantRoleBootstrapDisabled(t *testing.T) {
	ctx := context.Background()
	svc, _, fake := newAuthorizationService(t, "")
	fake.addUser("sub-alice", "alice@example.org")

	// No hash configured: even the empty secret must not open the door.
	_, err := svc.GrantRole(ctx, "", "anything", "alice@example.org", domain.RoleSuperadmin, nil)
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestGrantRoleRequiresSuperadmin(t *testing.T) {
	ctx := context.Background()
	svc, st, fake := newAuthorizationService(t, "")
	fake.addUser("sub-bob", "bob@example.org")

	t.Run("caller without grant is denied", func(t *testing.T) {
		_, err := svc.GrantRole(ctx, "sub-nobody", "", "bob@example.org", domain.RoleAdmin, nil)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("admin caller is denied", func(t *testing.T) {
		seedGrant(t, st, "sub-admin", domain.RoleAdmin, nil)
		_, err := svc.GrantRole(ctx, "sub-admin", "", "bob@example.org", domain.RoleAdmin, nil)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("expired superadmin is denied", func(t *testing.T) {
		seedGrant(t, st, "sub-stale", domain.RoleSuperadmin, ptrTime(time.Now().UTC().Add(-time.Minute)))
		_, err := svc.GrantRole(ctx, "sub-stale", "", "bob@example.org", domain.RoleAdmin, nil)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("active superadmin succeeds", func(t *testing.T) {
		seedGrant(t, st, "sub-root", domain.RoleSuperadmin, nil)
		grant, err := svc.GrantRole(ctx, "sub-root", "", "bob@example.org", domain.RoleAdmin, nil)
		require.NoError(t, err)
		require.Equal(t, "sub-root", grant.AssignedBy)
	})
}

func TestGrantRoleValidation(t *testing.T) {
	ctx := context.Background()
	svc, st, fake := newAuthorizationService(t, "")
	seedGrant(t, st, "sub-root", domain.RoleSuperadmin, nil)

	t.Run("unknown role", func(t *testing.T) {
		_, err := svc.GrantRole(ctx, "sub-root", "", "bob@example.org", domain.Role("owner"), nil)
		require.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.GrantRole(ctx, "sub-root", "", "ghost@example.org", domain.RoleAdmin, nil)
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("replaces an existing grant", func(t *testing.T) {
		fake.addUser("sub-bob", "bob@example.org")

		_, err := svc.GrantRole(ctx, "sub-root", "", "bob@example.org", domain.RoleAdmin, nil)
		require.NoError(t, err)

		grant, err := svc.GrantRole(ctx, "sub-root", "", "bob@example.org", domain.RoleSuperadmin, nil)
		require.NoError(t, err)
		require.Equal(t, domain.RoleSuperadmin, grant.Role)

		stored, err := st.Grants().GetGrant(ctx, "sub-bob")
		require.NoError(t, err)
		require.Equal(t, domain.RoleSuperadmin, stored.Role)
	})
}

func TestExtendRole(t *testing.T) {
	ctx := context.Background()
	svc, st, fake := newAuthorizationService(t, "")
	seedGrant(t, st, "sub-root", domain.RoleSuperadmin, nil)
	seedGrant(t, st, "sub-bob", domain.RoleAdmin, ptrTime(time.Now().UTC().Add(time.Hour)))

	t.Run("rewrites the expiry", func(t *testing.T) {
		newExpiry := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Millisecond)
		grant, err := svc.ExtendRole(ctx, "sub-root", "sub-bob", &newExpiry)
		require.NoError(t, err)
		require.NotNil(t, grant.ExpiresAt)
		require.True(t, grant.ExpiresAt.Equal(newExpiry))

		stored, err := st.Grants().GetGrant(ctx, "sub-bob")
		require.NoError(t, err)
		require.NotNil(t, stored.ExpiresAt)
		require.True(t, stored.ExpiresAt.Equal(newExpiry))

		claim := fake.claim("sub-bob")
		require.NotNil(t, claim)
		require.Equal(t, "admin", *claim)
	})

	t.Run("nil expiry makes the grant permanent", func(t *testing.T) {
		grant, err := svc.ExtendRole(ctx, "sub-root", "sub-bob", nil)
		require.NoError(t, err)
		require.Nil(t, grant.ExpiresAt)
	})

	t.Run("unknown subject", func(t *testing.T) {
		_, err := svc.ExtendRole(ctx, "sub-root", "sub-ghost", nil)
		require.ErrorIs(t, err, ErrGrantNotFound)
	})

	t.Run("gate applies", func(t *testing.T) {
		_, err := svc.ExtendRole(ctx, "sub-bob", "sub-bob", nil)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestRevokeRole(t *testing.T) {
	ctx := context.Background()
	svc, st, fake := newAuthorizationService(t, "")
	seedGrant(t, st, "sub-root", domain.RoleSuperadmin, nil)
	seedGrant(t, st, "sub-bob", domain.RoleAdmin, nil)

	t.Run("removes the grant and clears the claim", func(t *testing.T) {
		require.NoError(t, svc.RevokeRole(ctx, "sub-root", "sub-bob"))

		_, err := st.Grants().GetGrant(ctx, "sub-bob")
		require.ErrorIs(t, err, store.ErrNotFound)
		require.Nil(t, fake.claim("sub-bob"))
	})

	t.Run("unknown subject", func(t *testing.T) {
		require.ErrorIs(t, svc.RevokeRole(ctx, "sub-root", "sub-bob"), ErrGrantNotFound)
	})

	t.Run("superadmin may revoke itself", func(t *testing.T) {
		require.NoError(t, svc.RevokeRole(ctx, "sub-root", "sub-root"))
		require.ErrorIs(t, svc.RevokeRole(ctx, "sub-root", "sub-root"), ErrPermissionDenied)
	})
}

func TestRefreshClaims(t *testing.T) {
	ctx := context.Background()
	svc, st, fake := newAuthorizationService(t, "")
	seedGrant(t, st, "sub-root", domain.RoleSuperadmin, nil)

	t.Run("pushes the stored role", func(t *testing.T) {
		seedGrant(t, st, "sub-bob", domain.RoleAdmin, nil)

		role, err := svc.RefreshClaims(ctx, "sub-root", "sub-bob")
		require.NoError(t, err)
		require.NotNil(t, role)
		require.Equal(t, domain.RoleAdmin, *role)

		claim := fake.claim("sub-bob")
		require.NotNil(t, claim)
		require.Equal(t, "admin", *claim)
	})

	t.Run("clears the claim when no grant exists", func(t *testing.T) {
		role, err := svc.RefreshClaims(ctx, "sub-root", "sub-ghost")
		require.NoError(t, err)
		require.Nil(t, role)
		require.Nil(t, fake.claim("sub-ghost"))
	})

	t.Run("removes an expired grant", func(t *testing.T) {
		seedGrant(t, st, "sub-old", domain.RoleAdmin, ptrTime(time.Now().UTC().Add(-time.Minute)))

		role, err := svc.RefreshClaims(ctx, "sub-root", "sub-old")
		require.NoError(t, err)
		require.Nil(t, role)

		_, err = st.Grants().GetGrant(ctx, "sub-old")
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}
