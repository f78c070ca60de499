package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/identity"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/internal/admin/store/drivers/sqlite"
	"github.com/memberhub/adminauth/pkg/cryptox"
	"github.com/memberhub/adminauth/pkg/idx"
)

// fakeIdentity is an in-memory identity.Provider double. It records claim
// pushes so tests can assert what the issuer was told.
type fakeIdentity struct {
	mu       sync.Mutex
	users    map[string]identity.User // keyed by lowercase email
	claims   map[string]*string
	setCalls int
	failSet  bool
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{
		users:  make(map[string]identity.User),
		claims: make(map[string]*string),
	}
}

func (f *fakeIdentity) addUser(subjectID, email string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[strings.ToLower(email)] = identity.User{SubjectID: subjectID, Email: email}
}

func (f *fakeIdentity) ResolveUserByEmail(_ context.Context, email string) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[strings.ToLower(email)]
	if !ok {
		return identity.User{}, identity.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeIdentity) SetRoleClaim(_ context.Context, subjectID string, role *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.setCalls++
	if f.failSet {
		return errors.New("issuer unavailable")
	}
	f.claims[subjectID] = role
	return nil
}

// claim returns the last pushed claim value for a subject, nil when the
// claim was cleared or never pushed.
func (f *fakeIdentity) claim(subjectID string) *string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.claims[subjectID]
}

func (f *fakeIdentity) claimPushes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

// seedGrant writes a grant directly into the store, bypassing the service
// gates. Used to establish callers for gated operations.
func seedGrant(t *testing.T, st store.Store, subjectID string, role domain.Role, expiresAt *time.Time) {
	t.Helper()

	require.NoError(t, st.Grants().UpsertGrant(context.Background(), domain.RoleGrant{
		SubjectID:  subjectID,
		Email:      subjectID + "@example.org",
		Role:       role,
		AssignedBy: domain.SystemActor,
		AssignedAt: time.Now().UTC(),
		ExpiresAt:  expiresAt,
		IsActive:   true,
	}))
}

// seedInvite writes an invite directly into the store with full control
// over its expiry, bypassing CreateInvite's fixed claim window. Returns
// the stored invite plus the raw claim token.
func seedInvite(t *testing.T, st store.Store, inv domain.Invite) (domain.Invite, string) {
	t.Helper()

	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	require.NoError(t, err)

	inv.TokenHash = cryptox.FingerprintToken(token)
	if inv.ID == "" {
		inv.ID = idx.New().String()
	}
	if inv.Role == "" {
		inv.Role = domain.RoleAdmin
	}
	if inv.CreatedBy == "" {
		inv.CreatedBy = "creator"
	}
	if inv.CreatedAt.IsZero() {
		inv.CreatedAt = time.Now().UTC()
	}
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = time.Now().UTC().Add(domain.InviteTTL)
	}
	require.NoError(t, st.Invites().CreateInvite(context.Background(), inv))
	return inv, token
}

func ptrTime(t time.Time) *time.Time { return &t }
