package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/store"
)

func newSweeperUnderTest(t *testing.T) (*Sweeper, store.Store, *fakeIdentity) {
	t.Helper()

	st := newTestStore(t)
	fake := newFakeIdentity()
	sw := NewSweeper(st, fake, &Auditor{Store: st}, slog.Default(), time.Hour)
	return sw, st, fake
}

func TestSweepRemovesExpiredGrants(t *testing.T) {
	ctx := context.Background()
	sw, st, fake := newSweeperUnderTest(t)

	seedGrant(t, st, "sub-expired", domain.RoleAdmin, ptrTime(time.Now().UTC().Add(-time.Minute)))
	seedGrant(t, st, "sub-active", domain.RoleAdmin, ptrTime(time.Now().UTC().Add(time.Hour)))
	seedGrant(t, st, "sub-permanent", domain.RoleSuperadmin, nil)

	sw.Sweep(ctx)

	_, err := st.Grants().GetGrant(ctx, "sub-expired")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Nil(t, fake.claim("sub-expired"))
	require.Equal(t, 1, fake.claimPushes())

	_, err = st.Grants().GetGrant(ctx, "sub-active")
	require.NoError(t, err)
	_, err = st.Grants().GetGrant(ctx, "sub-permanent")
	require.NoError(t, err)
}

func TestSweepContinuesPastClaimFailures(t *testing.T) {
	ctx := context.Background()
	sw, st, fake := newSweeperUnderTest(t)
	fake.failSet = true

	seedGrant(t, st, "sub-a", domain.RoleAdmin, ptrTime(time.Now().UTC().Add(-time.Minute)))
	seedGrant(t, st, "sub-b", domain.RoleAdmin, ptrTime(time.Now().UTC().Add(-time.Minute)))

	sw.Sweep(ctx)

	// The store deletions stand even though the claim clears failed.
	_, err := st.Grants().GetGrant(ctx, "sub-a")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Grants().GetGrant(ctx, "sub-b")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSweepDeletesLongExpiredInvites(t *testing.T) {
	ctx := context.Background()
	sw, st, _ := newSweeperUnderTest(t)

	stale, _ := seedInvite(t, st, domain.Invite{
		ExpiresAt: time.Now().UTC().Add(-48 * time.Hour),
	})
	recent, _ := seedInvite(t, st, domain.Invite{
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	})
	live, _ := seedInvite(t, st, domain.Invite{})

	sw.Sweep(ctx)

	_, err := st.Invites().GetInvite(ctx, stale.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	// Expired but within the retention window: kept for inspection.
	_, err = st.Invites().GetInvite(ctx, recent.ID)
	require.NoError(t, err)
	_, err = st.Invites().GetInvite(ctx, live.ID)
	require.NoError(t, err)
}

func TestSweeperStartStop(t *testing.T) {
	st := newTestStore(t)
	fake := newFakeIdentity()

	seedGrant(t, st, "sub-expired", domain.RoleAdmin, ptrTime(time.Now().UTC().Add(-time.Minute)))

	sw := NewSweeper(st, fake, &Auditor{Store: st}, slog.Default(), 50*time.Millisecond)
	sw.Start()

	// The startup sweep runs before the first tick.
	require.Eventually(t, func() bool {
		_, err := st.Grants().GetGrant(context.Background(), "sub-expired")
		return err != nil
	}, 2*time.Second, 10*time.Millisecond)

	sw.Stop()
}
