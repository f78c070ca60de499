package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/identity"
	"github.com/memberhub/adminauth/internal/admin/store"
)

// Sweeper periodically removes role grants past their expiry and clears
// the corresponding claims, plus deletes long-dead invites so the table
// does not grow without bound.
type Sweeper struct {
	Store    store.Store
	Identity identity.Provider
	Audit    *Auditor
	Logger   *slog.Logger
	Interval time.Duration

	// InviteRetention is how long expired invites are kept around before
	// housekeeping deletes the rows.
	InviteRetention time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewSweeper creates a sweeper. Interval defaults to 1 hour, invite
// retention to 24 hours.
func NewSweeper(st store.Store, provider identity.Provider, audit *Auditor, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Sweeper{
		Store:           st,
		Identity:        provider,
		Audit:           audit,
		Logger:          logger,
		Interval:        interval,
		InviteRetention: 24 * time.Hour,
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *Sweeper) Start() {
	go s.run()
	s.Logger.Info("expiry sweeper started", "interval", s.Interval)
}

// Stop gracefully shuts down the worker, blocking until any in-progress
// sweep finishes.
func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("expiry sweeper stopped")
}

func (s *Sweeper) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run a sweep immediately on startup
	s.Sweep(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Sweep(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Sweep performs one pass. Each grant is handled independently; one
// failure never aborts the batch. Re-running on an already-deleted grant
// is a no-op, so racing the sign-in reconciler is safe.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now().UTC()

	expired, err := s.Store.Grants().ListExpiredGrants(ctx, now)
	if err != nil {
		s.Logger.Error("sweep: failed to list expired grants", "error", err)
		return
	}

	var swept int
	for _, grant := range expired {
		if err := s.Store.Grants().DeleteGrant(ctx, grant.SubjectID); err != nil {
			s.Logger.Error("sweep: failed to delete expired grant",
				"subject_id", grant.SubjectID, "error", err)
			continue
		}

		if err := s.Identity.SetRoleClaim(ctx, grant.SubjectID, nil); err != nil {
			// Claim clear is best-effort; sign-in reconciliation catches it.
			s.Logger.Warn("sweep: failed to clear claim",
				"subject_id", grant.SubjectID, "error", err)
		}

		s.Audit.Record(ctx, domain.AuditExpireRole, domain.SystemActor, grant.SubjectID, "", map[string]string{
			"trigger": "sweep",
			"role":    string(grant.Role),
		})
		swept++
	}

	cutoff := now.Add(-s.InviteRetention)
	if err := s.Store.Invites().DeleteExpiredInvites(ctx, cutoff); err != nil {
		s.Logger.Error("sweep: failed to delete expired invites", "error", err)
	}

	if swept > 0 {
		s.Logger.Info("sweep completed", "expired_grants_removed", swept)
	}
}
