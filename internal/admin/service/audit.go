package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/memberhub/adminauth/internal/admin/domain"
	"github.com/memberhub/adminauth/internal/admin/store"
	"github.com/memberhub/adminauth/pkg/idx"
	"github.com/memberhub/adminauth/pkg/slogx"
)

// Auditor appends audit entries for every authorization operation.
// Writes are fire-and-forget: the store mutation the entry describes has
// already committed, so a failed append is logged, never surfaced.
type Auditor struct {
	Store store.Store
}

func (a *Auditor) Record(ctx context.Context, action, actorID, targetID, inviteID string, meta map[string]string) {
	log := slogx.FromContext(ctx)

	if reqID := slogx.RequestID(ctx); reqID != "" {
		if meta == nil {
			meta = map[string]string{}
		}
		meta["req_id"] = reqID
	}

	entry := domain.AuditEntry{
		ID:        idx.New().String(),
		Action:    action,
		ActorID:   actorID,
		TargetID:  targetID,
		InviteID:  inviteID,
		Timestamp: time.Now().UTC(),
		Meta:      meta,
	}

	if err := a.Store.Audit().AppendEntry(ctx, entry); err != nil {
		log.Error("failed to append audit entry",
			slog.String("action", action),
			slog.String("actor_id", actorID),
			slog.Any("error", err),
		)
	}
}
