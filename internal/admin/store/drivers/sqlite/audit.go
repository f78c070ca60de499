package sqlite

import (
	"context"
	"encoding/json"

	"github.com/memberhub/adminauth/internal/admin/domain"
)

type auditRepo struct {
	db dbtx
}

func (r *auditRepo) AppendEntry(ctx context.Context, e domain.AuditEntry) error {
	meta := []byte("{}")
	if len(e.Meta) > 0 {
		var err error
		meta, err = json.Marshal(e.Meta)
		if err != nil {
			return err
		}
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO audit_log (id, action, actor_id, target_id, invite_id, ts, meta)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Action,
		e.ActorID,
		mapStringNull(e.TargetID),
		mapStringNull(e.InviteID),
		toMillis(e.Timestamp),
		string(meta),
	)
	return err
}
