package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Append writes one audit event, satisfying AuditStore. Detail is stored as
// JSONB; a nil map is stored as an empty object.
func (p *Postgres) Append(ctx context.Context, event AuditEvent) error {
	detail := event.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	detailJSON, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshaling audit detail for action %q: %w", event.Action, err)
	}

	_, err = p.pool.Exec(ctx,
		`INSERT INTO audit_events
			(user_id, action, resource, resource_id, client_ip, user_agent, detail, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.UserID, event.Action, event.Resource, event.ResourceID,
		event.ClientIP, event.UserAgent, detailJSON, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting audit event for action %q: %w", event.Action, err)
	}
	return nil
}
