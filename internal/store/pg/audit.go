package pg

import (
	"context"
	"fmt"

	"datenwacht.org/internal/inventory"
)

func (s *Store) Audit(ctx context.Context) inventory.AuditStore { return (*auditStore)(s) }

type auditStore Store

func (s *auditStore) Append(ctx context.Context, entry inventory.AuditLog) error {
	details, err := jsonbOrNil(entry.Details)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		insert into audit_logs(id, action, entity_type, entity_id, user_id, organization_id, details, ip_address, user_agent, created_at)
		values ($1,$2,$3,$4,$5,$6,$7,nullif($8,''),nullif($9,''),$10)
	`, entry.ID, entry.Action, entry.EntityType, entry.EntityID, entry.UserID, entry.OrganizationID, details, entry.IPAddress, entry.UserAgent, entry.CreatedAt)
	return err
}

func (s *auditStore) List(ctx context.Context, orgID string, limit int) ([]inventory.AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, action, entity_type, entity_id, user_id, organization_id, details, coalesce(ip_address,''), coalesce(user_agent,''), created_at
		from audit_logs
		where organization_id=$1
		order by created_at desc, id desc
		limit $2
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []inventory.AuditLog
	for rows.Next() {
		var entry inventory.AuditLog
		var details []byte
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.EntityType, &entry.EntityID, &entry.UserID, &entry.OrganizationID, &details, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(details, &entry.Details); err != nil {
			return nil, fmt.Errorf("decode details: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
