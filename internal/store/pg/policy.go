package pg

import (
	"context"

	"datenwacht.org/internal/policy"
)

func (s *Store) CreatePolicy(ctx context.Context, p policy.Policy) (policy.Policy, error) {
	_, err := s.db.ExecContext(ctx, `
		insert into policies(id, organization_id, title, content, version, effective_date, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, p.ID, p.OrganizationID, p.Title, p.Content, p.Version, p.EffectiveDate, p.CreatedAt)
	if err != nil {
		return policy.Policy{}, err
	}
	return p, nil
}

func (s *Store) ListPolicies(ctx context.Context, orgID string) ([]policy.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, organization_id, title, content, version, effective_date, created_at
		from policies
		where organization_id=$1
		order by created_at desc, id desc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.Policy
	for rows.Next() {
		var p policy.Policy
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.Title, &p.Content, &p.Version, &p.EffectiveDate, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
