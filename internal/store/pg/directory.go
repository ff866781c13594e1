package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"datenwacht.org/internal/auth"
	"datenwacht.org/internal/ids"
)

func (s *Store) CreateOrganization(ctx context.Context, name string, metadata map[string]any) (auth.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return auth.Organization{}, fmt.Errorf("%w: organization name is required", auth.ErrInvalidInput)
	}
	meta, err := jsonbOrNil(metadata)
	if err != nil {
		return auth.Organization{}, err
	}
	now := time.Now().UTC()
	org := auth.Organization{
		ID:        ids.New(),
		Name:      name,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = s.db.ExecContext(ctx, `
		insert into organizations(id, name, metadata, created_at, updated_at)
		values ($1,$2,$3,$4,$5)
	`, org.ID, org.Name, meta, org.CreatedAt, org.UpdatedAt)
	if err != nil {
		return auth.Organization{}, err
	}
	return org, nil
}

func (s *Store) GetOrganization(ctx context.Context, id string) (auth.Organization, error) {
	var org auth.Organization
	var meta []byte
	err := s.db.QueryRowContext(ctx, `
		select id, name, metadata, created_at, updated_at from organizations where id=$1
	`, id).Scan(&org.ID, &org.Name, &meta, &org.CreatedAt, &org.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Organization{}, auth.ErrNotFound
	}
	if err != nil {
		return auth.Organization{}, err
	}
	if err := unmarshalJSONB(meta, &org.Metadata); err != nil {
		return auth.Organization{}, fmt.Errorf("decode metadata: %w", err)
	}
	return org, nil
}

func (s *Store) AddMember(ctx context.Context, orgID, userID, role string) (auth.Membership, error) {
	orgID = strings.TrimSpace(orgID)
	userID = strings.TrimSpace(userID)
	if orgID == "" || userID == "" {
		return auth.Membership{}, fmt.Errorf("%w: organization_id and user_id are required", auth.ErrInvalidInput)
	}
	m := auth.Membership{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           strings.TrimSpace(strings.ToLower(role)),
		CreatedAt:      time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx, `
		insert into organization_members(organization_id, user_id, role, created_at)
		select $1, $2, $3, $4 where exists (select 1 from organizations where id=$1)
		on conflict (organization_id, user_id) do nothing
	`, m.OrganizationID, m.UserID, m.Role, m.CreatedAt)
	if err != nil {
		return auth.Membership{}, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		var one int
		err := s.db.QueryRowContext(ctx, `select 1 from organizations where id=$1`, orgID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return auth.Membership{}, auth.ErrNotFound
		}
		if err != nil {
			return auth.Membership{}, err
		}
		return auth.Membership{}, auth.ErrConflict
	}
	return m, nil
}

func (s *Store) IsMember(ctx context.Context, userID, orgID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		select 1 from organization_members where organization_id=$1 and user_id=$2
	`, orgID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) AddProcessingActivity(ctx context.Context, orgID, name, purpose, legalBasis string) (auth.ProcessingActivity, error) {
	orgID = strings.TrimSpace(orgID)
	name = strings.TrimSpace(name)
	if orgID == "" || name == "" {
		return auth.ProcessingActivity{}, fmt.Errorf("%w: organization_id and name are required", auth.ErrInvalidInput)
	}
	act := auth.ProcessingActivity{
		ID:             ids.New(),
		OrganizationID: orgID,
		Name:           name,
		Purpose:        strings.TrimSpace(purpose),
		LegalBasis:     strings.TrimSpace(legalBasis),
		CreatedAt:      time.Now().UTC(),
	}
	res, err := s.db.ExecContext(ctx, `
		insert into processing_activities(id, organization_id, name, purpose, legal_basis, created_at)
		select $1, $2, $3, nullif($4,''), nullif($5,''), $6
		where exists (select 1 from organizations where id=$2)
	`, act.ID, act.OrganizationID, act.Name, act.Purpose, act.LegalBasis, act.CreatedAt)
	if err != nil {
		return auth.ProcessingActivity{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ProcessingActivity{}, auth.ErrNotFound
	}
	return act, nil
}

func (s *Store) ListProcessingActivities(ctx context.Context, orgID string) ([]auth.ProcessingActivity, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, organization_id, name, coalesce(purpose,''), coalesce(legal_basis,''), created_at
		from processing_activities
		where organization_id=$1
		order by id asc
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.ProcessingActivity
	for rows.Next() {
		var act auth.ProcessingActivity
		if err := rows.Scan(&act.ID, &act.OrganizationID, &act.Name, &act.Purpose, &act.LegalBasis, &act.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, act)
	}
	return out, rows.Err()
}
