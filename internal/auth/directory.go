package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"datenwacht.org/internal/ids"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("resource conflict")
)

// Organization is the tenant boundary. Every inventory record and every
// request is scoped to exactly one organization.
type Organization struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Membership links a user to an organization.
type Membership struct {
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// ProcessingActivity describes one data-processing purpose of an
// organization. Activities feed the generated privacy policy.
type ProcessingActivity struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	Purpose        string    `json:"purpose,omitempty"`
	LegalBasis     string    `json:"legal_basis,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Directory provides organization and membership lookups. Authorization for
// every org-scoped endpoint goes through IsMember.
type Directory interface {
	CreateOrganization(ctx context.Context, name string, metadata map[string]any) (Organization, error)
	GetOrganization(ctx context.Context, id string) (Organization, error)
	AddMember(ctx context.Context, orgID, userID, role string) (Membership, error)
	IsMember(ctx context.Context, userID, orgID string) (bool, error)
	AddProcessingActivity(ctx context.Context, orgID, name, purpose, legalBasis string) (ProcessingActivity, error)
	ListProcessingActivities(ctx context.Context, orgID string) ([]ProcessingActivity, error)
}

// InMemoryDirectory keeps organizations and memberships in process memory.
type InMemoryDirectory struct {
	mu         sync.RWMutex
	orgs       map[string]Organization
	members    map[string]map[string]Membership // orgID -> userID -> membership
	activities map[string][]ProcessingActivity  // orgID -> activities
	now        func() time.Time
}

// NewInMemoryDirectory creates an empty directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		orgs:       make(map[string]Organization),
		members:    make(map[string]map[string]Membership),
		activities: make(map[string][]ProcessingActivity),
		now:        time.Now,
	}
}

var _ Directory = (*InMemoryDirectory)(nil)

func (d *InMemoryDirectory) CreateOrganization(ctx context.Context, name string, metadata map[string]any) (Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, fmt.Errorf("%w: organization name is required", ErrInvalidInput)
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now().UTC()
	org := Organization{
		ID:        ids.New(),
		Name:      name,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.orgs[org.ID] = org
	return org, nil
}

func (d *InMemoryDirectory) GetOrganization(ctx context.Context, id string) (Organization, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	org, ok := d.orgs[id]
	if !ok {
		return Organization{}, ErrNotFound
	}
	return org, nil
}

func (d *InMemoryDirectory) AddMember(ctx context.Context, orgID, userID, role string) (Membership, error) {
	orgID = strings.TrimSpace(orgID)
	userID = strings.TrimSpace(userID)
	if orgID == "" || userID == "" {
		return Membership{}, fmt.Errorf("%w: organization_id and user_id are required", ErrInvalidInput)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.orgs[orgID]; !ok {
		return Membership{}, ErrNotFound
	}
	if _, ok := d.members[orgID][userID]; ok {
		return Membership{}, ErrConflict
	}
	m := Membership{
		UserID:         userID,
		OrganizationID: orgID,
		Role:           strings.TrimSpace(strings.ToLower(role)),
		CreatedAt:      d.now().UTC(),
	}
	if d.members[orgID] == nil {
		d.members[orgID] = make(map[string]Membership)
	}
	d.members[orgID][userID] = m
	return m, nil
}

func (d *InMemoryDirectory) IsMember(ctx context.Context, userID, orgID string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.members[orgID][userID]
	return ok, nil
}

func (d *InMemoryDirectory) AddProcessingActivity(ctx context.Context, orgID, name, purpose, legalBasis string) (ProcessingActivity, error) {
	orgID = strings.TrimSpace(orgID)
	name = strings.TrimSpace(name)
	if orgID == "" || name == "" {
		return ProcessingActivity{}, fmt.Errorf("%w: organization_id and name are required", ErrInvalidInput)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.orgs[orgID]; !ok {
		return ProcessingActivity{}, ErrNotFound
	}
	act := ProcessingActivity{
		ID:             ids.New(),
		OrganizationID: orgID,
		Name:           name,
		Purpose:        strings.TrimSpace(purpose),
		LegalBasis:     strings.TrimSpace(legalBasis),
		CreatedAt:      d.now().UTC(),
	}
	d.activities[orgID] = append(d.activities[orgID], act)
	return act, nil
}

func (d *InMemoryDirectory) ListProcessingActivities(ctx context.Context, orgID string) ([]ProcessingActivity, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	acts := d.activities[orgID]
	out := make([]ProcessingActivity, len(acts))
	copy(out, acts)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
