package policy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"datenwacht.org/internal/auth"
	"datenwacht.org/internal/ids"
	"datenwacht.org/internal/inventory"
)

var (
	// ErrForbidden means the caller is not a member of the organization.
	ErrForbidden = errors.New("organization access denied")
	// ErrRateLimited means the caller exceeded the generation quota.
	ErrRateLimited = errors.New("generation rate limit exceeded")
)

// Policy is a generated privacy-policy document.
type Policy struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Version        string    `json:"version"`
	EffectiveDate  time.Time `json:"effective_date"`
	CreatedAt      time.Time `json:"created_at"`
}

// Store persists generated policies.
type Store interface {
	CreatePolicy(ctx context.Context, p Policy) (Policy, error)
	ListPolicies(ctx context.Context, orgID string) ([]Policy, error)
}

// InMemoryStore keeps policies in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[string]Policy
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{policies: make(map[string]Policy)}
}

var _ Store = (*InMemoryStore)(nil)

func (s *InMemoryStore) CreatePolicy(ctx context.Context, p Policy) (Policy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[p.ID] = p
	return p, nil
}

func (s *InMemoryStore) ListPolicies(ctx context.Context, orgID string) ([]Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Policy
	for _, p := range s.policies {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// keyLimiter hands out one token-bucket limiter per caller.
type keyLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newKeyLimiter(perMinute int) *keyLimiter {
	if perMinute <= 0 {
		perMinute = 3
	}
	return &keyLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
}

func (k *keyLimiter) allow(key string) bool {
	k.mu.Lock()
	lim, ok := k.limiters[key]
	if !ok {
		lim = rate.NewLimiter(k.limit, k.burst)
		k.limiters[key] = lim
	}
	k.mu.Unlock()
	return lim.Allow()
}

// AuditSink receives audit entries for policy events.
type AuditSink interface {
	RecordAudit(ctx context.Context, actor inventory.Actor, action inventory.AuditAction, entity inventory.EntityType, entityID, orgID string, details map[string]any)
}

// Service orchestrates policy generation: membership check, organization
// load, text generation, persistence, audit.
type Service struct {
	dir     auth.Directory
	store   Store
	gen     TextGenerator
	audit   AuditSink
	limiter *keyLimiter
	now     func() time.Time
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithRateLimit sets the per-user generation quota in requests per minute.
func WithRateLimit(perMinute int) ServiceOption {
	return func(s *Service) { s.limiter = newKeyLimiter(perMinute) }
}

// NewService constructs a policy Service. audit may be nil.
func NewService(dir auth.Directory, store Store, gen TextGenerator, audit AuditSink, opts ...ServiceOption) *Service {
	s := &Service{
		dir:     dir,
		store:   store,
		gen:     gen,
		audit:   audit,
		limiter: newKeyLimiter(3),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces and persists a privacy policy for the organization.
// details is optional free text describing the organization. The caller must
// be a member; generation is rate limited per user.
func (s *Service) Generate(ctx context.Context, userID, orgID, details string, actor inventory.Actor) (Policy, error) {
	if !s.limiter.allow(userID) {
		return Policy{}, ErrRateLimited
	}

	member, err := s.dir.IsMember(ctx, userID, orgID)
	if err != nil {
		return Policy{}, fmt.Errorf("membership lookup: %w", err)
	}
	if !member {
		return Policy{}, ErrForbidden
	}

	org, err := s.dir.GetOrganization(ctx, orgID)
	if err != nil {
		return Policy{}, err
	}

	activities, err := s.dir.ListProcessingActivities(ctx, orgID)
	if err != nil {
		return Policy{}, fmt.Errorf("list processing activities: %w", err)
	}

	content, err := s.gen.GeneratePolicy(ctx, org, details, activities)
	if err != nil {
		return Policy{}, fmt.Errorf("generate policy: %w", err)
	}

	now := s.now().UTC()
	created, err := s.store.CreatePolicy(ctx, Policy{
		ID:             ids.New(),
		OrganizationID: orgID,
		Title:          "Datenschutzerklärung - " + org.Name,
		Content:        content,
		Version:        "1.0",
		EffectiveDate:  now,
		CreatedAt:      now,
	})
	if err != nil {
		return Policy{}, fmt.Errorf("persist policy: %w", err)
	}

	if s.audit != nil {
		s.audit.RecordAudit(ctx, actor, inventory.ActionCreate, inventory.EntityPolicy, created.ID, orgID, map[string]any{
			"title": created.Title,
		})
	}
	return created, nil
}

// List returns the organization's policies newest-first. The caller must be a
// member.
func (s *Service) List(ctx context.Context, userID, orgID string) ([]Policy, error) {
	member, err := s.dir.IsMember(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("membership lookup: %w", err)
	}
	if !member {
		return nil, ErrForbidden
	}
	return s.store.ListPolicies(ctx, orgID)
}
