package inventory

import (
	"context"
	"time"

	"datenwacht.org/internal/ids"
	"datenwacht.org/internal/obs"
)

// Service provides validated, organization-scoped CRUD over the inventory
// entities. Successful mutations append one audit entry each; audit failures
// are logged and swallowed so they never fail the primary operation.
type Service struct {
	store    Store
	now      func() time.Time
	refCheck ReferenceChecker
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

// WithReferenceChecker enables referential checks on weak references.
func WithReferenceChecker(rc ReferenceChecker) ServiceOption {
	return func(s *Service) { s.refCheck = rc }
}

// NewService constructs a Service over the given store.
func NewService(store Store, opts ...ServiceOption) *Service {
	s := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// --- data sources ---

func (s *Service) ListSources(ctx context.Context, orgID string) ([]DataSource, error) {
	return s.store.Sources(ctx).List(ctx, orgID)
}

func (s *Service) GetSource(ctx context.Context, id, orgID string) (DataSource, error) {
	return s.store.Sources(ctx).Get(ctx, id, orgID)
}

func (s *Service) CreateSource(ctx context.Context, orgID string, actor Actor, in CreateSourceInput) (DataSource, error) {
	if err := in.validate(); err != nil {
		return DataSource{}, err
	}
	now := s.now().UTC()
	src := DataSource{
		ID:                ids.New(),
		OrganizationID:    orgID,
		Name:              in.Name,
		Type:              in.Type,
		ConnectionDetails: in.ConnectionDetails,
		Status:            in.Status,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	created, err := s.store.Sources(ctx).Create(ctx, src)
	if err != nil {
		return DataSource{}, err
	}
	s.audit(ctx, actor, ActionCreate, EntitySource, created.ID, orgID, map[string]any{"name": created.Name})
	return created, nil
}

func (s *Service) UpdateSource(ctx context.Context, id, orgID string, actor Actor, in UpdateSourceInput) (DataSource, error) {
	if err := in.validate(); err != nil {
		return DataSource{}, err
	}
	src, err := s.store.Sources(ctx).Get(ctx, id, orgID)
	if err != nil {
		return DataSource{}, err
	}
	in.apply(&src)
	src.UpdatedAt = s.now().UTC()
	updated, err := s.store.Sources(ctx).Update(ctx, src)
	if err != nil {
		return DataSource{}, err
	}
	s.audit(ctx, actor, ActionUpdate, EntitySource, updated.ID, orgID, nil)
	return updated, nil
}

func (s *Service) DeleteSource(ctx context.Context, id, orgID string, actor Actor) error {
	if err := s.store.Sources(ctx).Delete(ctx, id, orgID); err != nil {
		return err
	}
	s.audit(ctx, actor, ActionDelete, EntitySource, id, orgID, nil)
	return nil
}

// --- data assets ---

func (s *Service) ListAssets(ctx context.Context, orgID string) ([]DataAsset, error) {
	return s.store.Assets(ctx).List(ctx, orgID)
}

func (s *Service) GetAsset(ctx context.Context, id, orgID string) (DataAsset, error) {
	return s.store.Assets(ctx).Get(ctx, id, orgID)
}

func (s *Service) CreateAsset(ctx context.Context, orgID string, actor Actor, in CreateAssetInput) (DataAsset, error) {
	if err := in.validate(); err != nil {
		return DataAsset{}, err
	}
	if s.refCheck != nil && in.DataSourceID != "" {
		if err := s.refCheck.CheckSource(ctx, orgID, in.DataSourceID); err != nil {
			return DataAsset{}, err
		}
	}
	now := s.now().UTC()
	asset := DataAsset{
		ID:             ids.New(),
		OrganizationID: orgID,
		DataSourceID:   in.DataSourceID,
		Name:           in.Name,
		Path:           in.Path,
		Type:           in.Type,
		Category:       in.Category,
		Description:    in.Description,
		SizeBytes:      in.SizeBytes,
		RowCount:       in.RowCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	created, err := s.store.Assets(ctx).Create(ctx, asset)
	if err != nil {
		return DataAsset{}, err
	}
	s.audit(ctx, actor, ActionCreate, EntityAsset, created.ID, orgID, map[string]any{"name": created.Name})
	return created, nil
}

func (s *Service) UpdateAsset(ctx context.Context, id, orgID string, actor Actor, in UpdateAssetInput) (DataAsset, error) {
	if err := in.validate(); err != nil {
		return DataAsset{}, err
	}
	asset, err := s.store.Assets(ctx).Get(ctx, id, orgID)
	if err != nil {
		return DataAsset{}, err
	}
	in.apply(&asset)
	asset.UpdatedAt = s.now().UTC()
	updated, err := s.store.Assets(ctx).Update(ctx, asset)
	if err != nil {
		return DataAsset{}, err
	}
	s.audit(ctx, actor, ActionUpdate, EntityAsset, updated.ID, orgID, nil)
	return updated, nil
}

func (s *Service) DeleteAsset(ctx context.Context, id, orgID string, actor Actor) error {
	if err := s.store.Assets(ctx).Delete(ctx, id, orgID); err != nil {
		return err
	}
	s.audit(ctx, actor, ActionDelete, EntityAsset, id, orgID, nil)
	return nil
}

// --- classifications ---

func (s *Service) ListClassifications(ctx context.Context, orgID string) ([]DataClassification, error) {
	return s.store.Classifications(ctx).List(ctx, orgID)
}

func (s *Service) GetClassification(ctx context.Context, id, orgID string) (DataClassification, error) {
	return s.store.Classifications(ctx).Get(ctx, id, orgID)
}

func (s *Service) CreateClassification(ctx context.Context, orgID string, actor Actor, in CreateClassificationInput) (DataClassification, error) {
	if err := in.validate(); err != nil {
		return DataClassification{}, err
	}
	if s.refCheck != nil {
		if err := s.refCheck.CheckAsset(ctx, orgID, in.DataAssetID); err != nil {
			return DataClassification{}, err
		}
	}
	now := s.now().UTC()
	cls := DataClassification{
		ID:                 ids.New(),
		OrganizationID:     orgID,
		DataAssetID:        in.DataAssetID,
		ClassificationType: in.ClassificationType,
		ConfidenceScore:    in.ConfidenceScore,
		DetectedFields:     in.DetectedFields,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	created, err := s.store.Classifications(ctx).Create(ctx, cls)
	if err != nil {
		return DataClassification{}, err
	}
	s.audit(ctx, actor, ActionClassify, EntityClassification, created.ID, orgID, map[string]any{
		"data_asset_id":       created.DataAssetID,
		"classification_type": string(created.ClassificationType),
	})
	return created, nil
}

func (s *Service) UpdateClassification(ctx context.Context, id, orgID string, actor Actor, in UpdateClassificationInput) (DataClassification, error) {
	if err := in.validate(); err != nil {
		return DataClassification{}, err
	}
	cls, err := s.store.Classifications(ctx).Get(ctx, id, orgID)
	if err != nil {
		return DataClassification{}, err
	}
	in.apply(&cls, s.now)
	cls.UpdatedAt = s.now().UTC()
	updated, err := s.store.Classifications(ctx).Update(ctx, cls)
	if err != nil {
		return DataClassification{}, err
	}
	s.audit(ctx, actor, ActionUpdate, EntityClassification, updated.ID, orgID, nil)
	return updated, nil
}

func (s *Service) DeleteClassification(ctx context.Context, id, orgID string, actor Actor) error {
	if err := s.store.Classifications(ctx).Delete(ctx, id, orgID); err != nil {
		return err
	}
	s.audit(ctx, actor, ActionDelete, EntityClassification, id, orgID, nil)
	return nil
}

// --- data flows ---

func (s *Service) ListFlows(ctx context.Context, orgID string) ([]DataFlow, error) {
	return s.store.Flows(ctx).List(ctx, orgID)
}

func (s *Service) GetFlow(ctx context.Context, id, orgID string) (DataFlow, error) {
	return s.store.Flows(ctx).Get(ctx, id, orgID)
}

func (s *Service) CreateFlow(ctx context.Context, orgID string, actor Actor, in CreateFlowInput) (DataFlow, error) {
	if err := in.validate(); err != nil {
		return DataFlow{}, err
	}
	if s.refCheck != nil {
		if err := s.refCheck.CheckAsset(ctx, orgID, in.SourceAssetID); err != nil {
			return DataFlow{}, err
		}
		if err := s.refCheck.CheckAsset(ctx, orgID, in.DestinationAssetID); err != nil {
			return DataFlow{}, err
		}
	}
	now := s.now().UTC()
	flow := DataFlow{
		ID:                 ids.New(),
		OrganizationID:     orgID,
		SourceAssetID:      in.SourceAssetID,
		DestinationAssetID: in.DestinationAssetID,
		Purpose:            in.Purpose,
		Frequency:          in.Frequency,
		TransferMethod:     in.TransferMethod,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	created, err := s.store.Flows(ctx).Create(ctx, flow)
	if err != nil {
		return DataFlow{}, err
	}
	s.audit(ctx, actor, ActionCreate, EntityFlow, created.ID, orgID, nil)
	return created, nil
}

func (s *Service) UpdateFlow(ctx context.Context, id, orgID string, actor Actor, in UpdateFlowInput) (DataFlow, error) {
	if err := in.validate(); err != nil {
		return DataFlow{}, err
	}
	flow, err := s.store.Flows(ctx).Get(ctx, id, orgID)
	if err != nil {
		return DataFlow{}, err
	}
	in.apply(&flow)
	// The invariant holds on the merged record, not just the payload.
	if flow.SourceAssetID == flow.DestinationAssetID {
		return DataFlow{}, invalid("destination_asset_id", "must differ from source_asset_id")
	}
	flow.UpdatedAt = s.now().UTC()
	updated, err := s.store.Flows(ctx).Update(ctx, flow)
	if err != nil {
		return DataFlow{}, err
	}
	s.audit(ctx, actor, ActionUpdate, EntityFlow, updated.ID, orgID, nil)
	return updated, nil
}

func (s *Service) DeleteFlow(ctx context.Context, id, orgID string, actor Actor) error {
	if err := s.store.Flows(ctx).Delete(ctx, id, orgID); err != nil {
		return err
	}
	s.audit(ctx, actor, ActionDelete, EntityFlow, id, orgID, nil)
	return nil
}

// --- audit trail ---

// AuditTrail returns the organization's audit entries newest-first.
func (s *Service) AuditTrail(ctx context.Context, orgID string, limit int) ([]AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.store.Audit(ctx).List(ctx, orgID, limit)
}

// RecordAudit appends an audit entry on behalf of another subsystem (for
// example policy generation). Errors are swallowed after logging.
func (s *Service) RecordAudit(ctx context.Context, actor Actor, action AuditAction, entity EntityType, entityID, orgID string, details map[string]any) {
	s.audit(ctx, actor, action, entity, entityID, orgID, details)
}

func (s *Service) audit(ctx context.Context, actor Actor, action AuditAction, entity EntityType, entityID, orgID string, details map[string]any) {
	entry := AuditLog{
		ID:             ids.New(),
		Action:         action,
		EntityType:     entity,
		EntityID:       entityID,
		UserID:         actor.UserID,
		OrganizationID: orgID,
		Details:        details,
		IPAddress:      actor.IPAddress,
		UserAgent:      actor.UserAgent,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.Audit(ctx).Append(ctx, entry); err != nil {
		obs.LogEntry(map[string]any{
			"ts":    s.now().UTC().Format(time.RFC3339Nano),
			"level": "error",
			"msg":   "audit append failed",
			"error": err.Error(),
		})
	}
}
