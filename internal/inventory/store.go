package inventory

import "context"

// Store is the record-store adapter every service operation builds on. Each
// sub-store scopes reads and writes by organization so cross-tenant access is
// structurally impossible at the query layer.
type Store interface {
	Sources(ctx context.Context) SourceStore
	Assets(ctx context.Context) AssetStore
	Classifications(ctx context.Context) ClassificationStore
	Flows(ctx context.Context) FlowStore
	Audit(ctx context.Context) AuditStore
}

// SourceStore persists data sources.
type SourceStore interface {
	List(ctx context.Context, orgID string) ([]DataSource, error)
	Get(ctx context.Context, id, orgID string) (DataSource, error)
	Create(ctx context.Context, src DataSource) (DataSource, error)
	// Update replaces the record keyed by id and organization; ErrNotFound
	// if no such record exists.
	Update(ctx context.Context, src DataSource) (DataSource, error)
	Delete(ctx context.Context, id, orgID string) error
}

// AssetStore persists data assets.
type AssetStore interface {
	List(ctx context.Context, orgID string) ([]DataAsset, error)
	Get(ctx context.Context, id, orgID string) (DataAsset, error)
	Create(ctx context.Context, asset DataAsset) (DataAsset, error)
	Update(ctx context.Context, asset DataAsset) (DataAsset, error)
	Delete(ctx context.Context, id, orgID string) error
}

// ClassificationStore persists classifications.
type ClassificationStore interface {
	List(ctx context.Context, orgID string) ([]DataClassification, error)
	Get(ctx context.Context, id, orgID string) (DataClassification, error)
	Create(ctx context.Context, cls DataClassification) (DataClassification, error)
	Update(ctx context.Context, cls DataClassification) (DataClassification, error)
	Delete(ctx context.Context, id, orgID string) error
}

// FlowStore persists data flows.
type FlowStore interface {
	List(ctx context.Context, orgID string) ([]DataFlow, error)
	Get(ctx context.Context, id, orgID string) (DataFlow, error)
	Create(ctx context.Context, flow DataFlow) (DataFlow, error)
	Update(ctx context.Context, flow DataFlow) (DataFlow, error)
	Delete(ctx context.Context, id, orgID string) error
}

// AuditStore appends immutable entries and reads them back newest-first.
type AuditStore interface {
	Append(ctx context.Context, entry AuditLog) error
	List(ctx context.Context, orgID string, limit int) ([]AuditLog, error)
}

// ReferenceChecker is an opt-in hook for referential checks on the weak
// references (data_source_id, source/destination asset ids). The default
// service performs none: dangling references are a documented non-goal.
type ReferenceChecker interface {
	CheckSource(ctx context.Context, orgID, sourceID string) error
	CheckAsset(ctx context.Context, orgID, assetID string) error
}
