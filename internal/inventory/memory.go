package inventory

import (
	"context"
	"sort"
	"sync"
)

// InMemory implements Store with in-process concurrency safety. Backing maps
// live for the process lifetime; useful for development and tests.
type InMemory struct {
	mu              sync.RWMutex
	sources         map[string]DataSource
	assets          map[string]DataAsset
	classifications map[string]DataClassification
	flows           map[string]DataFlow
	auditLog        []AuditLog
}

// NewInMemory creates an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{
		sources:         make(map[string]DataSource),
		assets:          make(map[string]DataAsset),
		classifications: make(map[string]DataClassification),
		flows:           make(map[string]DataFlow),
	}
}

var _ Store = (*InMemory)(nil)

func (m *InMemory) Sources(ctx context.Context) SourceStore                 { return (*memSources)(m) }
func (m *InMemory) Assets(ctx context.Context) AssetStore                   { return (*memAssets)(m) }
func (m *InMemory) Classifications(ctx context.Context) ClassificationStore { return (*memCls)(m) }
func (m *InMemory) Flows(ctx context.Context) FlowStore                     { return (*memFlows)(m) }
func (m *InMemory) Audit(ctx context.Context) AuditStore                    { return (*memAudit)(m) }

// newestFirst orders by creation time descending; ULIDs break ties so list
// output is stable between calls.
func newestFirst[T any](items []T, createdAt func(T) int64, id func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := createdAt(items[i]), createdAt(items[j])
		if ci != cj {
			return ci > cj
		}
		return id(items[i]) > id(items[j])
	})
}

type memSources InMemory

func (m *memSources) List(ctx context.Context, orgID string) ([]DataSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DataSource
	for _, src := range m.sources {
		if src.OrganizationID == orgID {
			out = append(out, src)
		}
	}
	newestFirst(out, func(s DataSource) int64 { return s.CreatedAt.UnixNano() }, func(s DataSource) string { return s.ID })
	return out, nil
}

func (m *memSources) Get(ctx context.Context, id, orgID string) (DataSource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	src, ok := m.sources[id]
	if !ok || src.OrganizationID != orgID {
		return DataSource{}, ErrNotFound
	}
	return src, nil
}

func (m *memSources) Create(ctx context.Context, src DataSource) (DataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[src.ID] = src
	return src, nil
}

func (m *memSources) Update(ctx context.Context, src DataSource) (DataSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.sources[src.ID]
	if !ok || existing.OrganizationID != src.OrganizationID {
		return DataSource{}, ErrNotFound
	}
	m.sources[src.ID] = src
	return src, nil
}

func (m *memSources) Delete(ctx context.Context, id, orgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.sources[id]
	if !ok || src.OrganizationID != orgID {
		return ErrNotFound
	}
	delete(m.sources, id)
	return nil
}

type memAssets InMemory

func (m *memAssets) List(ctx context.Context, orgID string) ([]DataAsset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DataAsset
	for _, asset := range m.assets {
		if asset.OrganizationID == orgID {
			out = append(out, asset)
		}
	}
	newestFirst(out, func(a DataAsset) int64 { return a.CreatedAt.UnixNano() }, func(a DataAsset) string { return a.ID })
	return out, nil
}

func (m *memAssets) Get(ctx context.Context, id, orgID string) (DataAsset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	asset, ok := m.assets[id]
	if !ok || asset.OrganizationID != orgID {
		return DataAsset{}, ErrNotFound
	}
	return asset, nil
}

func (m *memAssets) Create(ctx context.Context, asset DataAsset) (DataAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets[asset.ID] = asset
	return asset, nil
}

func (m *memAssets) Update(ctx context.Context, asset DataAsset) (DataAsset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.assets[asset.ID]
	if !ok || existing.OrganizationID != asset.OrganizationID {
		return DataAsset{}, ErrNotFound
	}
	m.assets[asset.ID] = asset
	return asset, nil
}

func (m *memAssets) Delete(ctx context.Context, id, orgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset, ok := m.assets[id]
	if !ok || asset.OrganizationID != orgID {
		return ErrNotFound
	}
	delete(m.assets, id)
	return nil
}

type memCls InMemory

func (m *memCls) List(ctx context.Context, orgID string) ([]DataClassification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DataClassification
	for _, cls := range m.classifications {
		if cls.OrganizationID == orgID {
			out = append(out, cls)
		}
	}
	newestFirst(out, func(c DataClassification) int64 { return c.CreatedAt.UnixNano() }, func(c DataClassification) string { return c.ID })
	return out, nil
}

func (m *memCls) Get(ctx context.Context, id, orgID string) (DataClassification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cls, ok := m.classifications[id]
	if !ok || cls.OrganizationID != orgID {
		return DataClassification{}, ErrNotFound
	}
	return cls, nil
}

func (m *memCls) Create(ctx context.Context, cls DataClassification) (DataClassification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifications[cls.ID] = cls
	return cls, nil
}

func (m *memCls) Update(ctx context.Context, cls DataClassification) (DataClassification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.classifications[cls.ID]
	if !ok || existing.OrganizationID != cls.OrganizationID {
		return DataClassification{}, ErrNotFound
	}
	m.classifications[cls.ID] = cls
	return cls, nil
}

func (m *memCls) Delete(ctx context.Context, id, orgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cls, ok := m.classifications[id]
	if !ok || cls.OrganizationID != orgID {
		return ErrNotFound
	}
	delete(m.classifications, id)
	return nil
}

type memFlows InMemory

func (m *memFlows) List(ctx context.Context, orgID string) ([]DataFlow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []DataFlow
	for _, flow := range m.flows {
		if flow.OrganizationID == orgID {
			out = append(out, flow)
		}
	}
	newestFirst(out, func(f DataFlow) int64 { return f.CreatedAt.UnixNano() }, func(f DataFlow) string { return f.ID })
	return out, nil
}

func (m *memFlows) Get(ctx context.Context, id, orgID string) (DataFlow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	flow, ok := m.flows[id]
	if !ok || flow.OrganizationID != orgID {
		return DataFlow{}, ErrNotFound
	}
	return flow, nil
}

func (m *memFlows) Create(ctx context.Context, flow DataFlow) (DataFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flows[flow.ID] = flow
	return flow, nil
}

func (m *memFlows) Update(ctx context.Context, flow DataFlow) (DataFlow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.flows[flow.ID]
	if !ok || existing.OrganizationID != flow.OrganizationID {
		return DataFlow{}, ErrNotFound
	}
	m.flows[flow.ID] = flow
	return flow, nil
}

func (m *memFlows) Delete(ctx context.Context, id, orgID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	flow, ok := m.flows[id]
	if !ok || flow.OrganizationID != orgID {
		return ErrNotFound
	}
	delete(m.flows, id)
	return nil
}

type memAudit InMemory

func (m *memAudit) Append(ctx context.Context, entry AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auditLog = append(m.auditLog, entry)
	return nil
}

func (m *memAudit) List(ctx context.Context, orgID string, limit int) ([]AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []AuditLog
	for i := len(m.auditLog) - 1; i >= 0 && len(out) < limit; i-- {
		if m.auditLog[i].OrganizationID == orgID {
			out = append(out, m.auditLog[i])
		}
	}
	return out, nil
}
