package inventory

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testActor = Actor{UserID: "user-1", IPAddress: "10.0.0.1", UserAgent: "test"}

func newTestService(t *testing.T, opts ...ServiceOption) *Service {
	t.Helper()
	return NewService(NewInMemory(), opts...)
}

func TestCreateSourceDefaultsAndAudit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{
		Name: "CRM",
		Type: SourceDatabase,
	})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if src.ID == "" {
		t.Fatal("expected generated id")
	}
	if src.Status != StatusActive {
		t.Fatalf("expected default status active, got %s", src.Status)
	}
	if src.OrganizationID != "org-1" {
		t.Fatalf("unexpected organization id: %s", src.OrganizationID)
	}
	if !src.CreatedAt.Equal(src.UpdatedAt) {
		t.Fatal("expected created_at == updated_at on create")
	}

	trail, err := svc.AuditTrail(ctx, "org-1", 10)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(trail) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(trail))
	}
	entry := trail[0]
	if entry.Action != ActionCreate || entry.EntityType != EntitySource || entry.EntityID != src.ID {
		t.Fatalf("unexpected audit entry: %+v", entry)
	}
	if entry.UserID != "user-1" || entry.IPAddress != "10.0.0.1" {
		t.Fatalf("actor metadata not recorded: %+v", entry)
	}
}

func TestCreateSourceRejectsUnknownType(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateSource(context.Background(), "org-1", testActor, CreateSourceInput{
		Name: "CRM",
		Type: SourceType("mainframe"),
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "type" {
		t.Fatalf("expected type field rejected, got %s", verr.Field)
	}
}

func TestTenantIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{Name: "CRM", Type: SourceDatabase})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}

	if _, err := svc.GetSource(ctx, src.ID, "org-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound across organizations, got %v", err)
	}
	if err := svc.DeleteSource(ctx, src.ID, "org-2", testActor); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected delete across organizations to fail, got %v", err)
	}
	list, err := svc.ListSources(ctx, "org-2")
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list for other organization, got %d", len(list))
	}

	// The record is still intact for its owner.
	if _, err := svc.GetSource(ctx, src.ID, "org-1"); err != nil {
		t.Fatalf("GetSource: %v", err)
	}
}

func TestUpdateSourcePartial(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	src, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{Name: "CRM", Type: SourceDatabase})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}

	clock = base.Add(time.Hour)
	newName := "CRM Production"
	updated, err := svc.UpdateSource(ctx, src.ID, "org-1", testActor, UpdateSourceInput{Name: &newName})
	if err != nil {
		t.Fatalf("UpdateSource: %v", err)
	}
	if updated.Name != "CRM Production" {
		t.Fatalf("name not updated: %s", updated.Name)
	}
	if updated.Type != SourceDatabase || updated.Status != StatusActive {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatal("expected updated_at to advance")
	}
	if !updated.CreatedAt.Equal(src.CreatedAt) {
		t.Fatal("created_at must not change on update")
	}
}

func TestDeleteSourceThenGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{Name: "CRM", Type: SourceDatabase})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	if err := svc.DeleteSource(ctx, src.ID, "org-1", testActor); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	if _, err := svc.GetSource(ctx, src.ID, "org-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.DeleteSource(ctx, src.ID, "org-1", testActor); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected second delete to return ErrNotFound, got %v", err)
	}
}

func TestFlowRejectsSelfTransfer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateFlow(ctx, "org-1", testActor, CreateFlowInput{
		SourceAssetID:      "asset-1",
		DestinationAssetID: "asset-1",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	// The same invariant holds when an update makes both ends equal.
	flow, err := svc.CreateFlow(ctx, "org-1", testActor, CreateFlowInput{
		SourceAssetID:      "asset-1",
		DestinationAssetID: "asset-2",
	})
	if err != nil {
		t.Fatalf("CreateFlow: %v", err)
	}
	dest := "asset-1"
	if _, err := svc.UpdateFlow(ctx, flow.ID, "org-1", testActor, UpdateFlowInput{DestinationAssetID: &dest}); err == nil {
		t.Fatal("expected merged self-transfer to be rejected")
	}
}

func TestClassificationReviewTimestamps(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	score := 0.9
	cls, err := svc.CreateClassification(ctx, "org-1", testActor, CreateClassificationInput{
		DataAssetID:        "asset-1",
		ClassificationType: ClassPII,
		ConfidenceScore:    &score,
	})
	if err != nil {
		t.Fatalf("CreateClassification: %v", err)
	}
	if cls.Reviewed || cls.ReviewedAt != nil {
		t.Fatalf("new classification must be unreviewed: %+v", cls)
	}

	clock = base.Add(time.Hour)
	reviewed := true
	reviewer := "dpo-1"
	updated, err := svc.UpdateClassification(ctx, cls.ID, "org-1", testActor, UpdateClassificationInput{
		Reviewed:   &reviewed,
		ReviewedBy: &reviewer,
	})
	if err != nil {
		t.Fatalf("UpdateClassification: %v", err)
	}
	if !updated.Reviewed || updated.ReviewedAt == nil || updated.ReviewedBy != "dpo-1" {
		t.Fatalf("review fields not set: %+v", updated)
	}

	clock = base.Add(2 * time.Hour)
	unreviewed := false
	updated, err = svc.UpdateClassification(ctx, cls.ID, "org-1", testActor, UpdateClassificationInput{Reviewed: &unreviewed})
	if err != nil {
		t.Fatalf("UpdateClassification: %v", err)
	}
	if updated.Reviewed || updated.ReviewedAt != nil {
		t.Fatalf("expected review cleared: %+v", updated)
	}
}

func TestClassificationRejectsOutOfRangeConfidence(t *testing.T) {
	svc := newTestService(t)

	score := 1.5
	_, err := svc.CreateClassification(context.Background(), "org-1", testActor, CreateClassificationInput{
		DataAssetID:        "asset-1",
		ClassificationType: ClassPII,
		ConfidenceScore:    &score,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "confidence_score" {
		t.Fatalf("unexpected field: %s", verr.Field)
	}
}

func TestAuditTrailLimitAndOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	var lastID string
	for i := 0; i < 5; i++ {
		clock = base.Add(time.Duration(i) * time.Minute)
		src, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{Name: "src", Type: SourceAPI})
		if err != nil {
			t.Fatalf("CreateSource: %v", err)
		}
		lastID = src.ID
	}

	trail, err := svc.AuditTrail(ctx, "org-1", 3)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(trail) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(trail))
	}
	if trail[0].EntityID != lastID {
		t.Fatal("expected newest entry first")
	}

	// Out-of-range limits fall back to the default.
	trail, err = svc.AuditTrail(ctx, "org-1", 0)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	if len(trail) != 5 {
		t.Fatalf("expected all 5 entries under default limit, got %d", len(trail))
	}
}

func TestListSourcesNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := base
	svc := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		clock = base.Add(time.Duration(i) * time.Minute)
		if _, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{Name: "src", Type: SourceAPI}); err != nil {
			t.Fatalf("CreateSource: %v", err)
		}
	}

	first, err := svc.ListSources(ctx, "org-1")
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 sources, got %d", len(first))
	}
	for i := 1; i < len(first); i++ {
		if first[i].CreatedAt.After(first[i-1].CreatedAt) {
			t.Fatal("expected newest-first ordering")
		}
	}

	// Listing must be stable between calls.
	second, err := svc.ListSources(ctx, "org-1")
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatal("expected identical ordering across calls")
		}
	}
}

type stubRefChecker struct {
	knownAssets map[string]bool
}

func (s stubRefChecker) CheckSource(ctx context.Context, orgID, sourceID string) error { return nil }

func (s stubRefChecker) CheckAsset(ctx context.Context, orgID, assetID string) error {
	if !s.knownAssets[assetID] {
		return &ValidationError{Field: "data_asset_id", Reason: "references an unknown data asset"}
	}
	return nil
}

func TestReferenceCheckerHook(t *testing.T) {
	svc := newTestService(t, WithReferenceChecker(stubRefChecker{knownAssets: map[string]bool{"asset-1": true}}))
	ctx := context.Background()

	if _, err := svc.CreateClassification(ctx, "org-1", testActor, CreateClassificationInput{
		DataAssetID:        "asset-1",
		ClassificationType: ClassPII,
	}); err != nil {
		t.Fatalf("expected known asset to pass, got %v", err)
	}

	_, err := svc.CreateClassification(ctx, "org-1", testActor, CreateClassificationInput{
		DataAssetID:        "asset-404",
		ClassificationType: ClassPII,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown asset, got %v", err)
	}
}
