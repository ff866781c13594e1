package inventory

import (
	"context"
	"errors"
	"testing"
)

func TestScanDatabaseSource(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{Name: "CRM DB", Type: SourceDatabase})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}

	result, err := svc.ScanSource(ctx, src.ID, "org-1", testActor)
	if err != nil {
		t.Fatalf("ScanSource: %v", err)
	}
	if len(result.Assets) != 3 {
		t.Fatalf("expected 3 discovered assets, got %d", len(result.Assets))
	}
	if len(result.Classifications) != len(result.Assets) {
		t.Fatalf("expected one classification per asset, got %d", len(result.Classifications))
	}

	byName := map[string]DataAsset{}
	for _, a := range result.Assets {
		if a.DataSourceID != src.ID {
			t.Fatalf("asset not linked to scanned source: %+v", a)
		}
		byName[a.Name] = a
	}
	if _, ok := byName["users"]; !ok {
		t.Fatalf("expected users table among %v", byName)
	}
	if byName["transactions"].Category != CategoryFinancial {
		t.Fatalf("unexpected category: %+v", byName["transactions"])
	}

	clsByAsset := map[string]DataClassification{}
	for _, c := range result.Classifications {
		clsByAsset[c.DataAssetID] = c
	}
	userCls := clsByAsset[byName["users"].ID]
	if userCls.ClassificationType != ClassPII {
		t.Fatalf("expected pii classification for users, got %s", userCls.ClassificationType)
	}
	if userCls.ConfidenceScore == nil || *userCls.ConfidenceScore != 0.9 {
		t.Fatalf("unexpected confidence: %+v", userCls.ConfidenceScore)
	}
	if userCls.DetectedFields["email"] != "high" {
		t.Fatalf("expected detected email field, got %v", userCls.DetectedFields)
	}

	updated, err := svc.GetSource(ctx, src.ID, "org-1")
	if err != nil {
		t.Fatalf("GetSource: %v", err)
	}
	if updated.LastScannedAt == nil {
		t.Fatal("expected last_scanned_at to be stamped")
	}

	trail, err := svc.AuditTrail(ctx, "org-1", 50)
	if err != nil {
		t.Fatalf("AuditTrail: %v", err)
	}
	var scanEntries int
	for _, entry := range trail {
		if entry.Action == ActionScan {
			scanEntries++
		}
	}
	if scanEntries != 1 {
		t.Fatalf("expected exactly one SCAN entry, got %d", scanEntries)
	}
}

func TestScanFileSystemSource(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{Name: "Shared Drive", Type: SourceFileSystem})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	result, err := svc.ScanSource(ctx, src.ID, "org-1", testActor)
	if err != nil {
		t.Fatalf("ScanSource: %v", err)
	}
	names := map[string]bool{}
	for _, a := range result.Assets {
		names[a.Name] = true
		if a.Type != AssetFile {
			t.Fatalf("expected file assets, got %s", a.Type)
		}
	}
	for _, want := range []string{"customer_data.csv", "financial_records.xlsx", "employee_info.json"} {
		if !names[want] {
			t.Fatalf("missing discovered file %s in %v", want, names)
		}
	}
}

func TestScanFallbackForOtherTypes(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	src, err := svc.CreateSource(ctx, "org-1", testActor, CreateSourceInput{Name: "Legacy API", Type: SourceAPI})
	if err != nil {
		t.Fatalf("CreateSource: %v", err)
	}
	result, err := svc.ScanSource(ctx, src.ID, "org-1", testActor)
	if err != nil {
		t.Fatalf("ScanSource: %v", err)
	}
	if len(result.Assets) != 1 || result.Assets[0].Name != "sample_data" {
		t.Fatalf("expected fallback sample asset, got %+v", result.Assets)
	}
	if result.Classifications[0].ClassificationType != ClassOther {
		t.Fatalf("expected other classification, got %s", result.Classifications[0].ClassificationType)
	}
}

func TestScanUnknownSource(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.ScanSource(context.Background(), "missing", "org-1", testActor); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
