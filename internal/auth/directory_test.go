package auth

import (
	"context"
	"errors"
	"testing"
)

func TestDirectoryMembership(t *testing.T) {
	dir := NewInMemoryDirectory()
	ctx := context.Background()

	org, err := dir.CreateOrganization(ctx, "Acme GmbH", map[string]any{"country": "DE"})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	if org.ID == "" {
		t.Fatal("expected generated organization id")
	}

	if _, err := dir.CreateOrganization(ctx, "  ", nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	if _, err := dir.AddMember(ctx, org.ID, "user-1", "Owner"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if _, err := dir.AddMember(ctx, org.ID, "user-1", "owner"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate member, got %v", err)
	}
	if _, err := dir.AddMember(ctx, "missing-org", "user-1", "owner"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing org, got %v", err)
	}

	member, err := dir.IsMember(ctx, "user-1", org.ID)
	if err != nil || !member {
		t.Fatalf("expected membership, got member=%v err=%v", member, err)
	}
	member, err = dir.IsMember(ctx, "user-2", org.ID)
	if err != nil || member {
		t.Fatalf("expected no membership for user-2, got member=%v err=%v", member, err)
	}
}

func TestDirectoryProcessingActivities(t *testing.T) {
	dir := NewInMemoryDirectory()
	ctx := context.Background()

	org, err := dir.CreateOrganization(ctx, "Acme GmbH", nil)
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	if _, err := dir.AddProcessingActivity(ctx, org.ID, "Newsletter", "Marketing", "Art. 6 Abs. 1 lit. a DSGVO"); err != nil {
		t.Fatalf("AddProcessingActivity: %v", err)
	}
	if _, err := dir.AddProcessingActivity(ctx, org.ID, "Payroll", "HR", "Art. 6 Abs. 1 lit. b DSGVO"); err != nil {
		t.Fatalf("AddProcessingActivity: %v", err)
	}
	if _, err := dir.AddProcessingActivity(ctx, org.ID, "", "x", "y"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}

	activities, err := dir.ListProcessingActivities(ctx, org.ID)
	if err != nil {
		t.Fatalf("ListProcessingActivities: %v", err)
	}
	if len(activities) != 2 {
		t.Fatalf("expected 2 activities, got %d", len(activities))
	}
}
