package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"datenwacht.org/internal/inventory"
	"datenwacht.org/internal/policy"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(db), mock
}

var sourceCols = []string{"id", "organization_id", "name", "type", "connection_details", "status", "last_scanned_at", "created_at", "updated_at"}

func TestSourceGetMapsMissingRowToNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select (.+) from data_sources where id=").
		WithArgs("src-404", "org-1").
		WillReturnRows(sqlmock.NewRows(sourceCols))

	_, err := store.Sources(context.Background()).Get(context.Background(), "src-404", "org-1")
	if !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSourceGetDecodesJSONB(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery("select (.+) from data_sources where id=").
		WithArgs("src-1", "org-1").
		WillReturnRows(sqlmock.NewRows(sourceCols).
			AddRow("src-1", "org-1", "CRM", "database", []byte(`{"host":"db.internal"}`), "active", nil, now, now))

	src, err := store.Sources(context.Background()).Get(context.Background(), "src-1", "org-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if src.ConnectionDetails["host"] != "db.internal" {
		t.Fatalf("connection details not decoded: %+v", src.ConnectionDetails)
	}
	if src.LastScannedAt != nil {
		t.Fatalf("expected nil last_scanned_at, got %v", src.LastScannedAt)
	}
	if src.Type != inventory.SourceDatabase || src.Status != inventory.StatusActive {
		t.Fatalf("enum columns not mapped: %+v", src)
	}
}

func TestSourceUpdateMissingRow(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("update data_sources").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.Sources(context.Background()).Update(context.Background(), inventory.DataSource{
		ID:             "src-404",
		OrganizationID: "org-1",
		Name:           "CRM",
		Type:           inventory.SourceDatabase,
		Status:         inventory.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSourceDeleteScopesToOrganization(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("delete from data_sources where id=(.+) and organization_id=").
		WithArgs("src-1", "org-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.Sources(context.Background()).Delete(context.Background(), "src-1", "org-2")
	if !errors.Is(err, inventory.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other org, got %v", err)
	}
}

func TestAuditAppendAndList(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into audit_logs").
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry := inventory.AuditLog{
		ID:             "audit-1",
		Action:         inventory.ActionCreate,
		EntityType:     inventory.EntitySource,
		EntityID:       "src-1",
		UserID:         "user-1",
		OrganizationID: "org-1",
		Details:        map[string]any{"name": "CRM"},
		CreatedAt:      now,
	}
	if err := store.Audit(context.Background()).Append(context.Background(), entry); err != nil {
		t.Fatalf("Append: %v", err)
	}

	mock.ExpectQuery("select (.+) from audit_logs").
		WithArgs("org-1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "action", "entity_type", "entity_id", "user_id", "organization_id", "details", "ip_address", "user_agent", "created_at"}).
			AddRow("audit-1", "CREATE", "DataSource", "src-1", "user-1", "org-1", []byte(`{"name":"CRM"}`), "", "", now))

	entries, err := store.Audit(context.Background()).List(context.Background(), "org-1", 50)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != inventory.ActionCreate {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Details["name"] != "CRM" {
		t.Fatalf("details not decoded: %+v", entries[0].Details)
	}
}

func TestIsMember(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select 1 from organization_members").
		WithArgs("org-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	ok, err := store.IsMember(context.Background(), "user-1", "org-1")
	if err != nil || !ok {
		t.Fatalf("expected member, got ok=%v err=%v", ok, err)
	}

	mock.ExpectQuery("select 1 from organization_members").
		WithArgs("org-1", "user-2").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	ok, err = store.IsMember(context.Background(), "user-2", "org-1")
	if err != nil || ok {
		t.Fatalf("expected non-member, got ok=%v err=%v", ok, err)
	}
}

func TestCheckAssetReference(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("select 1 from data_assets").
		WithArgs("asset-404", "org-1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	err := store.CheckAsset(context.Background(), "org-1", "asset-404")
	var verr *inventory.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPolicyCreateAndList(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectExec("insert into policies").
		WillReturnResult(sqlmock.NewResult(1, 1))

	p := policy.Policy{
		ID:             "pol-1",
		OrganizationID: "org-1",
		Title:          "Datenschutzerklärung - Acme GmbH",
		Content:        "# Datenschutzerklärung",
		Version:        "1.0",
		EffectiveDate:  now,
		CreatedAt:      now,
	}
	if _, err := store.CreatePolicy(context.Background(), p); err != nil {
		t.Fatalf("CreatePolicy: %v", err)
	}

	mock.ExpectQuery("select (.+) from policies").
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "title", "content", "version", "effective_date", "created_at"}).
			AddRow("pol-1", "org-1", p.Title, p.Content, "1.0", now, now))

	policies, err := store.ListPolicies(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("ListPolicies: %v", err)
	}
	if len(policies) != 1 || policies[0].Title != p.Title {
		t.Fatalf("unexpected policies: %+v", policies)
	}
}
